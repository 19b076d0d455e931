// Copyright 2019 - 2025 The Samply Community
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"io"

	"github.com/goccy/go-json"
)

// Error types.
const (
	ValidationErrorType = "ValidationError"
	InternalErrorType   = "InternalError"
)

// Detail is one structured problem found while converting a document.
type Detail struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	Value     string `json:"value,omitempty"`
}

// NewDetail creates a Detail for the given problem located at path.
func NewDetail(problem LocalizedProblem, path string) Detail {
	return Detail{
		ErrorCode: problem.Code,
		Message:   problem.Message,
		Path:      path,
	}
}

// WithValue returns a copy of d carrying the offending value.
func (d Detail) WithValue(v string) Detail {
	d.Value = v
	return d
}

// Is reports whether d was produced from the given problem.
func (d Detail) Is(problem LocalizedProblem) bool {
	return d.ErrorCode == problem.Code && d.Message == problem.Message
}

// Error groups the Details of one conversion attempt under the originating
// source. Path is the path of the document root, empty if the document
// couldn't be decoded.
type Error struct {
	SourceIdentifier string   `json:"sourceIdentifier"`
	Type             string   `json:"type"`
	Message          string   `json:"message"`
	Path             string   `json:"path,omitempty"`
	Details          []Detail `json:"details"`
}

// AllErrors is the complete error document of one conversion attempt. It is
// non-empty exactly when the conversion failed.
type AllErrors struct {
	Errors []Error `json:"errors"`
}

// NewAllErrors wraps details into a single Error. It returns an empty
// AllErrors if there are no details.
func NewAllErrors(source, typ, message string, details []Detail) AllErrors {
	if len(details) == 0 {
		return AllErrors{}
	}
	return AllErrors{Errors: []Error{{
		SourceIdentifier: source,
		Type:             typ,
		Message:          message,
		Details:          details,
	}}}
}

// Empty reports whether no error was recorded.
func (a AllErrors) Empty() bool {
	return len(a.Errors) == 0
}

// Details returns the details of all errors in order.
func (a AllErrors) Details() []Detail {
	var details []Detail
	for _, e := range a.Errors {
		details = append(details, e.Details...)
	}
	return details
}

// Contains reports whether any detail was produced from problem.
func (a AllErrors) Contains(problem LocalizedProblem) bool {
	for _, d := range a.Details() {
		if d.Is(problem) {
			return true
		}
	}
	return false
}

// ReadAllErrors reads an AllErrors JSON document.
func ReadAllErrors(r io.Reader) (AllErrors, error) {
	var allErrors AllErrors
	body, err := io.ReadAll(r)
	if err != nil {
		return allErrors, err
	}
	if err := json.Unmarshal(body, &allErrors); err != nil {
		return allErrors, err
	}
	return allErrors, nil
}
