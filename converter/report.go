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

package converter

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/samply/qrdactl/encode"
	"github.com/samply/qrdactl/model"
)

// Status is the stage a conversion reached.
type Status string

const (
	Started          Status = "STARTED"
	Decoded          Status = "DECODED"
	Validated        Status = "VALIDATED"
	Encoded          Status = "ENCODED"
	ValidationFailed Status = "VALIDATION_FAILED"
	InternalFailure  Status = "INTERNAL_FAILURE"
)

// Failed reports whether the conversion ended in a failure.
func (s Status) Failed() bool {
	return s == ValidationFailed || s == InternalFailure
}

// Report describes one conversion attempt.
type Report struct {
	ID       uuid.UUID
	Filename string
	Status   Status
	Duration time.Duration

	decoded       *model.Node
	encoded       *encode.Object
	output        []byte
	details       model.AllErrors
	rawValidation []byte
}

func newReport(filename string) *Report {
	return &Report{ID: uuid.New(), Filename: filename, Status: Started}
}

// Decoded returns the decoded tree, nil if decoding failed.
func (r *Report) Decoded() *model.Node {
	return r.decoded
}

// Encoded returns the encoded object, nil if the conversion failed.
func (r *Report) Encoded() *encode.Object {
	return r.encoded
}

// Output returns the QPP JSON written by Transform, nil if the conversion
// failed.
func (r *Report) Output() []byte {
	return r.output
}

// Details returns the errors of the conversion. They are empty on success.
func (r *Report) Details() model.AllErrors {
	return r.details
}

func (r *Report) SetDetails(details model.AllErrors) {
	r.details = details
}

// StreamDetails returns the errors as JSON.
func (r *Report) StreamDetails() (io.Reader, error) {
	b, err := json.Marshal(r.details)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// SetRawValidationDetails stores the response of a submission validation
// service rejecting the encoded document.
func (r *Report) SetRawValidationDetails(b []byte) {
	r.rawValidation = b
}

// StreamRawValidationDetails returns the stored submission validation
// response. It is empty if none was stored.
func (r *Report) StreamRawValidationDetails() io.Reader {
	return bytes.NewReader(r.rawValidation)
}

// TransformError is returned by Transform if the conversion failed. It
// carries the report holding the details.
type TransformError struct {
	Report *Report
}

func (e *TransformError) Error() string {
	n := 0
	for _, err := range e.Report.details.Errors {
		n += len(err.Details)
	}
	return fmt.Sprintf("conversion of %s ended with %s and %d detail(s)", e.Report.Filename, e.Report.Status, n)
}

func indent(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
