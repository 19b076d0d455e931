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

package util

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/samply/qrdactl/model"
)

// ErrorResponse represents a submission rejected by the validation service.
type ErrorResponse struct {
	StatusCode int
	Body       string
	OtherError string
}

// String returns the ErrorResponse in a default formatted way.
func (errRes *ErrorResponse) String() string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("StatusCode  : %d\n", errRes.StatusCode))
	if len(errRes.Body) > 0 {
		builder.WriteString(fmt.Sprintf("Body        : %s\n", IndentExceptFirstLine(14, errRes.Body)))
	}
	if len(errRes.OtherError) > 0 {
		builder.WriteString(fmt.Sprintf("Error       : %s\n", IndentExceptFirstLine(14, errRes.OtherError)))
	}
	return builder.String()
}

var allErrorsTemplate, _ = template.New("allErrors").
	Parse(`{{ define "detail" -}}
Code        : {{ .ErrorCode }}
Message     : {{ .Message }}
{{ with .Path -}}
Path        : {{ . }}
{{ end -}}
{{ with .Value -}}
Value       : {{ . }}
{{ end -}}
{{ end -}}

{{ define "error" -}}
Source      : {{ .SourceIdentifier }}
Type        : {{ .Type }}
Message     : {{ .Message }}
{{ with .Path -}}
Path        : {{ . }}
{{ end -}}
{{ range .Details -}}
---
{{ template "detail" . -}}
{{ end -}}
{{ end -}}

{{ range $index, $error := .Errors -}}
{{ if $index }}===
{{ end -}}
{{ template "error" $error -}}
{{ end -}}
`)

// FmtAllErrors renders the error document of a conversion in the same
// aligned layout used for every other report of this tool.
func FmtAllErrors(allErrors model.AllErrors) string {
	builder := strings.Builder{}

	err := allErrorsTemplate.Execute(&builder, allErrors)
	if err != nil {
		return err.Error()
	}

	return builder.String()
}

func Indent(spaces int, v string) string {
	pad := strings.Repeat(" ", spaces)
	return pad + IndentExceptFirstLine(spaces, v)
}

func IndentExceptFirstLine(spaces int, v string) string {
	pad := strings.Repeat(" ", spaces)
	return strings.ReplaceAll(v, "\n", "\n"+pad)
}
