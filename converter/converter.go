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

// Package converter runs the decode, validate and encode stages for one
// QRDA-III document and records the outcome in a Report.
package converter

import (
	"fmt"
	"sync"
	"time"

	"github.com/samply/qrdactl/data"
	"github.com/samply/qrdactl/decode"
	"github.com/samply/qrdactl/encode"
	"github.com/samply/qrdactl/model"
	"github.com/samply/qrdactl/validate"
	"go.uber.org/zap"
)

// ImplementationGuide is the guide documents are checked against.
const ImplementationGuide = "2017 CMS QRDA III Eligible Clinicians and EP"

const (
	validationFailedMessage = "Validation errors occurred"
	internalFailureMessage  = "Conversion failed unexpectedly"
)

var (
	defaultDecodeRegistry   = sync.OnceValue(decode.NewRegistry)
	defaultValidateRegistry = sync.OnceValue(validate.NewRegistry)
	defaultEncodeRegistry   = sync.OnceValue(encode.NewRegistry)
)

// Sink receives finished reports, for example to store the output or the
// error document of each conversion.
type Sink interface {
	Accept(report *Report) error
}

type Converter struct {
	source           Source
	configs          *data.MeasureConfigs
	log              *zap.Logger
	decodeRegistry   *decode.Registry
	validateRegistry *validate.Registry
	encodeRegistry   *encode.Registry
	pretty           bool
	report           *Report
}

type Option func(*Converter)

// WithMeasureConfigs sets the measure configuration. Without it quality
// measures are neither checked nor mapped to QPP measure ids.
func WithMeasureConfigs(configs *data.MeasureConfigs) Option {
	return func(c *Converter) {
		c.configs = configs
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Converter) {
		c.log = log
	}
}

func WithDecodeRegistry(reg *decode.Registry) Option {
	return func(c *Converter) {
		c.decodeRegistry = reg
	}
}

func WithValidateRegistry(reg *validate.Registry) Option {
	return func(c *Converter) {
		c.validateRegistry = reg
	}
}

func WithEncodeRegistry(reg *encode.Registry) Option {
	return func(c *Converter) {
		c.encodeRegistry = reg
	}
}

// WithPrettyPrint makes Transform indent its output.
func WithPrettyPrint(pretty bool) Option {
	return func(c *Converter) {
		c.pretty = pretty
	}
}

// New creates a Converter for src. A Converter runs one conversion.
func New(src Source, opts ...Option) *Converter {
	c := &Converter{source: src, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.decodeRegistry == nil {
		c.decodeRegistry = defaultDecodeRegistry()
	}
	if c.validateRegistry == nil {
		c.validateRegistry = defaultValidateRegistry()
	}
	if c.encodeRegistry == nil {
		c.encodeRegistry = defaultEncodeRegistry()
	}
	c.report = newReport(src.Name())
	return c
}

// Report returns the report of the conversion.
func (c *Converter) Report() *Report {
	return c.report
}

// Transform converts the source to QPP JSON. If the document is invalid or
// can't be converted, the error is a *TransformError carrying the report. A
// panic in any stage ends the conversion with INTERNAL_FAILURE.
func (c *Converter) Transform() (b []byte, err error) {
	start := time.Now()
	log := c.log.With(zap.String("filename", c.report.Filename), zap.Stringer("id", c.report.ID))
	defer func() {
		if r := recover(); r != nil {
			log.Error("Unexpected failure during conversion", zap.Any("panic", r), zap.Stack("stack"))
			c.report.encoded, c.report.output = nil, nil
			b, err = nil, c.fail(InternalFailure, model.InternalErrorType, internalFailureMessage,
				model.NewDetail(model.UnexpectedError.Problem(), "").WithValue(fmt.Sprint(r)))
		}
		c.report.Duration = time.Since(start)
	}()
	log.Info("Starting conversion")

	root, err := c.decode()
	if err != nil {
		log.Error("Error while decoding", zap.Error(err))
		return nil, c.fail(InternalFailure, model.InternalErrorType, internalFailureMessage,
			model.NewDetail(model.NotValidXmlDocument.Problem(), "").WithValue(err.Error()))
	}
	c.report.decoded = root
	c.report.Status = Decoded

	if root.Type() != model.ClinicalDocument {
		log.Info("Document is not a QRDA-III document", zap.String("root", root.Type().String()))
		return nil, c.fail(ValidationFailed, model.ValidationErrorType, validationFailedMessage,
			model.NewDetail(model.NotValidQrdaDocument.Format(ImplementationGuide), root.Path()))
	}

	validator := validate.New(c.validateRegistry, validate.WithMeasureConfigs(c.configs), validate.WithLogger(log))
	if details := validator.Validate(root); len(details) > 0 {
		log.Info("Validation failed", zap.Int("details", len(details)))
		return nil, c.fail(ValidationFailed, model.ValidationErrorType, validationFailedMessage, details...)
	}
	c.report.Status = Validated

	encoder := encode.New(c.encodeRegistry, encode.WithMeasureConfigs(c.configs), encode.WithLogger(log))
	out, err := encoder.Encode(root)
	if err == nil {
		b, err = c.marshal(out)
	}
	if err != nil {
		log.Error("Error while encoding", zap.Error(err))
		return nil, c.fail(InternalFailure, model.InternalErrorType, internalFailureMessage,
			model.NewDetail(model.UnexpectedEncodeError.Format(err.Error()), root.Path()))
	}
	c.report.encoded = out
	c.report.output = b
	c.report.Status = Encoded

	log.Info("Finished conversion", zap.Int("bytes", len(b)))
	return b, nil
}

func (c *Converter) decode() (*model.Node, error) {
	r, err := c.source.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return decode.New(c.decodeRegistry, decode.WithLogger(c.log)).Decode(r)
}

func (c *Converter) marshal(out *encode.Object) ([]byte, error) {
	b, err := out.MarshalJSON()
	if err != nil || !c.pretty {
		return b, err
	}
	return indent(b)
}

func (c *Converter) fail(status Status, typ, message string, details ...model.Detail) error {
	c.report.Status = status
	c.report.details = model.NewAllErrors(c.report.Filename, typ, message, details)
	if c.report.decoded != nil {
		c.report.details.Errors[0].Path = c.report.decoded.Path()
	}
	return &TransformError{Report: c.report}
}
