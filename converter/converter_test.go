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
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/samply/qrdactl/data"
	"github.com/samply/qrdactl/decode"
	"github.com/samply/qrdactl/encode"
	"github.com/samply/qrdactl/model"
	"github.com/samply/qrdactl/registry"
	"github.com/samply/qrdactl/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testdata = "../testdata/"

func transform(t *testing.T, name string, opts ...Option) ([]byte, *Converter, error) {
	t.Helper()
	opts = append([]Option{WithMeasureConfigs(data.DefaultMeasureConfigs())}, opts...)
	c := New(PathSource(testdata+name), opts...)
	b, err := c.Transform()
	return b, c, err
}

func transformError(t *testing.T, err error) *Report {
	t.Helper()
	var transformErr *TransformError
	require.ErrorAs(t, err, &transformErr)
	return transformErr.Report
}

func TestTransform_Valid(t *testing.T) {
	b, c, err := transform(t, "valid-qrda-iii.xml")
	require.NoError(t, err)

	report := c.Report()
	assert.Equal(t, Encoded, report.Status)
	assert.Equal(t, "valid-qrda-iii.xml", report.Filename)
	assert.NotNil(t, report.Decoded())
	assert.NotNil(t, report.Encoded())
	assert.Equal(t, b, report.Output())
	assert.True(t, report.Details().Empty())
	assert.Equal(t, "mips", gjson.GetBytes(b, "programName").String())
	assert.Equal(t, int64(3), gjson.GetBytes(b, "measurementSets.#").Int())
}

func TestTransform_InvalidPerformanceRateUUID(t *testing.T) {
	b, _, err := transform(t, "invalid-performance-rate-uuid.xml")

	assert.Nil(t, b)
	report := transformError(t, err)
	assert.Equal(t, ValidationFailed, report.Status)
	assert.Nil(t, report.Encoded())
	assert.Nil(t, report.Output())

	allErrors := report.Details()
	require.Len(t, allErrors.Errors, 1)
	assert.Equal(t, "invalid-performance-rate-uuid.xml", allErrors.Errors[0].SourceIdentifier)
	assert.Equal(t, "/CLINICAL_DOCUMENT", allErrors.Errors[0].Path)
	assert.Equal(t, model.ValidationErrorType, allErrors.Errors[0].Type)
	assert.True(t, allErrors.Contains(model.QualityMeasureIDIncorrectUUID.Format("CMS68v6",
		"performanceRateUuid", "00000000-0000-0000-0000-1NV4L1D")))
	assert.True(t, allErrors.Contains(model.QualityMeasureIDMissingSinglePerformanceRate.Problem()))
}

func TestTransform_JunkInQualityMeasure(t *testing.T) {
	b, _, err := transform(t, "junk-in-quality-measure.xml")
	require.NoError(t, err)

	assert.Equal(t, "236", gjson.GetBytes(b, "measurementSets.0.measurements.0.measureId").String())
	assert.Equal(t, "group", gjson.GetBytes(b, "entityType").String())
}

func TestTransform_InsensitiveUUIDs(t *testing.T) {
	b, _, err := transform(t, "insensitive-quality-measure-uuids.xml")
	require.NoError(t, err)

	assert.Equal(t, "160", gjson.GetBytes(b, "measurementSets.0.measurements.0.measureId").String())
}

func TestTransform_NotQrda(t *testing.T) {
	_, _, err := transform(t, "not-qrda.xml")

	report := transformError(t, err)
	assert.Equal(t, ValidationFailed, report.Status)
	assert.True(t, report.Details().Contains(model.NotValidQrdaDocument.Format(ImplementationGuide)))
}

func TestTransform_Malformed(t *testing.T) {
	_, _, err := transform(t, "malformed.xml")

	report := transformError(t, err)
	assert.Equal(t, InternalFailure, report.Status)
	assert.Nil(t, report.Decoded())
	require.Len(t, report.Details().Errors, 1)
	assert.Equal(t, model.InternalErrorType, report.Details().Errors[0].Type)
	assert.Empty(t, report.Details().Errors[0].Path)
	assert.True(t, report.Details().Contains(model.NotValidXmlDocument.Problem()))
}

func TestTransform_MissingFile(t *testing.T) {
	_, _, err := transform(t, "does-not-exist.xml")

	report := transformError(t, err)
	assert.Equal(t, InternalFailure, report.Status)
}

func TestTransform_EncodeFailure(t *testing.T) {
	standard := encode.NewRegistry()
	builder := registry.NewBuilder[model.TemplateID, encode.Encoder]()
	for _, tid := range standard.Keys() {
		if tid != model.MeasurePerformed {
			encoder, _ := standard.Lookup(tid)
			builder.MustRegister(tid, encoder)
		}
	}
	reg := builder.
		MustRegister(model.MeasurePerformed, encode.EncoderFunc(func(_ *encode.Context, _ *encode.Object, _ *model.Node) error {
			return errors.New("boom")
		})).
		Build()
	core, logs := observer.New(zap.ErrorLevel)

	_, c, err := transform(t, "valid-qrda-iii.xml", WithEncodeRegistry(reg), WithLogger(zap.New(core)))

	report := transformError(t, err)
	assert.Same(t, c.Report(), report)
	assert.Equal(t, InternalFailure, report.Status)
	assert.Nil(t, report.Encoded())
	require.Len(t, report.Details().Details(), 1)
	detail := report.Details().Details()[0]
	assert.Equal(t, model.UnexpectedEncodeError.Code, detail.ErrorCode)
	assert.Contains(t, detail.Message, "boom")
	assert.Equal(t, 1, logs.FilterMessage("Error while encoding").Len())
}

func TestTransform_Panics(t *testing.T) {
	failingDecoders := func() *decode.Registry {
		standard := decode.NewRegistry()
		builder := registry.NewBuilder[string, decode.Decoder]()
		for _, root := range standard.Keys() {
			if root != model.ClinicalDocument.Root() {
				decoder, _ := standard.Lookup(root)
				builder.MustRegister(root, decoder)
			}
		}
		return builder.
			MustRegister(model.ClinicalDocument.Root(), decode.DecoderFunc(func(_ *decode.Context, _ *etree.Element, _ *model.Node) decode.Result {
				var counts map[string]int
				counts["programName"]++
				return decode.TreeContinue
			})).
			Build()
	}
	failingValidators := registry.NewBuilder[model.TemplateID, validate.Validator]().
		MustRegister(model.ClinicalDocument, validate.SingleFunc(func(_ *validate.Context, _ *model.Node) {
			panic("validator failed")
		})).
		Build()

	tests := []struct {
		name   string
		option Option
		value  string
	}{
		{"decoder", WithDecodeRegistry(failingDecoders()), "assignment to entry in nil map"},
		{"validator", WithValidateRegistry(failingValidators), "validator failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.ErrorLevel)

			b, c, err := transform(t, "valid-qrda-iii.xml", tt.option, WithLogger(zap.New(core)))

			assert.Nil(t, b)
			report := transformError(t, err)
			assert.Same(t, c.Report(), report)
			assert.Equal(t, InternalFailure, report.Status)
			assert.Nil(t, report.Output())
			require.Len(t, report.Details().Errors, 1)
			assert.Equal(t, "valid-qrda-iii.xml", report.Details().Errors[0].SourceIdentifier)
			require.Len(t, report.Details().Details(), 1)
			detail := report.Details().Details()[0]
			assert.True(t, detail.Is(model.UnexpectedError.Problem()))
			assert.Contains(t, detail.Value, tt.value)
			assert.Equal(t, 1, logs.FilterMessage("Unexpected failure during conversion").Len())
		})
	}
}

func TestTransform_Determinism(t *testing.T) {
	first, _, err := transform(t, "valid-qrda-iii.xml")
	require.NoError(t, err)
	second, _, err := transform(t, "valid-qrda-iii.xml")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTransform_PrettyPrint(t *testing.T) {
	b, _, err := transform(t, "valid-qrda-iii.xml", WithPrettyPrint(true))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(b), "{\n  \"programName\": \"mips\",\n"))
}

func TestTransform_Sources(t *testing.T) {
	for _, src := range []Source{
		BytesSource("bytes.xml", []byte(`<a/>`)),
		ReaderSource("reader.xml", strings.NewReader(`<a/>`)),
	} {
		t.Run(src.Name(), func(t *testing.T) {
			_, err := New(src).Transform()

			report := transformError(t, err)
			assert.Equal(t, src.Name(), report.Details().Errors[0].SourceIdentifier)
		})
	}
}

func TestReport_Streams(t *testing.T) {
	_, c, err := transform(t, "not-qrda.xml")
	require.Error(t, err)
	report := c.Report()

	t.Run("details", func(t *testing.T) {
		r, err := report.StreamDetails()
		require.NoError(t, err)

		allErrors, err := model.ReadAllErrors(r)
		require.NoError(t, err)
		assert.Equal(t, report.Details(), allErrors)
	})

	t.Run("raw validation details", func(t *testing.T) {
		b, err := io.ReadAll(report.StreamRawValidationDetails())
		require.NoError(t, err)
		assert.Empty(t, b)

		report.SetRawValidationDetails([]byte(`{"error":"rejected"}`))
		b, err = io.ReadAll(report.StreamRawValidationDetails())
		require.NoError(t, err)
		assert.Equal(t, `{"error":"rejected"}`, string(b))
	})

	t.Run("error message", func(t *testing.T) {
		assert.EqualError(t, err, "conversion of not-qrda.xml ended with VALIDATION_FAILED and 1 detail(s)")
	})
}
