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
	"errors"
	"testing"
	"time"

	"github.com/samply/qrdactl/model"
	"github.com/stretchr/testify/assert"
)

func TestConversionStats_String(t *testing.T) {
	t.Run("Empty ConversionStats", func(t *testing.T) {
		cs := &ConversionStats{}
		result := cs.String()

		assert.Contains(t, result, "Files")
		assert.Contains(t, result, "Duration")
		assert.Contains(t, result, "Bytes In")
		assert.Contains(t, result, "Bytes Out")
		assert.NotContains(t, result, "Success")
		assert.NotContains(t, result, "NaN")
	})

	t.Run("ConversionStats with basic data", func(t *testing.T) {
		cs := &ConversionStats{
			TotalFiles:    4,
			Concurrency:   2,
			Statuses:      map[string]int{"ENCODED": 3, "VALIDATION_FAILED": 1},
			TotalDuration: 5 * time.Second,
			TotalBytesIn:  8192,
			TotalBytesOut: 1536,
			ConversionErrors: []model.AllErrors{
				model.NewAllErrors("b.xml", model.ValidationErrorType, "Validation errors occurred",
					[]model.Detail{{ErrorCode: 4, Message: "msg"}}),
			},
		}
		result := cs.String()

		assert.Contains(t, result, "4, 2")
		assert.Contains(t, result, "75.00 %")
		assert.Contains(t, result, "ENCODED:3, VALIDATION_FAILED:1")
		assert.Contains(t, result, "8.00 KiB, 2.00 KiB")
		assert.Contains(t, result, "1.50 KiB, 512.00 B")
		assert.Contains(t, result, "Conversion Errors:")
		assert.Contains(t, result, "  Source      : b.xml")
	})

	t.Run("ConversionStats with durations", func(t *testing.T) {
		cs := &ConversionStats{
			ConversionDurations: []float64{0.1, 0.2, 0.3},
			SubmissionDurations: []float64{1, 2},
		}
		result := cs.String()

		assert.Contains(t, result, "Conv. Latencies")
		assert.Contains(t, result, "Subm. Latencies")
	})

	t.Run("ConversionStats with rejections and errors", func(t *testing.T) {
		cs := &ConversionStats{
			TotalFiles:     2,
			ErrorResponses: map[string]*ErrorResponse{"a.xml": {StatusCode: 422, Body: "{}"}},
			Errors:         map[string]error{"c.xml": errors.New("permission denied")},
		}
		result := cs.String()

		assert.Contains(t, result, "Rejected Submissions:")
		assert.Contains(t, result, "    StatusCode  : 422")
		assert.Contains(t, result, "  c.xml : permission denied")
		assert.Equal(t, 1, cs.Failed())
	})
}
