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
	"sort"
	"strings"
	"time"

	"github.com/samply/qrdactl/model"
)

// ConversionStats collects the outcome of converting a set of documents.
type ConversionStats struct {
	TotalFiles                  int
	Concurrency                 int
	Statuses                    map[string]int
	ConversionDurations         []float64
	SubmissionDurations         []float64
	TotalBytesIn, TotalBytesOut int64
	TotalDuration               time.Duration
	ConversionErrors            []model.AllErrors
	ErrorResponses              map[string]*ErrorResponse
	Errors                      map[string]error
}

// Failed returns the number of files that were not converted.
func (cs *ConversionStats) Failed() int {
	return len(cs.ConversionErrors) + len(cs.Errors)
}

func (cs *ConversionStats) String() string {

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Files		[total, concurrency]	%d, %d\n", cs.TotalFiles, cs.Concurrency))

	if cs.TotalFiles > 0 {
		builder.WriteString(fmt.Sprintf("Success		[ratio]			%.2f %%\n",
			float32(cs.TotalFiles-cs.Failed())/float32(cs.TotalFiles)*100))
	}

	if len(cs.Statuses) > 0 {
		statuses := make([]string, 0, len(cs.Statuses))
		for status, count := range cs.Statuses {
			statuses = append(statuses, fmt.Sprintf("%s:%d", status, count))
		}
		sort.Strings(statuses)
		builder.WriteString(fmt.Sprintf("Statuses	[status:count]		%s\n", strings.Join(statuses, ", ")))
	}

	builder.WriteString(fmt.Sprintf("Duration	[total]			%s\n", FmtDurationHumanReadable(cs.TotalDuration)))

	if len(cs.ConversionDurations) > 0 {
		p := CalculateDurationStatistics(cs.ConversionDurations)
		builder.WriteString(fmt.Sprintf("Conv. Latencies	[mean, 50, 95, 99, max]	%s, %s, %s, %s, %s\n", p.Mean, p.Q50, p.Q95, p.Q99, p.Max))
	}

	if len(cs.SubmissionDurations) > 0 {
		p := CalculateDurationStatistics(cs.SubmissionDurations)
		builder.WriteString(fmt.Sprintf("Subm. Latencies	[mean, 50, 95, 99, max]	%s, %s, %s, %s, %s\n", p.Mean, p.Q50, p.Q95, p.Q99, p.Max))
	}

	builder.WriteString(fmt.Sprintf("Bytes In	[total, mean]		%s, %s\n", FmtBytesHumanReadable(float32(cs.TotalBytesIn)), fmtMeanBytes(cs.TotalBytesIn, cs.TotalFiles)))
	builder.WriteString(fmt.Sprintf("Bytes Out	[total, mean]		%s, %s\n", FmtBytesHumanReadable(float32(cs.TotalBytesOut)), fmtMeanBytes(cs.TotalBytesOut, cs.TotalFiles-cs.Failed())))

	if len(cs.ConversionErrors) > 0 {
		builder.WriteString("\nConversion Errors:\n")
		for _, allErrors := range cs.ConversionErrors {
			builder.WriteString(Indent(2, FmtAllErrors(allErrors)))
			builder.WriteString("\n")
		}
	}

	if len(cs.ErrorResponses) > 0 {
		builder.WriteString("\nRejected Submissions:\n")
		for _, filename := range sortedKeys(cs.ErrorResponses) {
			builder.WriteString(fmt.Sprintf("  %s\n", filename))
			builder.WriteString(Indent(4, cs.ErrorResponses[filename].String()))
			builder.WriteString("\n")
		}
	}

	if len(cs.Errors) > 0 {
		builder.WriteString("\nErrors:\n")
		for _, filename := range sortedKeys(cs.Errors) {
			builder.WriteString(fmt.Sprintf("  %s : %s\n", filename, cs.Errors[filename]))
		}
	}

	return builder.String()
}

func fmtMeanBytes(total int64, count int) string {
	if count <= 0 {
		return FmtBytesHumanReadable(0)
	}
	return FmtBytesHumanReadable(float32(total) / float32(count))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
