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
	"strings"

	"github.com/google/uuid"
)

// SubPopulationLabel is the category of a quality measure count as it
// appears in the measure data value code.
type SubPopulationLabel string

const (
	IPOP     SubPopulationLabel = "IPOP"
	DENOM    SubPopulationLabel = "DENOM"
	DENEX    SubPopulationLabel = "DENEX"
	NUMER    SubPopulationLabel = "NUMER"
	DENEXCEP SubPopulationLabel = "DENEXCEP"
)

type labelInfo struct {
	description string
	field       string
	rank        int
}

var labels = map[SubPopulationLabel]labelInfo{
	IPOP:     {"initial population", "", -1},
	DENOM:    {"denominator", "eligiblePopulation", 0},
	NUMER:    {"numerator", "performanceMet", 1},
	DENEXCEP: {"denominator exception", "eligiblePopulationException", 2},
	DENEX:    {"denominator exclusion", "eligiblePopulationExclusion", 3},
}

// SubPopulationLabels returns all labels in declaration order.
func SubPopulationLabels() []SubPopulationLabel {
	return []SubPopulationLabel{IPOP, DENOM, DENEX, NUMER, DENEXCEP}
}

// ParseSubPopulationLabel resolves a measure data value code. Matching
// ignores case and surrounding space.
func ParseSubPopulationLabel(s string) (SubPopulationLabel, bool) {
	l := SubPopulationLabel(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := labels[l]
	return l, ok
}

// Description returns the human label, e.g. "denominator exclusion".
func (l SubPopulationLabel) Description() string {
	return labels[l].description
}

// Field returns the QPP JSON field the label encodes to. IPOP is not
// encoded and returns the empty string.
func (l SubPopulationLabel) Field() string {
	return labels[l].field
}

// Rank is the position of the label in encoded output. Labels that are not
// encoded have a negative rank.
func (l SubPopulationLabel) Rank() int {
	if info, ok := labels[l]; ok {
		return info.rank
	}
	return -1
}

// SameUUID compares two UUIDs ignoring case. Values that parse as UUIDs are
// compared in canonical form, everything else falls back to a plain
// case-insensitive comparison.
func SameUUID(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	ua, errA := uuid.Parse(a)
	ub, errB := uuid.Parse(b)
	if errA == nil && errB == nil {
		return ua == ub
	}
	return strings.EqualFold(a, b)
}
