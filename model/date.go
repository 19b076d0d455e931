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
	"fmt"
	"strings"
	"time"
)

const qrdaDateLayout = "20060102"

// ParseDate parses the date part of an HL7 timestamp such as 20170101 or
// 20170101093000+0500. Only the leading yyyyMMdd digits are considered.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(qrdaDateLayout) {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	t, err := time.Parse(qrdaDateLayout, s[:len(qrdaDateLayout)])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
