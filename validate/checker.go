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

package validate

import (
	"strconv"
	"strings"

	"github.com/samply/qrdactl/model"
	"github.com/shopspring/decimal"
)

// Checker runs a chain of checks against one node and collects a Detail for
// every failed check. A Checker created by Check stops after the first
// failure, one created by Thoroughly runs every check.
//
// Value checks other than Value itself ignore absent values, so a missing
// value is reported once and not again as malformed.
type Checker struct {
	node     *model.Node
	thorough bool
	failed   bool
	details  []model.Detail
}

// Check returns a Checker that skips all checks after the first failure.
func Check(node *model.Node) *Checker {
	return &Checker{node: node}
}

// Thoroughly returns a Checker that runs all checks.
func Thoroughly(node *model.Node) *Checker {
	return &Checker{node: node, thorough: true}
}

// ShouldShortcut reports whether a check has failed so far.
func (c *Checker) ShouldShortcut() bool {
	return c.failed
}

// Details returns the collected details in check order.
func (c *Checker) Details() []model.Detail {
	return c.details
}

func (c *Checker) skip() bool {
	return c.failed && !c.thorough
}

func (c *Checker) fail(problem model.LocalizedProblem, value string) {
	c.failed = true
	c.details = append(c.details, model.NewDetail(problem, c.node.Path()).WithValue(value))
}

// Value requires key to be set to a non-blank value.
func (c *Checker) Value(problem model.LocalizedProblem, key string) *Checker {
	if c.skip() {
		return c
	}
	if !c.node.HasValue(key) {
		c.fail(problem, "")
	}
	return c
}

// IntValue requires the value of key to be a non-negative integer.
func (c *Checker) IntValue(problem model.LocalizedProblem, key string) *Checker {
	if c.skip() || !c.node.HasValue(key) {
		return c
	}
	v := strings.TrimSpace(c.node.Value(key))
	if i, err := strconv.Atoi(v); err != nil || i < 0 {
		c.fail(problem, v)
	}
	return c
}

// InDecimalRange requires the value of key to be a decimal in [lo, hi].
func (c *Checker) InDecimalRange(problem model.LocalizedProblem, key string, lo, hi decimal.Decimal) *Checker {
	if c.skip() || !c.node.HasValue(key) {
		return c
	}
	v := strings.TrimSpace(c.node.Value(key))
	d, err := decimal.NewFromString(v)
	if err != nil || d.LessThan(lo) || d.GreaterThan(hi) {
		c.fail(problem, v)
	}
	return c
}

// ValueIn requires the value of key to be one of allowed, ignoring case.
func (c *Checker) ValueIn(problem model.LocalizedProblem, key string, allowed ...string) *Checker {
	if c.skip() || !c.node.HasValue(key) {
		return c
	}
	v := strings.TrimSpace(c.node.Value(key))
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return c
		}
	}
	c.fail(problem, v)
	return c
}

// ChildMinimum requires at least n children of the given templates.
func (c *Checker) ChildMinimum(problem model.LocalizedProblem, n int, types ...model.TemplateID) *Checker {
	if c.skip() {
		return c
	}
	if len(c.node.ChildrenOf(types...)) < n {
		c.fail(problem, "")
	}
	return c
}

// ChildMaximum allows at most n children of the given templates.
func (c *Checker) ChildMaximum(problem model.LocalizedProblem, n int, types ...model.TemplateID) *Checker {
	if c.skip() {
		return c
	}
	if len(c.node.ChildrenOf(types...)) > n {
		c.fail(problem, "")
	}
	return c
}

// ChildExact requires exactly count children of the given templates.
func (c *Checker) ChildExact(problem model.LocalizedProblem, count int, types ...model.TemplateID) *Checker {
	if c.skip() {
		return c
	}
	if len(c.node.ChildrenOf(types...)) != count {
		c.fail(problem, "")
	}
	return c
}

// HasChildren requires at least one child of any template.
func (c *Checker) HasChildren(problem model.LocalizedProblem) *Checker {
	if c.skip() {
		return c
	}
	if c.node.ChildCount() == 0 {
		c.fail(problem, "")
	}
	return c
}
