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

// Package validate checks a decoded node tree against the QRDA business
// rules. Validators only read the tree. Every problem found is collected,
// a failed check never stops the walk.
package validate

import (
	"github.com/samply/qrdactl/data"
	"github.com/samply/qrdactl/model"
	"github.com/samply/qrdactl/registry"
	"go.uber.org/zap"
)

// A Validator checks nodes of one template.
type Validator interface {
	// ValidateSingle checks one node on its own.
	ValidateSingle(ctx *Context, n *model.Node)
	// ValidateSameTemplateID checks all nodes of the template found in the
	// tree against each other.
	ValidateSameTemplateID(ctx *Context, nodes []*model.Node)
}

// SingleFunc adapts a function to a Validator without cross-node checks.
type SingleFunc func(ctx *Context, n *model.Node)

func (f SingleFunc) ValidateSingle(ctx *Context, n *model.Node) {
	f(ctx, n)
}

func (f SingleFunc) ValidateSameTemplateID(_ *Context, _ []*model.Node) {}

// Registry maps templates to validators.
type Registry = registry.Registry[model.TemplateID, Validator]

// Context carries the lookup tables of one validation run and collects its
// details.
type Context struct {
	configs *data.MeasureConfigs
	log     *zap.Logger
	details []model.Detail
}

// MeasureConfigs returns the measure configuration table. It may be nil, in
// which case no measure specific checks apply.
func (c *Context) MeasureConfigs() *data.MeasureConfigs {
	return c.configs
}

func (c *Context) Logger() *zap.Logger {
	return c.log
}

// Add appends details.
func (c *Context) Add(details ...model.Detail) {
	c.details = append(c.details, details...)
}

// AddProblem appends a detail for problem located at n.
func (c *Context) AddProblem(problem model.LocalizedProblem, n *model.Node, value string) {
	c.details = append(c.details, model.NewDetail(problem, n.Path()).WithValue(value))
}

// Engine runs the registered validators over a tree. It holds no state of a
// run and can be used concurrently.
type Engine struct {
	registry *Registry
	configs  *data.MeasureConfigs
	log      *zap.Logger
}

type Option func(*Engine)

// WithMeasureConfigs sets the measure configuration used for quality measure
// checks.
func WithMeasureConfigs(configs *data.MeasureConfigs) Option {
	return func(e *Engine) {
		e.configs = configs
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New creates an Engine using reg. A nil reg means the standard registry.
func New(reg *Registry, opts ...Option) *Engine {
	if reg == nil {
		reg = NewRegistry()
	}
	e := &Engine{registry: reg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate walks the whole tree in pre-order running single node checks and
// afterwards the cross-node checks of each template in template order. It
// returns all details found, none if the tree is valid.
func (e *Engine) Validate(root *model.Node) []model.Detail {
	ctx := &Context{configs: e.configs, log: e.log}

	byTemplate := make(map[model.TemplateID][]*model.Node)
	root.Walk(func(n *model.Node) {
		v, ok := e.registry.Lookup(n.Type())
		if !ok {
			return
		}
		v.ValidateSingle(ctx, n)
		byTemplate[n.Type()] = append(byTemplate[n.Type()], n)
	})

	for _, tid := range model.TemplateIDs() {
		nodes := byTemplate[tid]
		if len(nodes) == 0 {
			continue
		}
		v, _ := e.registry.Lookup(tid)
		v.ValidateSameTemplateID(ctx, nodes)
	}

	e.log.Debug("Validated tree", zap.String("root", root.Type().String()), zap.Int("details", len(ctx.details)))
	return ctx.details
}
