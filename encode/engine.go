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

// Package encode writes a validated node tree as QPP submission JSON. Each
// template has an encoder filling an ordered JSON object, so the same tree
// always gives the same bytes.
package encode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/samply/qrdactl/data"
	"github.com/samply/qrdactl/model"
	"github.com/samply/qrdactl/registry"
	"go.uber.org/zap"
)

// An Encoder writes the fields of one template into out.
type Encoder interface {
	Encode(ctx *Context, out *Object, n *model.Node) error
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(ctx *Context, out *Object, n *model.Node) error

func (f EncoderFunc) Encode(ctx *Context, out *Object, n *model.Node) error {
	return f(ctx, out, n)
}

// Registry maps templates to encoders.
type Registry = registry.Registry[model.TemplateID, Encoder]

// Error is an encode failure at a node. Encode failures are internal errors,
// a validated tree should always encode.
type Error struct {
	Path string
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Format prints the stack trace of the cause with %+v.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s: %+v", e.Path, e.err)
		return
	}
	io.WriteString(s, e.Error())
}

type Engine struct {
	registry *Registry
	configs  *data.MeasureConfigs
	log      *zap.Logger
}

type Option func(*Engine)

// WithMeasureConfigs sets the measure configuration used to resolve QPP
// measure ids and strata.
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

// Encode encodes the tree below root into a new object.
func (e *Engine) Encode(root *model.Node) (*Object, error) {
	out := NewObject()
	ctx := &Context{engine: e}
	if err := ctx.EncodeChild(out, root); err != nil {
		return nil, err
	}
	return out, nil
}

// Marshal encodes the tree below root as compact JSON.
func (e *Engine) Marshal(root *model.Node) ([]byte, error) {
	out, err := e.Encode(root)
	if err != nil {
		return nil, err
	}
	return out.MarshalJSON()
}

// MarshalIndent encodes the tree below root as JSON indented by two spaces.
func (e *Engine) MarshalIndent(root *model.Node) ([]byte, error) {
	b, err := e.Marshal(root)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return nil, errors.Wrap(err, "error while indenting JSON")
	}
	return buf.Bytes(), nil
}

// Context is passed to encoders.
type Context struct {
	engine *Engine
}

// MeasureConfigs returns the measure configuration. It may be nil.
func (c *Context) MeasureConfigs() *data.MeasureConfigs {
	return c.engine.configs
}

func (c *Context) Logger() *zap.Logger {
	return c.engine.log
}

// EncodeChild encodes n into out with the encoder registered for its
// template.
func (c *Context) EncodeChild(out *Object, n *model.Node) error {
	encoder, err := c.engine.registry.Get(n.Type())
	if err != nil {
		return c.Fail(n, errors.WithStack(err))
	}
	return encoder.Encode(c, out, n)
}

// Fail returns err as an *Error located at n. Errors that already are
// *Error are returned unchanged.
func (c *Context) Fail(n *model.Node, err error) error {
	var encodeErr *Error
	if errors.As(err, &encodeErr) {
		return err
	}
	return &Error{Path: n.Path(), err: err}
}

// Failf returns a formatted *Error located at n.
func (c *Context) Failf(n *model.Node, format string, args ...any) error {
	return c.Fail(n, errors.Errorf(format, args...))
}
