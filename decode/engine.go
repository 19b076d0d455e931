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

// Package decode turns a QRDA XML document into a model.Node tree. Elements
// are recognized by their templateId children and handed to the decoder
// registered for the template root.
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/beevik/etree"
	"github.com/samply/qrdactl/model"
	"github.com/samply/qrdactl/registry"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const templateIDTag = "templateId"

// Result tells the engine what to do with a decoded node.
type Result int

const (
	// TreeContinue attaches the node and decodes the remaining child
	// elements below it.
	TreeContinue Result = iota
	// TreeFinished attaches the node. The decoder already handled the
	// subtree.
	TreeFinished
	// TreeEscaped discards the node. The decoder may have put its values
	// into the parent.
	TreeEscaped
	// NoAction discards the node and lets the next templateId of the
	// element claim it.
	NoAction
)

func (r Result) String() string {
	switch r {
	case TreeContinue:
		return "TreeContinue"
	case TreeFinished:
		return "TreeFinished"
	case TreeEscaped:
		return "TreeEscaped"
	case NoAction:
		return "NoAction"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// A Decoder extracts business attributes of one template from an element.
type Decoder interface {
	Decode(ctx *Context, el *etree.Element, node *model.Node) Result
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx *Context, el *etree.Element, node *model.Node) Result

func (f DecoderFunc) Decode(ctx *Context, el *etree.Element, node *model.Node) Result {
	return f(ctx, el, node)
}

// Registry maps template root OIDs to decoders.
type Registry = registry.Registry[string, Decoder]

var ErrNoRootElement = errors.New("document has no root element")

// Engine decodes documents. It holds no per-document state and can be used
// concurrently.
type Engine struct {
	registry *Registry
	log      *zap.Logger
}

type Option func(*Engine)

// WithLogger sets the logger used for skipped templates.
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

// DecodeBytes parses b as XML and decodes it.
func (e *Engine) DecodeBytes(b []byte) (*model.Node, error) {
	doc := newDocument()
	if err := doc.ReadFromBytes(b); err != nil {
		return nil, fmt.Errorf("error while parsing XML: %w", err)
	}
	return e.DecodeDocument(doc)
}

// Decode parses the XML read from r and decodes it.
func (e *Engine) Decode(r io.Reader) (*model.Node, error) {
	doc := newDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("error while parsing XML: %w", err)
	}
	return e.DecodeDocument(doc)
}

// DecodeDocument decodes an already parsed document. The result is the node
// of the single top level template found or a PLACEHOLDER node holding all of
// them.
func (e *Engine) DecodeDocument(doc *etree.Document) (*model.Node, error) {
	root := doc.Root()
	if root == nil {
		return nil, ErrNoRootElement
	}

	placeholder := model.NewNode(model.Placeholder, "")
	e.decodeElement(root, placeholder)

	return model.Unwrap(placeholder), nil
}

func newDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	return doc
}

func (e *Engine) decodeElement(el *etree.Element, parent *model.Node) {
	for _, tmpl := range el.SelectElements(templateIDTag) {
		root := tmpl.SelectAttrValue("root", "")
		decoder, ok := e.registry.Lookup(root)
		if !ok {
			e.log.Debug("Skipping unknown template", zap.String("element", el.Tag), zap.String("root", root))
			continue
		}

		tid, ok := model.TemplateIDFromRoot(root)
		if !ok {
			tid = model.Default
		}
		node := model.NewNode(tid, root)
		ctx := &Context{engine: e, parent: parent}

		switch result := decoder.Decode(ctx, el, node); result {
		case TreeContinue:
			parent.AddChild(node)
			e.decodeChildren(el, node)
			return
		case TreeFinished:
			parent.AddChild(node)
			return
		case TreeEscaped:
			return
		case NoAction:
			continue
		default:
			e.log.Warn("Unexpected decode result, skipping element", zap.String("template", tid.String()),
				zap.Stringer("result", result))
			return
		}
	}
	e.decodeChildren(el, parent)
}

func (e *Engine) decodeChildren(el *etree.Element, parent *model.Node) {
	for _, child := range el.ChildElements() {
		if child.Tag == templateIDTag {
			continue
		}
		e.decodeElement(child, parent)
	}
}

// Context is passed to decoders for one element.
type Context struct {
	engine *Engine
	parent *model.Node
}

// Parent returns the node the decoded node would be attached to.
func (c *Context) Parent() *model.Node {
	return c.parent
}

func (c *Context) Logger() *zap.Logger {
	return c.engine.log
}

// DecodeChildren decodes the child elements of el below node. Decoders use it
// to descend into selected wrappers only.
func (c *Context) DecodeChildren(el *etree.Element, node *model.Node) {
	c.engine.decodeChildren(el, node)
}
