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

// Package model contains the intermediate node tree produced by decoding a
// QRDA document, together with the template vocabulary and the structured
// error model shared by the decode, validate and encode engines.
package model

import (
	"fmt"
	"strings"
)

// Node is one recognized document concept. A node owns its children
// exclusively. Decoders build the tree, validators and encoders only read it.
type Node struct {
	id       string
	typ      TemplateID
	keys     []string
	values   map[string]string
	children []*Node
	parent   *Node
}

// NewNode creates a detached node of the given template. The id is the
// identifier of the originating document fragment, usually the template root.
func NewNode(typ TemplateID, id string) *Node {
	return &Node{
		id:     id,
		typ:    typ,
		values: make(map[string]string),
	}
}

func (n *Node) ID() string {
	return n.id
}

func (n *Node) Type() TemplateID {
	return n.typ
}

// PutValue sets a business attribute. Re-setting a key keeps its original
// position in Keys.
func (n *Node) PutValue(key, value string) {
	if _, ok := n.values[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.values[key] = value
}

// Value returns the attribute for key or the empty string.
func (n *Node) Value(key string) string {
	return n.values[key]
}

// HasValue reports whether key is set to a non-blank value.
func (n *Node) HasValue(key string) bool {
	return strings.TrimSpace(n.values[key]) != ""
}

// Keys returns the attribute keys in insertion order.
func (n *Node) Keys() []string {
	keys := make([]string, len(n.keys))
	copy(keys, n.keys)
	return keys
}

// AddChild appends child and makes n its owner. Adding a node that already
// has a parent panics, as it would break the tree.
func (n *Node) AddChild(child *Node) {
	if child.parent != nil {
		panic(fmt.Sprintf("node %s already belongs to %s", child.typ, child.parent.typ))
	}
	if child == n {
		panic("node cannot be its own child")
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Unwrap returns the only child of a PLACEHOLDER node as a root of its own.
// Any other node is returned unchanged.
func Unwrap(n *Node) *Node {
	if n.typ != Placeholder || len(n.children) != 1 {
		return n
	}
	child := n.children[0]
	n.children = nil
	child.parent = nil
	return child
}

// Parent returns the owning node or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the child slice.
func (n *Node) Children() []*Node {
	children := make([]*Node, len(n.children))
	copy(children, n.children)
	return children
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// ChildrenOf returns the direct children having one of the given templates.
func (n *Node) ChildrenOf(types ...TemplateID) []*Node {
	var result []*Node
	for _, c := range n.children {
		for _, t := range types {
			if c.typ == t {
				result = append(result, c)
				break
			}
		}
	}
	return result
}

// FindChild returns the first direct child matching pred.
func (n *Node) FindChild(pred func(*Node) bool) *Node {
	for _, c := range n.children {
		if pred(c) {
			return c
		}
	}
	return nil
}

// FindFirst searches the subtree below n depth-first for a node of type t.
func (n *Node) FindFirst(t TemplateID) *Node {
	for _, c := range n.children {
		if c.typ == t {
			return c
		}
		if found := c.FindFirst(t); found != nil {
			return found
		}
	}
	return nil
}

// FindAll collects every node of type t below n in pre-order.
func (n *Node) FindAll(t TemplateID) []*Node {
	var result []*Node
	for _, c := range n.children {
		c.Walk(func(d *Node) {
			if d.typ == t {
				result = append(result, d)
			}
		})
	}
	return result
}

// Walk visits n and all of its descendants in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Path returns the lineage of template names from the root down to n, for
// example /CLINICAL_DOCUMENT/ACI_SECTION.
func (n *Node) Path() string {
	var names []string
	for c := n; c != nil; c = c.parent {
		names = append(names, c.typ.String())
	}
	b := strings.Builder{}
	for i := len(names) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(names[i])
	}
	return b.String()
}

// String renders the node with its attributes, mainly for debugging.
func (n *Node) String() string {
	b := strings.Builder{}
	b.WriteString(n.typ.String())
	b.WriteByte('{')
	for i, k := range n.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%s", k, n.values[k])
	}
	b.WriteByte('}')
	return b.String()
}
