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

// Package registry provides immutable handler lookup tables. A table is
// assembled with a Builder during startup and never changes afterwards, so
// it can be shared by any number of concurrent conversions.
package registry

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNotFound     = errors.New("no handler registered")
	ErrDuplicateKey = errors.New("handler already registered")
)

// Builder collects key to handler associations. It is not safe for
// concurrent use.
type Builder[K comparable, H any] struct {
	handlers map[K]H
	built    bool
}

// NewBuilder creates an empty Builder.
func NewBuilder[K comparable, H any]() *Builder[K, H] {
	return &Builder[K, H]{handlers: make(map[K]H)}
}

// Register associates handler with key. Registering a key twice is an error.
func (b *Builder[K, H]) Register(key K, handler H) error {
	if b.built {
		return fmt.Errorf("register %v: builder already built", key)
	}
	if _, ok := b.handlers[key]; ok {
		return fmt.Errorf("register %v: %w", key, ErrDuplicateKey)
	}
	b.handlers[key] = handler
	return nil
}

// MustRegister is like Register but panics on error. Use it for static
// registrations at package initialization.
func (b *Builder[K, H]) MustRegister(key K, handler H) *Builder[K, H] {
	if err := b.Register(key, handler); err != nil {
		panic(err)
	}
	return b
}

// Has reports whether key has been registered so far.
func (b *Builder[K, H]) Has(key K) bool {
	_, ok := b.handlers[key]
	return ok
}

// Build freezes the registrations into a Registry. The builder can't be used
// afterwards.
func (b *Builder[K, H]) Build() *Registry[K, H] {
	b.built = true
	handlers := make(map[K]H, len(b.handlers))
	for k, h := range b.handlers {
		handlers[k] = h
	}
	return &Registry[K, H]{handlers: handlers}
}

// Registry is a read-only view of handlers by key.
type Registry[K comparable, H any] struct {
	handlers map[K]H
}

// Lookup returns the handler of key.
func (r *Registry[K, H]) Lookup(key K) (H, bool) {
	h, ok := r.handlers[key]
	return h, ok
}

// Get returns the handler of key or an error wrapping ErrNotFound.
func (r *Registry[K, H]) Get(key K) (H, error) {
	h, ok := r.handlers[key]
	if !ok {
		return h, fmt.Errorf("%w for %v", ErrNotFound, key)
	}
	return h, nil
}

// Keys returns all registered keys ordered by their formatted value.
func (r *Registry[K, H]) Keys() []K {
	keys := make([]K, 0, len(r.handlers))
	for k := range r.handlers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
	return keys
}

// Len returns the number of registered handlers.
func (r *Registry[K, H]) Len() int {
	return len(r.handlers)
}
