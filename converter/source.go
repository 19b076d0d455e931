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

package converter

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// Source is the input document of a conversion.
type Source interface {
	// Name identifies the source in reports, usually a file name.
	Name() string
	Open() (io.ReadCloser, error)
}

type pathSource string

// PathSource reads the file at path. Its name is the base name of path.
func PathSource(path string) Source {
	return pathSource(path)
}

func (s pathSource) Name() string {
	return filepath.Base(string(s))
}

func (s pathSource) Open() (io.ReadCloser, error) {
	return os.Open(string(s))
}

type bytesSource struct {
	name string
	b    []byte
}

// BytesSource serves b under name.
func BytesSource(name string, b []byte) Source {
	return &bytesSource{name: name, b: b}
}

func (s *bytesSource) Name() string {
	return s.name
}

func (s *bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.b)), nil
}

type readerSource struct {
	name string
	r    io.Reader
}

// ReaderSource serves r under name. It can be opened once.
func ReaderSource(name string, r io.Reader) Source {
	return &readerSource{name: name, r: r}
}

func (s *readerSource) Name() string {
	return s.name
}

func (s *readerSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(s.r), nil
}
