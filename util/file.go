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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrOutputExists is returned by CreateOutputFile if the file already exists.
var ErrOutputExists = errors.New("output file already exists")

// CreateOutputFile creates the output file at the given filepath if it does not already exist
// and returns the file handle. An existing file is never overwritten.
//
// Note: The callee has to make sure that the file handle is closed properly.
func CreateOutputFile(filepath string) (*os.File, error) {
	outputFile, err := os.OpenFile(filepath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, filepath)
		}
		return nil, fmt.Errorf("could not open/create the output file %s: %w", filepath, err)
	}
	return outputFile, nil
}

// CreateOutputFileOrDie works like CreateOutputFile but exits the command with a
// non-success error code if the file can't be created.
func CreateOutputFileOrDie(filepath string) *os.File {
	outputFile, err := CreateOutputFile(filepath)
	if err != nil {
		if errors.Is(err, ErrOutputExists) {
			fmt.Printf("The output file %s does already exist.\n", filepath)
			os.Exit(3)
		} else {
			fmt.Println(err)
			os.Exit(4)
		}
	}
	return outputFile
}

// XMLFiles expands the given paths into the list of QRDA files to convert.
// Directories contribute the .xml files they directly contain. Plain files are
// taken as they are. The result is sorted and free of duplicates.
func XMLFiles(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(file string) {
		if !seen[file] {
			seen[file] = true
			files = append(files, file)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
				add(filepath.Join(path, entry.Name()))
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// OutputPath returns the path of the file written for the converted file
// source. The extension of source is replaced by suffix. If dir is empty the
// file is placed next to source.
func OutputPath(dir, source, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + suffix
	if dir == "" {
		return filepath.Join(filepath.Dir(source), base)
	}
	return filepath.Join(dir, base)
}
