// Copyright 2025 walteh LLC
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

// Package uploadtype resolves upload type names to their storage roots.
package uploadtype

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/walteh/uploadrelay/pkg/config"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrUnknownUploadType = errors.Base("unknown upload type")
	ErrOutsideRoot       = errors.Base("path outside upload root")
)

// 🧭 Resolver maps an upload type name to an absolute root directory
type Resolver interface {
	Resolve(name string) (string, error)
}

// 📇 Table is a Resolver backed by a fixed name -> root table
type Table struct {
	roots map[string]string
}

// 🏭 New creates a table from the configured upload types
func New(types []config.UploadType) *Table {
	roots := make(map[string]string, len(types))
	for _, ut := range types {
		roots[ut.Name] = filepath.Clean(ut.Root)
	}
	return &Table{roots: roots}
}

// 🎯 Resolve returns the root directory of an upload type
func (t *Table) Resolve(name string) (string, error) {
	root, ok := t.roots[name]
	if !ok {
		return "", errors.Errorf("%w: %q", ErrUnknownUploadType, name)
	}
	return root, nil
}

// Names returns the registered upload type names, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.roots))
	for name := range t.roots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// 🔗 Join resolves an upload type and joins rel under its root.
// rel must stay inside the root once cleaned.
func Join(r Resolver, name, rel string) (string, error) {
	root, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	return Within(root, rel)
}

// Within joins rel under root and rejects results that escape it.
func Within(root, rel string) (string, error) {
	joined := filepath.Join(root, rel)
	if !IsWithin(joined, root) {
		return "", errors.Errorf("%w: %q", ErrOutsideRoot, rel)
	}
	return joined, nil
}

// IsWithin reports whether path is root or lies below it. Both must be clean.
func IsWithin(path, root string) bool {
	if path == root {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
