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

package uploadtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/uploadrelay/pkg/config"
	"gitlab.com/tozd/go/errors"
)

func newTestTable() *Table {
	return New([]config.UploadType{
		{Name: "invoices", Root: "/srv/uploads/invoices/"},
		{Name: "images", Root: "/srv/uploads/images"},
	})
}

func TestResolve(t *testing.T) {
	table := newTestTable()

	root, err := table.Resolve("invoices")
	require.NoError(t, err)
	assert.Equal(t, "/srv/uploads/invoices", root, "root should be cleaned")

	_, err = table.Resolve("videos")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownUploadType), "should wrap ErrUnknownUploadType")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"images", "invoices"}, newTestTable().Names())
}

func TestJoin(t *testing.T) {
	table := newTestTable()

	tests := []struct {
		name       string
		uploadType string
		rel        string
		want       string
		wantErr    error
	}{
		{
			name:       "nested_path",
			uploadType: "invoices",
			rel:        "2024/march",
			want:       "/srv/uploads/invoices/2024/march",
		},
		{
			name:       "leading_slash_stays_inside",
			uploadType: "images",
			rel:        "/avatars",
			want:       "/srv/uploads/images/avatars",
		},
		{
			name:       "dot_resolves_to_root",
			uploadType: "images",
			rel:        ".",
			want:       "/srv/uploads/images",
		},
		{
			name:       "traversal_rejected",
			uploadType: "images",
			rel:        "../invoices",
			wantErr:    ErrOutsideRoot,
		},
		{
			name:       "sibling_prefix_rejected",
			uploadType: "images",
			rel:        "../images-private/a",
			wantErr:    ErrOutsideRoot,
		},
		{
			name:       "unknown_type",
			uploadType: "videos",
			rel:        "a",
			wantErr:    ErrUnknownUploadType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Join(table, tt.uploadType, tt.rel)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsWithin(t *testing.T) {
	assert.True(t, IsWithin("/a/b", "/a"))
	assert.True(t, IsWithin("/a", "/a"))
	assert.True(t, IsWithin("/a/..b", "/a"), "names starting with dots are not traversal")
	assert.False(t, IsWithin("/ab", "/a"))
	assert.False(t, IsWithin("/", "/a"))
}
