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

package storage

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/uploadrelay/pkg/uploadtype"
	"gitlab.com/tozd/go/errors"
)

var ErrRootDeletion = errors.Base("cannot remove upload root directory")

// 🗑️ Remover deletes subdirectories of upload type roots
type Remover struct {
	resolver uploadtype.Resolver
}

// 🏭 NewRemover creates a remover resolving upload types through r
func NewRemover(r uploadtype.Resolver) *Remover {
	return &Remover{resolver: r}
}

// 🧹 RemoveFolder deletes <root of uploadType>/<rel> and everything below it.
// The upload root itself is never removed. A missing folder is not an error.
func (r *Remover) RemoveFolder(ctx context.Context, uploadType, rel string) error {
	root, err := r.resolver.Resolve(uploadType)
	if err != nil {
		return errors.Errorf("resolving upload type: %w", err)
	}

	path, err := uploadtype.Within(root, rel)
	if err != nil {
		return errors.Errorf("resolving folder: %w", err)
	}
	if path == root {
		return errors.Errorf("%w: %s", ErrRootDeletion, uploadType)
	}

	zerolog.Ctx(ctx).Debug().
		Str("upload_type", uploadType).
		Str("path", path).
		Msg("removing folder")

	if err := os.RemoveAll(path); err != nil {
		return errors.Errorf("removing directory: %w", err)
	}
	return nil
}

// 🔍 Exists reports whether something exists at path
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking file existence: %w", err)
}

// 📁 IsDir reports whether path is an existing directory
func IsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Errorf("checking directory: %w", err)
	}
	return info.IsDir(), nil
}

// RemoveFile deletes a single file.
func RemoveFile(ctx context.Context, path string) error {
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("removing file")
	if err := os.Remove(path); err != nil {
		return errors.Errorf("deleting file: %w", err)
	}
	return nil
}

// Rename renames from to to without copying.
func Rename(ctx context.Context, from, to string) error {
	zerolog.Ctx(ctx).Debug().Str("from", from).Str("to", to).Msg("renaming")
	if err := os.Rename(from, to); err != nil {
		return errors.Errorf("renaming: %w", err)
	}
	return nil
}
