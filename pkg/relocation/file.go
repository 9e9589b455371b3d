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

package relocation

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/walteh/uploadrelay/pkg/storage"
)

// ✏️ RenameRequest renames the file at FullPath (document-root relative) to NewName
type RenameRequest struct {
	FullPath string `json:"file_full_path"`
	NewName  string `json:"file_new_name"`
}

// 🧹 RemoveFile deletes one file below the document root. Directories are refused.
func (s *Service) RemoveFile(ctx context.Context, fullPath string) Outcome {
	inv := s.begin(ctx, "remove_file")
	inv.logger.Info().Str("file_full_path", fullPath).Msg("removing file")

	if fullPath == "" {
		return inv.reject(KindMissingParameter, MsgFilePathMissing)
	}

	target, err := s.ResolveDocumentPath(fullPath)
	if err != nil {
		return inv.reject(KindInvalidPath, MsgFilePathOutsideRoot)
	}

	exists, err := storage.Exists(target)
	if err != nil {
		return inv.fail(err, MsgFileCheckFailed)
	}
	if !exists {
		return inv.reject(KindPathNotFound, MsgFileNotFound)
	}

	isDir, err := storage.IsDir(target)
	if err != nil {
		return inv.fail(err, MsgFileCheckFailed)
	}
	if isDir {
		return inv.reject(KindInvalidPath, MsgFileIsDirectory)
	}

	if err := storage.RemoveFile(inv.ctx, target); err != nil {
		return inv.fail(err, MsgRemoveFailed)
	}

	return inv.succeed(MsgFileRemoved)
}

// ✏️ RenameFile renames a file in place. The current extension always survives:
// when the new name carries a different extension, the current one is appended.
func (s *Service) RenameFile(ctx context.Context, req RenameRequest) Outcome {
	inv := s.begin(ctx, "rename_file")
	inv.logger.Info().
		Str("file_full_path", req.FullPath).
		Str("file_new_name", req.NewName).
		Msg("renaming file")

	if req.FullPath == "" {
		return inv.reject(KindMissingParameter, MsgFilePathMissing)
	}

	current, err := s.ResolveDocumentPath(req.FullPath)
	if err != nil || current == filepath.Clean(s.documentRoot) {
		return inv.reject(KindInvalidPath, MsgFilePathOutsideRoot)
	}

	name := strings.TrimSpace(req.NewName)
	if name == "" {
		return inv.reject(KindMissingParameter, MsgNameEmpty)
	}
	if !isPlainName(name) {
		return inv.reject(KindInvalidPath, MsgNameInvalid)
	}

	renamed := filepath.Join(filepath.Dir(current), NewFileName(filepath.Base(current), name))
	if renamed == current {
		return inv.succeed(MsgNameUnchanged)
	}

	exists, err := storage.Exists(current)
	if err != nil {
		return inv.fail(err, MsgFileCheckFailed)
	}
	if !exists {
		return inv.reject(KindPathNotFound, MsgFileNotFound)
	}

	exists, err = storage.Exists(renamed)
	if err != nil {
		return inv.fail(err, MsgFileCheckFailed)
	}
	if exists {
		return inv.reject(KindConflict, MsgNameExists)
	}

	inv.logger.Debug().Str("from", current).Str("to", renamed).Msg("renaming")

	if err := s.rename(inv.ctx, current, renamed); err != nil {
		return inv.fail(err, MsgRenameFailed)
	}

	return inv.succeed(MsgRenamed)
}

// 🏷️ NewFileName returns the file name a rename of currentName to newName produces.
// newName is expected to be trimmed.
func NewFileName(currentName, newName string) string {
	currentExt := extension(currentName)
	if currentExt != "" && extension(newName) != currentExt {
		return newName + "." + currentExt
	}
	return newName
}

// extension returns the extension without its dot, or "" when there is none
func extension(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}

func isPlainName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return !strings.ContainsRune(name, '/') && !strings.ContainsRune(name, filepath.Separator)
}
