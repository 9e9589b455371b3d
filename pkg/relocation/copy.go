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
	"path"
	"path/filepath"
	"strings"

	"github.com/walteh/uploadrelay/pkg/config"
	"github.com/walteh/uploadrelay/pkg/storage"
	"github.com/walteh/uploadrelay/pkg/treecopy"
	"github.com/walteh/uploadrelay/pkg/uploadtype"
	"gitlab.com/tozd/go/errors"
)

// 📋 Request names a source and target subdirectory, each relative to an upload type root
type Request struct {
	CurrentUploadType string `json:"current_upload_type"`
	TargetUploadType  string `json:"target_upload_type"`
	CurrentSubdirPath string `json:"current_subdir_path"`
	TargetSubdirPath  string `json:"target_subdir_path"`
}

// 📦 CopyFolder copies the contents of the current subdirectory into the target subdirectory.
// Both directories must already exist. Existing target files are overwritten.
func (s *Service) CopyFolder(ctx context.Context, req Request) Outcome {
	inv := s.begin(ctx, "copy_folder")
	out, _ := s.copyFolder(inv, req)
	return out
}

// 🚛 CopyAndRemove copies like CopyFolder and, when remove is set, deletes the
// current subdirectory afterward. A failed copy never removes anything and a
// failed removal does not undo the copy. The current subdirectory is also kept
// when the copy skipped ignored or irregular entries.
func (s *Service) CopyAndRemove(ctx context.Context, req Request, remove bool) Outcome {
	inv := s.begin(ctx, "copy_and_remove")

	out, summary := s.copyFolder(inv, req)
	if !out.Success {
		inv.logger.Info().Msg("copy did not succeed, current folder kept")
		return out
	}

	if !remove {
		return inv.succeed(MsgCopiedOnly)
	}

	if summary.Skipped > 0 {
		inv.logger.Warn().Int("skipped", summary.Skipped).Msg("entries were not copied, current folder kept")
		return inv.reject(KindConflict, MsgRemoveSkippedEntries)
	}

	inv.logger.Info().
		Str("upload_type", req.CurrentUploadType).
		Str("subdir", req.CurrentSubdirPath).
		Msg("removing current folder")

	if err := s.remover.RemoveFolder(inv.ctx, req.CurrentUploadType, req.CurrentSubdirPath); err != nil {
		return inv.fail(err, MsgRemoveAfterCopyFailed)
	}

	return inv.succeed(MsgCopiedAndRemoved)
}

func (s *Service) copyFolder(inv *invocation, req Request) (Outcome, treecopy.Summary) {
	var summary treecopy.Summary

	inv.logger.Info().
		Str("current_upload_type", req.CurrentUploadType).
		Str("target_upload_type", req.TargetUploadType).
		Str("current_subdir_path", req.CurrentSubdirPath).
		Str("target_subdir_path", req.TargetSubdirPath).
		Msg("copying folder data")

	switch {
	case req.CurrentUploadType == "":
		return inv.reject(KindMissingParameter, MsgCurrentUploadTypeMissing), summary
	case req.TargetUploadType == "":
		return inv.reject(KindMissingParameter, MsgTargetUploadTypeMissing), summary
	case req.CurrentSubdirPath == "":
		return inv.reject(KindMissingParameter, MsgCurrentSubdirMissing), summary
	case req.TargetSubdirPath == "":
		return inv.reject(KindMissingParameter, MsgTargetSubdirMissing), summary
	}

	if s.sameFolder(req) {
		return inv.reject(KindConflict, MsgSameFolder), summary
	}

	src, out, ok := s.resolveSubdir(inv, req.CurrentUploadType, req.CurrentSubdirPath, MsgCurrentUploadTypeUnknown, MsgCurrentSubdirOutsideRoot)
	if !ok {
		return out, summary
	}
	dst, out, ok := s.resolveSubdir(inv, req.TargetUploadType, req.TargetSubdirPath, MsgTargetUploadTypeUnknown, MsgTargetSubdirOutsideRoot)
	if !ok {
		return out, summary
	}

	if out, ok := inv.requireDir(src, MsgCurrentSubdirNotFound); !ok {
		return out, summary
	}
	if out, ok := inv.requireDir(dst, MsgTargetSubdirNotFound); !ok {
		return out, summary
	}

	nested, err := nestedDir(dst, src)
	if err != nil {
		return inv.fail(err, MsgCopyFailed), summary
	}
	if nested {
		return inv.reject(KindConflict, MsgTargetInsideCurrent), summary
	}

	inv.logger.Debug().Str("src", src).Str("dst", dst).Msg("starting recursive copy")

	summary, err = s.copier.Copy(inv.ctx, src, dst)
	if err != nil {
		return inv.fail(err, MsgCopyFailed), summary
	}

	return inv.succeed(MsgCopied), summary
}

// nestedDir reports whether dir lies within root, either as written or once
// symlinks in both paths are resolved
func nestedDir(dir, root string) (bool, error) {
	if uploadtype.IsWithin(dir, root) {
		return true, nil
	}
	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return false, errors.Errorf("resolving %s: %w", dir, err)
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return false, errors.Errorf("resolving %s: %w", root, err)
	}
	return uploadtype.IsWithin(realDir, realRoot), nil
}

// sameFolder guards against copying a folder onto itself. In basename mode only the
// last path segment is compared, so "a/x" and "b/x" of one upload type also match.
func (s *Service) sameFolder(req Request) bool {
	if req.CurrentUploadType != req.TargetUploadType {
		return false
	}
	cur := filepath.ToSlash(req.CurrentSubdirPath)
	tgt := filepath.ToSlash(req.TargetSubdirPath)
	if s.selfCopyCheck == config.SelfCopyCheckPath {
		return path.Clean("/"+cur) == path.Clean("/"+tgt)
	}
	return lastSegment(cur) == lastSegment(tgt)
}

func lastSegment(p string) string {
	return path.Base(strings.TrimRight(p, "/"))
}

func (s *Service) resolveSubdir(inv *invocation, uploadType, rel, unknownMsg, outsideMsg string) (string, Outcome, bool) {
	abs, err := uploadtype.Join(s.resolver, uploadType, rel)
	switch {
	case err == nil:
		return abs, Outcome{}, true
	case errors.Is(err, uploadtype.ErrUnknownUploadType):
		return "", inv.reject(KindInvalidPath, unknownMsg), false
	case errors.Is(err, uploadtype.ErrOutsideRoot):
		return "", inv.reject(KindInvalidPath, outsideMsg), false
	default:
		return "", inv.fail(err, MsgCopyFailed), false
	}
}

func (inv *invocation) requireDir(dir, missingMsg string) (Outcome, bool) {
	ok, err := storage.IsDir(dir)
	if err != nil {
		return inv.fail(err, MsgCopyFailed), false
	}
	if !ok {
		return inv.reject(KindPathNotFound, missingMsg), false
	}
	return Outcome{}, true
}
