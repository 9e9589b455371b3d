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
	"os"
	"path/filepath"
	"syscall"

	"github.com/walteh/uploadrelay/pkg/config"
	"github.com/walteh/uploadrelay/pkg/journal"
	"github.com/walteh/uploadrelay/pkg/storage"
	"github.com/walteh/uploadrelay/pkg/treecopy"
	"gitlab.com/tozd/go/errors"
)

// 🚚 MoveRequest moves one file between two absolute paths
type MoveRequest struct {
	SourcePath string `json:"file_current_location"`
	TargetPath string `json:"file_new_location"`
}

// 🩹 RecoveryReport summarizes a RecoverMoves run
type RecoveryReport struct {
	Completed int `json:"completed"` // target was complete, source removed
	Abandoned int `json:"abandoned"` // target never completed, source left alone
	Failed    int `json:"failed"`    // entry could not be resolved, retried next run
}

// 🚚 MoveFile moves a single file, refusing to overwrite an existing target.
// Parent directories of the target are created as needed.
func (s *Service) MoveFile(ctx context.Context, req MoveRequest) Outcome {
	inv := s.begin(ctx, "move_file")
	return s.moveFile(inv, req)
}

// 🚚 MoveDocumentFile moves a single file between two document-root relative paths
func (s *Service) MoveDocumentFile(ctx context.Context, req MoveRequest) Outcome {
	inv := s.begin(ctx, "move_document_file")

	if req.SourcePath != "" && req.TargetPath != "" {
		src, err := s.ResolveDocumentPath(req.SourcePath)
		if err != nil {
			return inv.reject(KindInvalidPath, MsgMovePathOutsideRoot)
		}
		dst, err := s.ResolveDocumentPath(req.TargetPath)
		if err != nil {
			return inv.reject(KindInvalidPath, MsgMovePathOutsideRoot)
		}
		req = MoveRequest{SourcePath: src, TargetPath: dst}
	}

	return s.moveFile(inv, req)
}

func (s *Service) moveFile(inv *invocation, req MoveRequest) Outcome {
	inv.logger.Info().
		Str("source", req.SourcePath).
		Str("target", req.TargetPath).
		Str("strategy", s.moveStrategy).
		Msg("moving file")

	if req.SourcePath == "" {
		return inv.reject(KindMissingParameter, MsgSourcePathMissing)
	}
	if req.TargetPath == "" {
		return inv.reject(KindMissingParameter, MsgTargetPathMissing)
	}

	src := filepath.Clean(req.SourcePath)
	dst := filepath.Clean(req.TargetPath)

	exists, err := storage.Exists(src)
	if err != nil {
		return inv.fail(err, MsgMoveFailed)
	}
	if !exists {
		return inv.reject(KindPathNotFound, MsgSourceNotFound)
	}

	isDir, err := storage.IsDir(src)
	if err != nil {
		return inv.fail(err, MsgMoveFailed)
	}
	if isDir {
		return inv.reject(KindInvalidPath, MsgSourceIsDirectory)
	}

	exists, err = storage.Exists(dst)
	if err != nil {
		return inv.fail(err, MsgMoveFailed)
	}
	if exists {
		return inv.reject(KindConflict, MsgTargetExists)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return inv.fail(errors.Errorf("creating target directory: %w", err), MsgMoveFailed)
	}

	if s.moveStrategy == config.MoveStrategyRename {
		err := s.rename(inv.ctx, src, dst)
		if err == nil {
			return inv.succeed(MsgMoved)
		}
		if !isCrossDevice(err) {
			return inv.fail(err, MsgMoveFailed)
		}
		inv.logger.Debug().Err(err).Msg("rename crossed devices, falling back to copy")
	}

	if err := s.transfer(inv, src, dst); err != nil {
		return inv.fail(err, MsgMoveFailed)
	}

	return inv.succeed(MsgMoved)
}

// transfer moves src to dst in two journaled phases: an atomic copy, then
// removal of the source. The target is either absent or complete at any point.
func (s *Service) transfer(inv *invocation, src, dst string) error {
	if err := s.journal.Begin(inv.ctx, inv.id, src, dst); err != nil {
		return errors.Errorf("journaling move: %w", err)
	}

	if err := s.copyFile(inv.ctx, src, dst); err != nil {
		s.advance(inv, journal.PhaseAbandoned)
		return errors.Errorf("copying file: %w", err)
	}

	if err := s.journal.Advance(inv.ctx, inv.id, journal.PhaseCopied); err != nil {
		inv.logger.Warn().Err(err).Msg("journaling copied phase")
	}

	// a failure here leaves the entry pending so recovery retries the removal
	if err := storage.RemoveFile(inv.ctx, src); err != nil {
		return errors.Errorf("removing source after copy: %w", err)
	}

	s.advance(inv, journal.PhaseDone)
	return nil
}

func (s *Service) advance(inv *invocation, phase journal.Phase) {
	if err := s.journal.Advance(inv.ctx, inv.id, phase); err != nil {
		inv.logger.Warn().Err(err).Str("phase", string(phase)).Msg("journaling move phase")
	}
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// 🩹 RecoverMoves resolves two-phase moves interrupted before they finished.
// A move whose target exists is completed by removing its source, any other is abandoned.
func (s *Service) RecoverMoves(ctx context.Context) (RecoveryReport, error) {
	inv := s.begin(ctx, "recover_moves")
	var report RecoveryReport

	entries, err := s.journal.Pending(inv.ctx)
	if err != nil {
		return report, errors.Errorf("listing pending moves: %w", err)
	}

	inv.logger.Info().Int("pending", len(entries)).Msg("recovering interrupted moves")

	for _, entry := range entries {
		logger := inv.logger.With().
			Str("move_id", entry.ID).
			Str("source", entry.Source).
			Str("target", entry.Target).
			Str("phase", string(entry.Phase)).
			Logger()

		phase, err := recoverEntry(logger.WithContext(inv.ctx), entry)
		if err != nil {
			logger.Error().Err(err).Msg("recovering move")
			report.Failed++
			continue
		}

		if err := s.journal.Advance(inv.ctx, entry.ID, phase); err != nil {
			logger.Error().Err(err).Msg("journaling recovered move")
			report.Failed++
			continue
		}

		switch phase {
		case journal.PhaseDone:
			report.Completed++
		default:
			report.Abandoned++
		}
		logger.Info().Str("resolved", string(phase)).Msg("move recovered")
	}

	return report, nil
}

func recoverEntry(ctx context.Context, entry journal.Entry) (journal.Phase, error) {
	if err := treecopy.RemoveTemps(entry.Target); err != nil {
		return "", err
	}

	targetExists, err := storage.Exists(entry.Target)
	if err != nil {
		return "", err
	}
	if !targetExists {
		return journal.PhaseAbandoned, nil
	}

	sourceExists, err := storage.Exists(entry.Source)
	if err != nil {
		return "", err
	}
	if sourceExists {
		if err := storage.RemoveFile(ctx, entry.Source); err != nil {
			return "", err
		}
	}
	return journal.PhaseDone, nil
}
