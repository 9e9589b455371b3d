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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/uploadrelay/pkg/config"
	"github.com/walteh/uploadrelay/pkg/journal"
	"github.com/walteh/uploadrelay/pkg/storage"
	"github.com/walteh/uploadrelay/pkg/treecopy"
	"github.com/walteh/uploadrelay/pkg/uploadtype"
	"gitlab.com/tozd/go/errors"
)

// 📦 FolderCopier copies a directory's contents into another directory and
// reports how many entries it skipped
type FolderCopier interface {
	Copy(ctx context.Context, src, dst string) (treecopy.Summary, error)
}

// 🗑️ FolderRemover deletes a subdirectory of an upload type root
type FolderRemover interface {
	RemoveFolder(ctx context.Context, uploadType, rel string) error
}

// ⚙️ Options configures a Service
type Options struct {
	DocumentRoot  string
	Resolver      uploadtype.Resolver
	Copier        FolderCopier
	Remover       FolderRemover
	Journal       journal.Journal // optional, defaults to journal.Nop
	MoveStrategy  string          // config.MoveStrategyRename or config.MoveStrategyCopy
	SelfCopyCheck string          // config.SelfCopyCheckBasename or config.SelfCopyCheckPath
}

// 🚚 Service runs relocation operations. It holds no per-request state.
type Service struct {
	documentRoot  string
	resolver      uploadtype.Resolver
	copier        FolderCopier
	remover       FolderRemover
	journal       journal.Journal
	moveStrategy  string
	selfCopyCheck string

	rename   func(ctx context.Context, from, to string) error
	copyFile func(ctx context.Context, src, dst string) error
	newID    func() string
}

// 🏭 New creates a service from explicit collaborators
func New(opts Options) (*Service, error) {
	if opts.DocumentRoot == "" {
		return nil, errors.Errorf("document root is required")
	}
	if opts.Resolver == nil {
		return nil, errors.Errorf("resolver is required")
	}
	if opts.Copier == nil {
		return nil, errors.Errorf("copier is required")
	}
	if opts.Remover == nil {
		return nil, errors.Errorf("remover is required")
	}
	if opts.Journal == nil {
		opts.Journal = journal.Nop{}
	}

	switch opts.MoveStrategy {
	case "":
		opts.MoveStrategy = config.MoveStrategyRename
	case config.MoveStrategyRename, config.MoveStrategyCopy:
	default:
		return nil, errors.Errorf("unknown move strategy %q", opts.MoveStrategy)
	}

	switch opts.SelfCopyCheck {
	case "":
		opts.SelfCopyCheck = config.SelfCopyCheckBasename
	case config.SelfCopyCheckBasename, config.SelfCopyCheckPath:
	default:
		return nil, errors.Errorf("unknown self copy check %q", opts.SelfCopyCheck)
	}

	return &Service{
		documentRoot:  opts.DocumentRoot,
		resolver:      opts.Resolver,
		copier:        opts.Copier,
		remover:       opts.Remover,
		journal:       opts.Journal,
		moveStrategy:  opts.MoveStrategy,
		selfCopyCheck: opts.SelfCopyCheck,
		rename:        storage.Rename,
		copyFile:      treecopy.CopyFile,
		newID:         uuid.NewString,
	}, nil
}

// 🔧 FromConfig wires a service from a validated config
func FromConfig(cfg *config.Config, j journal.Journal) (*Service, error) {
	copier, err := treecopy.New(treecopy.Options{
		Workers:        cfg.Copy.Workers,
		IgnorePatterns: cfg.Copy.IgnorePatterns,
	})
	if err != nil {
		return nil, errors.Errorf("creating copier: %w", err)
	}

	table := uploadtype.New(cfg.UploadTypes)

	return New(Options{
		DocumentRoot:  cfg.DocumentRoot,
		Resolver:      table,
		Copier:        copier,
		Remover:       storage.NewRemover(table),
		Journal:       j,
		MoveStrategy:  cfg.MoveStrategy,
		SelfCopyCheck: cfg.SelfCopyCheck,
	})
}

// 📍 ResolveDocumentPath joins a document-root relative path, rejecting escapes
func (s *Service) ResolveDocumentPath(rel string) (string, error) {
	return uploadtype.Within(s.documentRoot, rel)
}

// invocation carries the identity and logger of one operation call
type invocation struct {
	ctx    context.Context
	id     string
	logger *zerolog.Logger
}

func (s *Service) begin(ctx context.Context, operation string) *invocation {
	id := s.newID()
	logger := zerolog.Ctx(ctx).With().
		Str("operation", operation).
		Str("operation_id", id).
		Logger()
	return &invocation{
		ctx:    logger.WithContext(ctx),
		id:     id,
		logger: &logger,
	}
}

func (inv *invocation) succeed(message string) Outcome {
	inv.logger.Info().Msg(message)
	return Outcome{
		Success:     true,
		Message:     message,
		Kind:        KindNone,
		StatusCode:  KindNone.StatusCode(),
		OperationID: inv.id,
	}
}

// reject reports a validation failure
func (inv *invocation) reject(kind Kind, message string) Outcome {
	inv.logger.Info().Str("kind", kind.String()).Msg(message)
	return inv.outcome(kind, message)
}

// fail reports an I/O failure; err is logged but never returned to the caller
func (inv *invocation) fail(err error, message string) Outcome {
	inv.logger.Error().Err(err).Msg(message)
	return inv.outcome(KindIOFailure, message)
}

func (inv *invocation) outcome(kind Kind, message string) Outcome {
	return Outcome{
		Success:     false,
		Message:     message,
		Kind:        kind,
		StatusCode:  kind.StatusCode(),
		OperationID: inv.id,
	}
}
