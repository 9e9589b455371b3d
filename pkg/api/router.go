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

package api

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/walteh/uploadrelay/pkg/config"
	"github.com/walteh/uploadrelay/pkg/relocation"
)

// 🚚 Relocator is the set of operations the HTTP surface exposes
type Relocator interface {
	CopyFolder(ctx context.Context, req relocation.Request) relocation.Outcome
	CopyAndRemove(ctx context.Context, req relocation.Request, remove bool) relocation.Outcome
	RemoveFile(ctx context.Context, fullPath string) relocation.Outcome
	RenameFile(ctx context.Context, req relocation.RenameRequest) relocation.Outcome
	MoveDocumentFile(ctx context.Context, req relocation.MoveRequest) relocation.Outcome
}

// ⚙️ Options configures the router
type Options struct {
	StatusMode     string        // config.StatusModeTyped or config.StatusModeLegacy
	RequestTimeout time.Duration // zero disables the per-request timeout
	Logger         zerolog.Logger
}

// 🧭 NewRouter builds the HTTP routes for a relocator
func NewRouter(svc Relocator, opts Options) *chi.Mux {
	if opts.StatusMode == "" {
		opts.StatusMode = config.StatusModeTyped
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger(opts.Logger))
	router.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		router.Use(Deadline(opts.RequestTimeout))
	}

	h := &Handler{svc: svc, statusMode: opts.StatusMode}

	router.Get("/health", h.Health)

	router.Route("/upload/action", func(upload chi.Router) {
		upload.Post("/copy-folder-data", h.CopyFolderData)
		upload.Post("/copy-and-remove-folder-data", h.CopyAndRemoveFolderData)
	})

	router.Route("/files/action", func(files chi.Router) {
		files.Post("/remove-file", h.RemoveFile)
		files.Post("/rename-file", h.RenameFile)
		files.Post("/move-single-file", h.MoveSingleFile)
	})

	return router
}
