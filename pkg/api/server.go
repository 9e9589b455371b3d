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
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/uploadrelay/pkg/config"
	"gitlab.com/tozd/go/errors"
)

const shutdownTimeout = 30 * time.Second

// 🌐 Server serves the relocation routes until its context is cancelled
type Server struct {
	http *http.Server
}

// 🏭 NewServer creates a server for the given handler and listener settings
func NewServer(args config.ServerArgs, handler http.Handler) *Server {
	read, write, _ := args.Timeouts()
	return &Server{
		http: &http.Server{
			Addr:         args.Addr(),
			Handler:      handler,
			ReadTimeout:  read,
			WriteTimeout: write,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// 🏃 Run listens on the configured address and blocks until ctx is done,
// then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return errors.Errorf("listening on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := zerolog.Ctx(ctx)
	base := context.WithoutCancel(ctx)
	s.http.BaseContext = func(net.Listener) context.Context { return base }

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
		errc <- s.http.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return errors.Errorf("shutting down http server: %w", err)
	}
	return nil
}
