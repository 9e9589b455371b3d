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

package opts

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/uploadrelay/pkg/config"
	"github.com/walteh/uploadrelay/pkg/journal"
	"github.com/walteh/uploadrelay/pkg/log"
	"github.com/walteh/uploadrelay/pkg/relocation"
	"gitlab.com/tozd/go/errors"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string
	EnvFile    string
	Debug      bool

	Console *log.Logger
}

// 🪵 Logger builds the process logger writing to w
func (o *RootOpts) Logger(w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if o.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// 📚 LoadConfig loads the .env file and then the config file
func (o *RootOpts) LoadConfig(ctx context.Context) (*config.Config, error) {
	if err := config.LoadDotEnv(o.EnvFile); err != nil {
		return nil, errors.Errorf("loading env file: %w", err)
	}

	cfg, err := config.Load(ctx, o.ConfigFile)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// 🔧 Service loads the config and wires a relocation service with its journal.
// The journal must be closed by the caller.
func (o *RootOpts) Service(ctx context.Context) (*config.Config, *relocation.Service, journal.Journal, error) {
	cfg, err := o.LoadConfig(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	var j journal.Journal = journal.Nop{}
	if cfg.JournalPath != "" {
		sqlite, err := journal.Open(ctx, cfg.JournalPath)
		if err != nil {
			return nil, nil, nil, errors.Errorf("opening journal: %w", err)
		}
		j = sqlite
	}

	svc, err := relocation.FromConfig(cfg, j)
	if err != nil {
		_ = j.Close()
		return nil, nil, nil, errors.Errorf("creating relocation service: %w", err)
	}

	return cfg, svc, j, nil
}
