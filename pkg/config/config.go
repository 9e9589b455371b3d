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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Move strategies
const (
	MoveStrategyRename = "rename" // native rename, two-phase copy across volumes
	MoveStrategyCopy   = "copy"   // always two-phase copy
)

// Self-copy checks
const (
	SelfCopyCheckBasename = "basename"
	SelfCopyCheckPath     = "path"
)

// Status modes
const (
	StatusModeTyped  = "typed"
	StatusModeLegacy = "legacy"
)

const (
	defaultHost           = "127.0.0.1"
	defaultPort           = 8080
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultRequestTimeout = 60 * time.Second
	defaultCopyWorkers    = 4
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📂 UploadType maps an upload type name to its storage root
type UploadType struct {
	Name string `json:"name" yaml:"name"`
	Root string `json:"root" yaml:"root"`
}

// 🌐 ServerArgs configures the HTTP listener
type ServerArgs struct {
	Host           string `json:"host,omitempty" yaml:"host,omitempty"`
	Port           int    `json:"port,omitempty" yaml:"port,omitempty"`
	ReadTimeout    string `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty"`
	WriteTimeout   string `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty"`
	RequestTimeout string `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`

	readTimeout    time.Duration
	writeTimeout   time.Duration
	requestTimeout time.Duration
}

// 🔧 CopyArgs configures recursive folder copies
type CopyArgs struct {
	Workers        int      `json:"workers,omitempty" yaml:"workers,omitempty"`
	IgnorePatterns []string `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty"` // Glob patterns for files to skip
}

// 📚 Config represents the complete configuration
type Config struct {
	DocumentRoot  string       `json:"document_root" yaml:"document_root"`
	UploadTypes   []UploadType `json:"upload_types" yaml:"upload_types"`
	Server        ServerArgs   `json:"server,omitempty" yaml:"server,omitempty"`
	Copy          CopyArgs     `json:"copy,omitempty" yaml:"copy,omitempty"`
	MoveStrategy  string       `json:"move_strategy,omitempty" yaml:"move_strategy,omitempty"`
	SelfCopyCheck string       `json:"self_copy_check,omitempty" yaml:"self_copy_check,omitempty"`
	StatusMode    string       `json:"status_mode,omitempty" yaml:"status_mode,omitempty"`
	JournalPath   string       `json:"journal_path,omitempty" yaml:"journal_path,omitempty"`
}

// 🎯 Load loads the configuration from a file, applies environment overrides and validates it
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, errors.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	logger.Debug().
		Str("document_root", cfg.DocumentRoot).
		Int("upload_types", len(cfg.UploadTypes)).
		Msg("configuration loaded")

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid, normalizes paths and sets defaults
func (cfg *Config) Validate() error {
	if cfg.DocumentRoot == "" {
		return errors.Errorf("document_root is required")
	}
	if len(cfg.UploadTypes) == 0 {
		return errors.Errorf("at least one upload type is required")
	}

	root, err := filepath.Abs(cfg.DocumentRoot)
	if err != nil {
		return errors.Errorf("resolving document_root: %w", err)
	}
	cfg.DocumentRoot = root

	seen := make(map[string]struct{}, len(cfg.UploadTypes))
	for i := range cfg.UploadTypes {
		ut := &cfg.UploadTypes[i]
		if ut.Name == "" {
			return errors.Errorf("upload_types[%d].name is required", i)
		}
		if ut.Root == "" {
			return errors.Errorf("upload type %q: root is required", ut.Name)
		}
		if _, ok := seen[ut.Name]; ok {
			return errors.Errorf("upload type %q is defined more than once", ut.Name)
		}
		seen[ut.Name] = struct{}{}

		abs, err := filepath.Abs(ut.Root)
		if err != nil {
			return errors.Errorf("upload type %q: resolving root: %w", ut.Name, err)
		}
		ut.Root = abs
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return errors.Errorf("server.port %d is out of range", cfg.Server.Port)
	}
	if cfg.Server.readTimeout, err = parseDuration("server.read_timeout", cfg.Server.ReadTimeout, defaultReadTimeout); err != nil {
		return err
	}
	if cfg.Server.writeTimeout, err = parseDuration("server.write_timeout", cfg.Server.WriteTimeout, defaultWriteTimeout); err != nil {
		return err
	}
	if cfg.Server.requestTimeout, err = parseDuration("server.request_timeout", cfg.Server.RequestTimeout, defaultRequestTimeout); err != nil {
		return err
	}

	if cfg.Copy.Workers == 0 {
		cfg.Copy.Workers = defaultCopyWorkers
	}
	if cfg.Copy.Workers < 0 {
		return errors.Errorf("copy.workers must be positive")
	}

	switch cfg.MoveStrategy {
	case "":
		cfg.MoveStrategy = MoveStrategyRename
	case MoveStrategyRename, MoveStrategyCopy:
	default:
		return errors.Errorf("unknown move_strategy %q", cfg.MoveStrategy)
	}

	switch cfg.SelfCopyCheck {
	case "":
		cfg.SelfCopyCheck = SelfCopyCheckBasename
	case SelfCopyCheckBasename, SelfCopyCheckPath:
	default:
		return errors.Errorf("unknown self_copy_check %q", cfg.SelfCopyCheck)
	}

	switch cfg.StatusMode {
	case "":
		cfg.StatusMode = StatusModeTyped
	case StatusModeTyped, StatusModeLegacy:
	default:
		return errors.Errorf("unknown status_mode %q", cfg.StatusMode)
	}

	if cfg.JournalPath != "" {
		cfg.JournalPath = filepath.Clean(cfg.JournalPath)
	}

	return nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, errors.Errorf("%s must be positive", field)
	}
	return d, nil
}

// 📍 Addr returns the host:port the server listens on
func (s ServerArgs) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ⏱️ Timeouts returns the read, write and per-request timeouts. Only meaningful after Validate.
func (s ServerArgs) Timeouts() (read, write, request time.Duration) {
	return s.readTimeout, s.writeTimeout, s.requestTimeout
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s (%d upload types) @ %s", cfg.DocumentRoot, len(cfg.UploadTypes), cfg.Server.Addr())
}
