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
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gitlab.com/tozd/go/errors"
)

// Environment variables that override values from the config file
const (
	EnvDocumentRoot = "UPLOADRELAY_DOCUMENT_ROOT"
	EnvHost         = "UPLOADRELAY_HOST"
	EnvPort         = "UPLOADRELAY_PORT"
	EnvJournalPath  = "UPLOADRELAY_JOURNAL_PATH"
)

// 🌱 LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error; variables already set are left alone.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// 🔁 ApplyEnv overrides config values with any UPLOADRELAY_* variables that are set
func (cfg *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDocumentRoot); v != "" {
		cfg.DocumentRoot = v
	}
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Errorf("%s: %w", EnvPort, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv(EnvJournalPath); v != "" {
		cfg.JournalPath = v
	}
	return nil
}
