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
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
//
//	document_root = "/srv/www"
//
//	upload_type "invoices" {
//	  root = "/srv/uploads/invoices"
//	}
//
//	server {
//	  port = 8080
//	}
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Define HCL schema
	type hclConfig struct {
		DocumentRoot string `hcl:"document_root"`
		UploadTypes  []struct {
			Name string `hcl:"name,label"`
			Root string `hcl:"root"`
		} `hcl:"upload_type,block"`
		Server *struct {
			Host           string `hcl:"host,optional"`
			Port           int    `hcl:"port,optional"`
			ReadTimeout    string `hcl:"read_timeout,optional"`
			WriteTimeout   string `hcl:"write_timeout,optional"`
			RequestTimeout string `hcl:"request_timeout,optional"`
		} `hcl:"server,block"`
		Copy *struct {
			Workers        int      `hcl:"workers,optional"`
			IgnorePatterns []string `hcl:"ignore_patterns,optional"`
		} `hcl:"copy,block"`
		MoveStrategy  string `hcl:"move_strategy,optional"`
		SelfCopyCheck string `hcl:"self_copy_check,optional"`
		StatusMode    string `hcl:"status_mode,optional"`
		JournalPath   string `hcl:"journal_path,optional"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		DocumentRoot:  hclCfg.DocumentRoot,
		MoveStrategy:  hclCfg.MoveStrategy,
		SelfCopyCheck: hclCfg.SelfCopyCheck,
		StatusMode:    hclCfg.StatusMode,
		JournalPath:   hclCfg.JournalPath,
	}

	for _, ut := range hclCfg.UploadTypes {
		cfg.UploadTypes = append(cfg.UploadTypes, UploadType{
			Name: ut.Name,
			Root: ut.Root,
		})
	}

	if hclCfg.Server != nil {
		cfg.Server = ServerArgs{
			Host:           hclCfg.Server.Host,
			Port:           hclCfg.Server.Port,
			ReadTimeout:    hclCfg.Server.ReadTimeout,
			WriteTimeout:   hclCfg.Server.WriteTimeout,
			RequestTimeout: hclCfg.Server.RequestTimeout,
		}
	}

	if hclCfg.Copy != nil {
		cfg.Copy = CopyArgs{
			Workers:        hclCfg.Copy.Workers,
			IgnorePatterns: hclCfg.Copy.IgnorePatterns,
		}
	}

	return cfg, nil
}
