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

package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/uploadrelay/cmd/uploadrelay/opts"
	"github.com/walteh/uploadrelay/pkg/api"
	"gitlab.com/tozd/go/errors"
)

// NewServeCmd creates the serve command
func NewServeCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the relocation API over HTTP",
		Long: `Serve recovers interrupted moves from the journal and then serves
the relocation routes until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "serve").Logger().WithContext(cmd.Context())

			cfg, svc, j, err := o.Service(ctx)
			if err != nil {
				return err
			}
			defer j.Close()

			report, err := svc.RecoverMoves(ctx)
			if err != nil {
				return errors.Errorf("recovering moves: %w", err)
			}
			if report.Completed+report.Abandoned+report.Failed > 0 {
				o.Console.LogRecovery(ctx, report)
			}
			if report.Failed > 0 {
				o.Console.Warning(fmt.Sprintf("%d interrupted moves stay pending until the next recovery", report.Failed))
			}

			_, _, requestTimeout := cfg.Server.Timeouts()
			router := api.NewRouter(svc, api.Options{
				StatusMode:     cfg.StatusMode,
				RequestTimeout: requestTimeout,
				Logger:         *zerolog.Ctx(ctx),
			})

			pterm.Info.WithPrefix(pterm.Prefix{Text: "🌐", Style: pterm.Info.Prefix.Style}).Printfln("serving %s on http://%s", cfg.DocumentRoot, cfg.Server.Addr())

			return api.NewServer(cfg.Server, router).Run(ctx)
		},
	}
}
