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
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/uploadrelay/cmd/uploadrelay/opts"
	"github.com/walteh/uploadrelay/pkg/log"
)

// NewRootCmd creates the uploadrelay command tree
func NewRootCmd() *cobra.Command {
	o := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "uploadrelay",
		Short: "Copy, move, rename and remove uploaded files",
		Long: `uploadrelay relocates data inside configured upload roots.
It serves the relocation operations over HTTP (serve) and runs them
one at a time from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := o.Logger(cmd.ErrOrStderr())
			cmd.SetContext(logger.WithContext(cmd.Context()))
			o.Console = log.New(cmd.OutOrStdout(), logger)
			if o.Debug {
				pterm.EnableDebugMessages()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", "uploadrelay.yaml", "config file path (.yaml, .hcl or .json)")
	cmd.PersistentFlags().StringVar(&o.EnvFile, "env-file", ".env", "dotenv file applied before the config")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")

	cmd.AddCommand(
		NewServeCmd(o),
		NewCopyCmd(o),
		NewMoveCmd(o),
		NewRenameCmd(o),
		NewRemoveCmd(o),
		NewRecoverCmd(o),
		NewVersionCmd(),
	)

	return cmd
}
