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
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/uploadrelay/cmd/uploadrelay/opts"
	"github.com/walteh/uploadrelay/pkg/relocation"
	"gitlab.com/tozd/go/errors"
)

// report prints an outcome and turns a failure into a command error
func report(cmd *cobra.Command, o *opts.RootOpts, op string, out relocation.Outcome) error {
	o.Console.LogOutcome(cmd.Context(), op, out)
	if o.Console.Failed() {
		return errors.Errorf("%s failed: %s", op, out.Message)
	}
	return nil
}

// withService runs fn against a freshly wired service and closes the journal afterward
func withService(cmd *cobra.Command, o *opts.RootOpts, name string, fn func(svc *relocation.Service) error) error {
	ctx := zerolog.Ctx(cmd.Context()).With().Str("command", name).Logger().WithContext(cmd.Context())
	cmd.SetContext(ctx)

	_, svc, j, err := o.Service(ctx)
	if err != nil {
		return err
	}
	defer j.Close()

	return fn(svc)
}

// NewCopyCmd creates the copy command
func NewCopyCmd(o *opts.RootOpts) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "copy <current-type> <current-path> <target-type> <target-path>",
		Short: "Copy the contents of one upload subdirectory into another",
		Long: `Copy copies everything below <current-path> of the current upload type
into the existing <target-path> of the target upload type. With --remove the
current subdirectory is deleted once the copy succeeded.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := relocation.Request{
				CurrentUploadType: args[0],
				CurrentSubdirPath: args[1],
				TargetUploadType:  args[2],
				TargetSubdirPath:  args[3],
			}
			return withService(cmd, o, "copy", func(svc *relocation.Service) error {
				if remove {
					return report(cmd, o, "copy_and_remove", svc.CopyAndRemove(cmd.Context(), req, true))
				}
				return report(cmd, o, "copy_folder", svc.CopyFolder(cmd.Context(), req))
			})
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "remove the current subdirectory after copying")

	return cmd
}

// NewMoveCmd creates the move command
func NewMoveCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "move <source> <target>",
		Short: "Move a single file",
		Long: `Move moves one file to a path that must not exist yet. Relative
paths are resolved against the working directory.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := filepath.Abs(args[0])
			if err != nil {
				return errors.Errorf("resolving source: %w", err)
			}
			dst, err := filepath.Abs(args[1])
			if err != nil {
				return errors.Errorf("resolving target: %w", err)
			}
			return withService(cmd, o, "move", func(svc *relocation.Service) error {
				return report(cmd, o, "move_file", svc.MoveFile(cmd.Context(), relocation.MoveRequest{
					SourcePath: src,
					TargetPath: dst,
				}))
			})
		},
	}
}

// NewRenameCmd creates the rename command
func NewRenameCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a file below the document root, keeping its extension",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, o, "rename", func(svc *relocation.Service) error {
				return report(cmd, o, "rename_file", svc.RenameFile(cmd.Context(), relocation.RenameRequest{
					FullPath: args[0],
					NewName:  args[1],
				}))
			})
		},
	}
}

// NewRemoveCmd creates the remove command
func NewRemoveCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path>",
		Short: "Remove a file below the document root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, o, "remove", func(svc *relocation.Service) error {
				return report(cmd, o, "remove_file", svc.RemoveFile(cmd.Context(), args[0]))
			})
		},
	}
}

// NewRecoverCmd creates the recover command
func NewRecoverCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Finish or abandon moves interrupted by a crash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, o, "recover", func(svc *relocation.Service) error {
				o.Console.Header("recovering interrupted moves")
				rep, err := svc.RecoverMoves(cmd.Context())
				if err != nil {
					return errors.Errorf("recovering moves: %w", err)
				}
				o.Console.LogRecovery(cmd.Context(), rep)
				if rep.Failed > 0 {
					o.Console.Error(fmt.Sprintf("%d moves could not be recovered", rep.Failed))
					return errors.Errorf("%d moves could not be recovered", rep.Failed)
				}
				o.Console.Success("journal is clean")
				return nil
			})
		},
	}
}
