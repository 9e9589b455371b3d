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

// Package treecopy copies files and directory trees with atomic per-file writes.
package treecopy

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// TempSuffix ends the name of every temp file written next to a destination.
const TempSuffix = ".uploadrelay.tmp"

// 📊 Summary counts what a Copy did. Skipped covers ignored paths and irregular
// files; an ignored directory counts once.
type Summary struct {
	Copied  int
	Skipped int
}

// 🔧 Options configures a Copier
type Options struct {
	// Workers bounds the number of files copied at once. Values below 1 mean 1.
	Workers int
	// IgnorePatterns are doublestar globs matched against slash paths relative to the source root
	IgnorePatterns []string
}

// 📦 Copier copies files and directory trees
type Copier struct {
	workers int
	ignore  []string
}

// 🏭 New creates a copier, rejecting malformed ignore patterns
func New(opts Options) (*Copier, error) {
	for _, pattern := range opts.IgnorePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Copier{
		workers: workers,
		ignore:  opts.IgnorePatterns,
	}, nil
}

// tempPattern is the os.CreateTemp pattern for temp files of dst
func tempPattern(dst string) string {
	return "." + filepath.Base(dst) + ".*" + TempSuffix
}

// 🔍 Temps lists leftover temp files written for dst
func Temps(dst string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Dir(dst))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("listing temp files: %w", err)
	}

	prefix := "." + filepath.Base(dst) + "."
	var temps []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, TempSuffix) {
			continue
		}
		// os.CreateTemp fills the * with digits only
		random := strings.TrimSuffix(strings.TrimPrefix(name, prefix), TempSuffix)
		if random == "" || strings.Trim(random, "0123456789") != "" {
			continue
		}
		temps = append(temps, filepath.Join(filepath.Dir(dst), name))
	}
	return temps, nil
}

// 🧹 RemoveTemps deletes leftover temp files written for dst
func RemoveTemps(dst string) error {
	temps, err := Temps(dst)
	if err != nil {
		return err
	}
	for _, temp := range temps {
		if err := os.Remove(temp); err != nil && !os.IsNotExist(err) {
			return errors.Errorf("removing temp file: %w", err)
		}
	}
	return nil
}

// 🏃 Copy copies src to dst. A file source is copied to the file dst; a directory
// source has its contents copied into dst, which is created when missing.
// Existing files under dst are overwritten. A symlinked src is followed.
func (c *Copier) Copy(ctx context.Context, src, dst string) (Summary, error) {
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return Summary{}, errors.Errorf("reading source: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return Summary{}, errors.Errorf("reading source: %w", err)
	}

	if !info.IsDir() {
		if err := CopyFile(ctx, resolved, dst); err != nil {
			return Summary{}, err
		}
		return Summary{Copied: 1}, nil
	}

	return c.copyTree(ctx, resolved, dst, info.Mode().Perm())
}

// 🌳 copyTree walks src, creating directories in walk order and handing files to a bounded group
func (c *Copier) copyTree(ctx context.Context, src, dst string, mode fs.FileMode) (Summary, error) {
	logger := zerolog.Ctx(ctx)
	var summary Summary
	var copied atomic.Int64

	if err := os.MkdirAll(dst, mode); err != nil {
		return summary, errors.Errorf("creating destination directory: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Errorf("walking %s: %w", path, err)
		}
		if err := gctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Errorf("relative path of %s: %w", path, err)
		}
		if rel == "." {
			return nil
		}

		if c.shouldIgnore(rel) {
			logger.Debug().Str("path", rel).Msg("skipping ignored path")
			summary.Skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return errors.Errorf("reading %s: %w", path, err)
			}
			if err := os.MkdirAll(target, info.Mode().Perm()); err != nil {
				return errors.Errorf("creating directory %s: %w", target, err)
			}
		case d.Type()&fs.ModeSymlink != 0:
			if err := copySymlink(path, target); err != nil {
				return err
			}
			copied.Add(1)
		case d.Type().IsRegular():
			g.Go(func() error {
				if err := CopyFile(gctx, path, target); err != nil {
					return err
				}
				copied.Add(1)
				return nil
			})
		default:
			logger.Debug().Str("path", rel).Str("mode", d.Type().String()).Msg("skipping irregular file")
			summary.Skipped++
		}

		return nil
	})

	// always join the group so no copy outlives the call
	groupErr := g.Wait()
	summary.Copied = int(copied.Load())
	if walkErr != nil {
		if groupErr != nil && errors.Is(walkErr, context.Canceled) {
			return summary, groupErr
		}
		return summary, walkErr
	}
	return summary, groupErr
}

// 🔍 shouldIgnore checks if a path relative to the source root matches an ignore pattern
func (c *Copier) shouldIgnore(rel string) bool {
	slashed := filepath.ToSlash(rel)
	for _, pattern := range c.ignore {
		matched, err := doublestar.Match(pattern, slashed)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// 📄 CopyFile copies a single regular file. The content is written to a unique temp
// file next to dst and renamed into place, so dst is either absent, unchanged, or complete.
func CopyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return errors.Errorf("reading source file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return errors.Errorf("source %s is not a regular file", src)
	}

	temp, err := os.CreateTemp(filepath.Dir(dst), tempPattern(dst))
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if err := temp.Chmod(info.Mode().Perm()); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return errors.Errorf("setting temp file mode: %w", err)
	}

	if _, err := io.Copy(temp, source); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return errors.Errorf("copying file content: %w", err)
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return errors.Errorf("syncing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}

	if err := os.Chtimes(tempPath, info.ModTime(), info.ModTime()); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting file times: %w", err)
	}

	if err := os.Rename(tempPath, dst); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	zerolog.Ctx(ctx).Trace().Str("source", src).Str("target", dst).Int64("size", info.Size()).Msg("copied file")
	return nil
}

func copySymlink(src, dst string) error {
	link, err := os.Readlink(src)
	if err != nil {
		return errors.Errorf("reading symlink %s: %w", src, err)
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return errors.Errorf("replacing %s: %w", dst, err)
	}
	if err := os.Symlink(link, dst); err != nil {
		return errors.Errorf("creating symlink %s: %w", dst, err)
	}
	return nil
}
