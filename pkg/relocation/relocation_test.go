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

package relocation

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/uploadrelay/pkg/config"
	"github.com/walteh/uploadrelay/pkg/journal"
	"github.com/walteh/uploadrelay/pkg/storage"
	"github.com/walteh/uploadrelay/pkg/treecopy"
	"github.com/walteh/uploadrelay/pkg/uploadtype"
	"gitlab.com/tozd/go/errors"
)

type mockCopier struct {
	mock.Mock
}

func (m *mockCopier) Copy(ctx context.Context, src, dst string) (treecopy.Summary, error) {
	args := m.Called(ctx, src, dst)
	return args.Get(0).(treecopy.Summary), args.Error(1)
}

type mockRemover struct {
	mock.Mock
}

func (m *mockRemover) RemoveFolder(ctx context.Context, uploadType, rel string) error {
	return m.Called(ctx, uploadType, rel).Error(0)
}

type fixture struct {
	root    string // document root
	table   *uploadtype.Table
	service *Service
}

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

// newFixture creates a document root with the "invoices" and "archive" upload types
func newFixture(t *testing.T, edit func(*Options)) *fixture {
	t.Helper()
	root := t.TempDir()
	table := uploadtype.New([]config.UploadType{
		{Name: "invoices", Root: filepath.Join(root, "invoices")},
		{Name: "archive", Root: filepath.Join(root, "archive")},
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "invoices"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "archive"), 0755))

	copier, err := treecopy.New(treecopy.Options{Workers: 2})
	require.NoError(t, err)

	opts := Options{
		DocumentRoot: root,
		Resolver:     table,
		Copier:       copier,
		Remover:      storage.NewRemover(table),
	}
	if edit != nil {
		edit(&opts)
	}

	svc, err := New(opts)
	require.NoError(t, err)

	return &fixture{root: root, table: table, service: svc}
}

func (f *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (f *fixture) mkdir(t *testing.T, rel string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(f.root, rel), 0755))
}

func read(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func assertFailure(t *testing.T, out Outcome, kind Kind, message string) {
	t.Helper()
	assert.False(t, out.Success, "operation should fail")
	assert.Equal(t, kind, out.Kind)
	assert.Equal(t, message, out.Message)
	assert.Equal(t, kind.StatusCode(), out.StatusCode)
	assert.NotEmpty(t, out.OperationID)
}

func assertSuccess(t *testing.T, out Outcome, message string) {
	t.Helper()
	assert.True(t, out.Success, "operation should succeed: %s", out.Message)
	assert.Equal(t, KindNone, out.Kind)
	assert.Equal(t, message, out.Message)
	assert.Equal(t, http.StatusOK, out.StatusCode)
	assert.NotEmpty(t, out.OperationID)
}

func TestNew(t *testing.T) {
	table := uploadtype.New(nil)
	copier := &mockCopier{}
	remover := &mockRemover{}

	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{name: "missing_document_root", opts: Options{Resolver: table, Copier: copier, Remover: remover}, wantErr: "document root is required"},
		{name: "missing_resolver", opts: Options{DocumentRoot: "/srv", Copier: copier, Remover: remover}, wantErr: "resolver is required"},
		{name: "missing_copier", opts: Options{DocumentRoot: "/srv", Resolver: table, Remover: remover}, wantErr: "copier is required"},
		{name: "missing_remover", opts: Options{DocumentRoot: "/srv", Resolver: table, Copier: copier}, wantErr: "remover is required"},
		{name: "unknown_move_strategy", opts: Options{DocumentRoot: "/srv", Resolver: table, Copier: copier, Remover: remover, MoveStrategy: "teleport"}, wantErr: "unknown move strategy"},
		{name: "unknown_self_copy_check", opts: Options{DocumentRoot: "/srv", Resolver: table, Copier: copier, Remover: remover, SelfCopyCheck: "inode"}, wantErr: "unknown self copy check"},
		{name: "defaults", opts: Options{DocumentRoot: "/srv", Resolver: table, Copier: copier, Remover: remover}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := New(tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, config.MoveStrategyRename, svc.moveStrategy)
			assert.Equal(t, config.SelfCopyCheckBasename, svc.selfCopyCheck)
			assert.IsType(t, journal.Nop{}, svc.journal)
		})
	}
}

func TestCopyFolderValidation(t *testing.T) {
	valid := Request{
		CurrentUploadType: "invoices",
		TargetUploadType:  "archive",
		CurrentSubdirPath: "A",
		TargetSubdirPath:  "B",
	}

	tests := []struct {
		name     string
		edit     func(*Request)
		check    string
		wantKind Kind
		wantMsg  string
	}{
		{name: "missing_current_upload_type", edit: func(r *Request) { r.CurrentUploadType = "" }, wantKind: KindMissingParameter, wantMsg: MsgCurrentUploadTypeMissing},
		{name: "missing_target_upload_type", edit: func(r *Request) { r.TargetUploadType = "" }, wantKind: KindMissingParameter, wantMsg: MsgTargetUploadTypeMissing},
		{name: "missing_current_subdir", edit: func(r *Request) { r.CurrentSubdirPath = "" }, wantKind: KindMissingParameter, wantMsg: MsgCurrentSubdirMissing},
		{name: "missing_target_subdir", edit: func(r *Request) { r.TargetSubdirPath = "" }, wantKind: KindMissingParameter, wantMsg: MsgTargetSubdirMissing},
		{
			name:     "first_missing_field_wins",
			edit:     func(r *Request) { *r = Request{} },
			wantKind: KindMissingParameter,
			wantMsg:  MsgCurrentUploadTypeMissing,
		},
		{
			name:     "same_folder",
			edit:     func(r *Request) { r.TargetUploadType = "invoices"; r.TargetSubdirPath = "A" },
			wantKind: KindConflict,
			wantMsg:  MsgSameFolder,
		},
		{
			name:     "same_basename_different_parents",
			edit:     func(r *Request) { r.TargetUploadType = "invoices"; r.CurrentSubdirPath = "x/A"; r.TargetSubdirPath = "y/A/" },
			wantKind: KindConflict,
			wantMsg:  MsgSameFolder,
		},
		{
			name:     "same_path_in_path_mode",
			edit:     func(r *Request) { r.TargetUploadType = "invoices"; r.TargetSubdirPath = "./A" },
			check:    config.SelfCopyCheckPath,
			wantKind: KindConflict,
			wantMsg:  MsgSameFolder,
		},
		{name: "unknown_current_upload_type", edit: func(r *Request) { r.CurrentUploadType = "photos" }, wantKind: KindInvalidPath, wantMsg: MsgCurrentUploadTypeUnknown},
		{name: "unknown_target_upload_type", edit: func(r *Request) { r.TargetUploadType = "photos" }, wantKind: KindInvalidPath, wantMsg: MsgTargetUploadTypeUnknown},
		{name: "current_escapes_root", edit: func(r *Request) { r.CurrentSubdirPath = "../archive/B" }, wantKind: KindInvalidPath, wantMsg: MsgCurrentSubdirOutsideRoot},
		{name: "target_escapes_root", edit: func(r *Request) { r.TargetSubdirPath = "../../etc" }, wantKind: KindInvalidPath, wantMsg: MsgTargetSubdirOutsideRoot},
		{name: "current_missing", edit: func(r *Request) { r.CurrentSubdirPath = "missing" }, wantKind: KindPathNotFound, wantMsg: MsgCurrentSubdirNotFound},
		{name: "target_missing", edit: func(r *Request) { r.TargetSubdirPath = "missing" }, wantKind: KindPathNotFound, wantMsg: MsgTargetSubdirNotFound},
		{
			name:     "target_inside_current",
			edit:     func(r *Request) { r.TargetUploadType = "invoices"; r.TargetSubdirPath = "A/nested" },
			wantKind: KindConflict,
			wantMsg:  MsgTargetInsideCurrent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			copier := &mockCopier{}
			f := newFixture(t, func(o *Options) {
				o.Copier = copier
				o.SelfCopyCheck = tt.check
			})
			f.mkdir(t, "invoices/A/nested")
			f.mkdir(t, "archive/B")

			req := valid
			tt.edit(&req)

			out := f.service.CopyFolder(testContext(t), req)
			assertFailure(t, out, tt.wantKind, tt.wantMsg)
			copier.AssertNotCalled(t, "Copy", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCopyFolderPathModeAllowsSameBasename(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.SelfCopyCheck = config.SelfCopyCheckPath })
	f.write(t, "invoices/x/A/one.txt", "1")
	f.mkdir(t, "invoices/y/A")

	out := f.service.CopyFolder(testContext(t), Request{
		CurrentUploadType: "invoices",
		TargetUploadType:  "invoices",
		CurrentSubdirPath: "x/A",
		TargetSubdirPath:  "y/A",
	})

	assertSuccess(t, out, MsgCopied)
	assert.Equal(t, "1", read(t, filepath.Join(f.root, "invoices/y/A/one.txt")))
}

func TestCopyFolder(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, "invoices/A/x.pdf", "pdf")
	f.write(t, "invoices/A/sub/y.pdf", "nested pdf")
	f.write(t, "archive/B/x.pdf", "stale")
	f.write(t, "archive/B/keep.txt", "keep")

	out := f.service.CopyFolder(testContext(t), Request{
		CurrentUploadType: "invoices",
		TargetUploadType:  "archive",
		CurrentSubdirPath: "A",
		TargetSubdirPath:  "B",
	})

	assertSuccess(t, out, MsgCopied)
	assert.Equal(t, "pdf", read(t, filepath.Join(f.root, "archive/B/x.pdf")), "existing file should be overwritten")
	assert.Equal(t, "nested pdf", read(t, filepath.Join(f.root, "archive/B/sub/y.pdf")))
	assert.Equal(t, "keep", read(t, filepath.Join(f.root, "archive/B/keep.txt")))
	assert.FileExists(t, filepath.Join(f.root, "invoices/A/x.pdf"), "source should be left intact")
}

func TestCopyFolderFollowsSymlinkedSource(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, "shared/x.pdf", "pdf")
	f.mkdir(t, "invoices/B")
	require.NoError(t, os.Symlink(filepath.Join(f.root, "shared"), filepath.Join(f.root, "invoices/A")))

	out := f.service.CopyFolder(testContext(t), Request{
		CurrentUploadType: "invoices",
		TargetUploadType:  "invoices",
		CurrentSubdirPath: "A",
		TargetSubdirPath:  "B",
	})

	assertSuccess(t, out, MsgCopied)
	assert.Equal(t, "pdf", read(t, filepath.Join(f.root, "invoices/B/x.pdf")))
}

func TestCopyFolderRejectsTargetInsideSymlinkedSource(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, "archive/B/x.pdf", "pdf")
	require.NoError(t, os.Symlink(filepath.Join(f.root, "archive"), filepath.Join(f.root, "invoices/A")))

	out := f.service.CopyFolder(testContext(t), Request{
		CurrentUploadType: "invoices",
		TargetUploadType:  "archive",
		CurrentSubdirPath: "A",
		TargetSubdirPath:  "B",
	})

	assertFailure(t, out, KindConflict, MsgTargetInsideCurrent)
}

func TestCopyFolderCopyFailure(t *testing.T) {
	copier := &mockCopier{}
	f := newFixture(t, func(o *Options) { o.Copier = copier })
	f.mkdir(t, "invoices/A")
	f.mkdir(t, "archive/B")

	copier.On("Copy", mock.Anything, filepath.Join(f.root, "invoices/A"), filepath.Join(f.root, "archive/B")).
		Return(treecopy.Summary{}, errors.New("disk full"))

	out := f.service.CopyFolder(testContext(t), Request{
		CurrentUploadType: "invoices",
		TargetUploadType:  "archive",
		CurrentSubdirPath: "A",
		TargetSubdirPath:  "B",
	})

	assertFailure(t, out, KindIOFailure, MsgCopyFailed)
	assert.NotContains(t, out.Message, "disk full", "error detail should not leak")
	copier.AssertExpectations(t)
}

func TestCopyAndRemove(t *testing.T) {
	req := Request{
		CurrentUploadType: "invoices",
		TargetUploadType:  "archive",
		CurrentSubdirPath: "A",
		TargetSubdirPath:  "B",
	}

	t.Run("copies_and_removes", func(t *testing.T) {
		f := newFixture(t, nil)
		f.write(t, "invoices/A/x.pdf", "pdf")
		f.mkdir(t, "archive/B")

		out := f.service.CopyAndRemove(testContext(t), req, true)

		assertSuccess(t, out, MsgCopiedAndRemoved)
		assert.Equal(t, "pdf", read(t, filepath.Join(f.root, "archive/B/x.pdf")))
		assert.NoDirExists(t, filepath.Join(f.root, "invoices/A"))
		assert.DirExists(t, filepath.Join(f.root, "invoices"), "upload root should survive")
	})

	t.Run("copies_without_removing", func(t *testing.T) {
		f := newFixture(t, nil)
		f.write(t, "invoices/A/x.pdf", "pdf")
		f.mkdir(t, "archive/B")

		out := f.service.CopyAndRemove(testContext(t), req, false)

		assertSuccess(t, out, MsgCopiedOnly)
		assert.FileExists(t, filepath.Join(f.root, "archive/B/x.pdf"))
		assert.FileExists(t, filepath.Join(f.root, "invoices/A/x.pdf"))
	})

	t.Run("copy_failure_removes_nothing", func(t *testing.T) {
		copier := &mockCopier{}
		remover := &mockRemover{}
		f := newFixture(t, func(o *Options) {
			o.Copier = copier
			o.Remover = remover
		})
		f.write(t, "invoices/A/x.pdf", "pdf")
		f.mkdir(t, "archive/B")
		copier.On("Copy", mock.Anything, mock.Anything, mock.Anything).Return(treecopy.Summary{}, errors.New("boom"))

		out := f.service.CopyAndRemove(testContext(t), req, true)

		assertFailure(t, out, KindIOFailure, MsgCopyFailed)
		remover.AssertNotCalled(t, "RemoveFolder", mock.Anything, mock.Anything, mock.Anything)
		assert.FileExists(t, filepath.Join(f.root, "invoices/A/x.pdf"))
	})

	t.Run("validation_failure_removes_nothing", func(t *testing.T) {
		remover := &mockRemover{}
		f := newFixture(t, func(o *Options) { o.Remover = remover })
		f.mkdir(t, "invoices/A")

		out := f.service.CopyAndRemove(testContext(t), req, true)

		assertFailure(t, out, KindPathNotFound, MsgTargetSubdirNotFound)
		remover.AssertNotCalled(t, "RemoveFolder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("skipped_entries_keep_current_folder", func(t *testing.T) {
		remover := &mockRemover{}
		f := newFixture(t, func(o *Options) {
			copier, err := treecopy.New(treecopy.Options{IgnorePatterns: []string{"**/*.bak"}})
			require.NoError(t, err)
			o.Copier = copier
			o.Remover = remover
		})
		f.write(t, "invoices/A/keep.pdf", "pdf")
		f.write(t, "invoices/A/notes.bak", "notes")
		f.mkdir(t, "archive/B")

		out := f.service.CopyAndRemove(testContext(t), req, true)

		assertFailure(t, out, KindConflict, MsgRemoveSkippedEntries)
		remover.AssertNotCalled(t, "RemoveFolder", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, "pdf", read(t, filepath.Join(f.root, "archive/B/keep.pdf")))
		assert.Equal(t, "notes", read(t, filepath.Join(f.root, "invoices/A/notes.bak")), "ignored file should not be lost")
	})

	t.Run("remove_failure_keeps_copy", func(t *testing.T) {
		remover := &mockRemover{}
		f := newFixture(t, func(o *Options) { o.Remover = remover })
		f.write(t, "invoices/A/x.pdf", "pdf")
		f.mkdir(t, "archive/B")
		remover.On("RemoveFolder", mock.Anything, "invoices", "A").Return(errors.New("permission denied"))

		out := f.service.CopyAndRemove(testContext(t), req, true)

		assertFailure(t, out, KindIOFailure, MsgRemoveAfterCopyFailed)
		assert.FileExists(t, filepath.Join(f.root, "archive/B/x.pdf"), "copy should not be rolled back")
		remover.AssertExpectations(t)
	})
}

func TestRemoveFile(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantKind Kind
		wantMsg  string
	}{
		{name: "removes_file", path: "/invoices/A/x.pdf", wantMsg: MsgFileRemoved},
		{name: "missing_path", path: "", wantKind: KindMissingParameter, wantMsg: MsgFilePathMissing},
		{name: "missing_file", path: "/invoices/A/nope.pdf", wantKind: KindPathNotFound, wantMsg: MsgFileNotFound},
		{name: "directory", path: "/invoices/A", wantKind: KindInvalidPath, wantMsg: MsgFileIsDirectory},
		{name: "escapes_document_root", path: "../../etc/passwd", wantKind: KindInvalidPath, wantMsg: MsgFilePathOutsideRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			file := f.write(t, "invoices/A/x.pdf", "pdf")

			out := f.service.RemoveFile(testContext(t), tt.path)

			if tt.wantKind == KindNone {
				assertSuccess(t, out, tt.wantMsg)
				assert.NoFileExists(t, file)
				return
			}
			assertFailure(t, out, tt.wantKind, tt.wantMsg)
			assert.FileExists(t, file)
		})
	}
}

func TestNewFileName(t *testing.T) {
	tests := []struct {
		name    string
		current string
		newName string
		want    string
	}{
		{name: "different_extension_appends_current", current: "report.txt", newName: "report.final", want: "report.final.txt"},
		{name: "no_extension_appends_current", current: "report.txt", newName: "summary", want: "summary.txt"},
		{name: "same_extension_kept", current: "report.txt", newName: "summary.txt", want: "summary.txt"},
		{name: "current_without_extension", current: "README", newName: "notes.md", want: "notes.md"},
		{name: "both_without_extension", current: "README", newName: "NOTES", want: "NOTES"},
		{name: "only_last_extension_counts", current: "archive.tar.gz", newName: "backup.tar", want: "backup.tar.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewFileName(tt.current, tt.newName))
		})
	}
}

func TestRenameFile(t *testing.T) {
	tests := []struct {
		name     string
		req      RenameRequest
		wantKind Kind
		wantMsg  string
		wantFile string // file expected to hold the content afterward
	}{
		{name: "appends_current_extension", req: RenameRequest{FullPath: "/docs/report.txt", NewName: "report.final"}, wantMsg: MsgRenamed, wantFile: "docs/report.final.txt"},
		{name: "trims_whitespace", req: RenameRequest{FullPath: "/docs/report.txt", NewName: "  summary.txt \n"}, wantMsg: MsgRenamed, wantFile: "docs/summary.txt"},
		{name: "same_name_unchanged", req: RenameRequest{FullPath: "/docs/report.txt", NewName: "report.txt"}, wantMsg: MsgNameUnchanged, wantFile: "docs/report.txt"},
		{name: "same_stem_unchanged", req: RenameRequest{FullPath: "/docs/report.txt", NewName: "report"}, wantMsg: MsgNameUnchanged, wantFile: "docs/report.txt"},
		{name: "missing_path", req: RenameRequest{NewName: "x"}, wantKind: KindMissingParameter, wantMsg: MsgFilePathMissing, wantFile: "docs/report.txt"},
		{name: "empty_name", req: RenameRequest{FullPath: "/docs/report.txt", NewName: "   "}, wantKind: KindMissingParameter, wantMsg: MsgNameEmpty, wantFile: "docs/report.txt"},
		{name: "name_with_separator", req: RenameRequest{FullPath: "/docs/report.txt", NewName: "../escape"}, wantKind: KindInvalidPath, wantMsg: MsgNameInvalid, wantFile: "docs/report.txt"},
		{name: "dot_dot_name", req: RenameRequest{FullPath: "/docs/report.txt", NewName: ".."}, wantKind: KindInvalidPath, wantMsg: MsgNameInvalid, wantFile: "docs/report.txt"},
		{name: "missing_file", req: RenameRequest{FullPath: "/docs/nope.txt", NewName: "other"}, wantKind: KindPathNotFound, wantMsg: MsgFileNotFound, wantFile: "docs/report.txt"},
		{name: "escapes_document_root", req: RenameRequest{FullPath: "../outside.txt", NewName: "x"}, wantKind: KindInvalidPath, wantMsg: MsgFilePathOutsideRoot, wantFile: "docs/report.txt"},
		{name: "document_root_itself", req: RenameRequest{FullPath: "/", NewName: "x"}, wantKind: KindInvalidPath, wantMsg: MsgFilePathOutsideRoot, wantFile: "docs/report.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.write(t, "docs/report.txt", "content")

			out := f.service.RenameFile(testContext(t), tt.req)

			if tt.wantKind == KindNone {
				assertSuccess(t, out, tt.wantMsg)
			} else {
				assertFailure(t, out, tt.wantKind, tt.wantMsg)
			}
			assert.Equal(t, "content", read(t, filepath.Join(f.root, tt.wantFile)))
		})
	}
}

func TestRenameFileConflictLeavesBothFiles(t *testing.T) {
	f := newFixture(t, nil)
	current := f.write(t, "docs/report.txt", "current")
	existing := f.write(t, "docs/summary.txt", "existing")

	out := f.service.RenameFile(testContext(t), RenameRequest{FullPath: "/docs/report.txt", NewName: "summary"})

	assertFailure(t, out, KindConflict, MsgNameExists)
	assert.Equal(t, "current", read(t, current))
	assert.Equal(t, "existing", read(t, existing))
}

func TestRenameFileFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, "docs/report.txt", "content")
	f.service.rename = func(context.Context, string, string) error {
		return errors.New("read-only file system")
	}

	out := f.service.RenameFile(testContext(t), RenameRequest{FullPath: "/docs/report.txt", NewName: "other"})

	assertFailure(t, out, KindIOFailure, MsgRenameFailed)
}

func openJournal(t *testing.T) *journal.SQLite {
	t.Helper()
	j, err := journal.Open(testContext(t), filepath.Join(t.TempDir(), "moves.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestMoveFile(t *testing.T) {
	for _, strategy := range []string{config.MoveStrategyRename, config.MoveStrategyCopy} {
		t.Run(strategy, func(t *testing.T) {
			j := openJournal(t)
			f := newFixture(t, func(o *Options) {
				o.MoveStrategy = strategy
				o.Journal = j
			})
			src := f.write(t, "incoming/x.pdf", "pdf bytes")
			dst := filepath.Join(f.root, "archive/2024/01/x.pdf")

			out := f.service.MoveFile(testContext(t), MoveRequest{SourcePath: src, TargetPath: dst})

			assertSuccess(t, out, MsgMoved)
			assert.Equal(t, "pdf bytes", read(t, dst))
			assert.NoFileExists(t, src)
			temps, err := treecopy.Temps(dst)
			require.NoError(t, err)
			assert.Empty(t, temps)

			pending, err := j.Pending(testContext(t))
			require.NoError(t, err)
			assert.Empty(t, pending, "no move should be left pending")
		})
	}
}

func TestMoveFileValidation(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		dst      string
		wantKind Kind
		wantMsg  string
	}{
		{name: "missing_source_path", dst: "out.pdf", wantKind: KindMissingParameter, wantMsg: MsgSourcePathMissing},
		{name: "missing_target_path", src: "x.pdf", wantKind: KindMissingParameter, wantMsg: MsgTargetPathMissing},
		{name: "source_missing", src: "nope.pdf", dst: "new/out.pdf", wantKind: KindPathNotFound, wantMsg: MsgSourceNotFound},
		{name: "source_is_directory", src: "dir", dst: "new/out.pdf", wantKind: KindInvalidPath, wantMsg: MsgSourceIsDirectory},
		{name: "target_exists", src: "x.pdf", dst: "taken.pdf", wantKind: KindConflict, wantMsg: MsgTargetExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			src := f.write(t, "x.pdf", "source")
			taken := f.write(t, "taken.pdf", "taken")
			f.mkdir(t, "dir")

			abs := func(rel string) string {
				if rel == "" {
					return ""
				}
				return filepath.Join(f.root, rel)
			}

			out := f.service.MoveFile(testContext(t), MoveRequest{SourcePath: abs(tt.src), TargetPath: abs(tt.dst)})

			assertFailure(t, out, tt.wantKind, tt.wantMsg)
			assert.Equal(t, "source", read(t, src))
			assert.Equal(t, "taken", read(t, taken))
			assert.NoDirExists(t, filepath.Join(f.root, "new"), "target directories should not be created")
		})
	}
}

func TestMoveFileCrossDevice(t *testing.T) {
	j := openJournal(t)
	f := newFixture(t, func(o *Options) { o.Journal = j })
	src := f.write(t, "a/x.pdf", "pdf")
	dst := filepath.Join(f.root, "b/x.pdf")

	f.service.rename = func(_ context.Context, from, to string) error {
		return errors.Errorf("renaming: %w", &os.LinkError{Op: "rename", Old: from, New: to, Err: syscall.EXDEV})
	}

	out := f.service.MoveFile(testContext(t), MoveRequest{SourcePath: src, TargetPath: dst})

	assertSuccess(t, out, MsgMoved)
	assert.Equal(t, "pdf", read(t, dst))
	assert.NoFileExists(t, src)
}

func TestMoveFileFailures(t *testing.T) {
	t.Run("rename_failure", func(t *testing.T) {
		f := newFixture(t, nil)
		src := f.write(t, "a/x.pdf", "pdf")
		dst := filepath.Join(f.root, "b/x.pdf")
		f.service.rename = func(context.Context, string, string) error {
			return errors.New("permission denied")
		}

		out := f.service.MoveFile(testContext(t), MoveRequest{SourcePath: src, TargetPath: dst})

		assertFailure(t, out, KindIOFailure, MsgMoveFailed)
		assert.FileExists(t, src)
		assert.NoFileExists(t, dst)
	})

	t.Run("copy_phase_failure_keeps_source", func(t *testing.T) {
		j := openJournal(t)
		f := newFixture(t, func(o *Options) {
			o.MoveStrategy = config.MoveStrategyCopy
			o.Journal = j
		})
		src := f.write(t, "a/x.pdf", "pdf")
		dst := filepath.Join(f.root, "b/x.pdf")
		f.service.copyFile = func(context.Context, string, string) error {
			return errors.New("no space left on device")
		}

		out := f.service.MoveFile(testContext(t), MoveRequest{SourcePath: src, TargetPath: dst})

		assertFailure(t, out, KindIOFailure, MsgMoveFailed)
		assert.Equal(t, "pdf", read(t, src))
		assert.NoFileExists(t, dst)

		pending, err := j.Pending(testContext(t))
		require.NoError(t, err)
		assert.Empty(t, pending, "failed copy should be marked abandoned")
	})
}

func TestRecoverMoves(t *testing.T) {
	ctx := testContext(t)
	j := openJournal(t)
	f := newFixture(t, func(o *Options) { o.Journal = j })

	// copy finished, source still present
	copiedSrc := f.write(t, "a/copied.pdf", "copied")
	copiedDst := f.write(t, "b/copied.pdf", "copied")
	require.NoError(t, j.Begin(ctx, "copied", copiedSrc, copiedDst))
	require.NoError(t, j.Advance(ctx, "copied", journal.PhaseCopied))

	// interrupted mid-copy, temp file left behind
	partialSrc := f.write(t, "a/partial.pdf", "partial")
	partialDst := filepath.Join(f.root, "b/partial.pdf")
	partialTmp := f.write(t, "b/.partial.pdf.4021"+treecopy.TempSuffix, "par")
	otherTmp := f.write(t, "b/.partial.pdf.977"+treecopy.TempSuffix, "p")
	require.NoError(t, j.Begin(ctx, "partial", partialSrc, partialDst))

	// source already removed, only the journal is behind
	removedDst := f.write(t, "b/removed.pdf", "removed")
	require.NoError(t, j.Begin(ctx, "removed", filepath.Join(f.root, "a/removed.pdf"), removedDst))
	require.NoError(t, j.Advance(ctx, "removed", journal.PhaseCopied))

	report, err := f.service.RecoverMoves(ctx)
	require.NoError(t, err)

	assert.Equal(t, RecoveryReport{Completed: 2, Abandoned: 1}, report)
	assert.NoFileExists(t, copiedSrc)
	assert.Equal(t, "copied", read(t, copiedDst))
	assert.Equal(t, "partial", read(t, partialSrc), "abandoned move should keep its source")
	assert.NoFileExists(t, partialTmp)
	assert.NoFileExists(t, otherTmp)
	assert.NoFileExists(t, partialDst)
	assert.Equal(t, "removed", read(t, removedDst))

	pending, err := j.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	report, err = f.service.RecoverMoves(ctx)
	require.NoError(t, err)
	assert.Equal(t, RecoveryReport{}, report, "second run should find nothing")
}

func TestEndToEndRelocation(t *testing.T) {
	ctx := testContext(t)
	f := newFixture(t, nil)
	f.write(t, "invoices/A/x.pdf", "x")
	f.write(t, "invoices/A/y.pdf", "y")
	f.mkdir(t, "invoices/B")

	out := f.service.CopyFolder(ctx, Request{
		CurrentUploadType: "invoices",
		TargetUploadType:  "invoices",
		CurrentSubdirPath: "A",
		TargetSubdirPath:  "B",
	})
	assertSuccess(t, out, MsgCopied)

	out = f.service.RemoveFile(ctx, "/invoices/B/x.pdf")
	assertSuccess(t, out, MsgFileRemoved)

	out = f.service.RenameFile(ctx, RenameRequest{FullPath: "/invoices/B/y.pdf", NewName: "paid"})
	assertSuccess(t, out, MsgRenamed)

	assert.NoFileExists(t, filepath.Join(f.root, "invoices/B/x.pdf"))
	assert.Equal(t, "y", read(t, filepath.Join(f.root, "invoices/B/paid.pdf")))
	assert.FileExists(t, filepath.Join(f.root, "invoices/A/x.pdf"))
	assert.FileExists(t, filepath.Join(f.root, "invoices/A/y.pdf"))
}

func TestOperationIDsAreUnique(t *testing.T) {
	f := newFixture(t, nil)
	ctx := testContext(t)

	first := f.service.RemoveFile(ctx, "")
	second := f.service.RemoveFile(ctx, "")

	assert.NotEqual(t, first.OperationID, second.OperationID)
}

func TestKind(t *testing.T) {
	tests := []struct {
		kind       Kind
		wantString string
		wantStatus int
	}{
		{kind: KindNone, wantString: "none", wantStatus: http.StatusOK},
		{kind: KindMissingParameter, wantString: "missing_parameter", wantStatus: http.StatusBadRequest},
		{kind: KindInvalidParameter, wantString: "invalid_parameter", wantStatus: http.StatusBadRequest},
		{kind: KindInvalidPath, wantString: "invalid_path", wantStatus: http.StatusBadRequest},
		{kind: KindPathNotFound, wantString: "path_not_found", wantStatus: http.StatusNotFound},
		{kind: KindConflict, wantString: "conflict", wantStatus: http.StatusConflict},
		{kind: KindIOFailure, wantString: "io_failure", wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.wantString, func(t *testing.T) {
			assert.Equal(t, tt.wantString, tt.kind.String())
			assert.Equal(t, tt.wantStatus, tt.kind.StatusCode())
		})
	}
}

func TestMoveDocumentFile(t *testing.T) {
	t.Run("moves_relative_paths", func(t *testing.T) {
		f := newFixture(t, nil)
		src := f.write(t, "invoices/A/x.pdf", "pdf")

		out := f.service.MoveDocumentFile(testContext(t), MoveRequest{
			SourcePath: "/invoices/A/x.pdf",
			TargetPath: "/archive/2024/x.pdf",
		})

		assertSuccess(t, out, MsgMoved)
		assert.NoFileExists(t, src)
		assert.Equal(t, "pdf", read(t, filepath.Join(f.root, "archive/2024/x.pdf")))
	})

	t.Run("rejects_escape", func(t *testing.T) {
		f := newFixture(t, nil)
		src := f.write(t, "invoices/A/x.pdf", "pdf")

		out := f.service.MoveDocumentFile(testContext(t), MoveRequest{
			SourcePath: "/invoices/A/x.pdf",
			TargetPath: "../../tmp/x.pdf",
		})

		assertFailure(t, out, KindInvalidPath, MsgMovePathOutsideRoot)
		assert.FileExists(t, src)
	})

	t.Run("empty_path_is_missing_parameter", func(t *testing.T) {
		f := newFixture(t, nil)

		out := f.service.MoveDocumentFile(testContext(t), MoveRequest{SourcePath: "/x.pdf"})

		assertFailure(t, out, KindMissingParameter, MsgTargetPathMissing)
	})
}
