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

import "net/http"

// 🏷️ Kind classifies why an operation failed
type Kind string

const (
	KindNone             Kind = ""
	KindMissingParameter Kind = "missing_parameter" // a required field is empty
	KindInvalidParameter Kind = "invalid_parameter" // a field is present but malformed
	KindInvalidPath      Kind = "invalid_path"      // unknown upload type, escaping path, wrong file type
	KindPathNotFound     Kind = "path_not_found"    // source or target does not exist
	KindConflict         Kind = "conflict"          // target exists, or source and target are the same place
	KindIOFailure        Kind = "io_failure"        // the filesystem call itself failed
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindNone {
		return "none"
	}
	return string(k)
}

// 🔢 StatusCode maps a kind to its HTTP status
func (k Kind) StatusCode() int {
	switch k {
	case KindNone:
		return http.StatusOK
	case KindMissingParameter, KindInvalidParameter, KindInvalidPath:
		return http.StatusBadRequest
	case KindPathNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// 📬 Outcome is the result of one operation invocation
type Outcome struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Kind        Kind   `json:"kind,omitempty"`
	StatusCode  int    `json:"-"`
	OperationID string `json:"operation_id"`
}

// Copy folder messages
const (
	MsgCurrentUploadTypeMissing = "current upload type missing"
	MsgTargetUploadTypeMissing  = "target upload type missing"
	MsgCurrentSubdirMissing     = "current subdirectory path missing"
	MsgTargetSubdirMissing      = "target subdirectory path missing"
	MsgSameFolder               = "cannot copy to same folder"
	MsgCurrentUploadTypeUnknown = "current upload type is not registered"
	MsgTargetUploadTypeUnknown  = "target upload type is not registered"
	MsgCurrentSubdirOutsideRoot = "current subdirectory path is outside its upload root"
	MsgTargetSubdirOutsideRoot  = "target subdirectory path is outside its upload root"
	MsgCurrentSubdirNotFound    = "current subdirectory does not exist"
	MsgTargetSubdirNotFound     = "target subdirectory does not exist"
	MsgTargetInsideCurrent      = "target subdirectory is inside current subdirectory"
	MsgCopyFailed               = "error while copying data between folders"
	MsgCopied                   = "data has been copied to target directory"
	MsgCopiedOnly               = "data has been copied"
	MsgCopiedAndRemoved         = "data has been copied and removed afterward"
	MsgRemoveAfterCopyFailed    = "data copied but current folder could not be removed"
	MsgRemoveSkippedEntries     = "data copied but current folder kept because some entries were not copied"
	MsgFilePathMissing          = "file path missing"
	MsgFilePathOutsideRoot      = "file path is outside the document root"
	MsgFileNotFound             = "file does not exist"
	MsgFileIsDirectory          = "path is a directory"
	MsgFileCheckFailed          = "error while checking the file"
	MsgRemoveFailed             = "error while removing the file"
	MsgFileRemoved              = "file has been removed"
	MsgNameEmpty                = "name cannot be empty"
	MsgNameInvalid              = "name must be a plain file name"
	MsgNameUnchanged            = "name unchanged"
	MsgNameExists               = "name already exists"
	MsgRenameFailed             = "error while renaming the file"
	MsgRenamed                  = "file has been renamed"
	MsgSourcePathMissing        = "source path missing"
	MsgTargetPathMissing        = "target path missing"
	MsgSourceNotFound           = "source does not exist"
	MsgSourceIsDirectory        = "source is a directory"
	MsgMovePathOutsideRoot      = "file location is outside the document root"
	MsgTargetExists             = "target already exists"
	MsgMoveFailed               = "could not move the file"
	MsgMoved                    = "file has been moved"
)
