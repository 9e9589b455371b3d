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

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/walteh/uploadrelay/pkg/config"
	"github.com/walteh/uploadrelay/pkg/relocation"
	"gitlab.com/tozd/go/errors"
)

// operation names used for status mapping
const (
	opCopyFolder    = "copy_folder"
	opCopyAndRemove = "copy_and_remove"
	opRemoveFile    = "remove_file"
	opRenameFile    = "rename_file"
	opMoveFile      = "move_file"
)

// Handler serves relocation requests
type Handler struct {
	svc        Relocator
	statusMode string
}

// Response is the JSON body written for every request
type Response struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Kind        string `json:"kind,omitempty"`
	OperationID string `json:"operation_id,omitempty"`
}

// Health reports that the server is up
func (h *Handler) Health(w http.ResponseWriter, req *http.Request) {
	h.sendJSON(w, req, http.StatusOK, Response{Success: true, Message: "uploadrelay is healthy"})
}

// CopyFolderData copies one upload subdirectory into another
func (h *Handler) CopyFolderData(w http.ResponseWriter, req *http.Request) {
	out := h.svc.CopyFolder(req.Context(), relocationRequest(req))
	h.sendOutcome(w, req, opCopyFolder, out)
}

// CopyAndRemoveFolderData copies one upload subdirectory into another and removes the source
func (h *Handler) CopyAndRemoveFolderData(w http.ResponseWriter, req *http.Request) {
	remove := true
	if raw := req.URL.Query().Get("remove_current_folder"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.sendJSON(w, req, http.StatusBadRequest, Response{
				Success: false,
				Message: "remove_current_folder must be a boolean",
				Kind:    relocation.KindInvalidParameter.String(),
			})
			return
		}
		remove = parsed
	}

	out := h.svc.CopyAndRemove(req.Context(), relocationRequest(req), remove)
	h.sendOutcome(w, req, opCopyAndRemove, out)
}

// RemoveFile deletes one file below the document root
func (h *Handler) RemoveFile(w http.ResponseWriter, req *http.Request) {
	out := h.svc.RemoveFile(req.Context(), req.FormValue("file_full_path"))
	h.sendOutcome(w, req, opRemoveFile, out)
}

// RenameFile renames one file in place
func (h *Handler) RenameFile(w http.ResponseWriter, req *http.Request) {
	out := h.svc.RenameFile(req.Context(), relocation.RenameRequest{
		FullPath: req.FormValue("file_full_path"),
		NewName:  req.FormValue("file_new_name"),
	})
	h.sendOutcome(w, req, opRenameFile, out)
}

// MoveSingleFile moves one file between two document-root relative locations
func (h *Handler) MoveSingleFile(w http.ResponseWriter, req *http.Request) {
	out := h.svc.MoveDocumentFile(req.Context(), relocation.MoveRequest{
		SourcePath: req.FormValue("file_current_location"),
		TargetPath: req.FormValue("file_new_location"),
	})
	h.sendOutcome(w, req, opMoveFile, out)
}

func relocationRequest(req *http.Request) relocation.Request {
	q := req.URL.Query()
	return relocation.Request{
		CurrentUploadType: q.Get("current_upload_type"),
		TargetUploadType:  q.Get("target_upload_type"),
		CurrentSubdirPath: q.Get("current_subdir_path"),
		TargetSubdirPath:  q.Get("target_subdir_path"),
	}
}

func (h *Handler) sendOutcome(w http.ResponseWriter, req *http.Request, op string, out relocation.Outcome) {
	resp := Response{
		Success:     out.Success,
		Message:     out.Message,
		OperationID: out.OperationID,
	}
	if !out.Success {
		resp.Kind = out.Kind.String()
	}

	status := StatusCode(h.statusMode, op, out)
	if !out.Success && errors.Is(req.Context().Err(), context.DeadlineExceeded) {
		zerolog.Ctx(req.Context()).Warn().Str("operation", op).Msg("request deadline exceeded")
		status = http.StatusGatewayTimeout
	}
	h.sendJSON(w, req, status, resp)
}

// 🔢 StatusCode picks the HTTP status for an outcome. Legacy mode answers every
// failure with 500, except a missing file on remove which stays 404.
func StatusCode(mode, op string, out relocation.Outcome) int {
	if out.Success {
		return http.StatusOK
	}
	if mode == config.StatusModeLegacy {
		if op == opRemoveFile && out.Kind == relocation.KindPathNotFound {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	}
	if out.StatusCode != 0 {
		return out.StatusCode
	}
	return out.Kind.StatusCode()
}

func (h *Handler) sendJSON(w http.ResponseWriter, req *http.Request, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zerolog.Ctx(req.Context()).Error().Err(err).Msg("writing response")
	}
}
