// Copyright 2026 The Voterium Authors.
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
	"encoding/json"
	"net/http"

	"github.com/voterium/votingd/internal/voting/apperrors"
)

// errorBody is the JSON shape every error response carries, matching
// original_source/errors.rs's AppError Serialize derive (title + message).
type errorBody struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// writeError maps an apperrors.Kind to its HTTP status and writes the
// {title, message} body. Anything that isn't an *apperrors.Error is
// treated as KindInternal and its details are not echoed back to the
// caller.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Title: "Internal error", Message: "an unexpected error occurred"}

	var appErr *apperrors.Error
	if e, ok := err.(*apperrors.Error); ok {
		appErr = e
	}
	if appErr != nil {
		body = errorBody{Title: appErr.Title, Message: appErr.Message}
		switch appErr.Kind {
		case apperrors.KindBadInput:
			status = http.StatusBadRequest
		case apperrors.KindAuthFailure:
			status = http.StatusUnauthorized
		case apperrors.KindBackpressure:
			status = http.StatusServiceUnavailable
		case apperrors.KindIOFailure, apperrors.KindBootstrapFailure, apperrors.KindInternal:
			status = http.StatusInternalServerError
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
