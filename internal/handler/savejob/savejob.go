// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package savejob

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/careerdeck/careerdeck/backend/server/internal/auth"
	"github.com/careerdeck/careerdeck/backend/server/internal/careerdb"
	"github.com/careerdeck/careerdeck/backend/server/internal/jobstore"
	"github.com/careerdeck/careerdeck/backend/server/internal/util"
)

func NewHandler(jobs *jobstore.Store) *Handler {
	return &Handler{
		jobs: jobs,
	}
}

type Handler struct {
	jobs *jobstore.Store
}

type response struct {
	Saved bool `json:"saved"`
}

// SaveJob toggles the saved state of a job and returns the new state.
func (h *Handler) SaveJob(w http.ResponseWriter, r *http.Request) {
	uid := auth.CurrentUID(r.Context())
	if uid == "" {
		util.RespondError(w, r, http.StatusUnauthorized, "sign-in required")
		return
	}

	var job careerdb.Job
	if err := util.DecodeJSON(r, &job); err != nil {
		util.RespondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := h.jobs.ToggleSaveJob(r.Context(), uid, job)
	if err != nil {
		if errors.Is(err, jobstore.ErrNoJobKey) {
			util.RespondError(w, r, http.StatusBadRequest, "job has no id or title")
			return
		}
		slog.ErrorContext(r.Context(), "savejob: toggling save", "error", err)
		util.RespondError(w, r, http.StatusInternalServerError, "saving job failed")
		return
	}
	util.RespondJSON(w, r, http.StatusOK, response{Saved: saved})
}
