// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package listjobs

import (
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
	Applied []careerdb.JobRecord `json:"applied"`
	Saved   []careerdb.JobRecord `json:"saved"`
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	uid := auth.CurrentUID(r.Context())
	if uid == "" {
		util.RespondError(w, r, http.StatusUnauthorized, "sign-in required")
		return
	}

	applied, err := h.jobs.AppliedJobs(r.Context(), uid)
	if err != nil {
		slog.ErrorContext(r.Context(), "listjobs: loading applied jobs", "error", err)
		util.RespondError(w, r, http.StatusInternalServerError, "loading jobs failed")
		return
	}
	saved, err := h.jobs.SavedJobs(r.Context(), uid)
	if err != nil {
		slog.ErrorContext(r.Context(), "listjobs: loading saved jobs", "error", err)
		util.RespondError(w, r, http.StatusInternalServerError, "loading jobs failed")
		return
	}
	util.RespondJSON(w, r, http.StatusOK, response{Applied: applied, Saved: saved})
}
