// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package openchat

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/careerdeck/careerdeck/backend/server/internal/careerdb"
	"github.com/careerdeck/careerdeck/backend/server/internal/chatsync"
	"github.com/careerdeck/careerdeck/backend/server/internal/util"
)

func NewHandler(engine *chatsync.Engine) *Handler {
	return &Handler{
		engine: engine,
	}
}

type Handler struct {
	engine *chatsync.Engine
}

type response struct {
	ChatID string `json:"chatId"`
}

func (h *Handler) OpenChat(w http.ResponseWriter, r *http.Request) {
	var req careerdb.Counterparty
	if err := util.DecodeJSON(r, &req); err != nil {
		util.RespondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LegacyID == "" {
		util.RespondError(w, r, http.StatusBadRequest, "legacyId is required")
		return
	}

	chatID, err := h.engine.OpenOrCreateSession(r.Context(), req)
	if err != nil {
		if errors.Is(err, chatsync.ErrUnauthenticated) {
			util.RespondError(w, r, http.StatusUnauthorized, "sign-in required")
			return
		}
		slog.ErrorContext(r.Context(), "openchat: opening session", "error", err)
		util.RespondError(w, r, http.StatusInternalServerError, "opening chat failed")
		return
	}
	util.RespondJSON(w, r, http.StatusOK, response{ChatID: chatID})
}
