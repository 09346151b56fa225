// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package deletechat

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

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

func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	if err := h.engine.DeleteSession(r.Context(), chatID); err != nil {
		if errors.Is(err, chatsync.ErrUnauthenticated) {
			util.RespondError(w, r, http.StatusUnauthorized, "sign-in required")
			return
		}
		if errors.Is(err, chatsync.ErrNotParticipant) {
			util.RespondError(w, r, http.StatusForbidden, "not a chat participant")
			return
		}
		slog.ErrorContext(r.Context(), "deletechat: deleting session", "chatId", chatID, "error", err)
		util.RespondError(w, r, http.StatusInternalServerError, "deleting chat failed")
		return
	}
	util.RespondJSON(w, r, http.StatusOK, struct{}{})
}
