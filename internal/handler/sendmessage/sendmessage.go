// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package sendmessage

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

type attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	// Data is the attachment content, base64 in transit.
	Data []byte `json:"data"`
}

type request struct {
	Text       string      `json:"text"`
	Attachment *attachment `json:"attachment"`
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var req request
	if err := util.DecodeJSON(r, &req); err != nil {
		util.RespondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	var att *chatsync.Attachment
	if req.Attachment != nil {
		att = &chatsync.Attachment{
			Name:        req.Attachment.Name,
			ContentType: req.Attachment.ContentType,
			Data:        req.Attachment.Data,
		}
	}

	err := h.engine.SendMessage(r.Context(), chatID, req.Text, att)
	switch {
	case errors.Is(err, chatsync.ErrUnauthenticated):
		util.RespondError(w, r, http.StatusUnauthorized, "sign-in required")
	case errors.Is(err, chatsync.ErrNotParticipant):
		util.RespondError(w, r, http.StatusForbidden, "not a chat participant")
	case errors.Is(err, chatsync.ErrEmptyMessage):
		util.RespondError(w, r, http.StatusBadRequest, "message requires text or an attachment")
	case err != nil:
		slog.ErrorContext(r.Context(), "sendmessage: sending message", "chatId", chatID, "error", err)
		util.RespondError(w, r, http.StatusInternalServerError, "sending message failed")
	default:
		util.RespondJSON(w, r, http.StatusOK, struct{}{})
	}
}
