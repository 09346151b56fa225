// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package listchats

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

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

type chatItem struct {
	ChatID            string    `json:"chatId"`
	CounterpartyID    string    `json:"counterpartyId"`
	CounterpartyName  string    `json:"counterpartyName"`
	CounterpartyImage string    `json:"counterpartyImage,omitempty"`
	LastMessage       string    `json:"lastMessage,omitempty"`
	LastMessageAt     time.Time `json:"lastMessageAt"`
}

type response struct {
	Chats []chatItem `json:"chats"`
}

func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	views, err := h.engine.ListSessions(r.Context())
	if err != nil {
		if errors.Is(err, chatsync.ErrUnauthenticated) {
			util.RespondError(w, r, http.StatusUnauthorized, "sign-in required")
			return
		}
		slog.ErrorContext(r.Context(), "listchats: listing sessions", "error", err)
		util.RespondError(w, r, http.StatusInternalServerError, "listing chats failed")
		return
	}

	chats := make([]chatItem, len(views))
	for i, v := range views {
		chats[i] = chatItem{
			ChatID:            v.Session.ID,
			CounterpartyID:    v.CounterpartyID,
			CounterpartyName:  v.CounterpartyName,
			CounterpartyImage: v.CounterpartyImage,
			LastMessage:       v.Session.LastMessage,
			LastMessageAt:     v.Session.LastMessageAt,
		}
	}
	util.RespondJSON(w, r, http.StatusOK, response{Chats: chats})
}
