// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package watchmessages

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

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

type message struct {
	SenderUID   string    `json:"senderUid"`
	ReceiverUID string    `json:"receiverUid"`
	Kind        string    `json:"kind"`
	Content     string    `json:"content"`
	FileName    string    `json:"fileName,omitempty"`
	SentAt      time.Time `json:"sentAt"`
	Read        bool      `json:"read"`
}

// WatchMessages streams message-list snapshots for a chat as server-sent
// events until the client disconnects or the listener fails.
func (h *Handler) WatchMessages(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		util.RespondError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch, err := h.engine.SubscribeMessages(r.Context(), chatID)
	switch {
	case errors.Is(err, chatsync.ErrUnauthenticated):
		util.RespondError(w, r, http.StatusUnauthorized, "sign-in required")
		return
	case errors.Is(err, chatsync.ErrNotParticipant):
		util.RespondError(w, r, http.StatusForbidden, "not a chat participant")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "watchmessages: subscribing", "chatId", chatID, "error", err)
		util.RespondError(w, r, http.StatusInternalServerError, "watching chat failed")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for msgs := range ch {
		out := make([]message, len(msgs))
		for i, m := range msgs {
			out[i] = message{
				SenderUID:   m.SenderUID,
				ReceiverUID: m.ReceiverUID,
				Kind:        string(m.Kind),
				Content:     m.Content,
				FileName:    m.FileName,
				SentAt:      m.SentAt,
				Read:        m.Read,
			}
		}
		data, err := json.Marshal(out)
		if err != nil {
			slog.ErrorContext(r.Context(), "watchmessages: encoding snapshot", "chatId", chatID, "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}

	// The channel closing on a live request means the listener failed; tell
	// the client before ending the stream so it can resubscribe.
	if r.Context().Err() == nil {
		if err := h.engine.LastListenError(chatID); err != nil {
			fmt.Fprint(w, "event: error\ndata: message stream interrupted\n\n")
			flusher.Flush()
		}
	}
}
