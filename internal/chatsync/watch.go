// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package chatsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/careerdeck/careerdeck/backend/server/internal/auth"
	"github.com/careerdeck/careerdeck/backend/server/internal/careerdb"
)

// listenErrors records the most recent listener failure per session. Errors
// stop the listener but are never surfaced as a crash; the subscriber must
// resubscribe to retry.
type listenErrors struct {
	mu   sync.Mutex
	errs map[string]error
}

func (l *listenErrors) record(sessionID string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.errs == nil {
		l.errs = map[string]error{}
	}
	l.errs[sessionID] = err
}

func (l *listenErrors) get(sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errs[sessionID]
}

func (l *listenErrors) clear(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.errs, sessionID)
}

// LastListenError returns the most recent listener failure for a session,
// or nil.
func (e *Engine) LastListenError(sessionID string) error {
	return e.listenErrs.get(sessionID)
}

// SubscribeMessages returns a channel of message-list snapshots for the
// session, each ordered by server timestamp ascending. Only participants of
// the session may subscribe. The channel is closed when the context is
// canceled or the listener fails; failures are recorded and not retried.
func (e *Engine) SubscribeMessages(ctx context.Context, sessionID string) (<-chan []careerdb.ChatMessage, error) {
	uid := auth.CurrentUID(ctx)
	if uid == "" {
		return nil, ErrUnauthenticated
	}

	snap, err := e.store.Collection(chatsCollection).Doc(sessionID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("chatsync: getting session: %w", err)
	}
	var session careerdb.ChatSession
	if err := snap.DataTo(&session); err != nil {
		return nil, fmt.Errorf("chatsync: decoding session: %w", err)
	}
	if !session.HasParticipant(uid) {
		return nil, ErrNotParticipant
	}

	ch := make(chan []careerdb.ChatMessage, 1)
	go func() {
		defer close(ch)

		snaps := e.store.Collection(chatsCollection).Doc(sessionID).
			Collection(messagesCollection).
			OrderBy("sentAt", firestore.Asc).
			Snapshots(ctx)
		defer snaps.Stop()

		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled && !errors.Is(err, context.Canceled) {
					e.listenErrs.record(sessionID, err)
					slog.ErrorContext(ctx, "chatsync: message listener stopped", "chatId", sessionID, "error", err)
				}
				return
			}

			msgs := make([]careerdb.ChatMessage, 0, snap.Size)
			for {
				doc, err := snap.Documents.Next()
				if errors.Is(err, iterator.Done) {
					break
				}
				if err != nil {
					e.listenErrs.record(sessionID, err)
					slog.ErrorContext(ctx, "chatsync: reading message snapshot", "chatId", sessionID, "error", err)
					return
				}
				var m careerdb.ChatMessage
				if err := doc.DataTo(&m); err != nil {
					slog.WarnContext(ctx, "chatsync: skipping undecodable message", "doc", doc.Ref.ID, "error", err)
					continue
				}
				msgs = append(msgs, m)
			}
			// Pending server timestamps decode as zero time until the
			// write commits; the re-sort keeps delivery stable.
			careerdb.SortMessages(msgs)

			// A delivered snapshot supersedes any failure recorded by an
			// earlier listener for this session.
			e.listenErrs.clear(sessionID)

			select {
			case ch <- msgs:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
