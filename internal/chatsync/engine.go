// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package chatsync resolves chat sessions between two identity namespaces
// and relays messages between participants.
package chatsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/careerdeck/careerdeck/backend/server/internal/auth"
	"github.com/careerdeck/careerdeck/backend/server/internal/careerdb"
	"github.com/careerdeck/careerdeck/backend/server/internal/file"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "messages"
	usersCollection    = "users"
)

// ErrUnauthenticated is returned when an operation requiring a signed-in
// user is invoked without one.
var ErrUnauthenticated = errors.New("chatsync: no authenticated user")

// ErrEmptyMessage is returned when a message has neither text nor an
// attachment.
var ErrEmptyMessage = errors.New("chatsync: empty message")

// ErrNotParticipant is returned when the caller is not a participant of the
// session an operation targets. Session IDs are derivable from participant
// identities, so possession of an ID alone grants nothing.
var ErrNotParticipant = errors.New("chatsync: not a session participant")

// Engine owns chat session identity, creation and lookup, duplicate
// suppression, and message relay.
type Engine struct {
	store      *firestore.Client
	files      *file.IO
	inflight   *inflightSet
	grace      time.Duration
	listenErrs listenErrors
}

// NewEngine returns an Engine. grace is how long a session ID stays in the
// in-flight set after a creation write, letting listeners observe the write
// before a fresh creation attempt is allowed.
func NewEngine(store *firestore.Client, files *file.IO, grace time.Duration) *Engine {
	return &Engine{
		store:    store,
		files:    files,
		inflight: newInflightSet(),
		grace:    grace,
	}
}

// OpenOrCreateSession resolves the counterparty into exactly one chat
// session, creating it on first contact, and returns the session ID.
//
// A concurrent call for the same pair short-circuits on the in-flight set
// and returns the same ID without writing. The creation write itself is a
// merge, so even two creators racing from different processes converge on
// one consistent document.
func (e *Engine) OpenOrCreateSession(ctx context.Context, other careerdb.Counterparty) (string, error) {
	uid := auth.CurrentUID(ctx)
	if uid == "" {
		return "", ErrUnauthenticated
	}

	sessionID := careerdb.DeriveSessionID(uid, other.Identity())
	if !e.inflight.tryAcquire(sessionID) {
		return sessionID, nil
	}

	doc := e.store.Collection(chatsCollection).Doc(sessionID)
	snap, err := doc.Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		e.inflight.release(sessionID)
		return "", fmt.Errorf("chatsync: checking for existing session: %w", err)
	}
	if snap != nil && snap.Exists() {
		e.inflight.releaseAfter(sessionID, e.grace)
		return sessionID, nil
	}

	self, err := e.profileForUID(ctx, uid)
	if err != nil {
		e.inflight.release(sessionID)
		return "", err
	}

	session := careerdb.NewChatSession(self, other)
	if _, err := doc.Set(ctx, session.FirestoreMap(), firestore.MergeAll); err != nil {
		e.inflight.release(sessionID)
		return "", fmt.Errorf("chatsync: creating session: %w", err)
	}

	e.inflight.releaseAfter(sessionID, e.grace)
	return sessionID, nil
}

// Attachment is binary content sent alongside or instead of message text.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// SendMessage appends a message to the session and updates the session's
// denormalized preview. If an attachment is present its content is uploaded
// to blob storage first and the message references the resulting URL.
//
// The preview update is a second, non-atomic write; its failure is logged
// and tolerated.
func (e *Engine) SendMessage(ctx context.Context, sessionID string, text string, att *Attachment) error {
	uid := auth.CurrentUID(ctx)
	if uid == "" {
		return ErrUnauthenticated
	}
	if text == "" && att == nil {
		return ErrEmptyMessage
	}

	doc := e.store.Collection(chatsCollection).Doc(sessionID)
	snap, err := doc.Get(ctx)
	if err != nil {
		return fmt.Errorf("chatsync: getting session: %w", err)
	}
	var session careerdb.ChatSession
	if err := snap.DataTo(&session); err != nil {
		return fmt.Errorf("chatsync: decoding session: %w", err)
	}
	if !session.HasParticipant(uid) {
		return ErrNotParticipant
	}

	msg := careerdb.ChatMessage{
		SenderUID:   uid,
		ReceiverUID: session.ReceiverFor(uid),
		Kind:        careerdb.MessageKindText,
		Content:     text,
	}

	preview := text
	if att != nil {
		path := fmt.Sprintf("chats/%s/%s", sessionID, uuid.NewString())
		url, err := e.files.WriteFile(ctx, path, att.ContentType, att.Data)
		if err != nil {
			return fmt.Errorf("chatsync: uploading attachment: %w", err)
		}
		msg.Kind = careerdb.KindForContentType(att.ContentType)
		msg.Content = url
		msg.FileName = att.Name
		if preview == "" {
			preview = att.Name
		}
	}

	if _, _, err := doc.Collection(messagesCollection).Add(ctx, msg); err != nil {
		return fmt.Errorf("chatsync: appending message: %w", err)
	}

	if _, err := doc.Set(ctx, map[string]any{
		"lastMessage":   preview,
		"lastMessageAt": firestore.ServerTimestamp,
	}, firestore.MergeAll); err != nil {
		slog.ErrorContext(ctx, "chatsync: updating session preview", "chatId", sessionID, "error", err)
	}
	return nil
}

// DeleteSession removes a session the caller participates in. Deleting a
// session that does not exist is not an error.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	uid := auth.CurrentUID(ctx)
	if uid == "" {
		return ErrUnauthenticated
	}

	doc := e.store.Collection(chatsCollection).Doc(sessionID)
	snap, err := doc.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("chatsync: getting session: %w", err)
	}
	var session careerdb.ChatSession
	if err := snap.DataTo(&session); err != nil {
		return fmt.Errorf("chatsync: decoding session: %w", err)
	}
	if !session.HasParticipant(uid) {
		return ErrNotParticipant
	}

	if _, err := doc.Delete(ctx); err != nil {
		return fmt.Errorf("chatsync: deleting session: %w", err)
	}
	return nil
}

// SessionView is a session joined with the counterparty's current profile
// for list rendering.
type SessionView struct {
	Session careerdb.ChatSession

	// CounterpartyID is the legacy backend ID of the other participant.
	CounterpartyID string

	// CounterpartyName is the freshest known display name, preferring the
	// profile record over the denormalized session copy.
	CounterpartyName string

	// CounterpartyImage is the freshest known profile image URL.
	CounterpartyImage string
}

// ListSessions returns the current user's sessions ordered by last activity
// descending, with counterparty profiles hydrated from the user collection.
func (e *Engine) ListSessions(ctx context.Context) ([]SessionView, error) {
	uid := auth.CurrentUID(ctx)
	if uid == "" {
		return nil, ErrUnauthenticated
	}

	docs := e.store.Collection(chatsCollection).
		Where("participantUids", "array-contains", uid).
		Documents(ctx)
	defer docs.Stop()

	var sessions []careerdb.ChatSession
	for {
		doc, err := docs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("chatsync: listing sessions: %w", err)
		}
		var s careerdb.ChatSession
		if err := doc.DataTo(&s); err != nil {
			slog.WarnContext(ctx, "chatsync: skipping undecodable session", "doc", doc.Ref.ID, "error", err)
			continue
		}
		sessions = append(sessions, s)
	}
	careerdb.SortSessionsByActivity(sessions)

	views := make([]SessionView, len(sessions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, s := range sessions {
		g.Go(func() error {
			legacyID := s.CounterpartyLegacyID(uid)
			view := SessionView{
				Session:           s,
				CounterpartyID:    legacyID,
				CounterpartyName:  s.Names[legacyID],
				CounterpartyImage: s.Images[legacyID],
			}
			if profile, err := e.profileForLegacyID(gctx, legacyID); err == nil && profile.Name != "" {
				view.CounterpartyName = profile.Name
				view.CounterpartyImage = profile.ImageURL
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// profileForUID finds the user record linked to an auth UID. Users without a
// linked record get a degraded profile keyed by the UID in both namespaces.
func (e *Engine) profileForUID(ctx context.Context, uid string) (careerdb.UserProfile, error) {
	doc, err := e.store.Collection(usersCollection).
		Where("firebaseUid", "==", uid).
		Limit(1).
		Documents(ctx).
		Next()
	if errors.Is(err, iterator.Done) {
		return careerdb.UserProfile{ID: uid, FirebaseUID: uid}, nil
	}
	if err != nil {
		return careerdb.UserProfile{}, fmt.Errorf("chatsync: looking up profile: %w", err)
	}
	var profile careerdb.UserProfile
	if err := doc.DataTo(&profile); err != nil {
		return careerdb.UserProfile{}, fmt.Errorf("chatsync: decoding profile: %w", err)
	}
	if profile.FirebaseUID == "" {
		profile.FirebaseUID = uid
	}
	return profile, nil
}

func (e *Engine) profileForLegacyID(ctx context.Context, legacyID string) (careerdb.UserProfile, error) {
	snap, err := e.store.Collection(usersCollection).Doc(legacyID).Get(ctx)
	if err != nil {
		return careerdb.UserProfile{}, fmt.Errorf("chatsync: getting profile: %w", err)
	}
	var profile careerdb.UserProfile
	if err := snap.DataTo(&profile); err != nil {
		return careerdb.UserProfile{}, fmt.Errorf("chatsync: decoding profile: %w", err)
	}
	return profile, nil
}
