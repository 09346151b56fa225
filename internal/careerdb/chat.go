// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package careerdb

import (
	"slices"
	"sort"
	"strings"
	"time"
)

type MessageKind string

const (
	// MessageKindText is a plain text message.
	MessageKindText MessageKind = "text"
	// MessageKindImage is a message referencing an uploaded image.
	MessageKindImage MessageKind = "image"
	// MessageKindFile is a message referencing an uploaded file.
	MessageKindFile MessageKind = "file"
)

// KindForContentType classifies an attachment by its MIME type.
func KindForContentType(contentType string) MessageKind {
	if strings.HasPrefix(contentType, "image/") {
		return MessageKindImage
	}
	return MessageKindFile
}

// ChatMessage represents a message in a chat session. Messages are immutable
// after creation except for the read flag.
type ChatMessage struct {
	// SenderUID is the auth UID of the sender.
	SenderUID string `firestore:"senderUid"`

	// ReceiverUID is the auth UID of the receiver. For sessions created
	// before identity mapping existed this may hold a legacy backend ID.
	ReceiverUID string `firestore:"receiverUid"`

	// Kind is the kind of the message content.
	Kind MessageKind `firestore:"kind"`

	// Content is the text content, or the URL of the uploaded attachment
	// for image and file messages.
	Content string `firestore:"content"`

	// FileName is the original name of the attachment, if any.
	FileName string `firestore:"fileName,omitempty"`

	// SentAt is assigned by the server and is the ordering authority
	// within a session.
	SentAt time.Time `firestore:"sentAt,serverTimestamp"`

	// Read reports whether the receiver has read the message.
	Read bool `firestore:"read"`
}

// ChatSession represents a conversation between exactly two participants.
//
// Participants are tracked in two namespaces: auth UIDs (used for message
// routing) and legacy backend IDs (used for fetching profile data). Sessions
// created before the mapping existed may have legacy IDs standing in for
// UIDs; the maps below reconcile the two namespaces for everything newer.
type ChatSession struct {
	// ID is the deterministic session key, DeriveSessionID of the two
	// participant identities.
	ID string `firestore:"id"`

	// ParticipantUIDs are the auth UIDs of both participants.
	ParticipantUIDs []string `firestore:"participantUids"`

	// ParticipantIDs are the legacy backend IDs of both participants.
	ParticipantIDs []string `firestore:"participantIds"`

	// UIDToLegacyID maps an auth UID to its legacy backend ID.
	UIDToLegacyID map[string]string `firestore:"uidToLegacyId"`

	// LegacyIDToUID maps a legacy backend ID to its auth UID.
	LegacyIDToUID map[string]string `firestore:"legacyIdToUid"`

	// Names holds display names keyed redundantly by both namespaces.
	Names map[string]string `firestore:"names"`

	// Images holds profile image URLs keyed redundantly by both namespaces.
	Images map[string]string `firestore:"images"`

	// LastMessage is a denormalized preview of the most recent message.
	LastMessage string `firestore:"lastMessage"`

	// LastMessageAt is the time of the most recent message.
	LastMessageAt time.Time `firestore:"lastMessageAt"`

	// CreatedAt is the timestamp when the session was created.
	CreatedAt time.Time `firestore:"createdAt"`
}

// Counterparty describes the other participant when opening a session. UID
// may be empty on records created before auth sign-in was linked, in which
// case the legacy ID serves as a degraded identity.
type Counterparty struct {
	// LegacyID is the backend record ID of the counterparty.
	LegacyID string `json:"legacyId"`

	// UID is the auth UID of the counterparty, if known.
	UID string `json:"uid"`

	// Name is the display name of the counterparty.
	Name string `json:"name"`

	// ImageURL is the profile image URL of the counterparty.
	ImageURL string `json:"imageUrl"`
}

// Identity returns the ID used for message routing: the auth UID when known,
// else the legacy ID.
func (c Counterparty) Identity() string {
	if c.UID != "" {
		return c.UID
	}
	return c.LegacyID
}

// DeriveSessionID returns the session key for two participant identities.
// The pair is sorted before joining so the result does not depend on which
// participant initiates.
func DeriveSessionID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}

// NewChatSession builds the session document for a first contact between the
// current user and a counterparty. Name and image maps are written under both
// namespace keys so stale writers in either namespace cannot blank them.
func NewChatSession(self UserProfile, other Counterparty) ChatSession {
	otherIdentity := other.Identity()
	return ChatSession{
		ID:              DeriveSessionID(self.FirebaseUID, otherIdentity),
		ParticipantUIDs: []string{self.FirebaseUID, otherIdentity},
		ParticipantIDs:  []string{self.ID, other.LegacyID},
		UIDToLegacyID: map[string]string{
			self.FirebaseUID: self.ID,
			otherIdentity:    other.LegacyID,
		},
		LegacyIDToUID: map[string]string{
			self.ID:        self.FirebaseUID,
			other.LegacyID: otherIdentity,
		},
		Names: map[string]string{
			self.FirebaseUID: self.Name,
			self.ID:          self.Name,
			otherIdentity:    other.Name,
			other.LegacyID:   other.Name,
		},
		Images: map[string]string{
			self.FirebaseUID: self.ImageURL,
			self.ID:          self.ImageURL,
			otherIdentity:    other.ImageURL,
			other.LegacyID:   other.ImageURL,
		},
		CreatedAt: time.Now(),
	}
}

// FirestoreMap returns the session as a field map suitable for a merge
// write, so two near-simultaneous creators converge on one document instead
// of one clobbering the other.
func (s ChatSession) FirestoreMap() map[string]any {
	return map[string]any{
		"id":              s.ID,
		"participantUids": s.ParticipantUIDs,
		"participantIds":  s.ParticipantIDs,
		"uidToLegacyId":   s.UIDToLegacyID,
		"legacyIdToUid":   s.LegacyIDToUID,
		"names":           s.Names,
		"images":          s.Images,
		"createdAt":       s.CreatedAt,
	}
}

// HasParticipant reports whether the given auth UID belongs to one of the
// session's participants. Degraded sessions may track a participant under a
// legacy ID, so both namespaces are consulted.
func (s ChatSession) HasParticipant(uid string) bool {
	if slices.Contains(s.ParticipantUIDs, uid) {
		return true
	}
	if _, ok := s.UIDToLegacyID[uid]; ok {
		return true
	}
	return slices.Contains(s.ParticipantIDs, uid)
}

// CounterpartyLegacyID returns the legacy ID of the participant other than
// the given sender. For sessions predating the identity mapping the sender
// has no map entry either; the first participant ID wins then, and it may be
// the sender's own record.
func (s ChatSession) CounterpartyLegacyID(senderUID string) string {
	selfLegacy := s.UIDToLegacyID[senderUID]
	for _, id := range s.ParticipantIDs {
		if id != selfLegacy {
			return id
		}
	}
	return ""
}

// ReceiverFor resolves the routing identity of the participant other than
// the sender. Legacy sessions without a mapping fall back to the raw legacy
// ID, which may not correspond to a live auth identity.
func (s ChatSession) ReceiverFor(senderUID string) string {
	legacy := s.CounterpartyLegacyID(senderUID)
	if uid, ok := s.LegacyIDToUID[legacy]; ok && uid != "" {
		return uid
	}
	return legacy
}

// SortMessages orders messages by server timestamp ascending. Network
// delivery order is not trusted.
func SortMessages(msgs []ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
}

// SortSessionsByActivity orders sessions by last activity descending. The
// backing query is unordered to avoid requiring a composite index.
func SortSessionsByActivity(sessions []ChatSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastMessageAt.After(sessions[j].LastMessageAt)
	})
}
