// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package jobstore maintains the persisted, deduplicated applied and saved
// job collections for each user.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careerdeck/careerdeck/backend/server/internal/careerdb"
)

const (
	appliedKeyPrefix = "appliedJobs:"
	savedKeyPrefix   = "savedJobs:"

	// UpdatesChannel carries a best-effort refresh signal (the user ID)
	// after any job-state mutation, for surfaces outside this process.
	UpdatesChannel = "careerdeck:jobstore:updates"
)

// ErrNoJobKey is returned when a job cannot be identified under the
// configured matching mode.
var ErrNoJobKey = errors.New("jobstore: job has no usable key")

// Store owns the applied and saved collections. Each collection is
// serialized as a whole JSON document on every mutation, and every
// successful mutation notifies all registered observers synchronously after
// the persistence write completes.
type Store struct {
	client *redis.Client
	mode   careerdb.MatchMode

	mu        sync.Mutex
	observers []func(uid string)
}

// New returns a Store using the given matching mode, defaulting to
// id-or-title for compatibility with feeds that omit job IDs.
func New(client *redis.Client, mode careerdb.MatchMode) *Store {
	if mode == "" {
		mode = careerdb.MatchModeIDOrTitle
	}
	return &Store{client: client, mode: mode}
}

// Subscribe registers an observer invoked with the user ID after every
// successful mutation. Observers are expected to re-read state through the
// getters rather than rely on mutation return values.
func (s *Store) Subscribe(fn func(uid string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// ApplyToJob records an application. A job already in the applied set is
// left untouched and reported with ok=false.
func (s *Store) ApplyToJob(ctx context.Context, uid string, job careerdb.Job) (bool, error) {
	key := careerdb.JobKey(job, s.mode)
	if key == "" {
		return false, ErrNoJobKey
	}

	s.mu.Lock()
	records, err := s.load(ctx, appliedKeyPrefix, uid)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	for _, r := range records {
		if r.JobKey == key {
			s.mu.Unlock()
			return false, nil
		}
	}
	records = append(records, careerdb.JobRecord{
		JobKey:     key,
		Title:      job.Title,
		Company:    job.Company,
		Status:     careerdb.StatusPending,
		RecordedAt: time.Now(),
	})
	if err := s.persist(ctx, appliedKeyPrefix+uid, records); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	s.notify(ctx, uid)
	return true, nil
}

// ToggleSaveJob saves the job if absent and removes it if present,
// returning the new saved state.
func (s *Store) ToggleSaveJob(ctx context.Context, uid string, job careerdb.Job) (bool, error) {
	key := careerdb.JobKey(job, s.mode)
	if key == "" {
		return false, ErrNoJobKey
	}

	s.mu.Lock()
	records, err := s.load(ctx, savedKeyPrefix, uid)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}

	saved := true
	next := records[:0]
	for _, r := range records {
		if r.JobKey == key {
			saved = false
			continue
		}
		next = append(next, r)
	}
	if saved {
		next = append(next, careerdb.JobRecord{
			JobKey:     key,
			Title:      job.Title,
			Company:    job.Company,
			RecordedAt: time.Now(),
		})
	}
	if err := s.persist(ctx, savedKeyPrefix+uid, next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	s.notify(ctx, uid)
	return saved, nil
}

// IsApplied reports whether a job key is in the user's applied set.
func (s *Store) IsApplied(ctx context.Context, uid string, jobKey string) (bool, error) {
	return s.contains(ctx, appliedKeyPrefix, uid, jobKey)
}

// IsSaved reports whether a job key is in the user's saved set.
func (s *Store) IsSaved(ctx context.Context, uid string, jobKey string) (bool, error) {
	return s.contains(ctx, savedKeyPrefix, uid, jobKey)
}

// AppliedJobs returns the user's applied records.
func (s *Store) AppliedJobs(ctx context.Context, uid string) ([]careerdb.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, appliedKeyPrefix, uid)
}

// SavedJobs returns the user's saved records.
func (s *Store) SavedJobs(ctx context.Context, uid string) ([]careerdb.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, savedKeyPrefix, uid)
}

func (s *Store) contains(ctx context.Context, prefix string, uid string, jobKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load(ctx, prefix, uid)
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if r.JobKey == jobKey {
			return true, nil
		}
	}
	return false, nil
}

// load reads a whole collection. A missing key is an empty collection, and
// so is a corrupt one: unparseable state resets the user's applied and saved
// collections together, deleting both keys so the corruption is not re-read.
func (s *Store) load(ctx context.Context, prefix string, uid string) ([]careerdb.JobRecord, error) {
	key := prefix + uid
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jobstore: loading %s: %w", key, err)
	}
	var records []careerdb.JobRecord
	if err := json.Unmarshal(data, &records); err != nil {
		slog.WarnContext(ctx, "jobstore: resetting corrupt job state", "key", key, "error", err)
		if err := s.client.Del(ctx, appliedKeyPrefix+uid, savedKeyPrefix+uid).Err(); err != nil {
			slog.WarnContext(ctx, "jobstore: clearing corrupt job state", "key", key, "error", err)
		}
		return nil, nil
	}
	return records, nil
}

func (s *Store) persist(ctx context.Context, key string, records []careerdb.JobRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("jobstore: encoding %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("jobstore: persisting %s: %w", key, err)
	}
	return nil
}

// notify runs observers synchronously, then publishes the refresh signal.
// Publish failure is logged and ignored. Called after the mutation lock is
// released so observers can re-read state through the getters.
func (s *Store) notify(ctx context.Context, uid string) {
	s.mu.Lock()
	observers := make([]func(uid string), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(uid)
	}
	if err := s.client.Publish(ctx, UpdatesChannel, uid).Err(); err != nil {
		slog.WarnContext(ctx, "jobstore: publishing update signal", "error", err)
	}
}
