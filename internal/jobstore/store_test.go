// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package jobstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/careerdeck/careerdeck/backend/server/internal/careerdb"
)

func newTestStore(t *testing.T, mode careerdb.MatchMode) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return New(client, mode), mr
}

func TestApplyToJobIdempotent(t *testing.T) {
	s, _ := newTestStore(t, careerdb.MatchModeIDOrTitle)
	ctx := context.Background()
	job := careerdb.Job{ID: "j1", Title: "Backend Intern"}

	ok, err := s.ApplyToJob(ctx, "u1", job)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if !ok {
		t.Fatal("first apply should succeed")
	}

	ok, err = s.ApplyToJob(ctx, "u1", job)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if ok {
		t.Fatal("second apply should report ok=false")
	}

	records, err := s.AppliedJobs(ctx, "u1")
	if err != nil {
		t.Fatalf("applied jobs: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 applied record, got %d", len(records))
	}
	if records[0].Status != careerdb.StatusPending {
		t.Fatalf("expected pending status, got %q", records[0].Status)
	}
}

func TestToggleSaveJob(t *testing.T) {
	s, _ := newTestStore(t, careerdb.MatchModeIDOrTitle)
	ctx := context.Background()
	job := careerdb.Job{ID: "j2", Title: "Data Intern"}

	saved, err := s.ToggleSaveJob(ctx, "u1", job)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !saved {
		t.Fatal("first toggle should save")
	}
	if ok, _ := s.IsSaved(ctx, "u1", "j2"); !ok {
		t.Fatal("job should be saved")
	}

	saved, err = s.ToggleSaveJob(ctx, "u1", job)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if saved {
		t.Fatal("second toggle should unsave")
	}

	records, err := s.SavedJobs(ctx, "u1")
	if err != nil {
		t.Fatalf("saved jobs: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty saved set, got %d records", len(records))
	}
}

func TestAppliedAndSavedAreIndependent(t *testing.T) {
	s, _ := newTestStore(t, careerdb.MatchModeIDOrTitle)
	ctx := context.Background()
	job := careerdb.Job{ID: "j3", Title: "QA Intern"}

	if _, err := s.ApplyToJob(ctx, "u1", job); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := s.ToggleSaveJob(ctx, "u1", job); err != nil {
		t.Fatalf("save: %v", err)
	}

	if ok, _ := s.IsApplied(ctx, "u1", "j3"); !ok {
		t.Fatal("job should be applied")
	}
	if ok, _ := s.IsSaved(ctx, "u1", "j3"); !ok {
		t.Fatal("job should also be saved")
	}
}

func TestTitleFallbackKeys(t *testing.T) {
	// A job with an ID and an id-less job sharing the title use different
	// keys under id-or-title matching, so both records land in the set.
	s, _ := newTestStore(t, careerdb.MatchModeIDOrTitle)
	ctx := context.Background()

	if ok, err := s.ApplyToJob(ctx, "u1", careerdb.Job{ID: "j1", Title: "X"}); err != nil || !ok {
		t.Fatalf("apply with id: ok=%v err=%v", ok, err)
	}
	if ok, err := s.ApplyToJob(ctx, "u1", careerdb.Job{Title: "X"}); err != nil || !ok {
		t.Fatalf("apply without id: ok=%v err=%v", ok, err)
	}
	records, err := s.AppliedJobs(ctx, "u1")
	if err != nil {
		t.Fatalf("applied jobs: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	// Two id-less jobs with the same title dedupe to one record.
	if ok, err := s.ApplyToJob(ctx, "u1", careerdb.Job{Title: "X", Company: "Other"}); err != nil || ok {
		t.Fatalf("duplicate title apply: ok=%v err=%v", ok, err)
	}
}

func TestIDOnlyModeRejectsKeylessJobs(t *testing.T) {
	s, _ := newTestStore(t, careerdb.MatchModeID)
	ctx := context.Background()

	if _, err := s.ApplyToJob(ctx, "u1", careerdb.Job{Title: "X"}); err != ErrNoJobKey {
		t.Fatalf("expected ErrNoJobKey, got %v", err)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	first := New(client, careerdb.MatchModeIDOrTitle)
	if _, err := first.ApplyToJob(ctx, "u1", careerdb.Job{ID: "j1", Title: "X"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := first.ToggleSaveJob(ctx, "u1", careerdb.Job{ID: "j2", Title: "Y"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A fresh store over the same persistence sees identical state.
	second := New(client, careerdb.MatchModeIDOrTitle)
	applied, err := second.AppliedJobs(ctx, "u1")
	if err != nil {
		t.Fatalf("applied jobs: %v", err)
	}
	if len(applied) != 1 || applied[0].JobKey != "j1" || applied[0].Status != careerdb.StatusPending {
		t.Fatalf("unexpected applied records: %+v", applied)
	}
	saved, err := second.SavedJobs(ctx, "u1")
	if err != nil {
		t.Fatalf("saved jobs: %v", err)
	}
	if len(saved) != 1 || saved[0].JobKey != "j2" {
		t.Fatalf("unexpected saved records: %+v", saved)
	}
}

func TestCorruptStateResets(t *testing.T) {
	s, mr := newTestStore(t, careerdb.MatchModeIDOrTitle)
	ctx := context.Background()

	if _, err := s.ToggleSaveJob(ctx, "u1", careerdb.Job{ID: "j9", Title: "Z"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mr.Set(appliedKeyPrefix+"u1", "{not json"); err != nil {
		t.Fatalf("seed corrupt state: %v", err)
	}

	records, err := s.AppliedJobs(ctx, "u1")
	if err != nil {
		t.Fatalf("load should recover, got: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected reset collection, got %d records", len(records))
	}

	// Recovery resets both collections and removes the corrupt blob, so
	// later reads do not hit it again.
	if mr.Exists(appliedKeyPrefix + "u1") {
		t.Fatal("corrupt key should be deleted")
	}
	if mr.Exists(savedKeyPrefix + "u1") {
		t.Fatal("sibling collection should be reset with it")
	}
	saved, err := s.SavedJobs(ctx, "u1")
	if err != nil {
		t.Fatalf("saved jobs: %v", err)
	}
	if len(saved) != 0 {
		t.Fatalf("expected empty saved set after reset, got %d records", len(saved))
	}

	// Mutation after recovery starts from an empty collection.
	if ok, err := s.ApplyToJob(ctx, "u1", careerdb.Job{ID: "j1", Title: "X"}); err != nil || !ok {
		t.Fatalf("apply after reset: ok=%v err=%v", ok, err)
	}

	// Other users' state is untouched.
	if _, err := s.ToggleSaveJob(ctx, "u2", careerdb.Job{ID: "j9", Title: "Z"}); err != nil {
		t.Fatalf("save for other user: %v", err)
	}
	if err := mr.Set(appliedKeyPrefix+"u1", "{not json"); err != nil {
		t.Fatalf("re-seed corrupt state: %v", err)
	}
	if _, err := s.AppliedJobs(ctx, "u1"); err != nil {
		t.Fatalf("load should recover, got: %v", err)
	}
	if !mr.Exists(savedKeyPrefix + "u2") {
		t.Fatal("other user's saved set should survive")
	}
}

func TestObserversNotified(t *testing.T) {
	s, _ := newTestStore(t, careerdb.MatchModeIDOrTitle)
	ctx := context.Background()

	var notified []string
	s.Subscribe(func(uid string) {
		notified = append(notified, uid)
	})

	if _, err := s.ApplyToJob(ctx, "u1", careerdb.Job{ID: "j1", Title: "X"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := s.ToggleSaveJob(ctx, "u1", careerdb.Job{ID: "j2", Title: "Y"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// A no-op apply must not notify.
	if _, err := s.ApplyToJob(ctx, "u1", careerdb.Job{ID: "j1", Title: "X"}); err != nil {
		t.Fatalf("duplicate apply: %v", err)
	}

	if len(notified) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notified))
	}
	if notified[0] != "u1" || notified[1] != "u1" {
		t.Fatalf("unexpected notification uids: %v", notified)
	}
}
