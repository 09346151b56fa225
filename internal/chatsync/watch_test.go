// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package chatsync

import (
	"errors"
	"testing"
)

func TestListenErrorsClearedOnRecovery(t *testing.T) {
	var l listenErrors

	if err := l.get("s1"); err != nil {
		t.Fatalf("expected no error before any listener ran, got %v", err)
	}

	failed := errors.New("listener stopped")
	l.record("s1", failed)
	if err := l.get("s1"); !errors.Is(err, failed) {
		t.Fatalf("expected recorded error, got %v", err)
	}
	if err := l.get("s2"); err != nil {
		t.Fatalf("recording is per session, got %v for s2", err)
	}

	// A delivering listener clears the slot so a stale failure is not
	// reported after a successful resubscribe.
	l.clear("s1")
	if err := l.get("s1"); err != nil {
		t.Fatalf("expected cleared slot, got %v", err)
	}
}
