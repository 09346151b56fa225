// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package chatsync

import (
	"testing"
	"time"
)

func TestInflightSetDuplicateAcquire(t *testing.T) {
	s := newInflightSet()

	if !s.tryAcquire("f42_u1") {
		t.Fatal("first acquire should succeed")
	}
	if s.tryAcquire("f42_u1") {
		t.Fatal("second acquire should be suppressed")
	}
	if !s.tryAcquire("a_b") {
		t.Fatal("unrelated id should not be suppressed")
	}
}

func TestInflightSetRelease(t *testing.T) {
	s := newInflightSet()

	if !s.tryAcquire("f42_u1") {
		t.Fatal("first acquire should succeed")
	}
	s.release("f42_u1")
	if !s.tryAcquire("f42_u1") {
		t.Fatal("acquire after release should succeed")
	}
}

func TestInflightSetReleaseAfter(t *testing.T) {
	s := newInflightSet()

	if !s.tryAcquire("f42_u1") {
		t.Fatal("first acquire should succeed")
	}
	s.releaseAfter("f42_u1", 10*time.Millisecond)

	if s.tryAcquire("f42_u1") {
		t.Fatal("acquire within grace period should be suppressed")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s.tryAcquire("f42_u1") {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("acquire should succeed after grace period")
}
