// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package chatsync

import (
	"sync"
	"time"
)

// inflightSet tracks session IDs with a creation currently in progress so a
// rapid duplicate call (e.g. a double-click) cannot create a second session.
// Entries are released on a timer rather than on completion acknowledgement,
// giving the snapshot listener time to observe the write.
type inflightSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newInflightSet() *inflightSet {
	return &inflightSet{ids: map[string]struct{}{}}
}

// tryAcquire marks id as in flight, returning false if it already was.
func (s *inflightSet) tryAcquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// release removes id immediately, allowing a fresh creation attempt.
func (s *inflightSet) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

// releaseAfter removes id after the grace period.
func (s *inflightSet) releaseAfter(id string, d time.Duration) {
	time.AfterFunc(d, func() {
		s.release(id)
	})
}
