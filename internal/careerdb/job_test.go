// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package careerdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobKey(t *testing.T) {
	tests := []struct {
		name string
		job  Job
		mode MatchMode
		want string
	}{
		{
			name: "id present",
			job:  Job{ID: "j1", Title: "X"},
			mode: MatchModeIDOrTitle,
			want: "j1",
		},
		{
			name: "id absent falls back to title",
			job:  Job{Title: "X"},
			mode: MatchModeIDOrTitle,
			want: "X",
		},
		{
			name: "id-only mode ignores title",
			job:  Job{Title: "X"},
			mode: MatchModeID,
			want: "",
		},
		{
			name: "id-only mode with id",
			job:  Job{ID: "j1", Title: "X"},
			mode: MatchModeID,
			want: "j1",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, JobKey(tc.job, tc.mode))
		})
	}
}

func TestJobKeyTitleCollision(t *testing.T) {
	// Under id-or-title matching, a job with an ID and a later job without
	// one do NOT collide even when the titles match: the keys differ
	// ("j1" vs "X"). Only two id-less jobs sharing a title collide.
	withID := Job{ID: "j1", Title: "X"}
	withoutID := Job{Title: "X"}

	assert.NotEqual(t, JobKey(withID, MatchModeIDOrTitle), JobKey(withoutID, MatchModeIDOrTitle))
	assert.Equal(t, JobKey(withoutID, MatchModeIDOrTitle), JobKey(Job{Title: "X", Company: "Other"}, MatchModeIDOrTitle))
}
