// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package careerdb

import "time"

type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "Pending"
	StatusUnderReview ApplicationStatus = "Under Review"
	StatusShortlisted ApplicationStatus = "Shortlisted"
	StatusRejected    ApplicationStatus = "Rejected"
	StatusAccepted    ApplicationStatus = "Accepted"
)

// Job is a job posting as presented to the user. Only the fields relevant to
// tracking are carried here.
type Job struct {
	// ID is the posting's own identifier. Older feed sources omit it.
	ID string `json:"id"`

	// Title is the display title of the posting.
	Title string `json:"title"`

	// Company is the hiring company, free-form.
	Company string `json:"company"`
}

// MatchMode selects the job deduplication rule.
type MatchMode string

const (
	// MatchModeID matches jobs by ID only. Jobs without an ID never
	// deduplicate against each other.
	MatchModeID MatchMode = "id"

	// MatchModeIDOrTitle matches by ID when present, falling back to the
	// title. Two distinct postings sharing a title will be treated as the
	// same job; kept for compatibility with feeds that omit IDs.
	MatchModeIDOrTitle MatchMode = "id-or-title"
)

// JobKey returns the deduplication key for a job under the given mode.
func JobKey(job Job, mode MatchMode) string {
	if job.ID != "" {
		return job.ID
	}
	if mode == MatchModeID {
		return ""
	}
	return job.Title
}

// JobRecord is an entry in the applied or saved collection.
type JobRecord struct {
	// JobKey is the deduplication key of the job.
	JobKey string `json:"jobKey"`

	// Title is the title of the job at recording time.
	Title string `json:"title"`

	// Company is the company of the job at recording time.
	Company string `json:"company,omitempty"`

	// Status is the application status. Empty for saved records.
	Status ApplicationStatus `json:"status,omitempty"`

	// RecordedAt is the time of the apply or save action.
	RecordedAt time.Time `json:"recordedAt"`
}
