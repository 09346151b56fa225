// Copyright (c) Choko (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"github.com/curioswitch/go-curiostack/config"
)

type Chat struct {
	// InFlightGraceSeconds is how long a newly created chat session stays
	// in the in-flight set before a fresh creation attempt is allowed.
	InFlightGraceSeconds int `koanf:"inflightgraceseconds"`

	// UploadsBucket is the bucket for message attachments. Defaults to
	// <project>-uploads when empty.
	UploadsBucket string `koanf:"uploadsbucket"`
}

type Jobs struct {
	// RedisAddress is the address of the Redis instance backing job state.
	RedisAddress string `koanf:"redisaddress"`

	// RedisPassword is the password for the Redis instance, if any.
	RedisPassword string `koanf:"redispassword"`

	// MatchMode selects job deduplication: "id" or "id-or-title".
	MatchMode string `koanf:"matchmode"`
}

type Config struct {
	config.Common

	// Chat is the configuration for chat synchronization.
	Chat Chat `koanf:"chat"`

	// Jobs is the configuration for job-state tracking.
	Jobs Jobs `koanf:"jobs"`
}
