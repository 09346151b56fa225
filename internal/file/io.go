// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package file

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/cenkalti/backoff/v5"
)

type IO struct {
	storage *storage.Client
	bucket  string
}

func NewIO(storage *storage.Client, bucket string) *IO {
	return &IO{
		storage: storage,
		bucket:  bucket,
	}
}

// WriteFile uploads data under path and returns the public URL. Transient
// upload failures are retried a few times before giving up.
func (io *IO) WriteFile(ctx context.Context, path string, contentType string, data []byte) (string, error) {
	upload := func() (string, error) {
		wc := io.storage.Bucket(io.bucket).Object(path).NewWriter(ctx)
		wc.ContentType = contentType
		if _, err := wc.Write(data); err != nil {
			_ = wc.Close()
			return "", fmt.Errorf("file: writing file: %w", err)
		}
		if err := wc.Close(); err != nil {
			return "", fmt.Errorf("file: closing file: %w", err)
		}
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", io.bucket, path), nil
	}

	url, err := backoff.Retry(ctx, upload,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3))
	if err != nil {
		return "", err
	}
	return url, nil
}
