// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package auth

import (
	"context"

	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
)

// CurrentUID returns the auth UID of the signed-in user, or empty if the
// request is unauthenticated.
func CurrentUID(ctx context.Context) string {
	if tok := firebaseauth.TokenFromContext(ctx); tok != nil {
		return tok.UID
	}
	return ""
}
