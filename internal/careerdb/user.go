// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package careerdb

// UserProfile represents a user record stored in Firestore.
type UserProfile struct {
	// ID is the legacy backend ID of the user, also the document key.
	ID string `firestore:"id"`

	// FirebaseUID is the auth UID linked to the user, empty for records
	// created before auth sign-in was linked.
	FirebaseUID string `firestore:"firebaseUid"`

	// Name is the display name of the user.
	Name string `firestore:"name"`

	// ImageURL is the profile image URL of the user.
	ImageURL string `firestore:"imageUrl"`
}
