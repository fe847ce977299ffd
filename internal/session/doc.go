// Package session owns the authenticated identity, the registered-user
// directory, and the theme/language preferences.
//
// # Lifecycle
//
// A fresh installation seeds the directory with the built-in administrator
// account. A persisted directory replaces the seed entirely. Preferences are
// process-wide and survive logout; the remembered session record restores
// the identity across runs without re-authentication.
//
// # Security model
//
// There is none: credentials are stored and compared in plaintext, exactly
// like the legacy client this store reproduces. Login failures carry no
// detail; a wrong password and an unknown username are indistinguishable
// to callers.
//
// # Observers
//
// The conversation store registers an identity-change observer so it can
// re-activate when someone signs in or out; the UI layer registers a theme
// observer to apply the presentation class. Register observers before
// calling Restore.
package session
