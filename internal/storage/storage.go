// ABOUTME: KV interface and storage keys for the messenger's persisted state
// ABOUTME: String-keyed JSON-encoded records, one key per collection

package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// KV is the persistent key/value layer behind both state stores. Values are
// JSON-encoded collections; every write replaces the whole record.
type KV interface {
	// Get returns the record for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any existing record.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the record for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Well-known record keys.
const (
	KeySessionUser  = "session_user"  // current identity, present only with "remember"
	KeySessionUsers = "session_users" // full identity directory
	KeyTheme        = "session_theme"
	KeyLanguage     = "session_language"
)

// ConversationsKey returns the record key for an identity's conversation
// list.
func ConversationsKey(identityID string) string {
	return "conversations_" + identityID
}

// MessagesKey returns the record key for an identity's conversation-id to
// message-list map.
func MessagesKey(identityID string) string {
	return "messages_" + identityID
}
