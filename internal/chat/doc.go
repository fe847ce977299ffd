// Package chat owns the conversation state of the signed-in identity.
//
// # Overview
//
// The Store keeps the conversation list, the per-conversation message lists,
// and the active-conversation pointer in memory. It activates when the
// session layer reports an identity and loads that identity's persisted
// collections; every mutation afterwards re-serializes both collections
// wholesale to identity-scoped storage keys. There are no partial writes.
//
// # Reserved conversations
//
// Two conversations exist for every identity:
//
//   - saved-messages: the self-only "saved" conversation
//   - official-spektr: the direct conversation with the administrator,
//     seeded with a fixed welcome message
//
// Both are pinned and cannot be deleted or re-pinned; the official one also
// cannot be blocked. Archiving is unrestricted.
//
// # Restore semantics
//
// Activation always seeds the reserved conversations first and then replaces
// the whole state with whatever was persisted. The restore path does not
// merge the seeds back in, so persisted data that lost the reserved
// conversations stays without them until the records are wiped.
//
// # Unread counting
//
// Sending to a conversation bumps its unread count unless that conversation
// is the active one, in which case the count is pinned at zero.
package chat
