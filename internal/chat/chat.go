// ABOUTME: Conversation store owning chats, per-chat message lists and unread state
// ABOUTME: All mutations update memory then re-serialize the identity's collections

package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spektr-im/spektr/internal/model"
	"github.com/spektr-im/spektr/internal/storage"
)

// timeNow is a seam for tests that need deterministic timestamps.
var timeNow = time.Now

// Directory is what the conversation store needs from the session layer.
type Directory interface {
	Directory() []model.Identity
}

// Store owns the conversations and message lists of the signed-in identity.
// It activates when the session store reports a non-nil identity and loads
// that identity's persisted collections.
//
// Message lookup by id is a linear scan across all conversations; ids are
// globally unique and the data set is one user's local chats, so no index is
// kept. Insertion order is the only ordering guarantee.
type Store struct {
	mu        sync.RWMutex
	kv        storage.KV
	directory Directory
	logger    *slog.Logger

	user     *model.Identity
	chats    []model.Conversation
	messages map[string][]model.Message
	active   string // active conversation id, empty when none is open
}

// New creates a Store backed by kv, reading the user directory from
// directory. The store is inert until SetIdentity is called with a signed-in
// identity; wire it to session.Store.OnIdentityChange.
func New(kv storage.KV, directory Directory, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:        kv,
		directory: directory,
		logger:    logger.With("component", "chat"),
		messages:  make(map[string][]model.Message),
	}
}

// SetIdentity activates the store for user. The two reserved conversations
// and the welcome message are seeded first; any collections previously
// persisted for this identity then replace the seeds wholesale. A persisted
// state that lost the reserved conversations therefore stays without them;
// the restore path does not self-heal.
//
// A nil user only clears the identity; the last collections stay in memory
// and every mutation no-ops until the next sign-in.
func (s *Store) SetIdentity(user *model.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user == nil {
		s.user = nil
		return
	}

	u := *user
	s.user = &u

	s.chats = []model.Conversation{
		model.SavedMessages(u.ID),
		model.OfficialConversation(u.ID),
	}
	welcome := model.WelcomeMessage()
	s.messages = map[string][]model.Message{
		model.OfficialConversationID: {welcome},
	}

	ctx := context.Background()

	if data, err := s.kv.Get(ctx, storage.ConversationsKey(u.ID)); err == nil {
		var chats []model.Conversation
		if err := json.Unmarshal(data, &chats); err != nil {
			s.logger.Error("corrupt conversation list, keeping seed", "error", err)
		} else {
			s.chats = chats
		}
	}

	if data, err := s.kv.Get(ctx, storage.MessagesKey(u.ID)); err == nil {
		var messages map[string][]model.Message
		if err := json.Unmarshal(data, &messages); err != nil {
			s.logger.Error("corrupt message map, keeping seed", "error", err)
		} else {
			s.messages = messages
		}
	}

	// The legacy client wrote back after every state change, activation
	// included, so a fresh identity's seeds hit storage immediately.
	s.persist(ctx)

	s.logger.Info("conversations activated",
		"user_id", u.ID,
		"conversations", len(s.chats))
}

// SetActive marks a conversation as open in the UI. Messages sent to the
// active conversation do not count as unread. An empty id clears it.
func (s *Store) SetActive(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = conversationID
}

// Active returns the id of the open conversation, or empty.
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Chats returns a copy of the conversation list.
func (s *Store) Chats() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chats := make([]model.Conversation, len(s.chats))
	copy(chats, s.chats)
	return chats
}

// Messages returns a copy of the message list for a conversation.
func (s *Store) Messages(conversationID string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.messages[conversationID]
	out := make([]model.Message, len(list))
	copy(out, list)
	return out
}

// SendMessage appends a message authored by the current identity, updates
// the conversation's denormalized last message, and bumps its unread count
// unless the conversation is the active one. Returns the created message,
// or nil when signed out.
func (s *Store) SendMessage(ctx context.Context, conversationID, content string, kind model.MessageKind, mediaURL string) *model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}
	if kind == "" {
		kind = model.MessageText
	}

	now := timeNow()
	msg := model.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       s.user.ID,
		Content:        content,
		Kind:           kind,
		MediaURL:       mediaURL,
		Reactions:      []model.Reaction{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.messages[conversationID] = append(s.messages[conversationID], msg)

	for i := range s.chats {
		if s.chats[i].ID != conversationID {
			continue
		}
		msgCopy := msg
		s.chats[i].LastMessage = &msgCopy
		if s.chats[i].ID == s.active {
			s.chats[i].UnreadCount = 0
		} else {
			s.chats[i].UnreadCount++
		}
		break
	}

	s.persist(ctx)
	s.logger.Debug("message sent", "conversation_id", conversationID, "message_id", msg.ID)

	sent := msg
	return &sent
}

// EditMessage locates a message by id across all conversations and updates
// its content in place, marking it edited. Unknown ids are a no-op.
func (s *Store) EditMessage(ctx context.Context, messageID, newContent string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for conversationID, list := range s.messages {
		for i := range list {
			if list[i].ID == messageID {
				list[i].Content = newContent
				list[i].IsEdited = true
				list[i].UpdatedAt = timeNow()
				s.messages[conversationID] = list
				changed = true
			}
		}
	}

	if changed {
		s.persist(ctx)
	}
}

// DeleteMessage hard-removes a message from its conversation's list. The
// schema carries an isDeleted flag but deletion here is not a tombstone.
func (s *Store) DeleteMessage(ctx context.Context, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for conversationID, list := range s.messages {
		kept := list[:0:0]
		for _, msg := range list {
			if msg.ID == messageID {
				changed = true
				continue
			}
			kept = append(kept, msg)
		}
		s.messages[conversationID] = kept
	}

	if changed {
		s.persist(ctx)
	}
}

// AddReaction toggles the current identity's reaction on a message.
// Repeating the same emoji removes the reaction; a different emoji replaces
// it. A user never holds more than one reaction per message. No-ops when
// signed out.
func (s *Store) AddReaction(ctx context.Context, messageID, emoji string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return
	}

	userID := s.user.ID
	changed := false
	for conversationID, list := range s.messages {
		for i := range list {
			if list[i].ID != messageID {
				continue
			}
			list[i].Reactions = toggleReaction(list[i].Reactions, userID, emoji)
			s.messages[conversationID] = list
			changed = true
		}
	}

	if changed {
		s.persist(ctx)
	}
}

// toggleReaction applies the toggle/replace rule to a reaction list.
func toggleReaction(reactions []model.Reaction, userID, emoji string) []model.Reaction {
	for i := range reactions {
		if reactions[i].UserID != userID {
			continue
		}
		if reactions[i].Emoji == emoji {
			return append(reactions[:i:i], reactions[i+1:]...)
		}
		reactions[i].Emoji = emoji
		return reactions
	}
	return append(reactions, model.Reaction{UserID: userID, Emoji: emoji})
}

// CreateChat opens a direct conversation with the given username. If one
// already exists it is activated and returned unchanged, so calling twice is
// idempotent. Returns nil when signed out.
func (s *Store) CreateChat(ctx context.Context, username string) *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}

	for i := range s.chats {
		if s.chats[i].Username == username {
			s.active = s.chats[i].ID
			existing := s.chats[i]
			return &existing
		}
	}

	chat := model.Conversation{
		ID:           uuid.New().String(),
		Kind:         model.ConversationDirect,
		Name:         username,
		Username:     username,
		Participants: []string{s.user.ID, username},
	}
	s.chats = append(s.chats, chat)
	s.active = chat.ID

	s.persist(ctx)
	s.logger.Debug("conversation created", "conversation_id", chat.ID, "username", username)

	created := chat
	return &created
}

// ArchiveChat toggles the archived flag. Reserved conversations can be
// archived; only pin, block and delete are restricted.
func (s *Store) ArchiveChat(ctx context.Context, conversationID string) {
	s.toggleFlag(ctx, conversationID, func(c *model.Conversation) {
		c.IsArchived = !c.IsArchived
	})
}

// PinChat toggles the pinned flag. Refused for the reserved conversations,
// which stay pinned.
func (s *Store) PinChat(ctx context.Context, conversationID string) {
	if conversationID == model.OfficialConversationID || conversationID == model.SavedMessagesID {
		return
	}
	s.toggleFlag(ctx, conversationID, func(c *model.Conversation) {
		c.IsPinned = !c.IsPinned
	})
}

// BlockChat toggles the blocked flag. The official conversation cannot be
// blocked.
func (s *Store) BlockChat(ctx context.Context, conversationID string) {
	if conversationID == model.OfficialConversationID {
		return
	}
	s.toggleFlag(ctx, conversationID, func(c *model.Conversation) {
		c.IsBlocked = !c.IsBlocked
	})
}

// toggleFlag applies fn to the matching conversation and persists.
func (s *Store) toggleFlag(ctx context.Context, conversationID string, fn func(*model.Conversation)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.chats {
		if s.chats[i].ID == conversationID {
			fn(&s.chats[i])
			s.persist(ctx)
			return
		}
	}
}

// DeleteChat removes a conversation and its message list. Refused for the
// reserved conversations. Clears the active pointer if it referenced the
// deleted conversation.
func (s *Store) DeleteChat(ctx context.Context, conversationID string) {
	if conversationID == model.OfficialConversationID || conversationID == model.SavedMessagesID {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chats[:0:0]
	for _, c := range s.chats {
		if c.ID != conversationID {
			kept = append(kept, c)
		}
	}
	s.chats = kept
	delete(s.messages, conversationID)

	if s.active == conversationID {
		s.active = ""
	}

	s.persist(ctx)
	s.logger.Debug("conversation deleted", "conversation_id", conversationID)
}

// SearchUsers returns directory entries whose username contains the query,
// case-insensitively, excluding the signed-in identity.
func (s *Store) SearchUsers(query string) []model.IdentitySummary {
	s.mu.RLock()
	currentID := ""
	if s.user != nil {
		currentID = s.user.ID
	}
	s.mu.RUnlock()

	needle := strings.ToLower(query)
	var results []model.IdentitySummary
	for _, u := range s.directory.Directory() {
		if u.ID == currentID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), needle) {
			results = append(results, u.Summary())
		}
	}
	return results
}

// persist re-serializes the full conversation list and message map for the
// current identity. Caller holds the lock. Failures are logged; the
// in-memory state stays authoritative.
func (s *Store) persist(ctx context.Context) {
	if s.user == nil {
		return
	}

	if data, err := json.Marshal(s.chats); err != nil {
		s.logger.Error("encoding conversations", "error", err)
	} else if err := s.kv.Set(ctx, storage.ConversationsKey(s.user.ID), data); err != nil {
		s.logger.Error("persisting conversations", "error", err)
	}

	if data, err := json.Marshal(s.messages); err != nil {
		s.logger.Error("encoding messages", "error", err)
	} else if err := s.kv.Set(ctx, storage.MessagesKey(s.user.ID), data); err != nil {
		s.logger.Error("persisting messages", "error", err)
	}
}
