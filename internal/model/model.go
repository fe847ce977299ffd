// ABOUTME: Shared data types for the Spektr messenger core
// ABOUTME: Defines Identity, Conversation, Message, Reaction and their enums

package model

import "time"

// ConversationKind describes the flavor of a conversation.
type ConversationKind string

const (
	ConversationDirect  ConversationKind = "direct"
	ConversationGroup   ConversationKind = "group"
	ConversationChannel ConversationKind = "channel"
	ConversationSaved   ConversationKind = "saved"
)

// MessageKind describes the payload type of a message.
type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageImage MessageKind = "image"
	MessageVideo MessageKind = "video"
	MessageAudio MessageKind = "audio"
	MessageFile  MessageKind = "file"
)

// Reaction emoji set. At most one reaction per user per message.
const (
	EmojiHeart      = "❤️"
	EmojiThumbsUp   = "\U0001F44D"
	EmojiThumbsDown = "\U0001F44E"
)

// Theme is a named UI color scheme.
type Theme string

const (
	ThemeCrystal    Theme = "crystal"
	ThemePurpleLime Theme = "purple-lime"
	ThemeDarkBlue   Theme = "dark-blue"
	ThemeWhiteBlack Theme = "white-black"
	ThemeBlueLight  Theme = "blue-light"
)

// Language is a UI locale.
type Language string

const (
	LanguageRU Language = "ru"
	LanguageEN Language = "en"
)

// Identity is an authenticated user account.
//
// Password is stored and compared in plaintext. This mirrors the legacy
// client exactly and is insecure by design; do not reuse these records
// outside the local store.
type Identity struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Password    string    `json:"password"`
	Avatar      string    `json:"avatar,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	IsVerified  bool      `json:"isVerified,omitempty"`
	IsAdmin     bool      `json:"isAdmin,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IdentitySummary is the public view of an identity: everything except the
// credential and contact fields. Search results are built from these.
type IdentitySummary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
	IsVerified  bool   `json:"isVerified,omitempty"`
}

// Summary strips credentials and contact details from an identity.
func (u *Identity) Summary() IdentitySummary {
	return IdentitySummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
		IsVerified:  u.IsVerified,
	}
}

// Reaction is a single emoji reaction on a message.
type Reaction struct {
	UserID string `json:"userId"`
	Emoji  string `json:"emoji"`
}

// Message is a single message within a conversation.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"chatId"`
	SenderID       string      `json:"senderId"`
	Content        string      `json:"content"`
	Kind           MessageKind `json:"type"`
	MediaURL       string      `json:"mediaUrl,omitempty"`
	Reactions      []Reaction  `json:"reactions"`
	IsEdited       bool        `json:"isEdited"`
	IsDeleted      bool        `json:"isDeleted"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Conversation is a chat thread owned by the signed-in identity.
// LastMessage is a denormalized copy of the newest message, kept so list
// views never scan the full message list.
type Conversation struct {
	ID           string           `json:"id"`
	Kind         ConversationKind `json:"type"`
	Name         string           `json:"name,omitempty"`
	Avatar       string           `json:"avatar,omitempty"`
	Participants []string         `json:"participants"`
	LastMessage  *Message         `json:"lastMessage,omitempty"`
	IsArchived   bool             `json:"isArchived"`
	IsPinned     bool             `json:"isPinned"`
	IsOfficial   bool             `json:"isOfficial,omitempty"`
	IsBlocked    bool             `json:"isBlocked,omitempty"`
	Username     string           `json:"username,omitempty"`
	IsVerified   bool             `json:"isVerified,omitempty"`
	UnreadCount  int              `json:"unreadCount"`
}

// ThemeClass returns the global presentation class for a theme. The default
// crystal theme maps to the empty class.
func ThemeClass(t Theme) string {
	if t == ThemeCrystal {
		return ""
	}
	return "theme-" + string(t)
}
