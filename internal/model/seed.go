// ABOUTME: Built-in seed data for fresh installations
// ABOUTME: Administrator identity and the reserved per-identity conversations

package model

import "time"

// Reserved conversation IDs. Both are created for every identity on
// activation and are exempt from deletion; the official conversation is
// additionally exempt from blocking.
const (
	OfficialConversationID = "official-spektr"
	SavedMessagesID        = "saved-messages"
)

// AdminID is the identity id of the built-in administrator account.
const AdminID = "admin-spektr"

// WelcomeMessageID is the id of the fixed greeting in the official chat.
const WelcomeMessageID = "welcome-msg"

// WelcomeMessageText is the greeting posted by the administrator in every
// fresh official conversation.
const WelcomeMessageText = "Это официальный чат со Spektr, если у вас остались пожелания или вопросы, пожалуйста напишите их в чат."

// SavedMessagesName is the display name of the self-conversation.
const SavedMessagesName = "Избранное"

var seedTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// AdminIdentity returns the built-in administrator account seeded into the
// directory on first run. A persisted directory overrides it entirely.
func AdminIdentity() Identity {
	return Identity{
		ID:          AdminID,
		Email:       "chats@spektr.ru",
		Username:    "spektr",
		DisplayName: "Spektr",
		Password:    "zzzz-2014",
		IsVerified:  true,
		IsAdmin:     true,
		CreatedAt:   seedTime,
	}
}

// OfficialConversation returns the official support conversation for the
// given identity.
func OfficialConversation(userID string) Conversation {
	return Conversation{
		ID:           OfficialConversationID,
		Kind:         ConversationDirect,
		Name:         "Spektr",
		Avatar:       "/placeholder.svg",
		Participants: []string{userID, AdminID},
		IsPinned:     true,
		IsOfficial:   true,
		IsVerified:   true,
		Username:     "spektr",
	}
}

// SavedMessages returns the self-only saved-messages conversation for the
// given identity.
func SavedMessages(userID string) Conversation {
	return Conversation{
		ID:           SavedMessagesID,
		Kind:         ConversationSaved,
		Name:         SavedMessagesName,
		Participants: []string{userID},
		IsPinned:     true,
	}
}

// WelcomeMessage returns the fixed administrator greeting seeded into the
// official conversation.
func WelcomeMessage() Message {
	return Message{
		ID:             WelcomeMessageID,
		ConversationID: OfficialConversationID,
		SenderID:       AdminID,
		Content:        WelcomeMessageText,
		Kind:           MessageText,
		Reactions:      []Reaction{},
		CreatedAt:      seedTime,
		UpdatedAt:      seedTime,
	}
}
