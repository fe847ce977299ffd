// ABOUTME: Action handlers for the /api endpoint
// ABOUTME: JSON envelopes matching the original backend's response shapes

package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/spektr-im/spektr/internal/model"
	"github.com/spektr-im/spektr/internal/session"
)

// Token lifetimes for the HTTP surface. "Remember" sessions get the long
// one, matching the remember-me persistence of the session store.
const (
	tokenTTL         = 24 * time.Hour
	rememberTokenTTL = 30 * 24 * time.Hour
)

// Fixed user-facing failure messages. One message per failure class, no
// root-cause detail.
const (
	msgInvalidCredentials = "Invalid credentials"
	msgUsernameTaken      = "Username taken"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type registerRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
	Remember    bool   `json:"remember"`
}

type messagesRequest struct {
	ChatID string `json:"chatId"`
}

type sendMessageRequest struct {
	ChatID   string `json:"chatId"`
	Content  string `json:"content"`
	Kind     string `json:"type"`
	MediaURL string `json:"mediaUrl"`
}

type updateProfileRequest struct {
	Email       *string `json:"email"`
	DisplayName *string `json:"displayName"`
	Password    *string `json:"password"`
	Avatar      *string `json:"avatar"`
	Bio         *string `json:"bio"`
}

type searchRequest struct {
	Query string `json:"query"`
}

// handleAPI dispatches on the action query parameter.
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")

	switch action {
	case "login":
		s.handleLogin(w, r)
	case "register":
		s.handleRegister(w, r)
	case "get_chats":
		s.authenticated(w, r, s.handleGetChats)
	case "get_messages":
		s.authenticated(w, r, s.handleGetMessages)
	case "send_message":
		s.authenticated(w, r, s.handleSendMessage)
	case "update_profile":
		s.authenticated(w, r, s.handleUpdateProfile)
	case "search_users":
		s.authenticated(w, r, s.handleSearchUsers)
	default:
		sendJSONError(w, http.StatusNotFound, "Action not found")
	}
}

// authenticated verifies the bearer token and checks it names the signed-in
// identity before invoking the handler.
func (s *Server) authenticated(w http.ResponseWriter, r *http.Request, handler http.HandlerFunc) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		sendJSONError(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}

	identityID, err := s.verifier.Verify(token)
	if err != nil {
		s.logger.Debug("token rejected", "error", err)
		sendJSONError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	user := s.sessions.CurrentUser()
	if user == nil || user.ID != identityID {
		sendJSONError(w, http.StatusUnauthorized, "No matching session")
		return
	}

	handler(w, r)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !s.sessions.Login(r.Context(), req.Username, req.Password, req.Remember) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"error":   msgInvalidCredentials,
		})
		return
	}

	s.respondWithSession(w, req.Remember)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !s.sessions.Register(r.Context(), req.Email, req.Username, req.DisplayName, req.Password, req.Remember) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"success": false,
			"error":   msgUsernameTaken,
		})
		return
	}

	s.respondWithSession(w, req.Remember)
}

// respondWithSession writes the signed-in identity and a fresh token.
func (s *Server) respondWithSession(w http.ResponseWriter, remember bool) {
	user := s.sessions.CurrentUser()
	if user == nil {
		sendJSONError(w, http.StatusInternalServerError, "Session lost")
		return
	}

	ttl := tokenTTL
	if remember {
		ttl = rememberTokenTTL
	}
	token, err := s.verifier.Generate(user.ID, ttl)
	if err != nil {
		s.logger.Error("generating token", "error", err)
		sendJSONError(w, http.StatusInternalServerError, "Token generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    publicIdentity(user),
		"token":   token,
	})
}

func (s *Server) handleGetChats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"chats": s.chats.Chats(),
	})
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	var req messagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": s.chats.Messages(req.ChatID),
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg := s.chats.SendMessage(r.Context(), req.ChatID, req.Content, model.MessageKind(req.Kind), req.MediaURL)
	if msg == nil {
		sendJSONError(w, http.StatusUnauthorized, "No session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": msg,
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.sessions.UpdateProfile(r.Context(), session.ProfileUpdate{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Avatar:      req.Avatar,
		Bio:         req.Bio,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"user": publicIdentity(s.sessions.CurrentUser()),
	})
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	users := s.chats.SearchUsers(req.Query)
	if users == nil {
		users = []model.IdentitySummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
	})
}

// publicIdentity is the response view of an identity: the directory summary
// plus contact fields, never the password.
func publicIdentity(u *model.Identity) map[string]any {
	if u == nil {
		return nil
	}
	return map[string]any{
		"id":          u.ID,
		"email":       u.Email,
		"username":    u.Username,
		"displayName": u.DisplayName,
		"avatar":      u.Avatar,
		"bio":         u.Bio,
		"isVerified":  u.IsVerified,
		"isAdmin":     u.IsAdmin,
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are out; nothing left to do.
		return
	}
}

// sendJSONError writes a JSON error envelope.
func sendJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
