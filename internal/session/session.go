// ABOUTME: Session store owning the signed-in identity, user directory and preferences
// ABOUTME: Login/register/logout, profile updates, theme and language persistence

package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spektr-im/spektr/internal/model"
	"github.com/spektr-im/spektr/internal/storage"
)

// timeNow is a seam for tests that need deterministic timestamps.
var timeNow = time.Now

// Store owns the current authenticated identity, the registered-user
// directory, and the user-facing preferences. It is constructed once at
// startup and handed by reference to everything that needs it.
//
// Authentication is an exact plaintext username+password match against the
// directory. That is the legacy contract, preserved knowingly; see the
// Identity doc comment in the model package.
type Store struct {
	mu     sync.RWMutex
	kv     storage.KV
	logger *slog.Logger

	user     *model.Identity
	users    []model.Identity
	theme    model.Theme
	language model.Language

	onIdentityChange func(*model.Identity)
	onThemeChange    func(model.Theme)
}

// ProfileUpdate carries the fields a profile update may change. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Email       *string
	DisplayName *string
	Password    *string
	Avatar      *string
	Bio         *string
}

// Defaults carries the initial preferences for a fresh installation,
// typically taken from configuration. Zero values fall back to the built-in
// crystal theme and Russian language.
type Defaults struct {
	Theme    model.Theme
	Language model.Language
}

// New creates a Store backed by kv. The directory is seeded with the
// built-in administrator account; a previously persisted directory and
// preferences override the seeds and the given defaults. The remembered
// session, if any, is not restored until Restore is called, so
// identity-change observers can be registered first.
func New(kv storage.KV, defaults Defaults, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults.Theme == "" {
		defaults.Theme = model.ThemeCrystal
	}
	if defaults.Language == "" {
		defaults.Language = model.LanguageRU
	}
	s := &Store{
		kv:       kv,
		logger:   logger.With("component", "session"),
		users:    []model.Identity{model.AdminIdentity()},
		theme:    defaults.Theme,
		language: defaults.Language,
	}

	ctx := context.Background()

	if data, err := kv.Get(ctx, storage.KeySessionUsers); err == nil {
		var users []model.Identity
		if err := json.Unmarshal(data, &users); err != nil {
			s.logger.Error("corrupt user directory, keeping seed", "error", err)
		} else {
			s.users = users
		}
	}

	if data, err := kv.Get(ctx, storage.KeyTheme); err == nil {
		var theme model.Theme
		if err := json.Unmarshal(data, &theme); err == nil {
			s.theme = theme
		}
	}

	if data, err := kv.Get(ctx, storage.KeyLanguage); err == nil {
		var language model.Language
		if err := json.Unmarshal(data, &language); err == nil {
			s.language = language
		}
	}

	return s
}

// OnIdentityChange registers the observer called whenever the current
// identity changes, including to nil on logout. Only one observer is
// supported; the conversation store is the intended consumer.
func (s *Store) OnIdentityChange(fn func(*model.Identity)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onIdentityChange = fn
}

// OnThemeChange registers the observer called whenever the theme changes.
// The UI layer applies model.ThemeClass from here.
func (s *Store) OnThemeChange(fn func(model.Theme)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onThemeChange = fn
}

// Restore loads a previously persisted current-identity record, resuming the
// session without re-authentication ("remember me"). It also replays the
// persisted theme to the theme observer. Call once, after observers are
// registered.
func (s *Store) Restore(ctx context.Context) {
	s.mu.Lock()
	if data, err := s.kv.Get(ctx, storage.KeySessionUser); err == nil {
		var user model.Identity
		if err := json.Unmarshal(data, &user); err != nil {
			s.logger.Error("corrupt session record, ignoring", "error", err)
		} else {
			s.user = &user
			s.logger.Info("session restored", "user_id", user.ID, "username", user.Username)
		}
	}
	user := s.cloneUser()
	theme := s.theme
	identityFn := s.onIdentityChange
	themeFn := s.onThemeChange
	s.mu.Unlock()

	if user != nil && identityFn != nil {
		identityFn(user)
	}
	if themeFn != nil {
		themeFn(theme)
	}
}

// Login authenticates against the directory. On success the matching
// identity becomes current and, if remember is set, is persisted so later
// runs resume without credentials. Returns false on any mismatch; callers
// get no detail beyond that.
func (s *Store) Login(ctx context.Context, username, password string, remember bool) bool {
	s.mu.Lock()
	var found *model.Identity
	for i := range s.users {
		if s.users[i].Username == username && s.users[i].Password == password {
			found = &s.users[i]
			break
		}
	}
	if found == nil {
		s.mu.Unlock()
		s.logger.Info("login failed", "username", username)
		return false
	}

	user := *found
	s.user = &user
	if remember {
		s.persist(ctx, storage.KeySessionUser, user)
	}
	fn := s.onIdentityChange
	s.mu.Unlock()

	s.logger.Info("login", "user_id", user.ID, "username", user.Username)
	if fn != nil {
		userCopy := user
		fn(&userCopy)
	}
	return true
}

// Register creates a new identity. Fails if the username is already taken
// (case-sensitive exact match). On success the new identity is appended to
// the directory, persisted, and becomes current.
func (s *Store) Register(ctx context.Context, email, username, displayName, password string, remember bool) bool {
	s.mu.Lock()
	for i := range s.users {
		if s.users[i].Username == username {
			s.mu.Unlock()
			s.logger.Info("registration refused, username taken", "username", username)
			return false
		}
	}

	user := model.Identity{
		ID:          uuid.New().String(),
		Email:       email,
		Username:    username,
		DisplayName: displayName,
		Password:    password,
		CreatedAt:   timeNow(),
	}
	s.users = append(s.users, user)
	s.persist(ctx, storage.KeySessionUsers, s.users)

	s.user = &user
	if remember {
		s.persist(ctx, storage.KeySessionUser, user)
	}
	fn := s.onIdentityChange
	s.mu.Unlock()

	s.logger.Info("registered", "user_id", user.ID, "username", username)
	if fn != nil {
		userCopy := user
		fn(&userCopy)
	}
	return true
}

// Logout clears the current identity and its persisted record. Preferences
// are untouched.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	if err := s.kv.Delete(ctx, storage.KeySessionUser); err != nil {
		s.logger.Error("clearing session record", "error", err)
	}
	fn := s.onIdentityChange
	s.mu.Unlock()

	s.logger.Info("logout")
	if fn != nil {
		fn(nil)
	}
}

// UpdateProfile merges the given fields into the current identity and its
// directory entry, then persists both. Silently no-ops when nobody is
// signed in.
//
// The current-identity record is written even when the session was not
// remembered; the legacy client did the same.
func (s *Store) UpdateProfile(ctx context.Context, update ProfileUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return
	}

	if update.Email != nil {
		s.user.Email = *update.Email
	}
	if update.DisplayName != nil {
		s.user.DisplayName = *update.DisplayName
	}
	if update.Password != nil {
		s.user.Password = *update.Password
	}
	if update.Avatar != nil {
		s.user.Avatar = *update.Avatar
	}
	if update.Bio != nil {
		s.user.Bio = *update.Bio
	}

	for i := range s.users {
		if s.users[i].ID == s.user.ID {
			s.users[i] = *s.user
			break
		}
	}

	s.persist(ctx, storage.KeySessionUsers, s.users)
	s.persist(ctx, storage.KeySessionUser, *s.user)
	s.logger.Debug("profile updated", "user_id", s.user.ID)
}

// SetTheme updates the theme preference, persists it, and notifies the
// theme observer.
func (s *Store) SetTheme(ctx context.Context, theme model.Theme) {
	s.mu.Lock()
	s.theme = theme
	s.persist(ctx, storage.KeyTheme, theme)
	fn := s.onThemeChange
	s.mu.Unlock()

	if fn != nil {
		fn(theme)
	}
}

// SetLanguage updates the language preference and persists it.
func (s *Store) SetLanguage(ctx context.Context, language model.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = language
	s.persist(ctx, storage.KeyLanguage, language)
}

// CurrentUser returns a copy of the signed-in identity, or nil.
func (s *Store) CurrentUser() *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneUser()
}

// Directory returns a copy of the full identity directory.
func (s *Store) Directory() []model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]model.Identity, len(s.users))
	copy(users, s.users)
	return users
}

// Theme returns the active theme preference.
func (s *Store) Theme() model.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// Language returns the active language preference.
func (s *Store) Language() model.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// cloneUser returns a copy of the current identity. Caller holds the lock.
func (s *Store) cloneUser() *model.Identity {
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// persist JSON-encodes value under key. Persistence failures are logged and
// swallowed: the in-memory state remains authoritative and the public
// contract of every mutation stays binary.
func (s *Store) persist(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("encoding record", "key", key, "error", err)
		return
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		s.logger.Error("persisting record", "key", key, "error", err)
	}
}
