// ABOUTME: Tests for the session store
// ABOUTME: Covers login, registration, remember-me, profile updates and preferences

package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-im/spektr/internal/model"
	"github.com/spektr-im/spektr/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.MemKV) {
	t.Helper()
	kv := storage.NewMemKV()
	return New(kv, Defaults{}, nil), kv
}

func TestNew_SeedsAdminAccount(t *testing.T) {
	s, _ := newTestStore(t)

	users := s.Directory()
	require.Len(t, users, 1)
	assert.Equal(t, model.AdminID, users[0].ID)
	assert.True(t, users[0].IsAdmin)
	assert.Nil(t, s.CurrentUser())
}

func TestNew_PersistedDirectoryOverridesSeed(t *testing.T) {
	kv := storage.NewMemKV()
	directory := []model.Identity{{ID: "u1", Username: "alice", Password: "pw"}}
	data, err := json.Marshal(directory)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), storage.KeySessionUsers, data))

	s := New(kv, Defaults{}, nil)

	users := s.Directory()
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestNew_ConfiguredDefaultsApply(t *testing.T) {
	kv := storage.NewMemKV()

	s := New(kv, Defaults{Theme: model.ThemeDarkBlue, Language: model.LanguageEN}, nil)

	assert.Equal(t, model.ThemeDarkBlue, s.Theme())
	assert.Equal(t, model.LanguageEN, s.Language())
}

func TestNew_PersistedPreferencesOverrideDefaults(t *testing.T) {
	kv := storage.NewMemKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.KeyTheme, []byte(`"white-black"`)))
	require.NoError(t, kv.Set(ctx, storage.KeyLanguage, []byte(`"ru"`)))

	s := New(kv, Defaults{Theme: model.ThemeDarkBlue, Language: model.LanguageEN}, nil)

	assert.Equal(t, model.ThemeWhiteBlack, s.Theme())
	assert.Equal(t, model.LanguageRU, s.Language())
}

func TestNew_ZeroDefaultsFallBack(t *testing.T) {
	s, _ := newTestStore(t)

	assert.Equal(t, model.ThemeCrystal, s.Theme())
	assert.Equal(t, model.LanguageRU, s.Language())
}

func TestLogin_ExactMatchOnly(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	assert.False(t, s.Login(ctx, "spektr", "wrong", false))
	assert.False(t, s.Login(ctx, "SPEKTR", "zzzz-2014", false))
	assert.Nil(t, s.CurrentUser())

	assert.True(t, s.Login(ctx, "spektr", "zzzz-2014", false))
	require.NotNil(t, s.CurrentUser())
	assert.Equal(t, model.AdminID, s.CurrentUser().ID)
}

func TestLogin_RememberPersistsSession(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.Login(ctx, "spektr", "zzzz-2014", true))

	data, err := kv.Get(ctx, storage.KeySessionUser)
	require.NoError(t, err)

	var user model.Identity
	require.NoError(t, json.Unmarshal(data, &user))
	assert.Equal(t, model.AdminID, user.ID)
}

func TestLogin_WithoutRememberDoesNotPersist(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.Login(ctx, "spektr", "zzzz-2014", false))

	_, err := kv.Get(ctx, storage.KeySessionUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegister_NewUsername(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	ok := s.Register(ctx, "alice@example.com", "alice", "Alice", "secret", false)
	require.True(t, ok)

	users := s.Directory()
	require.Len(t, users, 2)

	current := s.CurrentUser()
	require.NotNil(t, current)
	assert.Equal(t, "alice", current.Username)
	assert.Equal(t, "Alice", current.DisplayName)
	assert.NotEmpty(t, current.ID)
	assert.False(t, current.IsAdmin)

	// directory is persisted immediately
	data, err := kv.Get(ctx, storage.KeySessionUsers)
	require.NoError(t, err)
	var persisted []model.Identity
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Len(t, persisted, 2)
}

func TestRegister_TakenUsernameFailsAndLeavesDirectoryUnchanged(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.Register(ctx, "a@example.com", "alice", "Alice", "pw1", false))
	before := s.Directory()

	s.Logout(ctx)
	ok := s.Register(ctx, "b@example.com", "alice", "Other Alice", "pw2", false)
	assert.False(t, ok)
	assert.Nil(t, s.CurrentUser())
	assert.Equal(t, before, s.Directory())
}

func TestRegister_UsernameCheckIsCaseSensitive(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.Register(ctx, "a@example.com", "alice", "Alice", "pw", false))
	assert.True(t, s.Register(ctx, "b@example.com", "Alice", "Capital Alice", "pw", false))
	assert.Len(t, s.Directory(), 3)
}

func TestLogout_ClearsSessionKeepsPreferences(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.Login(ctx, "spektr", "zzzz-2014", true))
	s.SetTheme(ctx, model.ThemeDarkBlue)

	s.Logout(ctx)

	assert.Nil(t, s.CurrentUser())
	_, err := kv.Get(ctx, storage.KeySessionUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Equal(t, model.ThemeDarkBlue, s.Theme())
	_, err = kv.Get(ctx, storage.KeyTheme)
	assert.NoError(t, err)
}

func TestUpdateProfile_MergesAndPersistsBothRecords(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.Register(ctx, "a@example.com", "alice", "Alice", "pw", false))

	bio := "hello"
	name := "Alice A."
	s.UpdateProfile(ctx, ProfileUpdate{DisplayName: &name, Bio: &bio})

	current := s.CurrentUser()
	assert.Equal(t, "Alice A.", current.DisplayName)
	assert.Equal(t, "hello", current.Bio)
	assert.Equal(t, "a@example.com", current.Email)

	// directory entry updated too
	var alice *model.Identity
	for _, u := range s.Directory() {
		if u.Username == "alice" {
			copied := u
			alice = &copied
		}
	}
	require.NotNil(t, alice)
	assert.Equal(t, "Alice A.", alice.DisplayName)

	// current-identity record is written even without remember
	data, err := kv.Get(ctx, storage.KeySessionUser)
	require.NoError(t, err)
	var persisted model.Identity
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, "Alice A.", persisted.DisplayName)
}

func TestUpdateProfile_NoSessionIsNoop(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	name := "Nobody"
	s.UpdateProfile(ctx, ProfileUpdate{DisplayName: &name})

	assert.Nil(t, s.CurrentUser())
	_, err := kv.Get(ctx, storage.KeySessionUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSetTheme_PersistsAndNotifies(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	var observed model.Theme
	s.OnThemeChange(func(theme model.Theme) { observed = theme })

	s.SetTheme(ctx, model.ThemePurpleLime)

	assert.Equal(t, model.ThemePurpleLime, s.Theme())
	assert.Equal(t, model.ThemePurpleLime, observed)
	assert.Equal(t, "theme-purple-lime", model.ThemeClass(observed))

	data, err := kv.Get(ctx, storage.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, `"purple-lime"`, string(data))
}

func TestSetLanguage_Persists(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	s.SetLanguage(ctx, model.LanguageEN)

	assert.Equal(t, model.LanguageEN, s.Language())
	data, err := kv.Get(ctx, storage.KeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, `"en"`, string(data))
}

func TestRestore_ResumesRememberedSession(t *testing.T) {
	kv := storage.NewMemKV()
	ctx := context.Background()

	first := New(kv, Defaults{}, nil)
	require.True(t, first.Register(ctx, "a@example.com", "alice", "Alice", "pw", true))
	first.SetTheme(ctx, model.ThemeWhiteBlack)

	second := New(kv, Defaults{}, nil)
	var observedUser *model.Identity
	var observedTheme model.Theme
	second.OnIdentityChange(func(u *model.Identity) { observedUser = u })
	second.OnThemeChange(func(theme model.Theme) { observedTheme = theme })

	second.Restore(ctx)

	require.NotNil(t, second.CurrentUser())
	assert.Equal(t, "alice", second.CurrentUser().Username)
	require.NotNil(t, observedUser)
	assert.Equal(t, "alice", observedUser.Username)
	assert.Equal(t, model.ThemeWhiteBlack, observedTheme)
}

func TestRestore_NothingPersisted(t *testing.T) {
	s, _ := newTestStore(t)

	called := false
	s.OnIdentityChange(func(u *model.Identity) { called = true })
	s.Restore(context.Background())

	assert.Nil(t, s.CurrentUser())
	assert.False(t, called)
}

func TestLogin_NotifiesIdentityObserver(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var observed *model.Identity
	s.OnIdentityChange(func(u *model.Identity) { observed = u })

	require.True(t, s.Login(ctx, "spektr", "zzzz-2014", false))
	require.NotNil(t, observed)
	assert.Equal(t, model.AdminID, observed.ID)

	s.Logout(ctx)
	assert.Nil(t, observed)
}
