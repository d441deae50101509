package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/oscar066/kiduka-cli/internal/api"
	"github.com/oscar066/kiduka-cli/internal/model"
	"github.com/oscar066/kiduka-cli/internal/store"
)

type State string

const (
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Manager owns the session lifecycle: login, registration, rehydration on
// startup, and logout. Token and user persistence go through the store; all
// remote calls go through the shared API client, whose 401 hook already
// clears the local session.
type Manager struct {
	DB     *sql.DB
	Client *api.Client
	Logger zerolog.Logger
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

type UpdateProfileInput struct {
	Username *string
	Email    *string
	FullName *string
}

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type userResponse struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	FullName   *string `json:"full_name"`
	IsActive   bool    `json:"is_active"`
	IsVerified bool    `json:"is_verified"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func (r userResponse) user() model.User {
	u := model.User{
		ID:         r.ID,
		Username:   r.Username,
		Email:      r.Email,
		IsActive:   r.IsActive,
		IsVerified: r.IsVerified,
		CreatedAt:  r.CreatedAt,
	}
	if r.FullName != nil {
		u.FullName = *r.FullName
	}
	return u
}

// State rehydrates the session from the store. A cached token+user pair is
// authenticated without a network call; a token without a user triggers one
// remote probe. Transient failures keep the token for a later retry, any
// definitive rejection clears it.
func (m *Manager) State(ctx context.Context) (State, *model.User) {
	token, ok, err := store.Token(m.DB)
	if err != nil {
		m.Logger.Warn().Err(err).Msg("token read failed during rehydration, treating as logged out")
		return StateAnonymous, nil
	}
	if !ok || token == "" {
		return StateAnonymous, nil
	}

	user, ok, err := store.CachedUser(m.DB)
	if err != nil {
		m.Logger.Warn().Err(err).Msg("cached user read failed, re-fetching")
	}
	if ok && user != nil {
		return StateAuthenticated, user
	}

	fetched, err := m.CurrentUser(ctx)
	if err != nil {
		if api.IsTransient(err) {
			// The server was never reached; the token may still be good.
			return StateAnonymous, nil
		}
		if err := store.DeleteToken(m.DB); err != nil {
			m.Logger.Warn().Err(err).Msg("failed to drop rejected token")
		}
		return StateAnonymous, nil
	}
	return StateAuthenticated, fetched
}

// Login establishes a session. The backend's login response carries only
// the token, so the user record is fetched in a follow-up call. On any
// failure no partial state survives: a token that cannot be paired with a
// user is rolled back rather than left orphaned.
func (m *Manager) Login(ctx context.Context, usernameOrEmail, password string) (model.Session, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)
	if usernameOrEmail == "" {
		return model.Session{}, fmt.Errorf("username or email is required")
	}
	if password == "" {
		return model.Session{}, fmt.Errorf("password is required")
	}

	var tokens tokenResponse
	err := m.Client.Post(ctx, "/auth/login", loginRequest{UsernameOrEmail: usernameOrEmail, Password: password}, &tokens, false)
	if err != nil {
		return model.Session{}, fmt.Errorf("login: %w", err)
	}
	if tokens.AccessToken == "" {
		return model.Session{}, fmt.Errorf("login: empty token in response")
	}

	if err := store.SaveToken(m.DB, tokens.AccessToken); err != nil {
		return model.Session{}, fmt.Errorf("persist session token: %w", err)
	}

	user, err := m.CurrentUser(ctx)
	if err != nil {
		if dropErr := store.DeleteToken(m.DB); dropErr != nil {
			m.Logger.Warn().Err(dropErr).Msg("failed to roll back token after user fetch failure")
		}
		return model.Session{}, fmt.Errorf("fetch user after login: %w", err)
	}

	return model.Session{Token: tokens.AccessToken, User: user}, nil
}

// Register creates an account. The backend returns the created user, not a
// session; callers chain Login with the same credentials to sign in.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	if err := ValidateUsername(in.Username); err != nil {
		return model.User{}, err
	}
	if err := ValidateEmail(in.Email); err != nil {
		return model.User{}, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return model.User{}, err
	}

	payload := map[string]any{
		"username": strings.TrimSpace(in.Username),
		"email":    strings.TrimSpace(in.Email),
		"password": in.Password,
	}
	if strings.TrimSpace(in.FullName) != "" {
		payload["full_name"] = strings.TrimSpace(in.FullName)
	} else {
		payload["full_name"] = nil
	}

	var created userResponse
	if err := m.Client.Post(ctx, "/auth/register", payload, &created, false); err != nil {
		return model.User{}, fmt.Errorf("register: %w", err)
	}
	return created.user(), nil
}

// Logout clears the local session. There is no remote logout endpoint; this
// never fails observably and is safe to repeat.
func (m *Manager) Logout() {
	if err := store.ClearSession(m.DB); err != nil {
		m.Logger.Warn().Err(err).Msg("logout: failed to clear local session")
	}
}

// CurrentUser fetches /auth/me and replaces the cached user wholesale. A
// 401 has already cleared the session by the time the error surfaces here.
func (m *Manager) CurrentUser(ctx context.Context) (*model.User, error) {
	var resp userResponse
	if err := m.Client.Get(ctx, "/auth/me", &resp, true); err != nil {
		return nil, err
	}
	user := resp.user()
	if err := store.SaveUser(m.DB, user); err != nil {
		m.Logger.Warn().Err(err).Msg("failed to cache user")
	}
	return &user, nil
}

func (m *Manager) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*model.User, error) {
	payload := map[string]any{}
	if in.Username != nil {
		if err := ValidateUsername(*in.Username); err != nil {
			return nil, err
		}
		payload["username"] = strings.TrimSpace(*in.Username)
	}
	if in.Email != nil {
		if err := ValidateEmail(*in.Email); err != nil {
			return nil, err
		}
		payload["email"] = strings.TrimSpace(*in.Email)
	}
	if in.FullName != nil {
		payload["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("nothing to update")
	}

	var resp userResponse
	if err := m.Client.Put(ctx, "/auth/me", payload, &resp, true); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	user := resp.user()
	if err := store.SaveUser(m.DB, user); err != nil {
		m.Logger.Warn().Err(err).Msg("failed to cache updated user")
	}
	return &user, nil
}

func (m *Manager) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return fmt.Errorf("current password is required")
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	payload := map[string]string{
		"current_password": currentPassword,
		"new_password":     newPassword,
	}
	if err := m.Client.Post(ctx, "/auth/change-password", payload, nil, true); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// DeleteAccount removes the account server-side, then clears the local
// session regardless.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	if err := m.Client.Delete(ctx, "/auth/me", nil, true); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	m.Logout()
	return nil
}
