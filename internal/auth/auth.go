// Package auth keeps local user accounts and an in-process session cache so
// sessions survive without a backend round trip.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"pos-backend/internal/model"
	"pos-backend/internal/repo"
	"pos-backend/internal/store"
)

// Roles.
const (
	RoleAdmin   = "admin"
	RoleCashier = "kasir"
)

// Default administrator created on an empty local database.
const (
	DefaultAdminEmail    = "admin@pos.local"
	DefaultAdminPassword = "admin123"
)

const minPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("role must be admin or kasir")
	ErrInvalidInput       = errors.New("invalid input")
)

// UserInfo is the public part of a user.
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated login.
type Session struct {
	Token     string         `json:"token"`
	User      UserInfo       `json:"user"`
	Profile   *model.Profile `json:"profile"`
	Role      string         `json:"role"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// RegisterInput carries a new account.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// ProfileUpdate changes the given profile fields. Nil fields are kept.
type ProfileUpdate struct {
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
}

// UserSummary is one line of the user administration list.
type UserSummary struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// Service authenticates users against the users, profiles and user_roles tables.
type Service struct {
	users    *repo.Repository[model.User]
	profiles *repo.Repository[model.Profile]
	roles    *repo.Repository[model.UserRole]
	sessions *cache.Cache
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

// NewService creates a Service whose sessions live for ttl.
func NewService(s store.Store, ttl time.Duration, opts ...Option) *Service {
	svc := &Service{
		users:    repo.New(s, repo.Users),
		profiles: repo.New(s, repo.Profiles),
		roles:    repo.New(s, repo.UserRoles),
		sessions: cache.New(ttl, 10*time.Minute),
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Login checks the credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	user, err := s.users.FindOne(ctx, store.Where{"email": email})
	if errors.Is(err, repo.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.openSession(ctx, user)
}

// Register creates a cashier account and opens a session for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	user, err := s.createUser(ctx, in, RoleCashier)
	if err != nil {
		return Session{}, err
	}
	return s.openSession(ctx, user)
}

func (s *Service) createUser(ctx context.Context, in RegisterInput, role string) (model.User, error) {
	email := normalizeEmail(in.Email)
	if !strings.Contains(email, "@") {
		return model.User{}, fmt.Errorf("%w: email address is required", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return model.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	_, err := s.users.FindOne(ctx, store.Where{"email": email})
	if err == nil {
		return model.User{}, ErrEmailTaken
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.User{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.User{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)})
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	username := in.Username
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	if _, err := s.profiles.Create(ctx, model.Profile{ID: user.ID, Username: username, FullName: in.FullName}); err != nil {
		return model.User{}, fmt.Errorf("create profile: %w", err)
	}
	if _, err := s.roles.Create(ctx, model.UserRole{UserID: user.ID, Role: role}); err != nil {
		return model.User{}, fmt.Errorf("assign role: %w", err)
	}
	log.Info().Str("user_id", user.ID).Str("role", role).Msg("user registered")
	return user, nil
}

func (s *Service) openSession(ctx context.Context, user model.User) (Session, error) {
	profile, role, err := s.GetProfile(ctx, user.ID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return Session{}, err
	}
	sess := Session{
		Token:     uuid.NewString(),
		User:      UserInfo{ID: user.ID, Email: user.Email},
		Role:      role,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err == nil {
		sess.Profile = &profile
	}
	s.sessions.SetDefault(sess.Token, sess)
	return sess, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *Service) Logout(token string) {
	s.sessions.Delete(token)
}

// CheckSession returns the session for token with a fresh profile and role.
// A session whose user has lost its profile is ended.
func (s *Service) CheckSession(ctx context.Context, token string) (Session, error) {
	v, ok := s.sessions.Get(token)
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	sess := v.(Session)

	profile, role, err := s.GetProfile(ctx, sess.User.ID)
	if errors.Is(err, ErrUserNotFound) {
		s.sessions.Delete(token)
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	sess.Profile = &profile
	sess.Role = role
	return sess, nil
}

// GetProfile returns the profile and role of userID.
func (s *Service) GetProfile(ctx context.Context, userID string) (model.Profile, string, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Profile{}, "", ErrUserNotFound
	}
	if err != nil {
		return model.Profile{}, "", fmt.Errorf("load profile: %w", err)
	}
	return profile, s.roleOf(ctx, userID), nil
}

func (s *Service) roleOf(ctx context.Context, userID string) string {
	r, err := s.roles.FindOne(ctx, store.Where{"user_id": userID})
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			log.Warn().Err(err).Str("user_id", userID).Msg("failed to load role, assuming kasir")
		}
		return RoleCashier
	}
	return r.Role
}

// UpdateProfile changes the profile of userID and returns it.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (model.Profile, error) {
	fields := store.Row{"updated_at": s.now().UTC()}
	if upd.Username != nil {
		fields["username"] = *upd.Username
	}
	if upd.FullName != nil {
		fields["full_name"] = *upd.FullName
	}
	profile, err := s.profiles.Update(ctx, userID, fields)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Profile{}, ErrUserNotFound
	}
	return profile, err
}

// ListUsers returns every account with its profile and role.
func (s *Service) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users, err := s.users.List(ctx, store.SelectOptions{OrderBy: "created_at"})
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles.List(ctx, store.SelectOptions{})
	if err != nil {
		return nil, err
	}
	roles, err := s.roles.List(ctx, store.SelectOptions{})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	roleByUser := make(map[string]string, len(roles))
	for _, r := range roles {
		roleByUser[r.UserID] = r.Role
	}

	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		role := roleByUser[u.ID]
		if role == "" {
			role = RoleCashier
		}
		p := byID[u.ID]
		out = append(out, UserSummary{
			ID:        u.ID,
			Email:     u.Email,
			Username:  p.Username,
			FullName:  p.FullName,
			Role:      role,
			CreatedAt: u.CreatedAt,
		})
	}
	return out, nil
}

// UpdateRole sets the role of userID.
func (s *Service) UpdateRole(ctx context.Context, userID, role string) error {
	if role != RoleAdmin && role != RoleCashier {
		return ErrInvalidRole
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	updated, err := s.roles.UpdateWhere(ctx, store.Row{"role": role}, store.Where{"user_id": userID})
	if err != nil {
		return err
	}
	if len(updated) == 0 {
		if _, err := s.roles.Create(ctx, model.UserRole{UserID: userID, Role: role}); err != nil {
			return err
		}
	}
	return nil
}

// DeleteUser removes the account, its profile and role, and ends its sessions.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if err := s.roles.DeleteWhere(ctx, store.Where{"user_id": userID}); err != nil {
		return err
	}
	if err := s.profiles.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	for token, item := range s.sessions.Items() {
		if sess, ok := item.Object.(Session); ok && sess.User.ID == userID {
			s.sessions.Delete(token)
		}
	}
	log.Info().Str("user_id", userID).Msg("user deleted")
	return nil
}

// EnsureAdmin creates the default administrator when no account uses its
// email. It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context) (bool, error) {
	_, err := s.users.FindOne(ctx, store.Where{"email": DefaultAdminEmail})
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return false, err
	}
	if _, err := s.createUser(ctx, RegisterInput{
		Email:    DefaultAdminEmail,
		Password: DefaultAdminPassword,
		Username: "admin",
		FullName: "Administrator",
	}, RoleAdmin); err != nil {
		return false, err
	}
	log.Warn().Str("email", DefaultAdminEmail).Msg("default administrator created, change its password")
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
