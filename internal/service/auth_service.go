package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yourorg/stockroom/internal/domain"
	"github.com/yourorg/stockroom/internal/observability/metrics"
	"github.com/yourorg/stockroom/internal/security/audit"
	"github.com/yourorg/stockroom/internal/security/ratelimit"
	"github.com/yourorg/stockroom/internal/validation"
	"github.com/yourorg/stockroom/pkg/storage"
)

// AuthService holds the current-session identity and handles the
// anonymous/authenticated transitions. Session state lives only in process
// memory: a fresh launch starts anonymous unless the caller explicitly
// redeems a remember-me token via Resume.
type AuthService struct {
	users    domain.UserRepository
	limiter  *ratelimit.Limiter
	audit    *audit.Logger
	tokenKey []byte
	tokenTTL time.Duration
	logger   *slog.Logger

	mu      sync.RWMutex
	current *domain.User
	loading bool
}

// NewAuthService creates a new authentication service. limiter may be nil to
// disable login throttling; tokenSecret may be empty to disable remember-me
// tokens.
func NewAuthService(
	users domain.UserRepository,
	limiter *ratelimit.Limiter,
	auditLog *audit.Logger,
	tokenSecret string,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}

	return &AuthService{
		users:    users,
		limiter:  limiter,
		audit:    auditLog,
		tokenKey: []byte(tokenSecret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// sessionClaims are the remember-me token claims
type sessionClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Register creates a new account and transitions the session to
// authenticated. Fails with domain.ErrDuplicateEmail when the email is
// already taken; the UNIQUE constraint backstops the pre-check under
// concurrent registration.
func (s *AuthService) Register(ctx context.Context, input domain.UserInput) (*domain.User, error) {
	if err := validation.User(input); err != nil {
		return nil, err
	}

	s.setLoading(true)
	defer s.setLoading(false)

	existing, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}
	if existing != nil {
		metrics.ObserveAuthAttempt("register", "duplicate")
		s.audit.LogRegister(ctx, 0, "denied", "email already registered")
		return nil, domain.ErrDuplicateEmail
	}

	if _, err := s.users.Create(ctx, input); err != nil {
		if errors.Is(err, storage.ErrConstraint) {
			metrics.ObserveAuthAttempt("register", "duplicate")
			return nil, domain.ErrDuplicateEmail
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		metrics.ObserveAuthAttempt("register", "error")
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("register: read back user: %w", err)
	}

	s.setCurrent(user)
	metrics.ObserveAuthAttempt("register", "ok")
	s.audit.LogRegister(ctx, user.ID, "ok", "")
	s.logger.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login authenticates a user and transitions the session. Unknown email and
// wrong password both surface as domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if err := validation.Credentials(email, password); err != nil {
		return nil, err
	}

	if s.limiter != nil && !s.limiter.Allow(email) {
		metrics.ObserveAuthAttempt("login", "throttled")
		s.audit.LogLogin(ctx, 0, "throttled", email)
		return nil, domain.ErrTooManyAttempts
	}

	s.setLoading(true)
	defer s.setLoading(false)

	user, err := s.users.VerifyCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("login failed", slog.String("email", email))
			metrics.ObserveAuthAttempt("login", "denied")
			s.audit.LogLogin(ctx, 0, "denied", email)
			return nil, domain.ErrInvalidCredentials
		}
		metrics.ObserveAuthAttempt("login", "error")
		return nil, fmt.Errorf("login: %w", err)
	}

	s.setCurrent(user)
	metrics.ObserveAuthAttempt("login", "ok")
	s.audit.LogLogin(ctx, user.ID, "ok", "")
	s.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Logout clears the held identity. Stored data is untouched.
func (s *AuthService) Logout() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	if prev != nil {
		metrics.DecrementSessions()
		s.audit.LogLogout(context.Background(), prev.ID)
		s.logger.Info("user logged out", slog.Int64("user_id", prev.ID))
	}
}

// CurrentUser returns the authenticated user, if any.
func (s *AuthService) CurrentUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.User{}, false
	}
	return *s.current, true
}

// IsAuthenticated reports whether a session is active.
func (s *AuthService) IsAuthenticated() bool {
	_, ok := s.CurrentUser()
	return ok
}

// Loading reports whether an auth operation is in flight.
func (s *AuthService) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// RememberMeToken issues a signed token the caller may persist and redeem
// with Resume on a later launch. Only available while authenticated and only
// when a token secret is configured.
func (s *AuthService) RememberMeToken() (string, error) {
	if len(s.tokenKey) == 0 {
		return "", errors.New("remember-me tokens are not configured")
	}
	user, ok := s.CurrentUser()
	if !ok {
		return "", domain.ErrUnauthenticated
	}

	claims := &sessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "stockroom",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.tokenKey)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return "", errors.New("failed to generate token")
	}
	return signed, nil
}

// Resume redeems a remember-me token: the user row is re-read and the
// session transitions to authenticated. Fails closed on any mismatch.
func (s *AuthService) Resume(ctx context.Context, tokenString string) (*domain.User, error) {
	if len(s.tokenKey) == 0 {
		return nil, errors.New("remember-me tokens are not configured")
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.tokenKey, nil
	})
	if err != nil || !token.Valid {
		metrics.ObserveAuthAttempt("resume", "denied")
		s.audit.LogResume(ctx, claims.UserID, "denied", "invalid token")
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil || user.ID != claims.UserID {
		metrics.ObserveAuthAttempt("resume", "denied")
		s.audit.LogResume(ctx, claims.UserID, "denied", "user mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	s.setCurrent(user)
	metrics.ObserveAuthAttempt("resume", "ok")
	s.audit.LogResume(ctx, user.ID, "ok", "")
	return user, nil
}

func (s *AuthService) setCurrent(user *domain.User) {
	s.mu.Lock()
	wasAnonymous := s.current == nil
	u := *user
	s.current = &u
	s.mu.Unlock()

	if wasAnonymous {
		metrics.IncrementSessions()
	}
}

func (s *AuthService) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
