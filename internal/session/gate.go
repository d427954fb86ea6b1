// Package session gates the API behind the household's shared password.
//
// A successful login yields a signed token whose claims carry the fixed
// household identity. Tokens do not expire unless a TTL is configured;
// logging out revokes the token's ID for the life of the process.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"financas/internal/core"
	"financas/internal/log"
)

const issuer = "financas"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// Config holds what the gate needs from the application configuration.
type Config struct {
	// PasswordHash is a bcrypt hash. When empty, Password is hashed at start-up.
	PasswordHash string
	Password     string
	Secret       string
	TTL          time.Duration
	Household    core.Household
}

// Session is the result of a successful login.
type Session struct {
	Token     string         `json:"token"`
	Household core.Household `json:"household"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
}

// Claims are the token claims: the household plus the registered set.
type Claims struct {
	Household core.Household `json:"household"`
	jwt.RegisteredClaims
}

// Gate issues, verifies and revokes session tokens.
type Gate struct {
	hash      []byte
	secret    []byte
	ttl       time.Duration
	household core.Household
	logger    *log.Logger
	now       func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry, zero for tokens without one
}

// HashPassword returns the bcrypt hash stored in AUTH_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// NewGate builds a gate from cfg.
func NewGate(cfg Config, logger *log.Logger) (*Gate, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	hash := cfg.PasswordHash
	if hash == "" {
		h, err := HashPassword(cfg.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("password hash: %w", err)
	}
	if cfg.Secret == "" {
		return nil, errors.New("session secret is empty")
	}
	if cfg.TTL < 0 {
		return nil, errors.New("session TTL must not be negative")
	}
	return &Gate{
		hash:      []byte(hash),
		secret:    []byte(cfg.Secret),
		ttl:       cfg.TTL,
		household: cfg.Household,
		logger:    logger.WithComponent(log.ComponentSession),
		now:       time.Now,
		revoked:   make(map[string]time.Time),
	}, nil
}

// Household returns the household every session is bound to.
func (g *Gate) Household() core.Household { return g.household }

// Login checks password and issues a token.
func (g *Gate) Login(ctx context.Context, password string) (Session, error) {
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
		g.logger.WarnContext(ctx, "Login rejected", log.FieldOperation, log.OpLogin)
		return Session{}, ErrInvalidCredentials
	}

	now := g.now()
	claims := Claims{
		Household: g.household,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  g.household.ID.String(),
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	sess := Session{Household: g.household}
	if g.ttl > 0 {
		exp := now.Add(g.ttl).UTC()
		claims.ExpiresAt = jwt.NewNumericDate(exp)
		sess.ExpiresAt = &exp
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	sess.Token = token
	g.logger.InfoContext(ctx, "Login succeeded", log.FieldOperation, log.OpLogin,
		log.FieldHouseholdID, g.household.ID.String())
	return sess, nil
}

func (g *Gate) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: token has no id", ErrUnauthenticated)
	}
	if claims.Household.ID != g.household.ID {
		return nil, fmt.Errorf("%w: token is for another household", ErrUnauthenticated)
	}
	return claims, nil
}

// Authenticate verifies token and returns the household it grants access to.
func (g *Gate) Authenticate(token string) (core.Household, error) {
	if token == "" {
		return core.Household{}, ErrUnauthenticated
	}
	claims, err := g.parse(token)
	if err != nil {
		return core.Household{}, err
	}

	g.mu.Lock()
	_, revoked := g.revoked[claims.ID]
	g.mu.Unlock()
	if revoked {
		return core.Household{}, fmt.Errorf("%w: token was revoked", ErrUnauthenticated)
	}
	// Names may have changed in configuration since the token was issued.
	return g.household, nil
}

// Logout revokes token. Revoking a revoked token is a no-op.
func (g *Gate) Logout(ctx context.Context, token string) error {
	claims, err := g.parse(token)
	if err != nil {
		return err
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()
	for jti, until := range g.revoked {
		if !until.IsZero() && until.Before(now) {
			delete(g.revoked, jti)
		}
	}
	g.revoked[claims.ID] = exp

	g.logger.InfoContext(ctx, "Session revoked", log.FieldOperation, log.OpLogout)
	return nil
}

// Revoked reports how many tokens are currently revoked.
func (g *Gate) Revoked() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.revoked)
}
