package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config captures the credentials and TTL required to issue admin tokens.
// PasswordHash is a bcrypt hash and takes precedence over Password.
type Config struct {
	Email        string
	Password     string
	PasswordHash string
	TokenTTL     time.Duration
	Now          func() time.Time
}

// Token represents a bearer token issued after a successful login.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Manager issues and validates admin bearer tokens.
type Manager struct {
	email    string
	password string
	hash     []byte
	tokenTTL time.Duration
	now      func() time.Time

	mu     sync.Mutex
	tokens map[string]time.Time
}

// ErrInvalidCredentials indicates that the provided email/password pair was rejected.
var ErrInvalidCredentials = errors.New("invalid credentials")

// NewManager returns a Manager initialised with the supplied config.
func NewManager(cfg Config) *Manager {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	m := &Manager{
		email:    strings.ToLower(strings.TrimSpace(cfg.Email)),
		password: cfg.Password,
		tokenTTL: ttl,
		now:      now,
		tokens:   make(map[string]time.Time),
	}
	if hash := strings.TrimSpace(cfg.PasswordHash); hash != "" {
		m.hash = []byte(hash)
	}
	return m
}

// HashPassword returns a bcrypt hash suitable for Config.PasswordHash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login validates the provided credentials and returns a short-lived token.
func (m *Manager) Login(email, password string) (Token, error) {
	if m == nil {
		return Token{}, ErrInvalidCredentials
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Token{}, ErrInvalidCredentials
	}
	if email != m.email || !m.passwordMatches(password) {
		return Token{}, ErrInvalidCredentials
	}

	token := Token{
		Value:     generateToken(),
		ExpiresAt: m.now().Add(m.tokenTTL),
	}

	m.mu.Lock()
	m.prune()
	m.tokens[token.Value] = token.ExpiresAt
	m.mu.Unlock()

	return token, nil
}

func (m *Manager) passwordMatches(password string) bool {
	if len(m.hash) > 0 {
		return bcrypt.CompareHashAndPassword(m.hash, []byte(password)) == nil
	}
	if m.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) == 1
}

// Validate checks whether the provided token exists and has not expired.
func (m *Manager) Validate(token string) bool {
	if m == nil {
		return false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.tokens[token]
	if !ok {
		return false
	}
	if m.now().After(expiry) {
		delete(m.tokens, token)
		return false
	}
	return true
}

// prune drops expired tokens. Callers hold m.mu.
func (m *Manager) prune() {
	now := m.now()
	for value, expiry := range m.tokens {
		if now.After(expiry) {
			delete(m.tokens, value)
		}
	}
}

func generateToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return hex.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return hex.EncodeToString(buf)
}
