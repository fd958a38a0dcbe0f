package admin

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/wolfman30/smilecare-dental/internal/http/middleware"
)

var ErrInvalidPassword = errors.New("admin: invalid password")

// Flag is the process-local admin switch kept by the appointment store.
type Flag interface {
	SetAuthenticated(bool)
	Authenticated() bool
}

// Gate checks the shared admin password and issues short-lived tokens. It is
// a convenience gate, not an identity system.
type Gate struct {
	password string
	secret   string
	ttl      time.Duration
	flag     Flag
	now      func() time.Time
}

// NewGate builds the admin gate. An empty secret is replaced with a random
// per-process key, so tokens do not survive a restart.
func NewGate(password, secret string, ttl time.Duration, flag Flag) (*Gate, error) {
	if flag == nil {
		return nil, errors.New("admin: gate flag required")
	}
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		secret = hex.EncodeToString(buf)
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Gate{password: password, secret: secret, ttl: ttl, flag: flag, now: time.Now}, nil
}

// Token is returned on successful login.
type Token struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Login opens the gate when password matches.
func (g *Gate) Login(password string) (Token, error) {
	if g.password == "" || subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) != 1 {
		return Token{}, ErrInvalidPassword
	}
	signed, expires, err := middleware.SignAdminToken(g.secret, "admin", g.ttl, g.now())
	if err != nil {
		return Token{}, err
	}
	g.flag.SetAuthenticated(true)
	return Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expires.UTC()}, nil
}

// Logout closes the gate; outstanding tokens stop working.
func (g *Gate) Logout() {
	g.flag.SetAuthenticated(false)
}

// Open reports the admin flag. It satisfies middleware.SessionGate.
func (g *Gate) Open() bool {
	return g.flag.Authenticated()
}

// Middleware protects admin routes.
func (g *Gate) Middleware() func(next http.Handler) http.Handler {
	return middleware.AdminJWT(g.secret, g.Open)
}
