package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Poutchouli/SharedMailbox-editor/internal/cache"
	"github.com/Poutchouli/SharedMailbox-editor/internal/observability/logger"
)

const issuer = "mbxperm"

// Config del cookie de sesión.
type Config struct {
	Secret     []byte
	CookieName string
	TTL        time.Duration
	SameSite   string // Lax | Strict | None
	Secure     bool
}

// Manager emite y valida cookies de sesión.
type Manager struct {
	store cache.Client
	cfg   Config
	now   func() time.Time
}

var ErrInvalidCookie = errors.New("session: invalid cookie")

// NewManager valida la config y aplica defaults.
func NewManager(store cache.Client, cfg Config) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session: nil store")
	}
	if len(cfg.Secret) < 16 {
		return nil, errors.New("session: secret must be at least 16 bytes")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "mbxperm_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &Manager{store: store, cfg: cfg, now: time.Now}, nil
}

type claims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

func (m *Manager) sign(sid string) (string, error) {
	now := m.now()
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
		},
	})
	return tk.SignedString(m.cfg.Secret)
}

// parse valida firma, expiración e issuer y devuelve el sid.
func (m *Manager) parse(raw string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return m.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}
	if _, err := uuid.Parse(c.SID); err != nil {
		return "", fmt.Errorf("%w: bad sid", ErrInvalidCookie)
	}
	return c.SID, nil
}

// Load recupera la sesión del request o crea una nueva. Si se creó, también
// devuelve el cookie a enviar.
func (m *Manager) Load(r *http.Request) (*Context, *http.Cookie, error) {
	if ck, err := r.Cookie(m.cfg.CookieName); err == nil && ck.Value != "" {
		if sid, err := m.parse(ck.Value); err == nil {
			return m.newContext(sid, false), nil, nil
		}
	}

	sid := uuid.NewString()
	val, err := m.sign(sid)
	if err != nil {
		return nil, nil, fmt.Errorf("session: sign: %w", err)
	}
	return m.newContext(sid, true), m.buildCookie(val), nil
}

func (m *Manager) newContext(sid string, fresh bool) *Context {
	return &Context{id: sid, store: m.store, ttl: m.cfg.TTL, fresh: fresh}
}

func (m *Manager) buildCookie(value string) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	switch strings.ToLower(m.cfg.SameSite) {
	case "strict":
		sameSite = http.SameSiteStrictMode
	case "none":
		sameSite = http.SameSiteNoneMode
	}

	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.cfg.TTL.Seconds()),
		Expires:  m.now().Add(m.cfg.TTL),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: sameSite,
	}
}

// Middleware adjunta la sesión al contexto del request.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ck, err := m.Load(r)
			if err != nil {
				// sin sesión la app sigue funcionando, solo se pierde el upload pendiente
				logger.From(r.Context()).Error("session load failed", logger.Component("session"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if ck != nil {
				http.SetCookie(w, ck)
			}
			ctx := ToContext(r.Context(), sess)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.SessionID(sess.ID())))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
