// Package security authenticates render-worker callbacks.
package security

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lovelace-tutor/internal/domain"
)

const callbackIssuer = "lovelace"

// CallbackAuth accepts either the shared callback secret or, when per-job
// tokens are enabled, an HS256 JWT signed with that secret whose subject is
// the job id. With no secret configured callbacks are open.
type CallbackAuth struct {
	secret []byte
	perJob bool
	ttl    time.Duration
	now    func() time.Time
}

func NewCallbackAuth(secret string, perJobTokens bool, ttl time.Duration) *CallbackAuth {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CallbackAuth{secret: []byte(secret), perJob: perJobTokens, ttl: ttl, now: time.Now}
}

func (a *CallbackAuth) Open() bool { return len(a.secret) == 0 }

// SecretFor returns the credential handed to the worker for one job.
func (a *CallbackAuth) SecretFor(jobID string) (string, error) {
	if a.Open() {
		return "", nil
	}
	if !a.perJob {
		return string(a.secret), nil
	}
	now := a.now()
	claims := jwt.RegisteredClaims{
		Issuer:    callbackIssuer,
		Subject:   jobID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign callback token: %w", err)
	}
	return signed, nil
}

// Authenticate checks an Authorization header value. It returns the job id
// the credential is bound to, or "" when it is valid for any job.
func (a *CallbackAuth) Authenticate(authHeader string) (string, error) {
	if a.Open() {
		return "", nil
	}
	tok := BearerToken(authHeader)
	if tok == "" {
		return "", domain.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(tok), a.secret) == 1 {
		return "", nil
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(callbackIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}

// BearerToken strips a case-insensitive "Bearer " prefix and surrounding space.
func BearerToken(h string) string {
	h = strings.TrimSpace(h)
	if len(h) >= 7 && strings.EqualFold(h[:7], "bearer ") {
		h = h[7:]
	}
	return strings.TrimSpace(h)
}
