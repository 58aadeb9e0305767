// Package session resolves the storefront session for each request: an
// authenticated customer identified by a bearer token, a guest identified
// by the cart cookie, or both right after login (which is what triggers the
// one-time cart merge).
package session

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the guest cart token cookie.
const CookieName = "mbc_cart_token"

// guestCookieTTL keeps abandoned guest carts recoverable across visits.
const guestCookieTTL = 30 * 24 * time.Hour

// ErrInvalidToken is returned when a bearer token fails signature or claim
// validation.
var ErrInvalidToken = errors.New("invalid session token")

// Identity is an authenticated customer.
type Identity struct {
	UserID int64
	Email  string
}

type identityKey struct{}
type tokenKey struct{}

// WithIdentity stores the authenticated identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom extracts the authenticated identity, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// WithToken stores the raw bearer token so the upstream client can relay it.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom extracts the raw bearer token, or "".
func TokenFrom(ctx context.Context) string {
	if tok, ok := ctx.Value(tokenKey{}).(string); ok {
		return tok
	}
	return ""
}

// ParseToken validates an HS256 bearer token and extracts the customer
// identity. The subject claim carries the backend's numeric user ID.
func ParseToken(secret []byte, raw string) (Identity, error) {
	token, err := jwt.Parse(raw,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return Identity{}, errors.Wrap(ErrInvalidToken, "non-numeric subject")
	}

	email, _ := claims["email"].(string)
	return Identity{UserID: userID, Email: email}, nil
}

// GuestToken returns the request's guest cart token, or "" when the client
// has none.
func GuestToken(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	if _, perr := uuid.Parse(c.Value); perr != nil {
		return ""
	}
	return c.Value
}

// EnsureGuestToken returns the request's guest cart token, minting one and
// setting the cookie when absent.
func EnsureGuestToken(w http.ResponseWriter, r *http.Request) string {
	if tok := GuestToken(r); tok != "" {
		return tok
	}
	tok := uuid.New().String()
	SetGuestCookie(w, tok)
	return tok
}

// SetGuestCookie attaches the guest cart token to the response.
func SetGuestCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(guestCookieTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearGuestCookie drops the guest cart token from the client, used after a
// successful merge and on logout.
func ClearGuestCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
