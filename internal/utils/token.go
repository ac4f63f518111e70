package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random data for token ids
	"crypto/sha256" // SHA‑256 hashing for stored session tokens
	"encoding/hex"  // hex encoding of token digests
	"errors"        // sentinel error for invalid tokens
	"time"          // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionToken represents a freshly minted session credential along with
// its expiry.  The Token field contains the serialized value handed to the
// client, which treats it as opaque.  Only the SHA‑256 hash of the value is
// stored server-side; every request resolves the presented token against
// that stored hash, so revoking the row is enough to kill the session.
type SessionToken struct {
	Token string    // the serialized token string
	Exp   time.Time // the UTC expiration time
}

// ErrBadToken is returned when a presented token fails signature or claim
// validation before any database lookup happens.
var ErrBadToken = errors.New("invalid session token")

// NewSessionToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID and a TTL in hours, and returns a
// SessionToken containing the signed value and its expiration time.  The
// claims carry the subject (sub), expiration (exp), issued at (iat) and a
// random token id (jti).  The jti makes every minted token unique: exp and
// iat have second precision, so without it two logins in the same second
// would produce byte-identical tokens and the second session INSERT would
// collide with the unique token_hash key of the row just revoked.
// Authorization data such as the admin flag is deliberately absent because
// the user record is re-loaded on every request.
func NewSessionToken(secret string, userID uint64, ttlHours int) (SessionToken, error) {
	jti, err := randomHex(16)
	if err != nil {
		return SessionToken{}, err
	}
	exp := time.Now().UTC().Add(time.Duration(ttlHours) * time.Hour)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
		"jti": jti,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// VerifySessionToken checks the signature and expiry of a presented token
// and returns its SHA‑256 hash for the session-store lookup.  Signature
// validation alone never authenticates a request: the hash must still
// resolve to a live, non-revoked session row, which is what enforces the
// single-active-session policy.
func VerifySessionToken(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", ErrBadToken
	}
	return HashToken(raw), nil
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashToken returns the SHA‑256 hash of a token value as a hex string.
// Storing only the hash in the database prevents attackers from using
// stolen database entries to impersonate sessions.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
