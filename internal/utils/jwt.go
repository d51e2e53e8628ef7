package utils // token creation, parsing and hashing helpers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 JWT plus its expiry.  The expiry is also
// returned to clients as epoch milliseconds (ExpiresIn in auth responses).
type AccessToken struct {
	Token string
	Exp   time.Time
}

// RefreshToken is a long-lived opaque credential.  It is NOT a JWT: the raw
// value is never decoded, only compared byte-for-byte against the value
// stored on the user row.  Exp is the rotation deadline.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// ErrInvalidToken is returned when an access token fails to parse or its
// signature does not verify.  Callers must not leak more detail than this.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT for a user.  Claims carry the
// user id (sub), username, role and the display fields the UI needs, so
// protected endpoints can render without a second lookup.
func NewAccessToken(secret string, userID int64, username, role, fullname, team string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"role":     role,
		"fullname": fullname,
		"team":     team,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Claims is the decoded payload of an access token.
type Claims struct {
	UserID   int64
	Username string
	Role     string
	FullName string
	Team     string
}

// ParseToken validates the signature and the registered claims, including
// expiry.  This is the path for normal request authentication.
func ParseToken(secret, raw string) (Claims, error) {
	return parse(secret, raw, false)
}

// ParseExpiredToken validates the signature while ignoring the exp claim.
// This is the refresh-after-expiry path: the presented access token may be
// past its lifetime but must still be our token.  It must never be used to
// authenticate ordinary requests.
func ParseExpiredToken(secret, raw string) (Claims, error) {
	return parse(secret, raw, true)
}

func parse(secret, raw string, ignoreExpiry bool) (Claims, error) {
	var opts []jwt.ParserOption
	if ignoreExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	var c Claims
	if sub, ok := mc["sub"].(float64); ok {
		c.UserID = int64(sub)
	}
	c.Username, _ = mc["username"].(string)
	c.Role, _ = mc["role"].(string)
	c.FullName, _ = mc["fullname"].(string)
	c.Team, _ = mc["team"].(string)
	if c.Username == "" {
		return Claims{}, ErrInvalidToken
	}
	return c, nil
}

// NewRefreshToken returns a fresh opaque refresh token: 64 bytes from the
// secure random source, base64-encoded (88 characters, matching the column
// width), plus its expiry ttlDays from now.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: base64.StdEncoding.EncodeToString(buf),
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}
