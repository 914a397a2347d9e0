package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidResetToken covers expired, malformed, or mis-bound reset tokens.
var ErrInvalidResetToken = errors.New("Link is invalid or expired!")

const resetPurpose = "password_reset"

// ResetTokenIssuer mints and verifies password-reset tokens. Each token is an
// HS256 JWT bound to a user id and the hash of the user's current password, so
// resetting once invalidates any outstanding link.
type ResetTokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewResetTokenIssuer builds an issuer with the shared secret and token TTL.
func NewResetTokenIssuer(secret string, ttl time.Duration) *ResetTokenIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResetTokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

type resetClaims struct {
	Purpose  string `json:"purpose"`
	HashTail string `json:"ht"`
	jwt.RegisteredClaims
}

// Issue returns a reset token for the user. passwordHash binds the token to
// the credential it is allowed to replace.
func (i *ResetTokenIssuer) Issue(userID, passwordHash string) (string, error) {
	now := i.now().UTC()
	claims := resetClaims{
		Purpose:  resetPurpose,
		HashTail: hashTail(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify checks signature, expiry, purpose, and user/credential binding and
// returns the bound user id.
func (i *ResetTokenIssuer) Verify(token, userID, passwordHash string) error {
	claims := &resetClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidResetToken
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil || !parsed.Valid {
		return ErrInvalidResetToken
	}
	if claims.Purpose != resetPurpose || claims.Subject != userID {
		return ErrInvalidResetToken
	}
	if claims.HashTail != hashTail(passwordHash) {
		return ErrInvalidResetToken
	}
	return nil
}

// hashTail keeps only a suffix of the bcrypt hash so the claim does not leak
// enough material to attack the credential.
func hashTail(passwordHash string) string {
	if len(passwordHash) <= 12 {
		return passwordHash
	}
	return passwordHash[len(passwordHash)-12:]
}
