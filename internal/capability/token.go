// Package capability issues and verifies the signed, time-bounded tokens that
// encode a subject's declared rights policy.
//
// Tokens are JWTs signed with HMAC-SHA256. The signature covers the exact
// received bytes, so there is no re-serialization step that could diverge
// between issuer and verifier. Verification checks the signature over the raw
// bytes before any semantic interpretation of the payload, and then checks
// expiry against a caller-supplied clock: a signature stays mathematically
// valid forever, so wall-clock expiry is always enforced separately.
package capability

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"aegis/internal/rights"
	id "aegis/pkg/domain"
	dErrors "aegis/pkg/domain-errors"
)

// Claims is the token payload: who declared, what they declared, and the
// validity window. SchemaVersion pins the rights enumeration the token was
// issued under.
type Claims struct {
	SubjectID     string        `json:"subject_id"`
	Rights        rights.Policy `json:"rights"`
	SchemaVersion int           `json:"schema_version"`
	jwt.RegisteredClaims
}

// Subject returns the typed subject ID from the claims.
func (c *Claims) Subject() (id.SubjectID, error) {
	return id.ParseSubjectID(c.SubjectID)
}

// Issuer signs and verifies capability tokens. The first key is used for
// signing; every key is accepted during verification so keys can be rotated
// without invalidating tokens issued under the previous key.
type Issuer struct {
	keys     [][]byte
	validity time.Duration
	issuer   string
}

// New constructs an Issuer. At least one signing key is required; validity
// bounds every issued token (issued_at + validity = expires_at).
func New(keys [][]byte, validity time.Duration, issuer string) (*Issuer, error) {
	if len(keys) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one signing key is required")
	}
	for _, k := range keys {
		if len(k) == 0 {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "signing keys cannot be empty")
		}
	}
	return &Issuer{keys: keys, validity: validity, issuer: issuer}, nil
}

// Issue creates a signed token for the subject's declared policy. The token
// is deterministic over its payload fields; issuance never mutates state.
func (s *Issuer) Issue(subjectID id.SubjectID, policy rights.Policy, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.validity)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SubjectID:     subjectID.String(),
		Rights:        policy,
		SchemaVersion: rights.SchemaVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(s.keys[0])
	if err != nil {
		return "", time.Time{}, dErrors.Wrap(dErrors.CodeInternal, "sign capability token", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the token and returns its claims.
//
// Order matters: the HMAC is recomputed over the received signing bytes and
// compared in constant time against every configured key before the payload
// is interpreted at all. Only a signature-valid token proceeds to claims
// decoding and expiry validation.
//
// Errors: CodeTokenMalformed when the token cannot be decoded at all,
// CodeTokenSignature when no key matches (tampering or wrong key),
// CodeTokenExpired when the signature is valid but now >= expires_at.
func (s *Issuer) Verify(tokenString string, now time.Time) (*Claims, error) {
	key, err := s.verifySignature(tokenString)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	var claims Claims
	parsed, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.Wrap(dErrors.CodeTokenExpired, "capability token has expired", err)
		}
		return nil, dErrors.Wrap(dErrors.CodeTokenMalformed, "invalid capability token", err)
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "invalid capability token")
	}
	if claims.SchemaVersion != rights.SchemaVersion {
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "unsupported rights schema version")
	}
	if _, err := claims.Subject(); err != nil {
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "capability token has no valid subject")
	}
	return &claims, nil
}

// verifySignature validates the raw token bytes against the key set and
// returns the key that matched.
func (s *Issuer) verifySignature(tokenString string) ([]byte, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "token is not a three-part JWT")
	}

	sig, err := jwt.NewParser().DecodeSegment(parts[2])
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeTokenMalformed, "token signature segment is not decodable", err)
	}

	signingString := parts[0] + "." + parts[1]
	for _, key := range s.keys {
		// SigningMethodHS256.Verify uses hmac.Equal, a constant-time compare.
		if err := jwt.SigningMethodHS256.Verify(signingString, sig, key); err == nil {
			return key, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeTokenSignature, "token signature does not match any known key")
}

// TokenReference returns a stable hash of the token for audit records, so the
// ledger never stores the bearer artifact itself.
func TokenReference(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(sum[:])
}
