package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token errors returned by Parse.
var (
	ErrTokenMalformed = errors.New("feed token malformed")
	ErrTokenSignature = errors.New("feed token signature mismatch")
	ErrTokenExpired   = errors.New("feed token expired")
)

// macSize is the number of HMAC-SHA256 bytes kept in a token. Calendar
// clients store the full URL, so tokens stay short.
const macSize = 16

// SignedURLSigner issues tokens of the form id.format.expiry.mac that grant
// read access to one calendar feed until expiry.
type SignedURLSigner struct {
	secret   []byte
	previous [][]byte
	ttl      time.Duration
	now      func() time.Time
}

// NewSignedURLSigner constructs a signer. A zero ttl means thirty days.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// AcceptPrevious keeps tokens signed with retired secrets valid until they expire.
func (s *SignedURLSigner) AcceptPrevious(secrets ...string) *SignedURLSigner {
	for _, secret := range secrets {
		if secret != "" {
			s.previous = append(s.previous, []byte(secret))
		}
	}
	return s
}

// Generate returns a token binding calendarID to format until the returned expiry.
func (s *SignedURLSigner) Generate(calendarID, format string) (string, time.Time, error) {
	if calendarID == "" || format == "" {
		return "", time.Time{}, fmt.Errorf("calendar id and format required")
	}
	if strings.Contains(format, ".") {
		return "", time.Time{}, fmt.Errorf("format %q must not contain a dot", format)
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	payload := strings.Join([]string{
		base64.RawURLEncoding.EncodeToString([]byte(calendarID)),
		format,
		strconv.FormatInt(expiresAt.Unix(), 10),
	}, ".")
	return payload + "." + mac(s.secret, payload), expiresAt, nil
}

// Parse checks the signature and expiry of token and returns what it grants.
func (s *SignedURLSigner) Parse(token string) (calendarID, format string, expiresAt time.Time, err error) {
	cut := strings.LastIndexByte(token, '.')
	if cut < 0 {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	payload, signature := token[:cut], token[cut+1:]
	if !s.verify(payload, signature) {
		return "", "", time.Time{}, ErrTokenSignature
	}

	parts := strings.Split(payload, ".")
	if len(parts) != 3 {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	rawID, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("%w: calendar id", ErrTokenMalformed)
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("%w: expiry", ErrTokenMalformed)
	}
	expiresAt = time.Unix(exp, 0)
	if s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}
	return string(rawID), parts[1], expiresAt, nil
}

func (s *SignedURLSigner) verify(payload, signature string) bool {
	if len(s.secret) == 0 {
		return false
	}
	if hmac.Equal([]byte(mac(s.secret, payload)), []byte(signature)) {
		return true
	}
	for _, old := range s.previous {
		if hmac.Equal([]byte(mac(old, payload)), []byte(signature)) {
			return true
		}
	}
	return false
}

func mac(secret []byte, payload string) string {
	h := hmac.New(sha256.New, secret)
	_, _ = h.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)[:macSize])
}
