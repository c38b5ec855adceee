// internal/form/csrf.go
//
// Forms subsystem: stateless CSRF token utilities.
//
// Context
//   Every rendered form embeds a hidden `csrf_token` input.  The server
//   verifies it on POST to ensure the request came from a page it rendered.
//   Tokens are stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – keyed with the process secret.
//
//   Validation checks the signature and ensures the timestamp is within
//   MaxAge.  No server-side storage is needed, so any instance can verify a
//   token issued by another.
//
// Workflow
//   •  SetSecret(key)    → install `security.csrf_key` at boot.
//   •  GenerateToken()   → returns token string for renderer.
//   •  VerifyToken(tok)  → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	tokenBytes = 16 + 8 + sha256.Size // nonce + ts + sig

	// MaxAge is how long a rendered form stays submittable.
	MaxAge = 2 * time.Hour
)

var (
	secretMu  sync.RWMutex
	secretKey []byte
)

// SetSecret installs the HMAC key.  Keys shorter than 32 bytes are rejected.
func SetSecret(key []byte) error {
	if len(key) < 32 {
		return errors.New("form: csrf key must be at least 32 bytes")
	}
	secretMu.Lock()
	secretKey = append([]byte(nil), key...)
	secretMu.Unlock()
	return nil
}

// GenerateToken creates a new CSRF token.  Call once per form render.
func GenerateToken() (string, error) {
	sec := fetchSecret()

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(time.Now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, sign(sec, nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// VerifyToken returns true if tok passes HMAC and age checks.
func VerifyToken(tok string) bool {
	if tok == "" {
		return false
	}
	sec := fetchSecret()

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	// Future timestamp (clock skew) or older than MaxAge.
	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	if time.Since(issued) > MaxAge || time.Until(issued) > time.Minute {
		return false
	}

	return hmac.Equal(sig, sign(sec, nonce, tsBytes))
}

func sign(sec, nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, sec)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}

// fetchSecret returns the process-wide CSRF secret.  When SetSecret was
// never called a random key is generated once and a warning logged; tokens
// then stop verifying after a restart.
func fetchSecret() []byte {
	secretMu.RLock()
	sec := secretKey
	secretMu.RUnlock()
	if sec != nil {
		return sec
	}

	secretMu.Lock()
	defer secretMu.Unlock()
	if secretKey == nil {
		secretKey = make([]byte, 32)
		_, _ = rand.Read(secretKey)
		zap.S().Warnw("security.csrf_key not set, using an ephemeral CSRF key")
	}
	return secretKey
}
