// internal/session/session.go
//
// Sealed cookie sessions.
//
// Context
//   The whole session lives in one HttpOnly cookie.  Its payload is a small
//   string map plus an issued-at stamp, JSON-encoded and sealed with
//   AES-256-GCM.  The cookie name is bound as additional data, so a value
//   copied from another cookie fails to open.  Keys are derived from the
//   configured secret with HKDF-SHA256.
//
//   Rotation: the current secret seals, and the current plus every entry in
//   PreviousSecrets may open.  A session opened with an old key is re-sealed
//   with the current key on its next Commit.
//
//   Get never fails.  A missing, tampered, expired, or undecodable cookie
//   yields an empty session, which the auth gate treats as signed out.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/crypto/hkdf"
)

// MaxCookieSize is the largest encoded cookie value browsers reliably keep.
const MaxCookieSize = 4096

// MinSecretLen is the shortest accepted secret.
const MinSecretLen = 32

var (
	// ErrTooLarge is returned by Commit when the sealed value would exceed
	// MaxCookieSize.
	ErrTooLarge = errors.New("session: cookie too large")

	errShortSecret = fmt.Errorf("session: secret must be at least %d bytes", MinSecretLen)
	errMalformed   = errors.New("session: malformed cookie")
)

// Options configures a Store.
type Options struct {
	CookieName      string
	Secret          string
	PreviousSecrets []string
	MaxAge          time.Duration
	Secure          bool
	SameSite        http.SameSite
	Path            string           // "/" when empty
	Now             func() time.Time // time.Now when nil
}

// Store reads and writes sealed session cookies.  It holds no per-request
// state and is safe for concurrent use.
type Store struct {
	name     string
	path     string
	maxAge   time.Duration
	secure   bool
	sameSite http.SameSite
	now      func() time.Time

	aeads []cipher.AEAD // [0] seals; all open
}

// New derives the AEAD keys and returns a Store.
func New(opts Options) (*Store, error) {
	if opts.CookieName == "" {
		return nil, errors.New("session: cookie name required")
	}
	if opts.MaxAge <= 0 {
		return nil, errors.New("session: max age must be positive")
	}

	secrets := append([]string{opts.Secret}, opts.PreviousSecrets...)
	aeads := make([]cipher.AEAD, 0, len(secrets))
	for _, sec := range secrets {
		if len(sec) < MinSecretLen {
			return nil, errShortSecret
		}
		a, err := newAEAD(sec)
		if err != nil {
			return nil, err
		}
		aeads = append(aeads, a)
	}

	s := &Store{
		name:     opts.CookieName,
		path:     opts.Path,
		maxAge:   opts.MaxAge,
		secure:   opts.Secure,
		sameSite: opts.SameSite,
		now:      opts.Now,
		aeads:    aeads,
	}
	if s.path == "" {
		s.path = "/"
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sameSite == 0 {
		s.sameSite = http.SameSiteLaxMode
	}
	return s, nil
}

func newAEAD(secret string) (cipher.AEAD, error) {
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("adept-auth session v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("session: derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("session: cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("session: gcm: %w", err)
	}
	return gcm, nil
}

// CookieName reports the configured cookie name.
func (s *Store) CookieName() string { return s.name }

// payload is the JSON shape sealed into the cookie.
type payload struct {
	Values map[string]string `json:"v"`
	Issued int64             `json:"iat"`
}

// Get reads the session from r.  It always returns a usable Session.
func (s *Store) Get(r *http.Request) *Session {
	c, err := r.Cookie(s.name)
	if err != nil || c.Value == "" {
		return newSession()
	}
	p, err := s.open(c.Value)
	if err != nil {
		return newSession()
	}
	if s.now().Sub(time.Unix(p.Issued, 0)) > s.maxAge {
		return newSession()
	}
	sess := newSession()
	for k, v := range p.Values {
		sess.values[k] = v
	}
	return sess
}

// Commit seals sess into a cookie the caller must emit.  The issued-at stamp
// is refreshed so active sessions slide forward.
func (s *Store) Commit(sess *Session) (*http.Cookie, error) {
	raw, err := json.Marshal(payload{Values: sess.values, Issued: s.now().Unix()})
	if err != nil {
		return nil, fmt.Errorf("session: encode: %w", err)
	}
	val, err := s.seal(raw)
	if err != nil {
		return nil, err
	}
	if len(val) > MaxCookieSize {
		return nil, ErrTooLarge
	}
	return &http.Cookie{
		Name:     s.name,
		Value:    val,
		Path:     s.path,
		MaxAge:   int(s.maxAge / time.Second),
		Expires:  s.now().Add(s.maxAge),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: s.sameSite,
	}, nil
}

// Destroy empties sess and returns a cookie that clears it in the browser.
func (s *Store) Destroy(sess *Session) *http.Cookie {
	if sess != nil {
		clear(sess.values)
	}
	return &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     s.path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: s.sameSite,
	}
}

// Save commits sess and writes the cookie to w.
func (s *Store) Save(w http.ResponseWriter, sess *Session) error {
	c, err := s.Commit(sess)
	if err != nil {
		return err
	}
	http.SetCookie(w, c)
	return nil
}

func (s *Store) seal(plain []byte) (string, error) {
	a := s.aeads[0]
	nonce := make([]byte, a.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("session: nonce: %w", err)
	}
	out := a.Seal(nonce, nonce, plain, []byte(s.name))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (s *Store) open(val string) (*payload, error) {
	data, err := base64.RawURLEncoding.DecodeString(val)
	if err != nil {
		return nil, errMalformed
	}
	for _, a := range s.aeads {
		ns := a.NonceSize()
		if len(data) < ns+a.Overhead() {
			return nil, errMalformed
		}
		plain, err := a.Open(nil, data[:ns], data[ns:], []byte(s.name))
		if err != nil {
			continue
		}
		var p payload
		if err := json.Unmarshal(plain, &p); err != nil {
			return nil, errMalformed
		}
		return &p, nil
	}
	return nil, errMalformed
}
