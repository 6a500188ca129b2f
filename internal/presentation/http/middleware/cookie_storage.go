package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/security"
)

// maxCookieBytes is the largest cookie browsers reliably keep.
const maxCookieBytes = 4096

// tokenSlack keeps a signed value verifiable a little past the stored
// attribution expiry, so the store sees and clears the expiry itself.
const tokenSlack = time.Minute

// CookieOptions configures attribution cookies.
type CookieOptions struct {
	Secret string
	TTL    time.Duration
	Secure bool
	Now    func() time.Time
}

// CookieStorage keeps attribution entries in signed first-party cookies.
// Writes are visible to later reads of the same request.
type CookieStorage struct {
	w       http.ResponseWriter
	r       *http.Request
	opts    CookieOptions
	pending map[string]*string
}

var (
	_ attribution.Storage     = (*CookieStorage)(nil)
	_ attribution.BatchWriter = (*CookieStorage)(nil)
)

// NewCookieStorage creates the storage for one request.
func NewCookieStorage(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStorage {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CookieStorage{w: w, r: r, opts: opts, pending: map[string]*string{}}
}

// Get returns the verified value of the named cookie. An expired cookie reads
// as absent; one whose signature does not verify is reported as malformed.
func (s *CookieStorage) Get(name string) (string, bool, error) {
	if v, ok := s.pending[name]; ok {
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}

	cookie, err := s.r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", attribution.ErrStorageUnavailable, err)
	}
	value, err := security.VerifyValue(s.opts.Secret, name, cookie.Value)
	if errors.Is(err, security.ErrTokenExpired) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", attribution.ErrMalformedEntry, err)
	}
	return value, true, nil
}

// Set writes one signed cookie.
func (s *CookieStorage) Set(name, value string) error {
	signed, err := security.SignValue(s.opts.Secret, name, value, s.tokenTTL(), s.opts.Now())
	if err != nil {
		return fmt.Errorf("%w: %v", attribution.ErrStorageUnavailable, err)
	}
	if len(name)+len(signed) > maxCookieBytes {
		return fmt.Errorf("%w: cookie %s exceeds %d bytes", attribution.ErrStorageUnavailable, name, maxCookieBytes)
	}
	http.SetCookie(s.w, s.cookie(name, signed, int(s.opts.TTL/time.Second)))
	s.pending[name] = &value
	return nil
}

// SetEntries signs every entry before writing any, so a failure leaves the
// previous cookies in place.
func (s *CookieStorage) SetEntries(entries map[string]string) error {
	signed := make(map[string]string, len(entries))
	for name, value := range entries {
		token, err := security.SignValue(s.opts.Secret, name, value, s.tokenTTL(), s.opts.Now())
		if err != nil {
			return fmt.Errorf("%w: %v", attribution.ErrStorageUnavailable, err)
		}
		if len(name)+len(token) > maxCookieBytes {
			return fmt.Errorf("%w: cookie %s exceeds %d bytes", attribution.ErrStorageUnavailable, name, maxCookieBytes)
		}
		signed[name] = token
	}
	for name, token := range signed {
		http.SetCookie(s.w, s.cookie(name, token, int(s.opts.TTL/time.Second)))
		value := entries[name]
		s.pending[name] = &value
	}
	return nil
}

// Remove expires the named cookie.
func (s *CookieStorage) Remove(name string) error {
	http.SetCookie(s.w, s.cookie(name, "", -1))
	s.pending[name] = nil
	return nil
}

func (s *CookieStorage) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *CookieStorage) tokenTTL() time.Duration {
	if s.opts.TTL <= 0 {
		return 0
	}
	return s.opts.TTL + tokenSlack
}
