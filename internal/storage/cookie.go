package storage

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"keksly-go/internal/keksly"
)

// CookieMaxAge is how long a consent cookie stays valid after its last write.
const CookieMaxAge = 365 * 24 * time.Hour

// maxCookieLine caps one Set-Cookie line in the jar. Longer lines read as
// absent and Set refuses to write them.
const maxCookieLine = 1 << 20

// CookieStore is a cookie jar for one origin. Each key is one cookie kept as
// a Set-Cookie line:
//
//	<root>/
//	  <origin>.cookies   (keksly_consent=%7B...%7D; Path=/; Expires=...; SameSite=Lax)
//
// Values are URL-escaped so JSON survives cookie syntax. Expired cookies
// read as absent and are dropped on the next write.
type CookieStore struct {
	path  string
	clock keksly.Clock
	mu    sync.Mutex
}

// NewCookieStore creates a cookie jar for origin under root.
func NewCookieStore(root, origin string, clock keksly.Clock) (*CookieStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cookie directory: %w", err)
	}
	if clock == nil {
		clock = keksly.RealClock{}
	}
	return &CookieStore{
		path:  filepath.Join(root, originFileName(origin)+".cookies"),
		clock: clock,
	}, nil
}

func (s *CookieStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jar, err := s.read()
	if err != nil {
		return "", false, err
	}
	c, ok := jar[key]
	if !ok {
		return "", false, nil
	}
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		return "", false, fmt.Errorf("decoding cookie %s: %w", key, err)
	}
	return v, true, nil
}

func (s *CookieStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jar, err := s.read()
	if err != nil {
		return err
	}
	c := &http.Cookie{
		Name:     key,
		Value:    url.QueryEscape(value),
		Path:     "/",
		Expires:  s.clock.Now().Add(CookieMaxAge).UTC(),
		SameSite: http.SameSiteLaxMode,
	}
	if n := len(c.String()); n > maxCookieLine {
		return fmt.Errorf("cookie %s is %d bytes, limit is %d", key, n, maxCookieLine)
	}
	jar[key] = c
	return s.write(jar)
}

func (s *CookieStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jar, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := jar[key]; !ok {
		return nil
	}
	delete(jar, key)
	return s.write(jar)
}

// read returns the live cookies keyed by name. Lines that do not parse,
// lines over maxCookieLine and cookies past their expiry are skipped, so the
// next write drops them.
func (s *CookieStore) read() (map[string]*http.Cookie, error) {
	jar := map[string]*http.Cookie{}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return jar, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	now := s.clock.Now()
	for _, raw := range bytes.Split(data, []byte("\n")) {
		if len(raw) > maxCookieLine {
			continue
		}
		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}
		c, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		if !c.Expires.IsZero() && !c.Expires.After(now) {
			continue
		}
		jar[c.Name] = c
	}
	return jar, nil
}

func (s *CookieStore) write(jar map[string]*http.Cookie) error {
	names := make([]string, 0, len(jar))
	for name := range jar {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		buf.WriteString(jar[name].String())
		buf.WriteByte('\n')
	}
	return writeFileAtomic(s.path, buf.Bytes(), 0600)
}

// Compile-time check that CookieStore implements keksly.Store interface
var _ keksly.Store = (*CookieStore)(nil)
