package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CookieName is the cookie carrying the bearer credential.
const CookieName = "token"

// CredentialJar persists the credential between page loads or CLI runs.
type CredentialJar interface {
	Load() (string, bool)
	Save(credential string, expires time.Time) error
	Clear() error
}

// MemoryJar keeps the credential in process memory.
type MemoryJar struct {
	mu         sync.Mutex
	credential string
	expires    time.Time
	now        func() time.Time
}

func NewMemoryJar() *MemoryJar {
	return &MemoryJar{now: time.Now}
}

func (j *MemoryJar) Load() (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.credential == "" || !j.now().Before(j.expires) {
		return "", false
	}
	return j.credential, true
}

func (j *MemoryJar) Save(credential string, expires time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.credential = credential
	j.expires = expires
	return nil
}

func (j *MemoryJar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.credential = ""
	j.expires = time.Time{}
	return nil
}

// CookieJar reads the credential from an incoming request and writes
// Set-Cookie headers on the response. It lives for one request.
type CookieJar struct {
	mu      sync.Mutex
	r       *http.Request
	w       http.ResponseWriter
	secure  bool
	value   string
	touched bool
}

func NewCookieJar(w http.ResponseWriter, r *http.Request, secure bool) *CookieJar {
	return &CookieJar{r: r, w: w, secure: secure}
}

func (j *CookieJar) Load() (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.touched {
		return j.value, j.value != ""
	}
	c, err := j.r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (j *CookieJar) Save(credential string, expires time.Time) error {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge <= 0 {
		return fmt.Errorf("credential expiry %s is in the past", expires)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	http.SetCookie(j.w, &http.Cookie{
		Name:     CookieName,
		Value:    credential,
		Path:     "/",
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		Secure:   j.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	j.value, j.touched = credential, true
	return nil
}

// Clear expires the browser cookie. Repeated clears within one request
// write a single header.
func (j *CookieJar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.touched && j.value == "" {
		return nil
	}
	http.SetCookie(j.w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   j.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	j.value, j.touched = "", true
	return nil
}

// FileJar stores the credential as JSON on disk, for the CLI.
type FileJar struct {
	path string
	now  func() time.Time
}

type fileCredential struct {
	Credential string    `json:"credential"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func NewFileJar(path string) *FileJar {
	return &FileJar{path: path, now: time.Now}
}

// DefaultFilePath is $XDG_CONFIG_HOME/tbpedia/credential.json or the
// platform equivalent.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "tbpedia", "credential.json"), nil
}

func (j *FileJar) Load() (string, bool) {
	raw, err := os.ReadFile(j.path)
	if err != nil {
		return "", false
	}
	var fc fileCredential
	if err := json.Unmarshal(raw, &fc); err != nil || fc.Credential == "" {
		return "", false
	}
	if !j.now().Before(fc.ExpiresAt) {
		_ = j.Clear()
		return "", false
	}
	return fc.Credential, true
}

func (j *FileJar) Save(credential string, expires time.Time) error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	raw, err := json.Marshal(fileCredential{Credential: credential, ExpiresAt: expires.UTC()})
	if err != nil {
		return err
	}
	return os.WriteFile(j.path, raw, 0o600)
}

func (j *FileJar) Clear() error {
	err := os.Remove(j.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}
