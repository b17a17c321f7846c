// Package cookiejar implements the credential store as a small file-backed
// jar of cookie records, mirroring the two browser cookies the dashboard
// relies on: admin_token and admin_user.
package cookiejar

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"console/config"
	"console/internal/domain/entity"
	"console/internal/domain/repository"
	"console/internal/errors"
)

const (
	tokenCookie = "admin_token"
	userCookie  = "admin_user"

	// Cookies are scoped to the root path so every screen sees them.
	cookiePath = "/"

	jarFileName = "cookies.json"
	jarFileMode = 0o600
)

// record is a single persisted cookie entry.
type record struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path"`
	Expires time.Time `json:"expires"`
}

type store struct {
	mu   sync.Mutex
	path string
	ttl  time.Duration
	now  func() time.Time
}

// New builds the credential store from configuration. An empty path places
// the jar under the user config directory.
func New(cfg *config.Config) (repository.CredentialStore, error) {
	path := cfg.CookieJar.Path
	if path == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolve user config dir")
		}
		path = filepath.Join(base, cfg.Env.ServiceName, jarFileName)
	}

	return NewAt(path, cfg.CookieJar.TTL), nil
}

// NewAt builds a credential store backed by the given file.
func NewAt(path string, ttl time.Duration) repository.CredentialStore {
	return &store{
		path: path,
		ttl:  ttl,
		now:  time.Now,
	}
}

func (s *store) SaveToken(token string) error {
	return s.put(tokenCookie, token)
}

func (s *store) Token() (string, error) {
	value, ok := s.get(tokenCookie)
	if !ok {
		return "", errors.WithStack(repository.ErrCredentialNotFound)
	}

	return value, nil
}

func (s *store) RemoveToken() error {
	return s.remove(tokenCookie)
}

func (s *store) SaveProfile(profile *entity.UserProfile) error {
	encoded, err := json.Marshal(profile.JSONObject())
	if err != nil {
		return errors.Wrap(err, "encode profile")
	}

	return s.put(userCookie, string(encoded))
}

func (s *store) Profile() (*entity.UserProfile, error) {
	value, ok := s.get(userCookie)
	if !ok {
		return nil, errors.WithStack(repository.ErrCredentialNotFound)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(value), &obj); err != nil {
		// Corrupted stored data reads as absent, never as a decode failure.
		return nil, errors.WithStack(repository.ErrCredentialNotFound)
	}

	profile := entity.ProfileFromMap(obj)
	if profile == nil {
		return nil, errors.WithStack(repository.ErrCredentialNotFound)
	}

	return profile, nil
}

func (s *store) RemoveProfile() error {
	return s.remove(userCookie)
}

// Clear removes both entries as two idempotent deletes.
func (s *store) Clear() error {
	if err := s.remove(tokenCookie); err != nil {
		return err
	}

	return s.remove(userCookie)
}

func (s *store) put(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	records[name] = record{
		Name:    name,
		Value:   value,
		Path:    cookiePath,
		Expires: s.now().Add(s.ttl),
	}

	return s.save(records)
}

func (s *store) get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	rec, ok := records[name]
	if !ok {
		return "", false
	}
	if !rec.Expires.After(s.now()) {
		return "", false
	}

	return rec.Value, true
}

func (s *store) remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	if _, ok := records[name]; !ok {
		return nil
	}
	delete(records, name)

	return s.save(records)
}

// load reads the jar file. A missing or unreadable file yields an empty jar.
func (s *store) load() map[string]record {
	records := make(map[string]record)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return records
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return make(map[string]record)
	}

	return records
}

func (s *store) save(records map[string]record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return errors.Wrap(err, "encode cookie jar")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "create cookie jar dir")
	}
	if err := os.WriteFile(s.path, data, jarFileMode); err != nil {
		return errors.Wrap(err, "write cookie jar")
	}

	return nil
}
