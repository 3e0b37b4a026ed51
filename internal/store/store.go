// Package store persists session cookies, credentials, the puzzle catalog
// and the default-language preference as one JSON value per file.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/liamcryan/ieuler/internal/models"
)

// Default file names, matching the dot-files of the original catalog layout.
const (
	CookiesFile  = ".cookies"
	CredsFile    = ".credentials"
	ProblemsFile = ".problems"
	LanguageFile = ".default-language"
)

// Store reads and writes the persisted state files in a single directory.
// A missing or unparsable file is treated as "not yet initialized", never
// as a fatal error. Writes are atomic: the value is serialized to a temp
// file and renamed over the target, so a failed write leaves the previous
// file authoritative.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. An empty dir means the current
// working directory.
func New(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readJSON decodes the named file into v. Missing or corrupt files
// report ok=false with a nil error.
func (s *Store) readJSON(name string, v any) (ok bool, err error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

// writeJSON atomically serializes v into the named file.
func (s *Store) writeJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Cookies returns the persisted session cookie map, empty when absent.
func (s *Store) Cookies() (map[string]string, error) {
	cookies := map[string]string{}
	if _, err := s.readJSON(CookiesFile, &cookies); err != nil {
		return nil, err
	}
	return cookies, nil
}

// SaveCookies persists the session cookie map.
func (s *Store) SaveCookies(cookies map[string]string) error {
	return s.writeJSON(CookiesFile, cookies)
}

// Credentials returns the stored credentials, or nil when none exist.
func (s *Store) Credentials() (*models.Credentials, error) {
	var creds models.Credentials
	ok, err := s.readJSON(CredsFile, &creds)
	if err != nil {
		return nil, err
	}
	if !ok || creds.Username == "" {
		return nil, nil
	}
	return &creds, nil
}

// SaveCredentials persists the credentials.
func (s *Store) SaveCredentials(creds models.Credentials) error {
	return s.writeJSON(CredsFile, creds)
}

// Problems returns the persisted catalog sequence, empty when absent
// or corrupt.
func (s *Store) Problems() ([]models.PuzzleRecord, error) {
	var records []models.PuzzleRecord
	if _, err := s.readJSON(ProblemsFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SaveProblems persists the whole catalog sequence atomically.
func (s *Store) SaveProblems(records []models.PuzzleRecord) error {
	return s.writeJSON(ProblemsFile, records)
}

// Language returns the default-language preference, empty when unset.
func (s *Store) Language() (string, error) {
	var pref struct {
		Language string `json:"language"`
	}
	if _, err := s.readJSON(LanguageFile, &pref); err != nil {
		return "", err
	}
	return pref.Language, nil
}

// SaveLanguage persists the default-language preference.
func (s *Store) SaveLanguage(language string) error {
	return s.writeJSON(LanguageFile, struct {
		Language string `json:"language"`
	}{Language: language})
}
