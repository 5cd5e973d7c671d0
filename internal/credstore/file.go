package credstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/hygienequest/dashboard/internal/errs"
	"github.com/hygienequest/dashboard/internal/model"
)

const (
	sessionFile = "session.json"
	tokenFile   = "export_token.json"
)

// File is a Store backed by JSON files under a config directory.
type File struct {
	dir string
}

var _ Store = (*File)(nil)

// NewFile constructs a file-backed store rooted at dir.
func NewFile(dir string) *File { return &File{dir: dir} }

func (f *File) sessionPath() string { return filepath.Join(f.dir, sessionFile) }
func (f *File) tokenPath() string   { return filepath.Join(f.dir, tokenFile) }

func (f *File) write(path string, v any) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func (f *File) SaveSession(s model.Session) error {
	return f.write(f.sessionPath(), s)
}

func (f *File) LoadSession() (*model.Session, error) {
	b, err := os.ReadFile(f.sessionPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.ErrNoSession
		}
		return nil, err
	}
	var s model.Session
	if err := json.Unmarshal(b, &s); err != nil || s.ExpiresAt.IsZero() {
		// A corrupt session blob is treated as absent and purged.
		_ = os.Remove(f.sessionPath())
		return nil, errs.ErrNoSession
	}
	return &s, nil
}

func (f *File) ClearSession() error {
	err := os.Remove(f.sessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (f *File) SaveExportToken(t model.ExportToken) error {
	return f.write(f.tokenPath(), t)
}

func (f *File) LoadExportToken() (*model.ExportToken, error) {
	b, err := os.ReadFile(f.tokenPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var t model.ExportToken
	if err := json.Unmarshal(b, &t); err != nil || t.Value == "" {
		_ = os.Remove(f.tokenPath())
		return nil, nil
	}
	return &t, nil
}

func (f *File) ClearExportToken() error {
	err := os.Remove(f.tokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
