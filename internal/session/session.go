// Package session persists login state between CLI invocations:
// account credentials, the auth token, the default download directory
// and the current working directory of the interactive shell.
package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultFileName is the session file created in the working directory
const DefaultFileName = ".pikpak.session"

// Session is the on-disk session state. The password is stored
// base64-obfuscated, matching what the CLI has always written; it is
// kept only so the token can be re-obtained when a refresh fails.
type Session struct {
	mu   sync.Mutex
	path string

	Account     string          `json:"account"`
	Password    string          `json:"password"`
	Token       json.RawMessage `json:"token,omitempty"`
	DownloadDir string          `json:"download_dir"`
	Cwd         string          `json:"cwd"`
}

// New creates an empty session bound to a file path
func New(path string) *Session {
	if path == "" {
		path = DefaultFileName
	}
	return &Session{
		path:        path,
		DownloadDir: "./",
		Cwd:         "/",
	}
}

// Load reads a session from disk. A missing file yields a fresh
// session without error; a corrupt file is an error.
func Load(path string) (*Session, error) {
	s := New(path)

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("invalid session file %s: %w", s.path, err)
	}

	if s.DownloadDir == "" {
		s.DownloadDir = "./"
	}
	if s.Cwd == "" {
		s.Cwd = "/"
	}

	return s, nil
}

// Save writes the session atomically via temp file + rename
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename session file: %w", err)
	}

	return nil
}

// SetCredentials stores account and obfuscated password
func (s *Session) SetCredentials(account, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Account = account
	s.Password = base64.StdEncoding.EncodeToString([]byte(password))
}

// PlainPassword returns the de-obfuscated password
func (s *Session) PlainPassword() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Password == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(s.Password)
	if err != nil {
		return "", fmt.Errorf("invalid stored password: %w", err)
	}
	return string(raw), nil
}

// SetToken stores the serialized auth token
func (s *Session) SetToken(token json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Token = token
}

// SetDownloadDir sets the default download directory, creating it
func (s *Session) SetDownloadDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create download dir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.DownloadDir = abs
	return nil
}

// SetCwd updates the remote working directory path
func (s *Session) SetCwd(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cwd = path
}

// Path returns the session file path
func (s *Session) Path() string {
	return s.path
}
