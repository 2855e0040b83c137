package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSession_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	s := New(path)
	s.SetCredentials("user@example.com", "hunter2")
	s.SetCwd("/Movies")
	s.SetToken(json.RawMessage(`{"access_token":"abc"}`))

	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Account != "user@example.com" {
		t.Errorf("Account = %q", loaded.Account)
	}
	if loaded.Cwd != "/Movies" {
		t.Errorf("Cwd = %q", loaded.Cwd)
	}

	pw, err := loaded.PlainPassword()
	if err != nil {
		t.Fatalf("PlainPassword() error = %v", err)
	}
	if pw != "hunter2" {
		t.Errorf("PlainPassword() = %q", pw)
	}
	if string(loaded.Token) != `{"access_token":"abc"}` {
		t.Errorf("Token = %s", loaded.Token)
	}
}

func TestSession_PasswordIsNotStoredPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	s := New(path)
	s.SetCredentials("user", "topsecret")
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "topsecret") {
		t.Error("session file contains the plaintext password")
	}
}

func TestLoad_MissingFileYieldsFreshSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.session")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Cwd != "/" {
		t.Errorf("fresh Cwd = %q, want /", s.Cwd)
	}
	if s.DownloadDir == "" {
		t.Error("fresh session should have a download dir default")
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.session")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should reject a corrupt session file")
	}
}

func TestSession_SetDownloadDir(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "downloads", "nested")

	s := New(filepath.Join(base, DefaultFileName))
	if err := s.SetDownloadDir(target); err != nil {
		t.Fatalf("SetDownloadDir() error = %v", err)
	}

	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		t.Errorf("download dir was not created: %v", err)
	}
	if !filepath.IsAbs(s.DownloadDir) {
		t.Errorf("DownloadDir = %q, want absolute", s.DownloadDir)
	}
}

func TestSession_SaveIsAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	s := New(path)
	s.SetCredentials("user", "pw")
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after Save()")
	}
}
