package token

import (
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/carsongrett/nocharts/internal/provider"
)

func TestToken_MissingFile(t *testing.T) {
	s := NewStore(afero.NewMemMapFs(), "/tokens/reddit.json")

	_, err := s.Token()
	if err == nil {
		t.Fatal("Token() expected error for missing file, got nil")
	}
	if provider.KindOf(err) != provider.KindAuthRequired {
		t.Errorf("error kind = %q, want %q", provider.KindOf(err), provider.KindAuthRequired)
	}
}

func TestSaveAndToken(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewStore(fs, "/tokens/reddit.json")

	if err := s.Save("bearer-abc123", time.Hour); err != nil {
		t.Fatalf("Save() returned unexpected error: %v", err)
	}

	got, err := s.Token()
	if err != nil {
		t.Fatalf("Token() returned unexpected error: %v", err)
	}
	if got != "bearer-abc123" {
		t.Errorf("Token() = %q, want %q", got, "bearer-abc123")
	}
}

func TestToken_Expired(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(fs, "/tokens/reddit.json", WithClock(func() time.Time { return now }))

	if err := s.Save("bearer-abc123", time.Hour); err != nil {
		t.Fatalf("Save() returned unexpected error: %v", err)
	}

	now = now.Add(2 * time.Hour)

	_, err := s.Token()
	if err == nil {
		t.Fatal("Token() expected error for expired token, got nil")
	}
	if provider.KindOf(err) != provider.KindAuthRequired {
		t.Errorf("error kind = %q, want %q", provider.KindOf(err), provider.KindAuthRequired)
	}
}

func TestToken_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/tokens/reddit.json", []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewStore(fs, "/tokens/reddit.json")

	_, err := s.Token()
	if provider.KindOf(err) != provider.KindAuthRequired {
		t.Errorf("error kind = %q, want %q", provider.KindOf(err), provider.KindAuthRequired)
	}
}

func TestSave_RejectsEmpty(t *testing.T) {
	s := NewStore(afero.NewMemMapFs(), "/tokens/reddit.json")

	if err := s.Save("", time.Hour); err == nil {
		t.Error("Save(\"\") expected error, got nil")
	}
}

func TestClear(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewStore(fs, "/tokens/reddit.json")

	if err := s.Save("bearer-abc123", time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() returned unexpected error: %v", err)
	}
	if _, err := s.Token(); provider.KindOf(err) != provider.KindAuthRequired {
		t.Error("Token() after Clear() should report auth required")
	}

	// Clearing again is not an error.
	if err := s.Clear(); err != nil {
		t.Errorf("Clear() on missing file returned error: %v", err)
	}
}
