package importer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadUsers(t *testing.T) {
	in := "username,email,role\n" +
		"alice,alice@example.com,SESSION_INITIATOR\n" +
		"bob, bob@example.com ,guest\n" +
		"\n" +
		"carol,carol@example.com\n" +
		"\"dave, jr\",dave@example.com,\n"

	recs, err := ReadUsers(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("expected 4 records, got %d: %+v", len(recs), recs)
	}

	want := []struct {
		line                  int
		username, email, role string
	}{
		{2, "alice", "alice@example.com", "SESSION_INITIATOR"},
		{3, "bob", "bob@example.com", "guest"},
		{5, "carol", "carol@example.com", ""},
		{6, "dave, jr", "dave@example.com", ""},
	}
	for i, w := range want {
		got := recs[i]
		if got.Line != w.line || got.Username != w.username || got.Email != w.email || got.Role != w.role {
			t.Errorf("record %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestReadUsers_HeaderOnly(t *testing.T) {
	recs, err := ReadUsers(strings.NewReader("username,email,role\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
}

func TestReadUsers_Empty(t *testing.T) {
	if _, err := ReadUsers(strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestReadUsers_Malformed(t *testing.T) {
	in := "username,email,role\n\"alice,alice@example.com,GUEST\n"
	if _, err := ReadUsers(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for unterminated quote")
	}
}

func TestReadUsersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	if err := os.WriteFile(path, []byte("username,email,role\nalice,a@example.com,GUEST\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	recs, err := ReadUsersFile(path)
	if err != nil || len(recs) != 1 || recs[0].Username != "alice" {
		t.Fatalf("unexpected result: %+v %v", recs, err)
	}

	if _, err := ReadUsersFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
