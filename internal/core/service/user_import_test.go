package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

func TestUserImportService_SkipsExistingAndDefaultsRole(t *testing.T) {
	repo := seededUsers()
	svc := NewUserImportService(repo, zerolog.Nop())

	res, err := svc.Import(context.Background(), []ports.UserRecord{
		{Line: 2, Username: "alice", Email: "alice2@example.com", Role: "GUEST"},
		{Line: 3, Username: "carol", Email: "carol@example.com", Role: "session_initiator"},
		{Line: 4, Username: "dave", Email: "dave@example.com", Role: "superuser"},
		{Line: 5, Username: "carol", Email: "carol-again@example.com", Role: "GUEST"},
		{Line: 6, Username: "erin", Email: "bob@example.com", Role: "GUEST"},
		{Line: 7, Username: "", Email: "nobody@example.com", Role: "GUEST"},
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Read != 6 || res.Imported != 2 || res.Skipped != 4 {
		t.Fatalf("unexpected result: %+v", res)
	}

	carol, err := repo.FindByUsername(context.Background(), "carol")
	if err != nil {
		t.Fatalf("carol not imported: %v", err)
	}
	if carol.Role != domain.RoleSessionInitiator {
		t.Errorf("carol role: expected SESSION_INITIATOR, got %s", carol.Role)
	}
	dave, err := repo.FindByUsername(context.Background(), "dave")
	if err != nil {
		t.Fatalf("dave not imported: %v", err)
	}
	if dave.Role != domain.RoleGuest {
		t.Errorf("dave role: expected GUEST fallback, got %s", dave.Role)
	}
	alice, _ := repo.FindByUsername(context.Background(), "alice")
	if alice.Email != "alice@example.com" {
		t.Errorf("existing user must not be overwritten: %+v", alice)
	}
}

func TestUserImportService_WritesInChunks(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserImportService(repo, zerolog.Nop())

	records := make([]ports.UserRecord, 0, 23)
	for i := 0; i < 23; i++ {
		records = append(records, ports.UserRecord{
			Line:     i + 2,
			Username: fmt.Sprintf("user%02d", i),
			Email:    fmt.Sprintf("user%02d@example.com", i),
			Role:     "GUEST",
		})
	}

	res, err := svc.Import(context.Background(), records)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Imported != 23 {
		t.Fatalf("expected 23 imported, got %d", res.Imported)
	}
	if len(repo.batches) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(repo.batches))
	}
	if len(repo.batches[0]) != ImportChunkSize || len(repo.batches[2]) != 3 {
		t.Fatalf("unexpected chunk sizes: %d, %d, %d", len(repo.batches[0]), len(repo.batches[1]), len(repo.batches[2]))
	}
}

func TestUserImportService_WriteFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.createErr = errors.New("disk full")
	svc := NewUserImportService(repo, zerolog.Nop())

	res, err := svc.Import(context.Background(), []ports.UserRecord{
		{Line: 2, Username: "x", Email: "x@example.com"},
	})
	if err == nil {
		t.Fatalf("expected write failure to propagate")
	}
	if res.Imported != 0 {
		t.Fatalf("nothing should be reported as imported, got %d", res.Imported)
	}
}
