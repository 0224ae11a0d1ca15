package migrate

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewRejectsEmptyDSN(t *testing.T) {
	if _, err := New("", zap.NewNop()); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestVersionsListsEmbeddedMigrationsInOrder(t *testing.T) {
	runner, err := New("postgres://unused", nil)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	versions, err := runner.Versions()
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("unexpected migration count: got %d want 2", len(versions))
	}
	if versions[0] != 1 || versions[1] != 2 {
		t.Fatalf("unexpected migration versions: %v", versions)
	}
}
