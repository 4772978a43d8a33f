package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestNewBaseStoresConnection(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if base.conn != db {
		t.Fatalf("expected base connection to match provided one")
	}
}

func TestSessionBindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	session := base.Session(ctx)

	if session == nil {
		t.Fatalf("expected non-nil session when context provided")
	}
	if session.Statement == nil {
		t.Fatalf("expected statement created after WithContext")
	}
	if session.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", session.Statement.Context)
	}

	if base.Session(nil) != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}
