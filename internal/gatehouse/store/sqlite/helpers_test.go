package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	dbpkg "github.com/clearpath-sec/gatehouse/internal/db"
)

func openTestDB(t *testing.T) (*sql.DB, *dbpkg.Worker) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gatehouse-test.db")
	conn, err := dbpkg.Open(context.Background(), dbpkg.Config{Path: path, Env: "dev"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	writer := dbpkg.NewWorker(conn)
	t.Cleanup(func() {
		writer.Close()
		_ = conn.Close()
	})
	return conn, writer
}
