package db

import (
	"testing"

	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	gdb, err := Open(Config{Driver: DriverSQLite}, logger.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := AutoMigrateAll(gdb); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	for _, table := range []string{"progress_record", "narration_session"} {
		if !gdb.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}, logger.Nop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{PostgresUser: "u", PostgresPassword: "p", PostgresHost: "h", PostgresPort: "5432", PostgresName: "n"}
	if got, want := cfg.postgresDSN(), "postgres://u:p@h:5432/n?sslmode=disable"; got != want {
		t.Fatalf("dsn: got=%q want=%q", got, want)
	}
}
