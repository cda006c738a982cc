// Package pgtestutil provisions a throwaway, fully migrated Postgres
// database per test. Tests are skipped when BANK_TEST_PG_DSN is unset.
package pgtestutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"

	"github.com/fastprodman/currencybank/internal/infra/pgutils"
)

const (
	DSNEnv        = "BANK_TEST_PG_DSN"
	migrationsDir = "cmd/migrator/migrations"
)

// BaseDSN returns the admin DSN tests connect with, skipping t when unset.
func BaseDSN(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skipf("%s not set; skipping Postgres integration test", DSNEnv)
	}

	return dsn
}

func NewTestDB(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()

	base := BaseDSN(t)

	adminDSN, err := ReplaceDBInDSN(base, "postgres")
	if err != nil {
		t.Fatalf("admin dsn: %v", err)
	}

	admin, err := sqlx.Open(pgutils.DriverName, adminDSN)
	if err != nil {
		t.Fatalf("open admin: %v", err)
	}

	dbName := sanitizeForPgIdent(uniqueDBName("bankdb", t.Name()))

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	const maxAttempts = 5
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		_, err = admin.ExecContext(ctx,
			fmt.Sprintf(`CREATE DATABASE "%s" WITH TEMPLATE template0 ENCODING 'UTF8'`, dbName))
		if err == nil {
			break
		}

		if !pgutils.HasCode(err, pgutils.CodeUniqueViolation) || attempt == maxAttempts {
			_ = admin.Close()
			t.Fatalf("create database: %v", err)
		}

		dbName = sanitizeForPgIdent(uniqueDBName("bankdb", t.Name()))
	}

	testDSN, err := ReplaceDBInDSN(base, dbName)
	if err != nil {
		_ = admin.Close()
		t.Fatalf("test dsn: %v", err)
	}

	db, err := sqlx.Open(pgutils.DriverName, testDSN)
	if err != nil {
		_ = admin.Close()
		t.Fatalf("open test db: %v", err)
	}

	db.SetConnMaxIdleTime(100 * time.Millisecond)
	db.SetConnMaxLifetime(30 * time.Second)

	err = migrateUp(db)
	if err != nil {
		_ = db.Close()
		_ = admin.Close()
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
		time.Sleep(50 * time.Millisecond)

		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()

		_, derr := admin.ExecContext(dctx,
			fmt.Sprintf(`DROP DATABASE IF EXISTS "%s" WITH (FORCE)`, dbName))
		if derr == nil {
			_ = admin.Close()
			return
		}

		_, _ = admin.ExecContext(dctx, `
			SELECT pg_terminate_backend(pid)
			FROM pg_stat_activity
			WHERE datname = $1 AND pid <> pg_backend_pid()
		`, dbName)
		_, _ = admin.ExecContext(dctx,
			fmt.Sprintf(`DROP DATABASE IF EXISTS "%s"`, dbName))
		_ = admin.Close()
	}

	return db, cleanup
}

func migrateUp(db *sqlx.DB) error {
	absPath, err := migrationsAbsPath()
	if err != nil {
		return fmt.Errorf("resolve migrations path: %w", err)
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("postgres driver: %w", err)
	}

	src, err := (&file.File{}).Open(absPath)
	if err != nil {
		return fmt.Errorf("open migrations dir: %w", err)
	}

	m, err := migrate.NewWithInstance("file", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}

// ReplaceDBInDSN swaps the database name in a URL-form Postgres DSN.
func ReplaceDBInDSN(dsn, newDB string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}

	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported dsn scheme %q", u.Scheme)
	}

	u.Path = "/" + newDB

	return u.String(), nil
}

func migrationsAbsPath() (string, error) {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("runtime.Caller failed")
	}

	// internal/infra/pgtestutil -> repo root
	repoRoot := filepath.Join(filepath.Dir(thisFile), "..", "..", "..")

	abs, err := filepath.Abs(filepath.Join(repoRoot, migrationsDir))
	if err != nil {
		return "", fmt.Errorf("abs migrations path: %w", err)
	}

	return abs, nil
}

func uniqueDBName(prefix, testName string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(testName))

	var rnd [6]byte
	_, _ = rand.Read(rnd[:])

	return fmt.Sprintf("%s_%08x_%s", prefix, h.Sum32(), hex.EncodeToString(rnd[:]))
}

func sanitizeForPgIdent(s string) string {
	s = strings.ToLower(s)
	repl := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")
	s = repl.Replace(s)

	if len(s) <= 63 {
		return s
	}

	return s[:31] + "_" + s[len(s)-31:]
}
