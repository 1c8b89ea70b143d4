package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/voicepool/internal/adapters/repo/sqlite/migrations"
	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

const (
	driverName           = "sqlite3"
	defaultBusyTimeoutMS = 5000
)

type Options struct {
	Path          string
	BusyTimeoutMS int
}

// ConfigStore keeps tenant configuration documents in SQLite, one row per
// (collection, kind, tenant). Payloads are stored as JSON text.
type ConfigStore struct {
	db    *sql.DB
	clock ports.Clock
}

var (
	_ ports.ConfigStore = (*ConfigStore)(nil)
	_ ports.Cacheable   = (*ConfigStore)(nil)
)

var gooseSetupOnce sync.Once

func Open(ctx context.Context, opts Options, clock ports.Clock) (*ConfigStore, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, errors.New("sqlite store path is empty")
	}
	busyTimeout := opts.BusyTimeoutMS
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeoutMS
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	cleanupOnErr := true
	defer func() {
		if cleanupOnErr {
			_ = db.Close()
		}
	}()

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db, busyTimeout); err != nil {
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		return nil, err
	}

	cleanupOnErr = false
	return &ConfigStore{db: db, clock: clock}, nil
}

func (s *ConfigStore) SupportsCache() bool {
	return true
}

func (s *ConfigStore) Get(ctx context.Context, scope domain.ConfigScope, tenant domain.TenantID) (domain.ConfigDocument, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM config_documents WHERE collection = ? AND kind = ? AND tenant_id = ?`,
		scope.Collection, string(scope.Kind), tenant.String(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultDocument(scope.Kind), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query config document: %w", err)
	}

	doc := domain.ConfigDocument{}
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("decode config document %s/%s: %w", scope, tenant, err)
	}
	return doc, nil
}

func (s *ConfigStore) Put(ctx context.Context, scope domain.ConfigScope, tenant domain.TenantID, doc domain.ConfigDocument) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if doc == nil {
		doc = domain.ConfigDocument{}
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO config_documents (collection, kind, tenant_id, payload, updated_at_unix_ms)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (collection, kind, tenant_id) DO UPDATE SET
    payload = excluded.payload,
    updated_at_unix_ms = excluded.updated_at_unix_ms`,
		scope.Collection, string(scope.Kind), tenant.String(), string(payload), s.clock.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert config document: %w", err)
	}
	return nil
}

func (s *ConfigStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(ctx context.Context, db *sql.DB, busyTimeoutMS int) error {
	statements := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMS),
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply %q: %w", stmt, err)
		}
	}
	return nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	gooseSetupOnce.Do(func() {
		goose.SetBaseFS(migrations.Files)
		goose.SetVerbose(false)
	})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func ensureParentDir(path string) error {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	parentDir := filepath.Dir(path)
	if parentDir == "." || parentDir == "" {
		return nil
	}
	if err := os.MkdirAll(parentDir, 0o700); err != nil {
		return fmt.Errorf("create sqlite parent directory %q: %w", parentDir, err)
	}
	return nil
}
