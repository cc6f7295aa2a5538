package storage

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/internal/storage/migrations"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite"
)

// mallColumns are the malls columns written and read by the sink, in table order.
var mallColumns = []string{
	"url", "name", "property_type", "status", "latitude", "longitude",
	"country", "city", "address", "phone", "email", "website",
	"gla_sqft", "gla_sqm", "mall_size_sqm", "stores_count", "parking_spaces",
	"levels", "annual_footfall", "opening_year",
	"owner_company", "managing_agent", "leasing_agent",
	"image_url", "image_count", "description",
	"post_id", "user_id", "data_id", "data_type",
	"last_updated", "data_quality_score",
}

var upsertMall = buildUpsert()

func buildUpsert() string {
	named := make([]string, len(mallColumns))
	updates := make([]string, 0, len(mallColumns)-1)
	for i, c := range mallColumns {
		named[i] = ":" + c
		if c != "url" {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	return fmt.Sprintf(
		"INSERT INTO malls (%s) VALUES (%s) ON CONFLICT(url) DO UPDATE SET %s",
		strings.Join(mallColumns, ", "),
		strings.Join(named, ", "),
		strings.Join(updates, ", "),
	)
}

// DatabasePath returns the SQLite file used by the sink.
func (s *Store) DatabasePath() string {
	return filepath.Join(s.dir, databaseName)
}

// database opens and migrates the SQLite file on first use.
func (s *Store) database() (*sqlx.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}

	db, err := sqlx.Open("sqlite", s.DatabasePath()+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, engine.PersistenceError("open database", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, engine.PersistenceError("enable foreign keys", err)
	}
	if err := migrate(db, migrations.FS); err != nil {
		db.Close()
		return nil, engine.PersistenceError("run migrations", err)
	}
	s.db = db
	return db, nil
}

// migrate applies every numbered *.up.sql newer than the recorded version.
func migrate(db *sqlx.DB, fsys fs.FS) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := db.Get(&current, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		log.Debug().Str("migration", name).Msg("Applied migration")
	}
	return nil
}

// StoreSQLite upserts records keyed by URL and replaces their tenants.
func (s *Store) StoreSQLite(ctx context.Context, records []models.ValidatedRecord) (*models.StoreResult, error) {
	db, err := s.database()
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, engine.PersistenceError("begin transaction", err)
	}
	defer tx.Rollback()

	for i := range records {
		r := &records[i]
		if _, err := tx.NamedExecContext(ctx, upsertMall, r); err != nil {
			return nil, engine.PersistenceError(fmt.Sprintf("upsert %s", r.URL), err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM tenants WHERE mall_url = ?", r.URL); err != nil {
			return nil, engine.PersistenceError("clear tenants", err)
		}
		for _, t := range r.Tenants {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO tenants (mall_url, name, category) VALUES (?, ?, ?)",
				r.URL, t.Name, string(t.Category)); err != nil {
				return nil, engine.PersistenceError("insert tenant", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, engine.PersistenceError("commit", err)
	}
	return &models.StoreResult{
		Success:       true,
		Format:        models.FormatSQLite,
		RecordsStored: len(records),
		StoragePath:   s.DatabasePath(),
	}, nil
}

// Filter narrows QueryMalls. Zero fields match everything.
type Filter struct {
	Country      string
	PropertyType models.PropertyType
	MinQuality   float64
	Limit        int
}

func (f Filter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Country != "" {
		clauses = append(clauses, "country = ?")
		args = append(args, f.Country)
	}
	if f.PropertyType != "" {
		clauses = append(clauses, "property_type = ?")
		args = append(args, string(f.PropertyType))
	}
	if f.MinQuality > 0 {
		clauses = append(clauses, "data_quality_score >= ?")
		args = append(args, f.MinQuality)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// QueryMalls reads stored malls with their tenants, best quality first.
func (s *Store) QueryMalls(ctx context.Context, f Filter) ([]models.ValidatedRecord, error) {
	db, err := s.database()
	if err != nil {
		return nil, err
	}

	where, args := f.where()
	query := "SELECT " + strings.Join(mallColumns, ", ") + " FROM malls" + where +
		" ORDER BY data_quality_score DESC, url"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	var records []models.ValidatedRecord
	if err := db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, engine.PersistenceError("query malls", err)
	}

	for i := range records {
		var tenants []models.Tenant
		if err := db.SelectContext(ctx, &tenants,
			"SELECT name, category FROM tenants WHERE mall_url = ? ORDER BY name", records[i].URL); err != nil {
			return nil, engine.PersistenceError("query tenants", err)
		}
		records[i].Tenants = tenants
	}
	return records, nil
}

// Count returns how many malls match f.
func (s *Store) Count(ctx context.Context, f Filter) (int, error) {
	db, err := s.database()
	if err != nil {
		return 0, err
	}
	where, args := f.where()
	var n int
	if err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM malls"+where, args...); err != nil {
		return 0, engine.PersistenceError("count malls", err)
	}
	return n, nil
}
