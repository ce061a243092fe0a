package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finsheets/internal/core"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite = "sqlite"

	// Fixed width so timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"

	entryFetchConcurrency = 4
)

// Repository persists sheets and entries in a SQLite-compatible database.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository opens (creating if needed) a local SQLite file with
// foreign keys enforced and WAL journaling.
func NewSQLiteRepository(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	return Open(DriverSQLite, dsn)
}

// Open connects through any registered SQLite-compatible driver, then
// brings the schema up to date.
func Open(driverName, dsn string) (*Repository, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(driverName, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListSheets returns the tenant's sheets by creation time, each with its
// entries ordered by date. Entry sets are fetched concurrently.
func (r *Repository) ListSheets(ctx context.Context, tenant core.TenantKey) ([]core.Sheet, error) {
	rows, err := r.db.QueryContext(ctx, listSheetsSQL, string(tenant))
	if err != nil {
		return nil, dbError("list sheets", err)
	}
	sheets, err := scanSheets(rows)
	if err != nil {
		return nil, dbError("list sheets", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(entryFetchConcurrency)
	for i := range sheets {
		g.Go(func() error {
			entries, err := r.listEntries(gctx, sheets[i].ID)
			if err != nil {
				return err
			}
			sheets[i].Entries = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sheets, nil
}

// GetSheet returns one sheet with its entries.
func (r *Repository) GetSheet(ctx context.Context, id string) (core.Sheet, error) {
	s, err := r.getSheetHeader(ctx, id)
	if err != nil {
		return core.Sheet{}, err
	}
	if s.Entries, err = r.listEntries(ctx, id); err != nil {
		return core.Sheet{}, err
	}
	return s, nil
}

// InsertSheet stores the sheet row only; entries are written by InsertEntries.
func (r *Repository) InsertSheet(ctx context.Context, ns core.NewSheet) (core.Sheet, error) {
	s := core.Sheet{
		ID:        uuid.NewString(),
		Tenant:    ns.Tenant,
		Name:      ns.Name,
		Month:     ns.Month,
		Year:      ns.Year,
		CreatedAt: r.now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, insertSheetSQL,
		s.ID, string(s.Tenant), s.Name, s.Month, s.Year, s.CreatedAt.Format(timeLayout))
	if err != nil {
		return core.Sheet{}, dbError("insert sheet", err)
	}

	slog.DebugContext(ctx, "Sheet saved",
		"sheet_id", s.ID,
		"tenant", s.Tenant.Fingerprint(),
		"month", s.Month,
		"year", s.Year)

	return s, nil
}

// InsertEntries writes a batch of entries for sheetID in one transaction.
func (r *Repository) InsertEntries(ctx context.Context, sheetID string, entries []core.NewEntry) ([]core.Entry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, dbError("insert entries", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertEntrySQL)
	if err != nil {
		return nil, dbError("insert entries", err)
	}
	defer stmt.Close()

	created := r.now().UTC().Format(timeLayout)
	out := make([]core.Entry, 0, len(entries))
	for _, ne := range entries {
		e := core.Entry{
			ID:       uuid.NewString(),
			SheetID:  sheetID,
			Date:     ne.Date,
			Overview: ne.Overview,
			Amount:   ne.Amount,
			Work:     ne.Work,
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.SheetID, e.Date, e.Overview, e.Amount, e.Work, created); err != nil {
			return nil, dbError("insert entries", err)
		}
		out = append(out, e)
	}

	if err := tx.Commit(); err != nil {
		return nil, dbError("insert entries", err)
	}
	return out, nil
}

// DeleteSheet removes the sheet and its entries when both id and tenant
// match. It reports whether a sheet was removed.
func (r *Repository) DeleteSheet(ctx context.Context, id string, tenant core.TenantKey) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, dbError("delete sheet", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteSheetEntriesSQL, id, string(tenant)); err != nil {
		return false, dbError("delete sheet", err)
	}
	res, err := tx.ExecContext(ctx, deleteSheetSQL, id, string(tenant))
	if err != nil {
		return false, dbError("delete sheet", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dbError("delete sheet", err)
	}
	if err := tx.Commit(); err != nil {
		return false, dbError("delete sheet", err)
	}
	return n > 0, nil
}

// CreateEntry adds one entry to an existing sheet. The date must fall in
// the sheet's month.
func (r *Repository) CreateEntry(ctx context.Context, ne core.NewEntry) (core.Entry, error) {
	if err := ne.Validate(); err != nil {
		return core.Entry{}, err
	}
	s, err := r.getSheetHeader(ctx, ne.SheetID)
	if err != nil {
		return core.Entry{}, err
	}
	if err := core.CheckDateInMonth(ne.Date, s.Month, s.Year); err != nil {
		return core.Entry{}, err
	}

	created, err := r.InsertEntries(ctx, ne.SheetID, []core.NewEntry{ne})
	if err != nil {
		return core.Entry{}, err
	}
	return created[0], nil
}

func (r *Repository) GetEntry(ctx context.Context, id string) (core.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, getEntrySQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, fmt.Errorf("entry %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Entry{}, dbError("get entry", err)
	}
	return e, nil
}

// UpdateEntry overwrites all editable fields.
func (r *Repository) UpdateEntry(ctx context.Context, id string, f core.EntryFields) (core.Entry, error) {
	return r.modifyEntry(ctx, id, f.Apply)
}

// PatchEntry changes only the fields set in p.
func (r *Repository) PatchEntry(ctx context.Context, id string, p core.EntryPatch) (core.Entry, error) {
	return r.modifyEntry(ctx, id, p.Apply)
}

func (r *Repository) modifyEntry(ctx context.Context, id string, change func(core.Entry) core.Entry) (core.Entry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Entry{}, dbError("update entry", err)
	}
	defer tx.Rollback()

	current, err := scanEntry(tx.QueryRowContext(ctx, getEntrySQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, fmt.Errorf("entry %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Entry{}, dbError("update entry", err)
	}

	next := change(current)
	if _, err := tx.ExecContext(ctx, updateEntrySQL, next.Overview, next.Amount, next.Work, id); err != nil {
		return core.Entry{}, dbError("update entry", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Entry{}, dbError("update entry", err)
	}
	return next, nil
}

// DeleteEntry removes an entry and returns it. Missing entries yield ErrNotFound.
func (r *Repository) DeleteEntry(ctx context.Context, id string) (core.Entry, error) {
	e, err := r.GetEntry(ctx, id)
	if err != nil {
		return core.Entry{}, err
	}
	if _, err := r.db.ExecContext(ctx, deleteEntrySQL, id); err != nil {
		return core.Entry{}, dbError("delete entry", err)
	}
	return e, nil
}

func (r *Repository) getSheetHeader(ctx context.Context, id string) (core.Sheet, error) {
	rows, err := r.db.QueryContext(ctx, getSheetSQL, id)
	if err != nil {
		return core.Sheet{}, dbError("get sheet", err)
	}
	sheets, err := scanSheets(rows)
	if err != nil {
		return core.Sheet{}, dbError("get sheet", err)
	}
	if len(sheets) == 0 {
		return core.Sheet{}, fmt.Errorf("sheet %s: %w", id, core.ErrNotFound)
	}
	return sheets[0], nil
}

func (r *Repository) listEntries(ctx context.Context, sheetID string) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, listEntriesSQL, sheetID)
	if err != nil {
		return nil, dbError("list entries", err)
	}
	defer rows.Close()

	entries := []core.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, dbError("list entries", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list entries", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.Entry, error) {
	var e core.Entry
	err := row.Scan(&e.ID, &e.SheetID, &e.Date, &e.Overview, &e.Amount, &e.Work)
	return e, err
}

func scanSheets(rows *sql.Rows) ([]core.Sheet, error) {
	defer rows.Close()

	var sheets []core.Sheet
	for rows.Next() {
		var (
			s       core.Sheet
			tenant  string
			created string
		)
		if err := rows.Scan(&s.ID, &tenant, &s.Name, &s.Month, &s.Year, &created); err != nil {
			return nil, err
		}
		s.Tenant = core.TenantKey(tenant)
		if t, err := time.Parse(timeLayout, created); err == nil {
			s.CreatedAt = t
		}
		s.Entries = []core.Entry{}
		sheets = append(sheets, s)
	}
	return sheets, rows.Err()
}

func dbError(op string, err error) error {
	return &core.CollaboratorError{Op: op, Err: err}
}
