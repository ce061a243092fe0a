package services

import (
	"context"
	"errors"
	"fmt"

	"finsheets/internal/amqp"
	"finsheets/internal/core"
	"finsheets/internal/log"
	ports "finsheets/internal/sheets"
)

var (
	_ ports.Store  = (*SheetService)(nil)
	_ ports.Pinger = (*SheetService)(nil)
)

// SheetRepository is the storage surface the service drives.
// *storage.Repository implements it.
type SheetRepository interface {
	ListSheets(ctx context.Context, tenant core.TenantKey) ([]core.Sheet, error)
	GetSheet(ctx context.Context, id string) (core.Sheet, error)
	InsertSheet(ctx context.Context, ns core.NewSheet) (core.Sheet, error)
	InsertEntries(ctx context.Context, sheetID string, entries []core.NewEntry) ([]core.Entry, error)
	DeleteSheet(ctx context.Context, id string, tenant core.TenantKey) (bool, error)
	CreateEntry(ctx context.Context, ne core.NewEntry) (core.Entry, error)
	UpdateEntry(ctx context.Context, id string, f core.EntryFields) (core.Entry, error)
	PatchEntry(ctx context.Context, id string, p core.EntryPatch) (core.Entry, error)
	DeleteEntry(ctx context.Context, id string) (core.Entry, error)
	Ping(ctx context.Context) error
	Close() error
}

// ChangePublisher announces sheet writes. *amqp.Client implements it.
type ChangePublisher interface {
	PublishSheetChanged(ctx context.Context, sheetID string, action amqp.Action) error
	Close() error
}

// SheetService orchestrates sheet operations across the database and the
// change event exchange. Publishing is best effort: a write that reached
// the database is reported as successful.
type SheetService struct {
	repo      SheetRepository
	publisher ChangePublisher
	logger    *log.Logger
}

// NewSheetService wires repo and an optional publisher (nil disables events).
func NewSheetService(repo SheetRepository, publisher ChangePublisher, logger *log.Logger) *SheetService {
	if logger == nil {
		logger = log.Default()
	}
	return &SheetService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentService),
	}
}

func (s *SheetService) ListSheets(ctx context.Context, tenant core.TenantKey) ([]core.Sheet, error) {
	return s.repo.ListSheets(ctx, tenant)
}

func (s *SheetService) GetSheet(ctx context.Context, id string) (core.Sheet, error) {
	return s.repo.GetSheet(ctx, id)
}

// CreateSheet stores the sheet, then its entries. When ns carries no
// entries one blank entry per calendar day is generated. A failed entry
// batch leaves the sheet in place with no entries.
func (s *SheetService) CreateSheet(ctx context.Context, ns core.NewSheet) (core.Sheet, error) {
	if err := ns.Validate(); err != nil {
		return core.Sheet{}, err
	}
	if len(ns.Entries) == 0 {
		ns.Entries = core.DayEntries(ns.Month, ns.Year)
	}

	sheet, err := s.repo.InsertSheet(ctx, ns)
	if err != nil {
		return core.Sheet{}, fmt.Errorf("save sheet: %w", err)
	}

	entries, err := s.repo.InsertEntries(ctx, sheet.ID, ns.Entries)
	if err != nil {
		fields := log.NewFields().
			WithOperation(log.OpCreate).
			WithSheet(sheet.ID).
			WithTenant(ns.Tenant).
			WithError(err)
		fields[log.FieldEntryCount] = len(ns.Entries)
		s.logger.ErrorContext(ctx, "Failed to insert sheet entries, sheet kept without entries", fields.ToSlice()...)
		entries = nil
	}
	sheet.Entries = entries
	if sheet.Entries == nil {
		sheet.Entries = []core.Entry{}
	}

	s.publish(ctx, sheet.ID, amqp.ActionUpsert)
	return sheet, nil
}

// DeleteSheet removes the sheet when id and tenant match. No match is not
// an error.
func (s *SheetService) DeleteSheet(ctx context.Context, id string, tenant core.TenantKey) error {
	removed, err := s.repo.DeleteSheet(ctx, id, tenant)
	if err != nil {
		return fmt.Errorf("delete sheet: %w", err)
	}
	if !removed {
		s.logger.DebugContext(ctx, "Sheet delete matched nothing",
			log.NewFields().WithSheet(id).WithTenant(tenant).ToSlice()...)
		return nil
	}
	s.publish(ctx, id, amqp.ActionDelete)
	return nil
}

func (s *SheetService) CreateEntry(ctx context.Context, ne core.NewEntry) (core.Entry, error) {
	e, err := s.repo.CreateEntry(ctx, ne)
	if err != nil {
		return core.Entry{}, err
	}
	s.publish(ctx, e.SheetID, amqp.ActionUpsert)
	return e, nil
}

func (s *SheetService) UpdateEntry(ctx context.Context, id string, f core.EntryFields) (core.Entry, error) {
	e, err := s.repo.UpdateEntry(ctx, id, f)
	if err != nil {
		return core.Entry{}, err
	}
	s.publish(ctx, e.SheetID, amqp.ActionUpsert)
	return e, nil
}

func (s *SheetService) PatchEntry(ctx context.Context, id string, p core.EntryPatch) (core.Entry, error) {
	if p.IsEmpty() {
		return core.Entry{}, core.NewValidationError("fields", "at least one of overview, amount, work is required")
	}
	e, err := s.repo.PatchEntry(ctx, id, p)
	if err != nil {
		return core.Entry{}, err
	}
	s.publish(ctx, e.SheetID, amqp.ActionUpsert)
	return e, nil
}

// DeleteEntry succeeds for unknown ids.
func (s *SheetService) DeleteEntry(ctx context.Context, id string) error {
	e, err := s.repo.DeleteEntry(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.publish(ctx, e.SheetID, amqp.ActionUpsert)
	return nil
}

func (s *SheetService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *SheetService) publish(ctx context.Context, sheetID string, action amqp.Action) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping change event", log.FieldSheetID, sheetID)
		return
	}
	if err := s.publisher.PublishSheetChanged(ctx, sheetID, action); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change event",
			log.FieldSheetID, sheetID,
			log.FieldAction, string(action),
			log.FieldError, err)
	}
}

// Close closes both storage and AMQP connections.
func (s *SheetService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close sheet service: %w", err)
	}
	return nil
}
