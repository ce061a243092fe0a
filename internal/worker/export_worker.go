package worker

import (
	"context"
	"errors"
	"fmt"

	"finsheets/internal/amqp"
	"finsheets/internal/core"
	"finsheets/internal/log"
	"finsheets/internal/sheets"
)

// ExportWorker mirrors sheet change events into an external spreadsheet.
type ExportWorker struct {
	reader   sheets.SheetReader
	exporter sheets.SheetExporter
	logger   *log.Logger
}

func NewExportWorker(reader sheets.SheetReader, exporter sheets.SheetExporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Default()
	}
	return &ExportWorker{
		reader:   reader,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleMessage re-exports the current state of the sheet named in msg.
// Events carry no sheet data, so an upsert for a sheet that has since been
// deleted removes its tab instead.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.SheetChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing sheet change",
		log.FieldSheetID, msg.SheetID,
		log.FieldAction, string(msg.Action),
		"timestamp", msg.Timestamp)

	switch msg.Action {
	case amqp.ActionDelete:
		return w.remove(ctx, msg.SheetID)
	case amqp.ActionUpsert:
		sheet, err := w.reader.GetSheet(ctx, msg.SheetID)
		if errors.Is(err, core.ErrNotFound) {
			w.logger.InfoContext(ctx, "Sheet no longer exists, removing export", log.FieldSheetID, msg.SheetID)
			return w.remove(ctx, msg.SheetID)
		}
		if err != nil {
			return fmt.Errorf("load sheet %s: %w", msg.SheetID, err)
		}
		ref, err := w.exporter.ExportSheet(ctx, sheet)
		if err != nil {
			return fmt.Errorf("export sheet %s: %w", msg.SheetID, err)
		}
		w.logger.InfoContext(ctx, "Sheet export complete",
			log.FieldSheetID, msg.SheetID,
			log.FieldEntryCount, len(sheet.Entries),
			"ref", ref)
		return nil
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown action", log.FieldAction, string(msg.Action))
		return nil
	}
}

func (w *ExportWorker) remove(ctx context.Context, sheetID string) error {
	if err := w.exporter.RemoveSheet(ctx, sheetID); err != nil {
		return fmt.Errorf("remove export of %s: %w", sheetID, err)
	}
	return nil
}

// ExportTenant re-exports every sheet of tenant. Failures are logged and
// counted; the first one is returned after all sheets were tried.
func (w *ExportWorker) ExportTenant(ctx context.Context, tenant core.TenantKey) (int, error) {
	list, err := w.reader.ListSheets(ctx, tenant)
	if err != nil {
		return 0, fmt.Errorf("list sheets: %w", err)
	}

	var firstErr error
	exported := 0
	for _, s := range list {
		if _, err := w.exporter.ExportSheet(ctx, s); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export sheet",
				log.NewFields().WithSheet(s.ID).WithTenant(tenant).WithError(err).ToSlice()...)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		exported++
	}

	w.logger.InfoContext(ctx, "Tenant export finished",
		log.FieldTenant, tenant.Fingerprint(),
		"exported", exported,
		"total", len(list))
	return exported, firstErr
}
