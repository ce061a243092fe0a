package sheets

import (
	"context"

	"finsheets/internal/core"
)

// Ports implemented by persistence collaborators.
type (
	SheetReader interface {
		// ListSheets returns a tenant's sheets by creation time, entries by date.
		ListSheets(ctx context.Context, tenant core.TenantKey) ([]core.Sheet, error)
		GetSheet(ctx context.Context, id string) (core.Sheet, error)
	}

	SheetWriter interface {
		// CreateSheet stores the sheet and, best effort, its entries.
		CreateSheet(ctx context.Context, s core.NewSheet) (core.Sheet, error)
		// DeleteSheet removes the sheet only when id and tenant both match.
		DeleteSheet(ctx context.Context, id string, tenant core.TenantKey) error
	}

	EntryWriter interface {
		CreateEntry(ctx context.Context, e core.NewEntry) (core.Entry, error)
		UpdateEntry(ctx context.Context, id string, f core.EntryFields) (core.Entry, error)
		PatchEntry(ctx context.Context, id string, p core.EntryPatch) (core.Entry, error)
		// DeleteEntry is idempotent: deleting a missing entry succeeds.
		DeleteEntry(ctx context.Context, id string) error
	}

	// Store is everything the REST surface needs.
	Store interface {
		SheetReader
		SheetWriter
		EntryWriter
	}

	// Pinger is implemented by stores that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// SheetExporter mirrors sheets into an external spreadsheet.
	SheetExporter interface {
		ExportSheet(ctx context.Context, s core.Sheet) (ref string, err error)
		RemoveSheet(ctx context.Context, sheetID string) error
	}
)
