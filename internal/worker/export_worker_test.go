package worker

import (
	"context"
	"errors"
	"testing"

	"finsheets/internal/amqp"
	"finsheets/internal/core"
	"finsheets/internal/sheets/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	exported []core.Sheet
	removed  []string
	err      error
}

func (f *fakeExporter) ExportSheet(_ context.Context, s core.Sheet) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.exported = append(f.exported, s)
	return "'" + s.Name + "'!A1", nil
}

func (f *fakeExporter) RemoveSheet(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, id)
	return nil
}

func seed(t *testing.T, store *memory.Store, tenant core.TenantKey, month int) core.Sheet {
	t.Helper()
	s, err := store.CreateSheet(context.Background(), core.NewSheet{
		Tenant:  tenant,
		Name:    core.MonthLabel(month),
		Month:   month,
		Year:    2025,
		Entries: core.DayEntries(month, 2025),
	})
	require.NoError(t, err)
	return s
}

func TestExportWorker_Upsert(t *testing.T) {
	store := memory.New()
	sheet := seed(t, store, "k", 2)
	exp := &fakeExporter{}
	w := NewExportWorker(store, exp, nil)

	err := w.HandleMessage(context.Background(), amqp.NewSheetChangedMessage(sheet.ID, amqp.ActionUpsert))
	require.NoError(t, err)
	require.Len(t, exp.exported, 1)
	assert.Equal(t, sheet.ID, exp.exported[0].ID)
	assert.Len(t, exp.exported[0].Entries, 28)
}

func TestExportWorker_UpsertForDeletedSheetRemovesTab(t *testing.T) {
	exp := &fakeExporter{}
	w := NewExportWorker(memory.New(), exp, nil)

	err := w.HandleMessage(context.Background(), amqp.NewSheetChangedMessage("gone", amqp.ActionUpsert))
	require.NoError(t, err)
	assert.Empty(t, exp.exported)
	assert.Equal(t, []string{"gone"}, exp.removed)
}

func TestExportWorker_Delete(t *testing.T) {
	exp := &fakeExporter{}
	w := NewExportWorker(memory.New(), exp, nil)

	require.NoError(t, w.HandleMessage(context.Background(), amqp.NewSheetChangedMessage("s1", amqp.ActionDelete)))
	assert.Equal(t, []string{"s1"}, exp.removed)
}

func TestExportWorker_ExporterFailureIsReturned(t *testing.T) {
	store := memory.New()
	sheet := seed(t, store, "k", 3)
	w := NewExportWorker(store, &fakeExporter{err: errors.New("quota exceeded")}, nil)

	err := w.HandleMessage(context.Background(), amqp.NewSheetChangedMessage(sheet.ID, amqp.ActionUpsert))
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestExportWorker_ExportTenant(t *testing.T) {
	store := memory.New()
	seed(t, store, "k", 1)
	seed(t, store, "k", 2)
	seed(t, store, "other", 3)
	exp := &fakeExporter{}
	w := NewExportWorker(store, exp, nil)

	n, err := w.ExportTenant(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, exp.exported, 2)
}
