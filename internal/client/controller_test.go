package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finsheets/internal/core"
	"finsheets/internal/sheets/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyCollaborator fails or holds PatchEntry calls on demand.
type flakyCollaborator struct {
	*memory.Store

	mu         sync.Mutex
	patchErrs  []error
	patchCalls int
	gate       chan struct{}
}

func (f *flakyCollaborator) PatchEntry(ctx context.Context, id string, p core.EntryPatch) (core.Entry, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.patchCalls++
	var err error
	if len(f.patchErrs) > 0 {
		err, f.patchErrs = f.patchErrs[0], f.patchErrs[1:]
	}
	f.mu.Unlock()
	if err != nil {
		return core.Entry{}, err
	}
	return f.Store.PatchEntry(ctx, id, p)
}

func (f *flakyCollaborator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.patchCalls
}

var fastRetry = RetryPolicy{Attempts: 3, Initial: time.Millisecond, Max: 4 * time.Millisecond}

func newController(t *testing.T, collab Collaborator) *Controller {
	t.Helper()
	c := NewController(collab, NewStore(), Options{WriteTimeout: time.Second, Retry: fastRetry})
	t.Cleanup(func() { c.Close() })
	return c
}

func loggedIn(t *testing.T, collab *flakyCollaborator, cred core.Credential) (*Controller, core.Sheet) {
	t.Helper()
	c := newController(t, collab)
	ctx := context.Background()
	require.NoError(t, c.LoadAll(ctx, cred))
	sheet, err := c.CreateSheet(ctx, core.MonthLabel(2), 2, 2024)
	require.NoError(t, err)
	return c, sheet
}

func TestControllerRequiresLoad(t *testing.T) {
	c := newController(t, memory.New())
	_, err := c.CreateSheet(context.Background(), "x", 2, 2024)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestControllerCreateSheet(t *testing.T) {
	c, sheet := loggedIn(t, &flakyCollaborator{Store: memory.New()}, "160802")

	assert.Len(t, sheet.Entries, 29)
	cur, ok := c.Store().Current()
	require.True(t, ok)
	assert.Equal(t, sheet.ID, cur.ID)
	require.Len(t, cur.Entries, 29)
	assert.Equal(t, "01/02/2024", cur.Entries[0].Date)
	assert.Equal(t, "29/02/2024", cur.Entries[28].Date)

	_, err := c.CreateSheet(context.Background(), "bad", 13, 2024)
	assert.True(t, core.IsValidation(err))
}

func TestUpdateEntryFieldIsOptimistic(t *testing.T) {
	collab := &flakyCollaborator{Store: memory.New()}
	c, sheet := loggedIn(t, collab, "160802")
	collab.gate = make(chan struct{})

	id := sheet.Entries[0].ID
	pw, err := c.UpdateEntryField(id, core.FieldAmount, "50")
	require.NoError(t, err)

	// the collaborator has not seen the write yet
	assert.Equal(t, "50", c.Store().ComputeTotal().String())
	persisted, _ := collab.GetSheet(context.Background(), sheet.ID)
	assert.True(t, persisted.Total().IsZero())

	close(collab.gate)
	require.NoError(t, pw.Wait(context.Background()))
	assert.False(t, pw.RolledBack())

	persisted, _ = collab.GetSheet(context.Background(), sheet.ID)
	assert.Equal(t, "50", persisted.Total().String())
}

func TestUpdateEntryFieldRetriesTransportErrors(t *testing.T) {
	collab := &flakyCollaborator{Store: memory.New()}
	c, sheet := loggedIn(t, collab, "160802")
	transport := &core.TransportError{Op: "patch entry", Err: errors.New("connection refused")}
	collab.patchErrs = []error{transport, transport}

	pw, err := c.UpdateEntryField(sheet.Entries[0].ID, core.FieldWork, "coffee")
	require.NoError(t, err)
	require.NoError(t, pw.Wait(context.Background()))

	assert.Equal(t, 3, collab.calls())
	persisted, _ := collab.GetSheet(context.Background(), sheet.ID)
	assert.Equal(t, "coffee", persisted.Entries[0].Work)
}

func TestUpdateEntryFieldRollsBackAfterFinalFailure(t *testing.T) {
	collab := &flakyCollaborator{Store: memory.New()}
	c, sheet := loggedIn(t, collab, "160802")
	down := &core.CollaboratorError{Op: "patch entry", Status: 503, Err: errors.New("unavailable")}
	collab.patchErrs = []error{down, down, down}

	pw, err := c.UpdateEntryField(sheet.Entries[0].ID, core.FieldAmount, "75")
	require.NoError(t, err)

	err = pw.Wait(context.Background())
	assert.Error(t, err)
	assert.True(t, pw.RolledBack())
	assert.Equal(t, 3, collab.calls())
	assert.True(t, c.Store().ComputeTotal().IsZero())
}

func TestUpdateEntryFieldDoesNotRetryRejectedWrites(t *testing.T) {
	collab := &flakyCollaborator{Store: memory.New()}
	c, sheet := loggedIn(t, collab, "160802")
	collab.patchErrs = []error{core.NewValidationError("amount", "bad amount")}

	pw, err := c.UpdateEntryField(sheet.Entries[0].ID, core.FieldAmount, "10")
	require.NoError(t, err)
	assert.True(t, core.IsValidation(pw.Wait(context.Background())))
	assert.Equal(t, 1, collab.calls())
	assert.True(t, pw.RolledBack())
}

func TestUpdateEntryFieldGuards(t *testing.T) {
	c, _ := loggedIn(t, &flakyCollaborator{Store: memory.New()}, "160802")

	_, err := c.UpdateEntryField("missing", core.FieldWork, "x")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = c.UpdateEntryField("missing", core.FieldAmount, "abc")
	assert.True(t, core.IsValidation(err))
}

func TestEditsArePersistedInOrder(t *testing.T) {
	collab := &flakyCollaborator{Store: memory.New()}
	c, sheet := loggedIn(t, collab, "160802")
	id := sheet.Entries[3].ID

	_, err := c.UpdateEntryField(id, core.FieldWork, "first")
	require.NoError(t, err)
	_, err = c.UpdateEntryField(id, core.FieldAmount, "10")
	require.NoError(t, err)
	last, err := c.UpdateEntryField(id, core.FieldWork, "second")
	require.NoError(t, err)
	require.NoError(t, last.Wait(context.Background()))

	persisted, _ := collab.GetSheet(context.Background(), sheet.ID)
	assert.Equal(t, "second", persisted.Entries[3].Work)
	assert.Equal(t, "10", persisted.Entries[3].Amount.String())
}

func TestAddAndDeleteEntryRow(t *testing.T) {
	collab := &flakyCollaborator{Store: memory.New()}
	c, sheet := loggedIn(t, collab, "160802")
	ctx := context.Background()

	// a day with a single entry cannot lose it
	err := c.DeleteEntry(ctx, sheet.Entries[4].ID)
	assert.ErrorIs(t, err, core.ErrLastEntryForDay)

	added, err := c.AddEntryRow(ctx, sheet.ID, "05/02/2024")
	require.NoError(t, err)
	cur, _ := c.Store().Current()
	assert.Len(t, cur.Entries, 30)
	assert.Equal(t, 2, cur.EntriesOn("05/02/2024"))

	require.NoError(t, c.DeleteEntry(ctx, added.ID))
	cur, _ = c.Store().Current()
	assert.Len(t, cur.Entries, 29)

	_, err = c.AddEntryRow(ctx, sheet.ID, "01/03/2024")
	assert.True(t, core.IsValidation(err))
}

func TestDeleteSheetWithWrongPasswordIsNoop(t *testing.T) {
	collab := &flakyCollaborator{Store: memory.New()}
	c, sheet := loggedIn(t, collab, "A")
	ctx := context.Background()

	require.NoError(t, c.DeleteSheet(ctx, sheet.ID, "B"))
	_, ok := c.Store().Sheet(sheet.ID)
	assert.True(t, ok)
	_, err := collab.GetSheet(ctx, sheet.ID)
	require.NoError(t, err)

	require.NoError(t, c.DeleteSheet(ctx, sheet.ID, "A"))
	_, ok = c.Store().Sheet(sheet.ID)
	assert.False(t, ok)
	_, ok = c.Store().Current()
	assert.False(t, ok)
}

func TestCloseDrainsQueuedEdits(t *testing.T) {
	collab := &flakyCollaborator{Store: memory.New()}
	c, sheet := loggedIn(t, collab, "160802")

	pw, err := c.UpdateEntryField(sheet.Entries[0].ID, core.FieldOverview, "rent")
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, pw.Wait(context.Background()))

	_, err = c.UpdateEntryField(sheet.Entries[0].ID, core.FieldOverview, "late")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Flush(context.Background()), ErrClosed)
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{Attempts: 5, Initial: 100 * time.Millisecond, Max: time.Second}
	assert.Equal(t, 100*time.Millisecond, p.backoff(0))
	assert.Equal(t, 200*time.Millisecond, p.backoff(1))
	assert.Equal(t, 800*time.Millisecond, p.backoff(3))
	assert.Equal(t, time.Second, p.backoff(4))
	assert.Equal(t, time.Second, p.backoff(20))
}
