package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finsheets/internal/core"
	finhttp "finsheets/internal/http"
	"finsheets/internal/sheets/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPIServer(t *testing.T) *HTTPAPI {
	t.Helper()
	srv := finhttp.NewServer(":0", memory.New(), finhttp.Options{RateLimitPerMinute: 1000})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown(context.Background())
	})
	return NewHTTPAPI(ts.URL+"/", 5*time.Second)
}

func TestHTTPAPIRoundTrip(t *testing.T) {
	c := newAPIServer(t)
	ctx := context.Background()

	sheet, err := c.CreateSheet(ctx, core.NewSheet{
		Tenant:  "160802",
		Name:    core.MonthLabel(2),
		Month:   2,
		Year:    2025,
		Entries: core.DayEntries(2, 2025),
	})
	require.NoError(t, err)
	assert.Len(t, sheet.Entries, 28)
	assert.Equal(t, 2, sheet.Month)
	assert.Equal(t, core.TenantKey("160802"), sheet.Tenant)

	e, err := c.CreateEntry(ctx, core.NewEntry{SheetID: sheet.ID, Date: "10/02/2025", Work: "fuel"})
	require.NoError(t, err)
	assert.Equal(t, sheet.ID, e.SheetID)

	amt := core.NewMoney(-35000)
	patched, err := c.PatchEntry(ctx, e.ID, core.EntryPatch{Amount: &amt})
	require.NoError(t, err)
	assert.Equal(t, "-35000", patched.Amount.String())
	assert.Equal(t, "fuel", patched.Work)

	list, err := c.ListSheets(ctx, "160802")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Entries, 29)
	assert.Equal(t, "-35000", list[0].Total().String())

	require.NoError(t, c.DeleteEntry(ctx, e.ID))
	require.NoError(t, c.DeleteSheet(ctx, sheet.ID, "other"))
	list, _ = c.ListSheets(ctx, "160802")
	assert.Len(t, list, 1)

	require.NoError(t, c.DeleteSheet(ctx, sheet.ID, "160802"))
	list, err = c.ListSheets(ctx, "160802")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHTTPAPIErrorMapping(t *testing.T) {
	c := newAPIServer(t)
	ctx := context.Background()

	_, err := c.CreateEntry(ctx, core.NewEntry{SheetID: "missing", Date: "01/01/2024"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = c.CreateSheet(ctx, core.NewSheet{Tenant: "p", Name: "x", Month: 13, Year: 2024})
	assert.True(t, core.IsValidation(err))
	assert.False(t, core.Retryable(err))
}

func TestHTTPAPICollaboratorFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"database is locked"}`))
	}))
	defer ts.Close()

	_, err := NewHTTPAPI(ts.URL, time.Second).ListSheets(context.Background(), "p")
	var ce *core.CollaboratorError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusInternalServerError, ce.Status)
	assert.Equal(t, "database is locked", ce.Error())
	assert.True(t, core.Retryable(err))
}

func TestHTTPAPITransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	err := NewHTTPAPI(url, time.Second).DeleteEntry(context.Background(), "e1")
	var te *core.TransportError
	require.True(t, errors.As(err, &te))
	assert.True(t, core.Retryable(err))
}
