package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finsheets/internal/api"
	"finsheets/internal/core"
)

// Collaborator is the persistence contract the controller writes through.
// HTTPAPI speaks it over REST; sheets.Store implementations satisfy it
// directly.
type Collaborator interface {
	ListSheets(ctx context.Context, tenant core.TenantKey) ([]core.Sheet, error)
	CreateSheet(ctx context.Context, s core.NewSheet) (core.Sheet, error)
	DeleteSheet(ctx context.Context, id string, tenant core.TenantKey) error
	CreateEntry(ctx context.Context, e core.NewEntry) (core.Entry, error)
	PatchEntry(ctx context.Context, id string, p core.EntryPatch) (core.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
}

var _ Collaborator = (*HTTPAPI)(nil)

// HTTPAPI is the REST client for the finsheets server.
type HTTPAPI struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPAPI(baseURL string, timeout time.Duration) *HTTPAPI {
	return &HTTPAPI{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPAPI) ListSheets(ctx context.Context, tenant core.TenantKey) ([]core.Sheet, error) {
	var resp []api.SheetResponse
	q := url.Values{"password": {string(tenant)}}
	if err := c.do(ctx, "list sheets", http.MethodGet, "/sheets?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	out := make([]core.Sheet, 0, len(resp))
	for _, s := range resp {
		out = append(out, s.ToSheet())
	}
	return out, nil
}

func (c *HTTPAPI) CreateSheet(ctx context.Context, s core.NewSheet) (core.Sheet, error) {
	month, year := api.IntString(s.Month), api.IntString(s.Year)
	req := api.CreateSheetRequest{
		Password: string(s.Tenant),
		Name:     s.Name,
		Month:    &month,
		Year:     &year,
	}
	for _, e := range s.Entries {
		req.Entries = append(req.Entries, api.EntryInput{
			Date:     e.Date,
			Overview: e.Overview,
			Amount:   e.Amount,
			Work:     e.Work,
		})
	}

	var resp api.SheetResponse
	if err := c.do(ctx, "create sheet", http.MethodPost, "/sheets", req, &resp); err != nil {
		return core.Sheet{}, err
	}
	return resp.ToSheet(), nil
}

func (c *HTTPAPI) DeleteSheet(ctx context.Context, id string, tenant core.TenantKey) error {
	q := url.Values{"password": {string(tenant)}}
	path := "/sheets/" + url.PathEscape(id) + "?" + q.Encode()
	return c.do(ctx, "delete sheet", http.MethodDelete, path, nil, &api.SuccessResponse{})
}

func (c *HTTPAPI) CreateEntry(ctx context.Context, e core.NewEntry) (core.Entry, error) {
	req := api.CreateEntryRequest{
		SheetID:  e.SheetID,
		Date:     e.Date,
		Overview: e.Overview,
		Amount:   e.Amount,
		Work:     e.Work,
	}
	var resp api.EntryResponse
	if err := c.do(ctx, "create entry", http.MethodPost, "/entries", req, &resp); err != nil {
		return core.Entry{}, err
	}
	return resp.ToEntry(), nil
}

func (c *HTTPAPI) PatchEntry(ctx context.Context, id string, p core.EntryPatch) (core.Entry, error) {
	var resp api.EntryResponse
	path := "/entries/" + url.PathEscape(id)
	if err := c.do(ctx, "patch entry", http.MethodPatch, path, api.NewPatchEntryRequest(p), &resp); err != nil {
		return core.Entry{}, err
	}
	return resp.ToEntry(), nil
}

func (c *HTTPAPI) DeleteEntry(ctx context.Context, id string) error {
	path := "/entries/" + url.PathEscape(id)
	return c.do(ctx, "delete entry", http.MethodDelete, path, nil, &api.SuccessResponse{})
}

// do sends body as JSON and decodes a 2xx response into out. Failures to
// reach the server are TransportErrors; error statuses are mapped onto the
// core taxonomy with the server's message.
func (c *HTTPAPI) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &core.TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return statusError(op, res)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &core.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func statusError(op string, res *http.Response) error {
	var errRes api.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err := json.Unmarshal(raw, &errRes); err != nil || errRes.Error == "" {
		errRes.Error = strings.TrimSpace(string(raw))
		if errRes.Error == "" {
			errRes.Error = res.Status
		}
	}

	switch res.StatusCode {
	case http.StatusBadRequest:
		return core.NewValidationError("", errRes.Error)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", op, errRes.Error, core.ErrNotFound)
	default:
		return &core.CollaboratorError{Op: op, Status: res.StatusCode, Err: errors.New(errRes.Error)}
	}
}
