package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"finsheets/internal/core"
	"finsheets/internal/log"
)

var (
	ErrNotLoaded = errors.New("sheets not loaded")
	ErrClosed    = errors.New("controller closed")
)

// RetryPolicy bounds how often a failed background write is repeated.
type RetryPolicy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 4, Initial: 500 * time.Millisecond, Max: 8 * time.Second}
}

// backoff returns Initial, 2*Initial, 4*Initial... capped at Max.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.Initial
	for i := 0; i < attempt && d < p.Max; i++ {
		d *= 2
	}
	if d > p.Max {
		return p.Max
	}
	return d
}

type Options struct {
	WriteTimeout time.Duration
	Retry        RetryPolicy
	Logger       *log.Logger
}

// Controller keeps a Store in step with the collaborator. Field edits are
// applied locally at once and persisted in issue order by one writer
// goroutine; structural changes wait for queued edits and then reload.
type Controller struct {
	api          Collaborator
	store        *Store
	logger       *log.Logger
	writeTimeout time.Duration
	retry        RetryPolicy

	writes    chan func()
	done      chan struct{}
	closeOnce sync.Once
	closeMu   sync.RWMutex
	closed    bool

	mu     sync.Mutex
	tenant core.TenantKey
	loaded bool
}

func NewController(collab Collaborator, store *Store, opts Options) *Controller {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.Retry.Attempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	c := &Controller{
		api:          collab,
		store:        store,
		logger:       opts.Logger.WithComponent(log.ComponentClient),
		writeTimeout: opts.WriteTimeout,
		retry:        opts.Retry,
		writes:       make(chan func(), 64),
		done:         make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Controller) Store() *Store { return c.store }

func (c *Controller) run() {
	defer close(c.done)
	for w := range c.writes {
		w()
	}
}

// LoadAll fetches every sheet of the credential's tenant into the Store and
// selects the first one.
func (c *Controller) LoadAll(ctx context.Context, cred core.Credential) error {
	tenant := cred.Tenant()
	c.mu.Lock()
	c.tenant = tenant
	c.loaded = true
	c.mu.Unlock()

	list, err := c.list(ctx, tenant)
	if err != nil {
		return err
	}
	c.store.Load(list)
	c.logger.InfoContext(ctx, "Sheets loaded",
		log.NewFields().WithOperation(log.OpLoad).WithTenant(tenant).ToSlice()...)
	return nil
}

// Reset forgets the tenant and empties the Store.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.tenant = ""
	c.loaded = false
	c.mu.Unlock()
	c.store.Clear()
}

// CreateSheet persists a sheet with one blank entry per day of month/year
// and reloads, since the new ids are assigned by the collaborator.
func (c *Controller) CreateSheet(ctx context.Context, name string, month, year int) (core.Sheet, error) {
	tenant, err := c.currentTenant()
	if err != nil {
		return core.Sheet{}, err
	}
	ns := core.NewSheet{
		Tenant:  tenant,
		Name:    name,
		Month:   month,
		Year:    year,
		Entries: core.DayEntries(month, year),
	}
	if err := ns.Validate(); err != nil {
		return core.Sheet{}, err
	}
	if err := c.Flush(ctx); err != nil {
		return core.Sheet{}, err
	}

	var sheet core.Sheet
	err = c.call(ctx, func(ctx context.Context) (err error) {
		sheet, err = c.api.CreateSheet(ctx, ns)
		return err
	})
	if err != nil {
		return core.Sheet{}, fmt.Errorf("create sheet: %w", err)
	}
	return sheet, c.reload(ctx, tenant)
}

// PendingWrite tracks one queued field edit.
type PendingWrite struct {
	done       chan struct{}
	err        error
	rolledBack bool
}

// Wait blocks until the write settles and returns its final error.
func (p *PendingWrite) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RolledBack reports whether a failed write was undone locally. Only
// meaningful after Wait returned.
func (p *PendingWrite) RolledBack() bool {
	select {
	case <-p.done:
		return p.rolledBack
	default:
		return false
	}
}

// UpdateEntryField edits one field of an entry in the current sheet. The
// Store reflects the change before this returns; the collaborator receives
// only the changed field. When every retry fails the field is restored,
// unless a newer edit overwrote it meanwhile.
func (c *Controller) UpdateEntryField(entryID string, field core.EntryField, raw string) (*PendingWrite, error) {
	patch, err := core.PatchFor(field, raw)
	if err != nil {
		return nil, err
	}

	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}

	prev, ok := c.store.ApplyEntryEdit(entryID, patch)
	if !ok {
		return nil, fmt.Errorf("entry %s in current sheet: %w", entryID, core.ErrNotFound)
	}

	pw := &PendingWrite{done: make(chan struct{})}
	c.writes <- func() {
		defer close(pw.done)
		pw.err = c.persistPatch(entryID, patch)
		if pw.err != nil {
			pw.rolledBack = c.store.RevertEntryEdit(entryID, patch, prev)
			c.logger.Error("Entry edit not persisted",
				append(log.NewFields().WithOperation(log.OpPatch).WithEntry(entryID).WithError(pw.err).ToSlice(),
					"rolled_back", pw.rolledBack)...)
		}
	}
	return pw, nil
}

func (c *Controller) persistPatch(entryID string, patch core.EntryPatch) error {
	var err error
	for attempt := 0; attempt < c.retry.Attempts; attempt++ {
		if attempt > 0 {
			wait := c.retry.backoff(attempt - 1)
			c.logger.Warn("Retrying entry edit",
				log.FieldEntryID, entryID, log.FieldAttempt, attempt+1, "retry_in", wait, log.FieldError, err)
			time.Sleep(wait)
		}
		err = c.call(context.Background(), func(ctx context.Context) error {
			_, err := c.api.PatchEntry(ctx, entryID, patch)
			return err
		})
		if err == nil || !core.Retryable(err) {
			return err
		}
	}
	return err
}

// AddEntryRow persists a blank entry for date and reloads.
func (c *Controller) AddEntryRow(ctx context.Context, sheetID, date string) (core.Entry, error) {
	tenant, err := c.currentTenant()
	if err != nil {
		return core.Entry{}, err
	}
	ne := core.NewEntry{SheetID: sheetID, Date: date}
	if err := ne.Validate(); err != nil {
		return core.Entry{}, err
	}
	if sh, ok := c.store.Sheet(sheetID); ok {
		if err := core.CheckDateInMonth(date, sh.Month, sh.Year); err != nil {
			return core.Entry{}, err
		}
	}
	if err := c.Flush(ctx); err != nil {
		return core.Entry{}, err
	}

	var e core.Entry
	err = c.call(ctx, func(ctx context.Context) (err error) {
		e, err = c.api.CreateEntry(ctx, ne)
		return err
	})
	if err != nil {
		return core.Entry{}, fmt.Errorf("add entry: %w", err)
	}
	return e, c.reload(ctx, tenant)
}

// DeleteEntry removes an entry and reloads. The last entry of a day is
// kept so every calendar day stays represented.
func (c *Controller) DeleteEntry(ctx context.Context, entryID string) error {
	tenant, err := c.currentTenant()
	if err != nil {
		return err
	}
	sh, e, ok := c.store.FindEntry(entryID)
	if !ok {
		return fmt.Errorf("entry %s: %w", entryID, core.ErrNotFound)
	}
	if sh.EntriesOn(e.Date) <= 1 {
		return fmt.Errorf("entry %s on %s: %w", entryID, e.Date, core.ErrLastEntryForDay)
	}
	if err := c.Flush(ctx); err != nil {
		return err
	}

	if err := c.call(ctx, func(ctx context.Context) error {
		return c.api.DeleteEntry(ctx, entryID)
	}); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return c.reload(ctx, tenant)
}

// DeleteSheet deletes a sheet scoped to cred's tenant and reloads. A sheet
// owned by another tenant is left alone.
func (c *Controller) DeleteSheet(ctx context.Context, sheetID string, cred core.Credential) error {
	tenant, err := c.currentTenant()
	if err != nil {
		return err
	}
	if err := c.Flush(ctx); err != nil {
		return err
	}

	if err := c.call(ctx, func(ctx context.Context) error {
		return c.api.DeleteSheet(ctx, sheetID, cred.Tenant())
	}); err != nil {
		return fmt.Errorf("delete sheet: %w", err)
	}
	return c.reload(ctx, tenant)
}

// Flush waits until every edit queued before it has settled.
func (c *Controller) Flush(ctx context.Context) error {
	c.closeMu.RLock()
	if c.closed {
		c.closeMu.RUnlock()
		return ErrClosed
	}
	barrier := make(chan struct{})
	c.writes <- func() { close(barrier) }
	c.closeMu.RUnlock()

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains queued edits and stops the writer.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.closeMu.Lock()
		c.closed = true
		close(c.writes)
		c.closeMu.Unlock()
	})
	<-c.done
	return nil
}

func (c *Controller) reload(ctx context.Context, tenant core.TenantKey) error {
	list, err := c.list(ctx, tenant)
	if err != nil {
		return err
	}
	c.store.Reload(list)
	return nil
}

func (c *Controller) list(ctx context.Context, tenant core.TenantKey) ([]core.Sheet, error) {
	var list []core.Sheet
	err := c.call(ctx, func(ctx context.Context) (err error) {
		list, err = c.api.ListSheets(ctx, tenant)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load sheets: %w", err)
	}
	return list, nil
}

// call runs fn under the per-call write timeout.
func (c *Controller) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()
	return fn(ctx)
}

func (c *Controller) currentTenant() (core.TenantKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return "", ErrNotLoaded
	}
	return c.tenant, nil
}
