package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"finsheets/internal/cli"
	"finsheets/internal/client"
	"finsheets/internal/core"
	"finsheets/internal/log"
	"finsheets/internal/session"

	"golang.org/x/term"
)

var errNotLoggedIn = errors.New("not logged in, run: finsheets-cli login")

type App struct {
	cfg     appConfig
	session *session.Session
	ctrl    *client.Controller
	out     io.Writer
	in      io.Reader
}

func NewApp(cfg appConfig, out io.Writer, in io.Reader) (*App, error) {
	logger := log.New(log.Config{
		Component: log.ComponentClient,
		Handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: log.ParseLevel(cfg.LogLevel),
		}),
	})

	storage, err := session.OpenFileStorage(cfg.SessionFile)
	if err != nil {
		return nil, err
	}

	ctrl := client.NewController(
		client.NewHTTPAPI(cfg.Server, cfg.WriteTimeout),
		client.NewStore(),
		client.Options{WriteTimeout: cfg.WriteTimeout, Logger: logger},
	)
	sess := session.New(storage, ctrl, session.Options{
		Password:   core.Credential(cfg.Password),
		LoginDelay: cfg.LoginDelay,
		Logger:     logger,
	})

	return &App{cfg: cfg, session: sess, ctrl: ctrl, out: out, in: in}, nil
}

func (a *App) Close() error {
	return a.ctrl.Close()
}

// restore brings back the remembered login and sheet selection.
func (a *App) restore(ctx context.Context) error {
	restored, err := a.session.Restore(ctx)
	if !restored {
		return errNotLoggedIn
	}
	if err != nil {
		return err
	}
	if id := a.session.CurrentSheet(); id != "" {
		// a sheet deleted elsewhere falls back to the first one
		_ = a.ctrl.Store().SelectCurrent(id)
	}
	return nil
}

func (a *App) currentSheet() (core.Sheet, error) {
	sh, ok := a.ctrl.Store().Current()
	if !ok {
		return core.Sheet{}, core.ErrNoCurrentSheet
	}
	return sh, nil
}

func (a *App) Login(ctx context.Context, password string) error {
	if password == "" {
		var err error
		if password, err = a.readPassword(); err != nil {
			return err
		}
	}
	if err := a.session.Login(ctx, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in. %d sheet(s).\n", len(a.ctrl.Store().Sheets()))
	return nil
}

func (a *App) readPassword() (string, error) {
	fmt.Fprint(a.out, "Password: ")
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		return string(b), err
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *App) Logout() error {
	if err := a.session.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) ListSheets(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	cur, _ := a.ctrl.Store().Current()
	fmt.Fprint(a.out, cli.RenderSheetList(a.ctrl.Store().Sheets(), cur.ID))
	return nil
}

func (a *App) Use(ctx context.Context, sheetID string) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	if err := a.ctrl.Store().SelectCurrent(sheetID); err != nil {
		return fmt.Errorf("sheet %s: %w", sheetID, err)
	}
	return a.session.SetCurrentSheet(sheetID)
}

func (a *App) Show(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	sh, err := a.currentSheet()
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, cli.RenderSheet(sh))
	return nil
}

func (a *App) Create(ctx context.Context, name string, month, year int) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	if name == "" {
		name = core.MonthLabel(month)
	}
	sh, err := a.ctrl.CreateSheet(ctx, name, month, year)
	if err != nil {
		return err
	}
	if err := a.ctrl.Store().SelectCurrent(sh.ID); err != nil {
		return err
	}
	if err := a.session.SetCurrentSheet(sh.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s with %d entries (%s).\n", sh.Name, len(sh.Entries), sh.ID)
	return nil
}

// Set waits for the write to settle since the process exits right after.
func (a *App) Set(ctx context.Context, entryID, field, value string) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	f, err := core.ParseEntryField(field)
	if err != nil {
		return err
	}
	pw, err := a.ctrl.UpdateEntryField(entryID, f, value)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Total: %s\n", a.ctrl.Store().ComputeTotal().FormatGrouped())
	if err := pw.Wait(ctx); err != nil {
		return fmt.Errorf("change not saved: %w", err)
	}
	return nil
}

// Add accepts a full DD/MM/YYYY date or a bare day of the current sheet's month.
func (a *App) Add(ctx context.Context, date string) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	sh, err := a.currentSheet()
	if err != nil {
		return err
	}
	if day, err := strconv.Atoi(date); err == nil {
		date = core.FormatDate(day, sh.Month, sh.Year)
	}
	e, err := a.ctrl.AddEntryRow(ctx, sh.ID, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added entry %s on %s.\n", e.ID, e.Date)
	return nil
}

func (a *App) Remove(ctx context.Context, entryID string) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	if err := a.ctrl.DeleteEntry(ctx, entryID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Entry deleted.")
	return nil
}

func (a *App) Drop(ctx context.Context, sheetID string) error {
	if err := a.restore(ctx); err != nil {
		return err
	}
	if err := a.ctrl.DeleteSheet(ctx, sheetID, a.session.Credential()); err != nil {
		return err
	}
	if _, ok := a.ctrl.Store().Sheet(sheetID); ok {
		return fmt.Errorf("sheet %s: %w", sheetID, core.ErrNotFound)
	}
	fmt.Fprintln(a.out, "Sheet deleted.")
	return nil
}
