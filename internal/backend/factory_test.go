package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"finsheets/internal/config"
	"finsheets/internal/core"
	"finsheets/internal/services"
	"finsheets/internal/sheets/memory"
	"finsheets/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:       "libsql",
		DatabaseURL:       "libsql://db.example.turso.io",
		DatabaseAuthToken: "token",
		AMQPURL:           "amqp://localhost",
		AMQPExchange:      "finsheets",
		AMQPQueue:         "sheet_exports",
	})
	require.NoError(t, err)
	assert.Equal(t, LibSQLBackend, cfg.Type)
	assert.Equal(t, "token", cfg.DatabaseAuthToken)
	assert.Equal(t, "sheet_exports", cfg.AMQPQueue)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, DatabaseURL: "data/x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"libsql without token", Config{Type: LibSQLBackend, DatabaseURL: "libsql://x"}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, res.Backend)
	assert.Nil(t, res.Cleanup)
}

func TestCreateBackend_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finsheets.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, DatabaseURL: "file:" + path})
	require.NoError(t, err)
	require.NotNil(t, res.Cleanup)
	defer res.Cleanup()

	assert.IsType(t, &services.SheetService{}, res.Backend)
	require.NoError(t, res.Backend.Ping(context.Background()))

	sheet, err := res.Backend.CreateSheet(context.Background(), core.NewSheet{Tenant: "k", Name: "Tháng 6", Month: 6, Year: 2025})
	require.NoError(t, err)
	assert.Len(t, sheet.Entries, 30)
}

func TestCreateBackend_OpenerRegistration(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type: LibSQLBackend, DatabaseURL: "libsql://db", DatabaseAuthToken: "t",
	})
	assert.ErrorContains(t, err, "not available")

	var got Config
	f := NewFactory(nil, WithOpener(LibSQLBackend, func(c Config) (*storage.Repository, error) {
		got = c
		return nil, errors.New("unreachable")
	}))
	_, err = f.CreateBackend(context.Background(), Config{
		Type: LibSQLBackend, DatabaseURL: "libsql://db", DatabaseAuthToken: "t",
	})
	assert.ErrorContains(t, err, "unreachable")
	assert.Equal(t, "libsql://db", got.DatabaseURL)
}
