package commands

import (
	"bytes"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbpedia-dashboard/internal/apperr"
	"tbpedia-dashboard/internal/paging"
)

func TestDescribeListsFields(t *testing.T) {
	err := apperr.Validation("name must be at least 4 characters long", map[string]string{
		"name":        "name must be at least 4 characters long",
		"description": "description must be at least 10 characters long",
	})

	got := describe(err)
	assert.Contains(t, got.Error(), "\n  description must be at least 10 characters long\n  name must be at least 4 characters long")
	assert.True(t, apperr.Is(got, apperr.KindValidation), "kind is kept")
}

func TestDescribePassesThrough(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, describe(plain))

	single := apperr.Validation("name is required", map[string]string{"name": "name is required"})
	assert.Equal(t, error(single), describe(single), "a single field needs no listing")
}

func TestPageSummary(t *testing.T) {
	p := &paging.Result[int]{CurrentPage: 2, TotalPages: 3, From: 11, To: 20, TotalItems: 25, HasNext: true}
	assert.Equal(t, "page 2 of 3, items 11-20 of 25 (next: --page 3)", pageSummary(p))

	p.HasNext = false
	assert.NotContains(t, pageSummary(p), "next")
}

func TestWriteRow(t *testing.T) {
	var buf bytes.Buffer
	writeRow(&buf, []string{"a", "b", "c"})
	assert.Equal(t, "a\tb\tc\n", buf.String())
}

func TestRootRegistersCommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"login", "logout", "whoami", "list", "hide", "unhide", "order-status"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestSetupOpensAuditDatabase(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("DB_URL", "tbpedia:secret@tcp(db:3306)/tbpedia")

	var opened string
	a := &app{
		credPath: filepath.Join(t.TempDir(), "credential.json"),
		openDB: func(dbURL string, logger zerolog.Logger) (*sql.DB, error) {
			opened = dbURL
			return nil, nil
		},
	}

	require.NoError(t, a.setup())
	assert.Equal(t, "tbpedia:secret@tcp(db:3306)/tbpedia", opened)
	assert.NotNil(t, a.audit)
}

func TestSetupFailsWhenMigrationsFail(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("DB_URL", "tbpedia:secret@tcp(db:3306)/tbpedia")

	a := &app{
		credPath: filepath.Join(t.TempDir(), "credential.json"),
		openDB: func(string, zerolog.Logger) (*sql.DB, error) {
			return nil, errors.New("migration: table locked")
		},
	}

	assert.ErrorContains(t, a.setup(), "table locked")
}

func TestSetupWithoutDatabase(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("DB_URL", "")

	a := &app{
		credPath: filepath.Join(t.TempDir(), "credential.json"),
		openDB: func(string, zerolog.Logger) (*sql.DB, error) {
			t.Fatal("no database configured")
			return nil, nil
		},
	}

	require.NoError(t, a.setup())
	assert.False(t, a.audit.Enabled())
}
