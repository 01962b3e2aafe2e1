package migration

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add clients table", "add_clients_table"},
		{"Add-Clients-Table", "add_clients_table"},
		{"ADD_CLIENTS_TABLE", "add_clients_table"},
		{"add__clients__table", "add_clients_table"},
		{"Add Clients 123", "add_clients_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create clients", "client directory")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_clients.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_clients.down.sql"), first.DownPath)

	second, err := CreateMigration(dir, "add sale index", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: create_clients")
	assert.Contains(t, string(up), "client directory")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_create_sales.up.sql",
		"000002_create_sales.down.sql",
		"000001_create_clients.up.sql",
		"000010_no_down.up.sql",
		"README.md",
		"notes_without_number.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}

	entries, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "000001_create_clients", entries[0].String())
	assert.Equal(t, "000002_create_sales", entries[1].String())
	assert.True(t, entries[1].HasDown)
	assert.Equal(t, uint(10), entries[2].Version)
	assert.False(t, entries[2].HasDown)
}

func TestListMigrations_MissingDir(t *testing.T) {
	entries, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// The shipped migrations must be numbered contiguously with a rollback each.
func TestShippedMigrations(t *testing.T) {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	dir := filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")

	entries, err := ListMigrations(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for i, e := range entries {
		assert.Equal(t, uint(i+1), e.Version, e.String())
		assert.True(t, e.HasDown, "%s has no down file", e)
	}
}
