package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestLoadMigrations(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"002_links.sql":  "SELECT 2;",
		"001_schema.sql": "SELECT 1;",
		"README.md":      "not a migration",
	})

	got, err := loadMigrations(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "001", got[0].version)
	assert.Equal(t, "002_links.sql", got[1].filename)
	assert.Equal(t, "SELECT 1;", got[0].sql)
	assert.Len(t, got[0].checksum, 64)
	assert.NotEqual(t, got[0].checksum, got[1].checksum)
}

func TestLoadMigrations_Rejects(t *testing.T) {
	_, err := loadMigrations(writeFiles(t, map[string]string{"001_a.sql": "", "001_b.sql": ""}))
	assert.ErrorContains(t, err, "duplicate migration version 001")

	_, err = loadMigrations(writeFiles(t, map[string]string{"schema.sql": ""}))
	assert.ErrorContains(t, err, "invalid migration filename")

	_, err = loadMigrations(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
