package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesSqliteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "copilot.db")

	db, err := New(path)
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&Chat{}))
	assert.True(t, db.Migrator().HasTable(&Message{}))
}

func TestNewIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "copilot.db")

	first, err := New(path)
	require.NoError(t, err)
	require.NoError(t, first.Create(&Chat{Title: "kept"}).Error)

	second, err := New(path)
	require.NoError(t, err)

	var count int64
	require.NoError(t, second.Model(&Chat{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNewInMemory(t *testing.T) {
	db, err := New("file::memory:")
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&Chat{}))
}
