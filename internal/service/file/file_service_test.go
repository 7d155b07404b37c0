package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ilmarsk/notehub/config"
	"github.com/ilmarsk/notehub/internal/database"
	apperrors "github.com/ilmarsk/notehub/internal/errors"
)

func setupFileService(t *testing.T) (FileService, *gorm.DB, string) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	dir := t.TempDir()
	svc, err := NewFileService(db, config.StorageConfig{Path: dir, MaxFileSize: 1024})
	require.NoError(t, err)

	return svc, db, dir
}

func TestSaveFileStoresContentAndMetadata(t *testing.T) {
	svc, _, dir := setupFileService(t)

	record, err := svc.SaveFile(1, "grocery-list.txt", "text/plain", strings.NewReader("milk\neggs"))
	require.NoError(t, err)
	assert.NotEmpty(t, record.FileID)
	assert.EqualValues(t, 1, record.NoteID)
	assert.Equal(t, "grocery-list.txt", record.FileName)
	assert.Equal(t, "text/plain", record.MimeType)
	assert.EqualValues(t, 9, record.FileSize)

	content, err := os.ReadFile(record.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, "milk\neggs", string(content))
	assert.Equal(t, dir, filepath.Dir(record.StoragePath))
}

func TestSaveFileRejectsOversizedContent(t *testing.T) {
	svc, db, _ := setupFileService(t)

	_, err := svc.SaveFile(1, "big.bin", "application/octet-stream", strings.NewReader(strings.Repeat("x", 2048)))
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&database.File{}).Count(&count).Error)
	assert.Zero(t, count, "oversized upload must not leave a metadata row")
}

func TestGetFileByIDNotFound(t *testing.T) {
	svc, _, _ := setupFileService(t)

	_, err := svc.GetFileByID("missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteFileRemovesContentAndRow(t *testing.T) {
	svc, db, _ := setupFileService(t)

	record, err := svc.SaveFile(1, "doomed.txt", "text/plain", strings.NewReader("bye"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFile(record.FileID))

	_, statErr := os.Stat(record.StoragePath)
	assert.True(t, os.IsNotExist(statErr), "content must be removed")

	var count int64
	require.NoError(t, db.Model(&database.File{}).Where("file_id = ?", record.FileID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRemoveContentToleratesMissingFile(t *testing.T) {
	svc, _, dir := setupFileService(t)

	assert.NoError(t, svc.RemoveContent(filepath.Join(dir, "never-existed.txt")))
}

func TestRemoveContentFailsLoudly(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("directory permissions do not bind for root")
	}

	svc, _, dir := setupFileService(t)

	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.MkdirAll(locked, 0o755))
	target := filepath.Join(locked, "file.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	require.NoError(t, os.Chmod(locked, 0o555))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	err := svc.RemoveContent(target)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrFileRemoval, appErr.Code)
}
