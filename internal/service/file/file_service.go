// Package file stores note attachments on the local filesystem and keeps
// their metadata rows in sync. Content is always removed before the row
// that points at it; a note row must never survive pointing at vanished
// content in the other direction.
package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ilmarsk/notehub/config"
	"github.com/ilmarsk/notehub/internal/database"
	apperrors "github.com/ilmarsk/notehub/internal/errors"
	"github.com/ilmarsk/notehub/internal/logger"
)

// ContentRemover removes stored file content at a path. It is the seam
// the note service uses during delete so tests can fail removal on
// demand.
type ContentRemover interface {
	// RemoveContent deletes the content at path. Content that is already
	// gone is not an error; anything else aborts the caller's operation.
	RemoveContent(path string) error
}

// FileService manages attachment content and metadata.
type FileService interface {
	ContentRemover

	// SaveFile stores the content of r as an attachment of the note with
	// the given primary key and records its metadata.
	SaveFile(noteID uint, fileName, mimeType string, r io.Reader) (*database.File, error)

	// GetFileByID returns the metadata row for a file UUID.
	GetFileByID(fileID string) (*database.File, error)

	// DeleteFile removes a single attachment: content first, row after.
	DeleteFile(fileID string) error
}

type fileService struct {
	db  *gorm.DB
	cfg config.StorageConfig
}

// NewFileService creates the attachment service and ensures the storage
// directory exists.
func NewFileService(db *gorm.DB, cfg config.StorageConfig) (FileService, error) {
	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", cfg.Path, err)
	}
	return &fileService{db: db, cfg: cfg}, nil
}

// SaveFile implements FileService.
func (s *fileService) SaveFile(noteID uint, fileName, mimeType string, r io.Reader) (*database.File, error) {
	fileID := uuid.New().String()
	storagePath := filepath.Join(s.cfg.Path, fileID+filepath.Ext(fileName))

	dst, err := os.Create(storagePath)
	if err != nil {
		return nil, apperrors.Storage("create attachment file", err)
	}

	// Copy one byte past the limit so an oversized upload is detectable.
	written, err := io.Copy(dst, io.LimitReader(r, s.cfg.MaxFileSize+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.cfg.MaxFileSize {
		err = fmt.Errorf("file exceeds maximum size of %d bytes", s.cfg.MaxFileSize)
	}
	if err != nil {
		os.Remove(storagePath)
		return nil, apperrors.Storage("write attachment content", err)
	}

	record := &database.File{
		FileID:      fileID,
		NoteID:      noteID,
		FileName:    fileName,
		StoragePath: storagePath,
		MimeType:    mimeType,
		FileSize:    written,
	}
	if err := s.db.Create(record).Error; err != nil {
		os.Remove(storagePath)
		return nil, apperrors.Storage("insert attachment metadata", err)
	}

	logger.WithField("file_id", fileID).Infof("stored attachment %s (%d bytes)", fileName, written)
	return record, nil
}

// GetFileByID implements FileService.
func (s *fileService) GetFileByID(fileID string) (*database.File, error) {
	var record database.File
	if err := s.db.Where("file_id = ?", fileID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("file", fileID)
		}
		return nil, apperrors.Storage("query attachment metadata", err)
	}
	return &record, nil
}

// RemoveContent implements ContentRemover.
func (s *fileService) RemoveContent(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperrors.FileRemoval(path, err)
	}
	return nil
}

// DeleteFile implements FileService. Content removal failure leaves the
// metadata row in place so nothing points at half-deleted state.
func (s *fileService) DeleteFile(fileID string) error {
	record, err := s.GetFileByID(fileID)
	if err != nil {
		return err
	}

	if err := s.RemoveContent(record.StoragePath); err != nil {
		return err
	}

	if err := s.db.Delete(record).Error; err != nil {
		return apperrors.Storage("delete attachment metadata", err)
	}

	logger.WithField("file_id", fileID).Info("deleted attachment")
	return nil
}
