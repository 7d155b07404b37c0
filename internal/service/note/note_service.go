// Package note implements CRUD over notes, owning the relationship to
// tags and attachments. Writes are transactional; successful creates and
// updates publish a per-user change event, deletes do not.
package note

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ilmarsk/notehub/internal/database"
	apperrors "github.com/ilmarsk/notehub/internal/errors"
	"github.com/ilmarsk/notehub/internal/logger"
	"github.com/ilmarsk/notehub/internal/notify"
	fileservice "github.com/ilmarsk/notehub/internal/service/file"
	tagservice "github.com/ilmarsk/notehub/internal/service/tag"
)

const maxTitleLength = 255

// UpdateNoteRequest carries partial field changes. Nil fields are left
// untouched; a non-nil Tags slice replaces the note's tag set.
type UpdateNoteRequest struct {
	Title *string  `json:"title"`
	Body  *string  `json:"body"`
	Tags  []string `json:"tags"`
}

// NoteService manages notes and their tag and file relationships.
type NoteService interface {
	// Create inserts a note, resolves the named tags and links them, all
	// in one transaction, then publishes a change event for the owning
	// user. A failed create leaves no note, tag or link rows behind.
	Create(userID uint, title, body string, tagNames []string) (*database.Note, error)

	// GetByID returns a note with its tags and files populated.
	GetByID(noteID string) (*database.Note, error)

	// List returns all notes owned by a user, tags and files populated.
	List(userID uint) ([]database.Note, error)

	// Update validates and persists partial changes, publishing a change
	// event on success. Validation failure persists and notifies nothing.
	Update(noteID string, req *UpdateNoteRequest) (*database.Note, error)

	// Delete removes a note, its tag links and its attachments. Stored
	// file content is removed before any database row; a failed removal
	// aborts the whole operation. Delete publishes no event.
	Delete(noteID string) error
}

type noteService struct {
	db        *gorm.DB
	tags      tagservice.TagService
	files     fileservice.ContentRemover
	publisher notify.Publisher
}

// NewNoteService creates the note service. The publisher is injected so
// callers decide where change events go.
func NewNoteService(db *gorm.DB, tags tagservice.TagService, files fileservice.ContentRemover, publisher notify.Publisher) NoteService {
	return &noteService{db: db, tags: tags, files: files, publisher: publisher}
}

// Create implements NoteService. Tag resolution runs inside the note
// transaction, so a failed note write also rolls back any freshly
// created tag rows.
func (s *noteService) Create(userID uint, title, body string, tagNames []string) (*database.Note, error) {
	if err := validateNote(userID, &title, &body); err != nil {
		return nil, err
	}

	note := &database.Note{
		NoteID: uuid.New().String(),
		UserID: userID,
		Title:  title,
		Body:   body,
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Storage("begin note transaction", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	tags, err := s.tags.EnsureTagsIn(tx, userID, tagNames)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Create(note).Error; err != nil {
		tx.Rollback()
		return nil, apperrors.Storage("insert note", err)
	}

	if err := linkTags(tx, note.ID, tags); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Storage("commit note transaction", err)
	}

	note.Tags = tags
	s.publisher.Publish(notify.NoteTopic(userID), notify.NotePayload(userID))

	logger.WithField("note_id", note.NoteID).Infof("created note %q for user %d", note.Title, userID)
	return note, nil
}

// GetByID implements NoteService.
func (s *noteService) GetByID(noteID string) (*database.Note, error) {
	var note database.Note
	err := s.db.Preload("Tags").Preload("Files").Where("note_id = ?", noteID).First(&note).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("note", noteID)
		}
		return nil, apperrors.Storage("query note", err)
	}
	return &note, nil
}

// List implements NoteService.
func (s *noteService) List(userID uint) ([]database.Note, error) {
	var notes []database.Note
	err := s.db.Preload("Tags").Preload("Files").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, apperrors.Storage("list notes", err)
	}
	return notes, nil
}

// Update implements NoteService.
func (s *noteService) Update(noteID string, req *UpdateNoteRequest) (*database.Note, error) {
	note, err := s.GetByID(noteID)
	if err != nil {
		return nil, err
	}

	if err := validateNote(note.UserID, req.Title, req.Body); err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{"updated_at": now}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Body != nil {
		updates["body"] = *req.Body
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Storage("begin note transaction", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var newTags []database.Tag
	if req.Tags != nil {
		newTags, err = s.tags.EnsureTagsIn(tx, note.UserID, req.Tags)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Model(&database.Note{}).Where("id = ?", note.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, apperrors.Storage("update note", err)
	}

	if req.Tags != nil {
		if err := tx.Where("note_id = ?", note.ID).Delete(&database.NoteTag{}).Error; err != nil {
			tx.Rollback()
			return nil, apperrors.Storage("clear note tag links", err)
		}
		if err := linkTags(tx, note.ID, newTags); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Storage("commit note transaction", err)
	}

	s.publisher.Publish(notify.NoteTopic(note.UserID), notify.NotePayload(note.UserID))

	// The note is already loaded; apply the committed changes instead of
	// reading it back.
	note.UpdatedAt = now
	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Body != nil {
		note.Body = *req.Body
	}
	if req.Tags != nil {
		note.Tags = newTags
	}

	logger.WithField("note_id", noteID).Info("updated note")
	return note, nil
}

// Delete implements NoteService. Content removal happens strictly before
// any database change so a half-failed delete never leaves rows pointing
// at vanished files.
func (s *noteService) Delete(noteID string) error {
	note, err := s.GetByID(noteID)
	if err != nil {
		return err
	}

	for _, f := range note.Files {
		if err := s.files.RemoveContent(f.StoragePath); err != nil {
			return err
		}
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return apperrors.Storage("begin note transaction", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := tx.Where("note_id = ?", note.ID).Delete(&database.File{}).Error; err != nil {
		tx.Rollback()
		return apperrors.Storage("delete note attachments", err)
	}
	if err := tx.Where("note_id = ?", note.ID).Delete(&database.NoteTag{}).Error; err != nil {
		tx.Rollback()
		return apperrors.Storage("delete note tag links", err)
	}
	if err := tx.Delete(note).Error; err != nil {
		tx.Rollback()
		return apperrors.Storage("delete note", err)
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.Storage("commit note transaction", err)
	}

	logger.WithField("note_id", noteID).Info("deleted note")
	return nil
}

// validateNote applies the field rules shared by create and update. Title
// and body are free text; only the owner and the title bound are checked.
func validateNote(userID uint, title, body *string) error {
	verr := &apperrors.ValidationError{}
	if userID == 0 {
		verr.Add("user_id", "is required")
	}
	if title != nil && utf8.RuneCountInString(*title) > maxTitleLength {
		verr.Add("title", "must be at most 255 characters")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// linkTags inserts the join rows for a note inside the caller's
// transaction.
func linkTags(tx *gorm.DB, noteID uint, tags []database.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	links := make([]database.NoteTag, 0, len(tags))
	for _, t := range tags {
		links = append(links, database.NoteTag{NoteID: noteID, TagID: t.ID})
	}
	if err := tx.Create(&links).Error; err != nil {
		return apperrors.Storage("link note tags", err)
	}
	return nil
}
