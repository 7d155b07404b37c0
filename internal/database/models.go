// Package database defines the persistence models and connection setup
// for the note-taking service: users, notes, tags, the note_tags join
// table and file attachments.
package database

import (
	"time"

	"gorm.io/gorm"
)

// User is the tenant key for notes and tags. The service does not own
// authentication; it only stores the external identity payload handed
// to it by the auth layer.
type User struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	ExternalID int64          `gorm:"uniqueIndex;not null" json:"external_id"` // numeric identity from the external provider
	Profile    string         `gorm:"type:text" json:"profile"`                // opaque profile payload, stored verbatim
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName maps the User model to the users table.
func (User) TableName() string {
	return "users"
}

// Note is a single note owned by one user. The title is derived during
// ingestion and is never empty for non-empty submissions; the body holds
// raw markdown.
type Note struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	NoteID    string         `gorm:"uniqueIndex;not null;size:36" json:"note_id"` // UUID exposed over the API
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Title     string         `gorm:"size:255" json:"title"`
	Body      string         `gorm:"type:text" json:"body"` // raw markdown
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Tags  []Tag  `gorm:"many2many:note_tags;" json:"tags,omitempty"`
	Files []File `gorm:"foreignKey:NoteID" json:"files,omitempty"`
}

// TableName maps the Note model to the notes table.
func (Note) TableName() string {
	return "notes"
}

// Tag is a user-scoped lowercase label. Names are lowercased before they
// reach storage, so the composite unique index gives case-insensitive
// uniqueness per user and lets concurrent inserts resolve via
// ON CONFLICT DO NOTHING instead of a retry loop.
type Tag struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_tags_user_name" json:"user_id"`
	Name      string         `gorm:"not null;size:100;uniqueIndex:idx_tags_user_name" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"`

	Notes []Note `gorm:"many2many:note_tags;" json:"notes,omitempty"`
}

// TableName maps the Tag model to the tags table.
func (Tag) TableName() string {
	return "tags"
}

// NoteTag is the join row between notes and tags. Deleting a note removes
// its join rows; the tag rows themselves survive.
type NoteTag struct {
	NoteID    uint      `gorm:"primaryKey" json:"note_id"`
	TagID     uint      `gorm:"primaryKey" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName maps the NoteTag model to the note_tags table.
func (NoteTag) TableName() string {
	return "note_tags"
}

// File is an attachment owned by exactly one note. StoragePath points at
// the stored content on disk; the row must never outlive a failed content
// removal in the other direction (content is removed first, rows after).
type File struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	FileID      string         `gorm:"uniqueIndex;not null;size:36" json:"file_id"` // UUID exposed over the API
	NoteID      uint           `gorm:"not null;index" json:"note_id"`
	FileName    string         `gorm:"not null;size:255" json:"file_name"`
	StoragePath string         `gorm:"not null;size:500" json:"storage_path"`
	MimeType    string         `gorm:"size:100" json:"mime_type"`
	FileSize    int64          `json:"file_size"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName maps the File model to the files table.
func (File) TableName() string {
	return "files"
}
