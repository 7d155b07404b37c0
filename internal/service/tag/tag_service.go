// Package tag resolves tag names to user-scoped tag rows and answers
// usage queries over them. Resolution is idempotent get-or-create: the
// same name for the same user always maps to one row, even under
// concurrent ingestion.
package tag

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ilmarsk/notehub/internal/database"
	apperrors "github.com/ilmarsk/notehub/internal/errors"
	"github.com/ilmarsk/notehub/internal/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	defaultTopLimit = 10
	maxTopLimit     = 100
)

// TagUsageStats describes how one tag is used across a user's notes.
type TagUsageStats struct {
	TagName    string     `json:"tag_name"`
	NoteCount  int64      `json:"note_count"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"` // nil when the tag links to no note
	CreatedAt  time.Time  `json:"created_at"`
}

// TagService manages user-scoped tags.
type TagService interface {
	// EnsureTags resolves every requested name to a tag row, creating the
	// missing ones, in its own transaction. Names are lowercased and
	// duplicates collapse to a single tag. Empty input returns an empty
	// slice without touching storage.
	EnsureTags(userID uint, names []string) ([]database.Tag, error)

	// EnsureTagsIn is EnsureTags running inside the caller's transaction,
	// so note and tag writes can commit or roll back as one unit.
	EnsureTagsIn(tx *gorm.DB, userID uint, names []string) ([]database.Tag, error)

	// ListTags returns all of a user's tags ordered by name.
	ListTags(userID uint) ([]database.Tag, error)

	// GetTagByName returns one tag by its (lowercased) name.
	GetTagByName(userID uint, name string) (*database.Tag, error)

	// SearchTags returns the user's tags whose name contains the query,
	// paginated, together with the total match count. An empty query
	// matches everything.
	SearchTags(userID uint, query string, page, pageSize int) ([]database.Tag, int64, error)

	// GetPopularTags returns the user's most-used tags, busiest first.
	// Tags linked to no note are excluded.
	GetPopularTags(userID uint, limit int) ([]database.Tag, error)

	// GetTagUsageStats reports how many notes carry the named tag and
	// when it was last attached to one.
	GetTagUsageStats(userID uint, name string) (*TagUsageStats, error)
}

type tagService struct {
	db *gorm.DB
}

// NewTagService creates the tag service.
func NewTagService(db *gorm.DB) TagService {
	return &tagService{db: db}
}

// EnsureTags implements TagService.
func (s *tagService) EnsureTags(userID uint, names []string) ([]database.Tag, error) {
	wanted := normalizeNames(names)
	if len(wanted) == 0 {
		return []database.Tag{}, nil
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, apperrors.Storage("begin tag transaction", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	resolved, err := ensureTags(tx, userID, wanted)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Storage("commit tag transaction", err)
	}
	return resolved, nil
}

// EnsureTagsIn implements TagService. The caller owns commit and
// rollback.
func (s *tagService) EnsureTagsIn(tx *gorm.DB, userID uint, names []string) ([]database.Tag, error) {
	wanted := normalizeNames(names)
	if len(wanted) == 0 {
		return []database.Tag{}, nil
	}
	return ensureTags(tx, userID, wanted)
}

// ensureTags runs the read-then-create sequence against tx. Concurrent
// transactions that both decide a tag is missing resolve through the
// per-user unique index and ON CONFLICT DO NOTHING instead of
// duplicating rows.
func ensureTags(tx *gorm.DB, userID uint, wanted []string) ([]database.Tag, error) {
	var existing []database.Tag
	if err := tx.Where("user_id = ? AND name IN ?", userID, wanted).Find(&existing).Error; err != nil {
		return nil, apperrors.Storage("query existing tags", err)
	}

	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[t.Name] = true
	}

	var missing []database.Tag
	for _, name := range wanted {
		if !have[name] {
			missing = append(missing, database.Tag{UserID: userID, Name: name})
		}
	}

	if len(missing) > 0 {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
			DoNothing: true,
		}).Create(&missing).Error; err != nil {
			return nil, apperrors.Storage("create missing tags", err)
		}
	}

	// Re-read so conflict-resolved rows come back with their real ids.
	var resolved []database.Tag
	if err := tx.Where("user_id = ? AND name IN ?", userID, wanted).Find(&resolved).Error; err != nil {
		return nil, apperrors.Storage("reload resolved tags", err)
	}

	logger.WithField("user_id", userID).Debugf("resolved %d tags (%d created)", len(resolved), len(missing))
	return resolved, nil
}

// ListTags implements TagService.
func (s *tagService) ListTags(userID uint) ([]database.Tag, error) {
	var tags []database.Tag
	if err := s.db.Where("user_id = ?", userID).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, apperrors.Storage("list tags", err)
	}
	return tags, nil
}

// GetTagByName implements TagService.
func (s *tagService) GetTagByName(userID uint, name string) (*database.Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	var tag database.Tag
	if err := s.db.Where("user_id = ? AND name = ?", userID, name).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("tag", name)
		}
		return nil, apperrors.Storage("query tag", err)
	}
	return &tag, nil
}

// SearchTags implements TagService.
func (s *tagService) SearchTags(userID uint, query string, page, pageSize int) ([]database.Tag, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	scope := s.db.Model(&database.Tag{}).Where("user_id = ?", userID)
	query = strings.ToLower(strings.TrimSpace(query))
	if query != "" {
		scope = scope.Where("name LIKE ?", "%"+query+"%")
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Storage("count matching tags", err)
	}

	var tags []database.Tag
	offset := (page - 1) * pageSize
	if err := scope.Order("name ASC").Offset(offset).Limit(pageSize).Find(&tags).Error; err != nil {
		return nil, 0, apperrors.Storage("search tags", err)
	}
	return tags, total, nil
}

// GetPopularTags implements TagService. Usage is counted from the live
// join rows, so deleting a note immediately demotes its tags.
func (s *tagService) GetPopularTags(userID uint, limit int) ([]database.Tag, error) {
	if limit < 1 || limit > maxTopLimit {
		limit = defaultTopLimit
	}

	var tags []database.Tag
	err := s.db.Model(&database.Tag{}).
		Select("tags.*, COUNT(note_tags.tag_id) AS use_count").
		Joins("JOIN note_tags ON note_tags.tag_id = tags.id").
		Where("tags.user_id = ?", userID).
		Group("tags.id").
		Order("use_count DESC, tags.name ASC").
		Limit(limit).
		Find(&tags).Error
	if err != nil {
		return nil, apperrors.Storage("query popular tags", err)
	}
	return tags, nil
}

// GetTagUsageStats implements TagService.
func (s *tagService) GetTagUsageStats(userID uint, name string) (*TagUsageStats, error) {
	tag, err := s.GetTagByName(userID, name)
	if err != nil {
		return nil, err
	}

	var noteCount int64
	if err := s.db.Table("note_tags").Where("tag_id = ?", tag.ID).Count(&noteCount).Error; err != nil {
		return nil, apperrors.Storage("count tag usage", err)
	}

	stats := &TagUsageStats{
		TagName:   tag.Name,
		NoteCount: noteCount,
		CreatedAt: tag.CreatedAt,
	}

	if noteCount > 0 {
		var newest database.NoteTag
		err := s.db.Where("tag_id = ?", tag.ID).Order("created_at DESC").First(&newest).Error
		if err != nil {
			return nil, apperrors.Storage("query last tag use", err)
		}
		stats.LastUsedAt = &newest.CreatedAt
	}

	return stats, nil
}

// normalizeNames lowercases, trims and deduplicates while preserving the
// first-seen order.
func normalizeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
