package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ilmarsk/notehub/internal/database"
	apperrors "github.com/ilmarsk/notehub/internal/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return db
}

func tagNames(tags []database.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}

func TestEnsureTagsCreatesMissing(t *testing.T) {
	svc := NewTagService(setupTestDB(t))

	tags, err := svc.EnsureTags(1, []string{"errands", "food"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"errands", "food"}, tagNames(tags))
}

func TestEnsureTagsCollapsesDuplicates(t *testing.T) {
	svc := NewTagService(setupTestDB(t))

	tags, err := svc.EnsureTags(1, []string{"foo", "foo"})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "foo", tags[0].Name)
}

func TestEnsureTagsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTagService(db)

	first, err := svc.EnsureTags(1, []string{"foo"})
	require.NoError(t, err)
	second, err := svc.EnsureTags(1, []string{"foo"})
	require.NoError(t, err)

	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID, "same name must resolve to the same row")

	var count int64
	require.NoError(t, db.Model(&database.Tag{}).Where("name = ?", "foo").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEnsureTagsReusesExistingAndAddsNew(t *testing.T) {
	svc := NewTagService(setupTestDB(t))

	first, err := svc.EnsureTags(1, []string{"keep"})
	require.NoError(t, err)

	tags, err := svc.EnsureTags(1, []string{"keep", "fresh"})
	require.NoError(t, err)
	require.Len(t, tags, 2)

	byName := map[string]database.Tag{}
	for _, tag := range tags {
		byName[tag.Name] = tag
	}
	assert.Equal(t, first[0].ID, byName["keep"].ID)
	assert.NotZero(t, byName["fresh"].ID)
}

func TestEnsureTagsLowercasesNames(t *testing.T) {
	svc := NewTagService(setupTestDB(t))

	tags, err := svc.EnsureTags(1, []string{"Errands", "FOOD"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"errands", "food"}, tagNames(tags))
}

func TestEnsureTagsScopedPerUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTagService(db)

	mine, err := svc.EnsureTags(1, []string{"shared"})
	require.NoError(t, err)
	theirs, err := svc.EnsureTags(2, []string{"shared"})
	require.NoError(t, err)

	assert.NotEqual(t, mine[0].ID, theirs[0].ID, "same name for different users must be distinct rows")
}

func TestEnsureTagsEmptyInputShortCircuits(t *testing.T) {
	svc := NewTagService(setupTestDB(t))

	tags, err := svc.EnsureTags(1, nil)
	require.NoError(t, err)
	assert.Empty(t, tags)

	tags, err = svc.EnsureTags(1, []string{"", "  "})
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestListTagsOrderedByName(t *testing.T) {
	svc := NewTagService(setupTestDB(t))

	_, err := svc.EnsureTags(1, []string{"zebra", "apple", "mango"})
	require.NoError(t, err)
	_, err = svc.EnsureTags(2, []string{"other"})
	require.NoError(t, err)

	tags, err := svc.ListTags(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "mango", "zebra"}, tagNames(tags))
}

func TestGetTagByNameNotFound(t *testing.T) {
	svc := NewTagService(setupTestDB(t))

	_, err := svc.GetTagByName(1, "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestEnsureTagsInFollowsCallerTransaction(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTagService(db)

	tx := db.Begin()
	require.NoError(t, tx.Error)
	_, err := svc.EnsureTagsIn(tx, 1, []string{"doomed"})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback().Error)

	var count int64
	require.NoError(t, db.Model(&database.Tag{}).Count(&count).Error)
	assert.Zero(t, count, "rolled-back transaction must discard the tag")

	tx = db.Begin()
	require.NoError(t, tx.Error)
	_, err = svc.EnsureTagsIn(tx, 1, []string{"kept"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	tag, err := svc.GetTagByName(1, "kept")
	require.NoError(t, err)
	assert.Equal(t, "kept", tag.Name)
}

func TestSearchTagsMatchesSubstring(t *testing.T) {
	svc := NewTagService(setupTestDB(t))

	_, err := svc.EnsureTags(1, []string{"work", "workout", "home"})
	require.NoError(t, err)
	_, err = svc.EnsureTags(2, []string{"workshop"})
	require.NoError(t, err)

	tags, total, err := svc.SearchTags(1, "work", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"work", "workout"}, tagNames(tags), "matches stay within the user and come back ordered")
}

func TestSearchTagsEmptyQueryReturnsAll(t *testing.T) {
	svc := NewTagService(setupTestDB(t))

	_, err := svc.EnsureTags(1, []string{"b", "a", "c"})
	require.NoError(t, err)

	tags, total, err := svc.SearchTags(1, "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"a", "b", "c"}, tagNames(tags))
}

func TestSearchTagsPaginates(t *testing.T) {
	svc := NewTagService(setupTestDB(t))

	_, err := svc.EnsureTags(1, []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)

	page, total, err := svc.SearchTags(1, "", 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total, "total covers every match, not just the page")
	assert.Equal(t, []string{"c", "d"}, tagNames(page))
}

// linkTagToNotes fabricates join rows so usage queries have data without
// pulling the note service into this package.
func linkTagToNotes(t *testing.T, db *gorm.DB, tagID uint, noteIDs ...uint) {
	t.Helper()
	for _, noteID := range noteIDs {
		require.NoError(t, db.Create(&database.NoteTag{NoteID: noteID, TagID: tagID}).Error)
	}
}

func TestGetPopularTagsOrdersByUsage(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTagService(db)

	tags, err := svc.EnsureTags(1, []string{"busy", "quiet", "idle"})
	require.NoError(t, err)
	byName := map[string]database.Tag{}
	for _, tag := range tags {
		byName[tag.Name] = tag
	}

	linkTagToNotes(t, db, byName["busy"].ID, 1, 2, 3)
	linkTagToNotes(t, db, byName["quiet"].ID, 1)

	popular, err := svc.GetPopularTags(1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"busy", "quiet"}, tagNames(popular), "unused tags are excluded, busiest first")
}

func TestGetPopularTagsRespectsLimit(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTagService(db)

	tags, err := svc.EnsureTags(1, []string{"one", "two", "three"})
	require.NoError(t, err)
	for i, tag := range tags {
		for n := 0; n <= i; n++ {
			linkTagToNotes(t, db, tag.ID, uint(100*i+n+1))
		}
	}

	popular, err := svc.GetPopularTags(1, 2)
	require.NoError(t, err)
	assert.Len(t, popular, 2)
}

func TestGetTagUsageStats(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTagService(db)

	tags, err := svc.EnsureTags(1, []string{"tracked"})
	require.NoError(t, err)
	linkTagToNotes(t, db, tags[0].ID, 1, 2)

	stats, err := svc.GetTagUsageStats(1, "tracked")
	require.NoError(t, err)
	assert.Equal(t, "tracked", stats.TagName)
	assert.EqualValues(t, 2, stats.NoteCount)
	require.NotNil(t, stats.LastUsedAt)
	assert.False(t, stats.LastUsedAt.IsZero())
}

func TestGetTagUsageStatsUnusedTag(t *testing.T) {
	svc := NewTagService(setupTestDB(t))

	_, err := svc.EnsureTags(1, []string{"fresh"})
	require.NoError(t, err)

	stats, err := svc.GetTagUsageStats(1, "fresh")
	require.NoError(t, err)
	assert.Zero(t, stats.NoteCount)
	assert.Nil(t, stats.LastUsedAt)
}

func TestGetTagUsageStatsNotFound(t *testing.T) {
	svc := NewTagService(setupTestDB(t))

	_, err := svc.GetTagUsageStats(1, "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
