// Package user manages the tenant records that notes and tags hang off.
// Identity itself lives in an external auth layer; this service only maps
// the external identity onto a local row.
package user

import (
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ilmarsk/notehub/internal/database"
	apperrors "github.com/ilmarsk/notehub/internal/errors"
)

// UserService resolves external identities to local users.
type UserService interface {
	// EnsureUser returns the local user for an external identity,
	// creating it on first sight. The profile payload is stored verbatim
	// and refreshed on every call.
	EnsureUser(externalID int64, profile string) (*database.User, error)

	// GetByID returns a user by local id.
	GetByID(id uint) (*database.User, error)
}

type userService struct {
	db *gorm.DB
}

// NewUserService creates the user service.
func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

// EnsureUser implements UserService.
func (s *userService) EnsureUser(externalID int64, profile string) (*database.User, error) {
	record := &database.User{ExternalID: externalID, Profile: profile}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"profile", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		return nil, apperrors.Storage("upsert user", err)
	}

	// Re-read so a conflict-resolved row comes back with its real id.
	var resolved database.User
	if err := s.db.Where("external_id = ?", externalID).First(&resolved).Error; err != nil {
		return nil, apperrors.Storage("reload user", err)
	}
	return &resolved, nil
}

// GetByID implements UserService.
func (s *userService) GetByID(id uint) (*database.User, error) {
	var record database.User
	if err := s.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", strconv.FormatUint(uint64(id), 10))
		}
		return nil, apperrors.Storage("query user", err)
	}
	return &record, nil
}
