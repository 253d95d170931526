package viewsettings

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lumeer-engine/internal/domain"
)

type Repository interface {
	Find(ctx context.Context, viewID, userID string) (*domain.ViewSettings, error)
	Save(ctx context.Context, viewID, userID string, settings *domain.ViewSettings) error
	Delete(ctx context.Context, viewID, userID string) error
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

// Find returns the stored settings, or nil when the user never saved any for the view.
func (r *RepositoryImpl) Find(ctx context.Context, viewID, userID string) (*domain.ViewSettings, error) {
	var record Record
	err := r.db.WithContext(ctx).
		Where("view_id = ? AND user_id = ?", viewID, userID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record.Settings, nil
}

func (r *RepositoryImpl) Save(ctx context.Context, viewID, userID string, settings *domain.ViewSettings) error {
	now := time.Now().UTC()
	record := Record{ViewID: viewID, UserID: userID, Settings: *Clone(settings), CreatedAt: now, UpdatedAt: now}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "view_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"settings", "updated_at"}),
	}).Create(&record).Error
}

func (r *RepositoryImpl) Delete(ctx context.Context, viewID, userID string) error {
	return r.db.WithContext(ctx).
		Where("view_id = ? AND user_id = ?", viewID, userID).
		Delete(&Record{}).Error
}
