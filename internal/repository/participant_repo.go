package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/models"
)

// ParticipantRepository provides access to participant records.
type ParticipantRepository interface {
	Create(ctx context.Context, participant *models.Participant) error
	GetByID(ctx context.Context, id uint) (models.Participant, error)
	MarkFinished(ctx context.Context, id uint, at time.Time) (bool, error)
	UpdateSurvey(ctx context.Context, id uint, survey datatypes.JSONMap) error
	CountByGroup(ctx context.Context) (map[string]int64, error)
	CountFinished(ctx context.Context) (int64, error)
}

type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository constructs a participant repository.
func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) Create(ctx context.Context, participant *models.Participant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

func (r *participantRepository) GetByID(ctx context.Context, id uint) (models.Participant, error) {
	var participant models.Participant
	if err := r.db.WithContext(ctx).First(&participant, id).Error; err != nil {
		return models.Participant{}, err
	}

	return participant, nil
}

// MarkFinished stamps the completion time unless one is already set. It
// reports whether this call was the one that stamped it.
func (r *participantRepository) MarkFinished(ctx context.Context, id uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("id = ? AND finished_at IS NULL", id).
		Update("finished_at", at)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *participantRepository) UpdateSurvey(ctx context.Context, id uint, survey datatypes.JSONMap) error {
	result := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("id = ?", id).
		Update("survey", survey)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *participantRepository) CountByGroup(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		GroupName string
		Total     int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Select("group_name, COUNT(*) AS total").
		Group("group_name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.GroupName] = row.Total
	}

	return counts, nil
}

func (r *participantRepository) CountFinished(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("finished_at IS NOT NULL").
		Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}
