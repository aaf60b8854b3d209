package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-study-api/internal/models"
)

// ResponseFilter allows narrowing response queries.
type ResponseFilter struct {
	ParticipantID *uint
	Group         *string
	TaskName      *string
}

// ResponseRepository stores answer audit rows. Rows are insert-only.
type ResponseRepository interface {
	Create(ctx context.Context, response *models.Response) error
	List(ctx context.Context, filter ResponseFilter) ([]models.Response, error)
	Count(ctx context.Context, filter ResponseFilter) (int64, error)
}

type responseRepository struct {
	db *gorm.DB
}

// NewResponseRepository instantiates the repository.
func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) filtered(ctx context.Context, filter ResponseFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Response{})

	if filter.ParticipantID != nil {
		query = query.Where("responses.participant_id = ?", *filter.ParticipantID)
	}

	if filter.TaskName != nil {
		query = query.Where("responses.task_name = ?", *filter.TaskName)
	}

	if filter.Group != nil {
		query = query.
			Joins("JOIN participants ON participants.id = responses.participant_id").
			Where("participants.group_name = ?", *filter.Group)
	}

	return query
}

func (r *responseRepository) Create(ctx context.Context, response *models.Response) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(response).Error
}

func (r *responseRepository) List(ctx context.Context, filter ResponseFilter) ([]models.Response, error) {
	var responses []models.Response
	if err := r.filtered(ctx, filter).
		Order("responses.participant_id ASC").
		Order("responses.created_at ASC").
		Order("responses.id ASC").
		Find(&responses).Error; err != nil {
		return nil, err
	}

	return responses, nil
}

func (r *responseRepository) Count(ctx context.Context, filter ResponseFilter) (int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}
