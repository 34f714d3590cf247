package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/scriptdesk-api/internal/models"
)

// TopicRepository persists topics.
type TopicRepository interface {
	List(ctx context.Context) ([]models.Topic, error)
	GetByID(ctx context.Context, id uint) (models.Topic, error)
	FindMissing(ctx context.Context, ids []uint) ([]uint, error)
	NameTaken(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, topic *models.Topic) error
	Delete(ctx context.Context, id uint) error
}

type topicRepository struct {
	db *gorm.DB
}

// NewTopicRepository constructs the topic repository.
func NewTopicRepository(db *gorm.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) List(ctx context.Context) ([]models.Topic, error) {
	var topics []models.Topic
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

func (r *topicRepository) GetByID(ctx context.Context, id uint) (models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).First(&topic, id).Error; err != nil {
		return models.Topic{}, err
	}
	return topic, nil
}

// FindMissing returns the ids that do not match a stored topic.
func (r *topicRepository) FindMissing(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []uint
	if err := r.db.WithContext(ctx).Model(&models.Topic{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}

	known := make(map[uint]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}

	missing := make([]uint, 0)
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *topicRepository) NameTaken(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Topic{}).Where("LOWER(name) = LOWER(?)", name).Count(&count).Error
	return count > 0, err
}

func (r *topicRepository) Create(ctx context.Context, topic *models.Topic) error {
	return r.db.WithContext(ctx).Create(topic).Error
}

// Delete removes the topic and detaches it from every script.
func (r *topicRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("topic_id = ?", id).Delete(&models.ScriptTopic{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Topic{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
