package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/scriptdesk-api/internal/models"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// ScriptFilter describes list predicates and pagination.
type ScriptFilter struct {
	Status    workflow.Status
	ProjectID *uint
	AuthorID  string
	Search    string
	Page      int
	PageSize  int
}

// StatusCount is one row of the grouped count by status.
type StatusCount struct {
	Status workflow.Status
	Count  int64
}

// ScriptRepository defines persistence operations for scripts and their topic links.
type ScriptRepository interface {
	List(ctx context.Context, filter ScriptFilter) ([]models.Script, int64, error)
	GetByID(ctx context.Context, id uint) (models.Script, error)
	Create(ctx context.Context, script *models.Script, topicIDs []uint) error
	Update(ctx context.Context, script *models.Script, topicIDs *[]uint) error
	Delete(ctx context.Context, id uint) error
	CountByStatus(ctx context.Context) ([]StatusCount, error)
}

type scriptRepository struct {
	db *gorm.DB
}

// NewScriptRepository instantiates a GORM-backed repository.
func NewScriptRepository(db *gorm.DB) ScriptRepository {
	return &scriptRepository{db: db}
}

func (r *scriptRepository) List(ctx context.Context, filter ScriptFilter) ([]models.Script, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Script{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}

	if filter.AuthorID != "" {
		query = query.Where("author_id = ?", filter.AuthorID)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var scripts []models.Script
	err := query.
		Preload("Author").
		Preload("Project").
		Order("last_updated DESC").
		Order("id DESC").
		Find(&scripts).Error
	if err != nil {
		return nil, 0, err
	}

	if err := attachTopics(ctx, r.db, scripts); err != nil {
		return nil, 0, err
	}

	return scripts, total, nil
}

func (r *scriptRepository) GetByID(ctx context.Context, id uint) (models.Script, error) {
	var script models.Script
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Project").
		First(&script, id).Error
	if err != nil {
		return models.Script{}, err
	}

	scripts := []models.Script{script}
	if err := attachTopics(ctx, r.db, scripts); err != nil {
		return models.Script{}, err
	}
	return scripts[0], nil
}

func (r *scriptRepository) Create(ctx context.Context, script *models.Script, topicIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(script).Error; err != nil {
			return err
		}
		return replaceTopics(tx, script.ID, topicIDs)
	})
}

// Update saves every column of script. A nil topicIDs leaves the topic links
// untouched; a non-nil slice replaces them.
func (r *scriptRepository) Update(ctx context.Context, script *models.Script, topicIDs *[]uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(script).Error; err != nil {
			return err
		}
		if topicIDs == nil {
			return nil
		}
		if err := tx.Where("script_id = ?", script.ID).Delete(&models.ScriptTopic{}).Error; err != nil {
			return err
		}
		return replaceTopics(tx, script.ID, *topicIDs)
	})
}

// Delete hard-deletes the script and its topic links in one transaction.
func (r *scriptRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("script_id = ?", id).Delete(&models.ScriptTopic{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Script{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *scriptRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.Script{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func replaceTopics(tx *gorm.DB, scriptID uint, topicIDs []uint) error {
	ids := uniqueIDs(topicIDs)
	if len(ids) == 0 {
		return nil
	}
	links := make([]models.ScriptTopic, 0, len(ids))
	for _, topicID := range ids {
		links = append(links, models.ScriptTopic{ScriptID: scriptID, TopicID: topicID})
	}
	return tx.Create(&links).Error
}

func attachTopics(ctx context.Context, db *gorm.DB, scripts []models.Script) error {
	if len(scripts) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(scripts))
	for _, script := range scripts {
		ids = append(ids, script.ID)
	}

	var rows []struct {
		ScriptID  uint
		TopicID   uint
		Name      string
		CreatedAt time.Time
	}
	err := db.WithContext(ctx).
		Table("script_topics").
		Select("script_topics.script_id, topics.id AS topic_id, topics.name, topics.created_at").
		Joins("JOIN topics ON topics.id = script_topics.topic_id").
		Where("script_topics.script_id IN ?", ids).
		Order("topics.name ASC").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	byScript := make(map[uint][]models.Topic, len(scripts))
	for _, row := range rows {
		byScript[row.ScriptID] = append(byScript[row.ScriptID], models.Topic{ID: row.TopicID, Name: row.Name, CreatedAt: row.CreatedAt})
	}
	for i := range scripts {
		topics := byScript[scripts[i].ID]
		if topics == nil {
			topics = []models.Topic{}
		}
		scripts[i].Topics = topics
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
