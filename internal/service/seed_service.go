package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/scriptdesk-api/internal/models"
	"github.com/noah-isme/scriptdesk-api/internal/repository"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// SystemUserID owns activity written by operator tooling.
const SystemUserID = "system"

// SeedCatalog is the YAML document accepted by the seeder.
type SeedCatalog struct {
	Projects []SeedProject `yaml:"projects"`
	Topics   []string      `yaml:"topics"`
}

// SeedProject is one project entry of a catalog.
type SeedProject struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// SeedResult reports how many rows were created.
type SeedResult struct {
	ProjectsCreated int `json:"projects_created"`
	TopicsCreated   int `json:"topics_created"`
	Skipped         int `json:"skipped"`
}

// SeedService loads reference data. Existing names are left untouched.
type SeedService interface {
	Seed(ctx context.Context, catalog SeedCatalog) (SeedResult, error)
}

type seedService struct {
	projects repository.ProjectRepository
	topics   repository.TopicRepository
	users    repository.UserRepository
	activity ActivityRecorder
	logger   zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(projects repository.ProjectRepository, topics repository.TopicRepository, users repository.UserRepository, activity ActivityRecorder, logger zerolog.Logger) SeedService {
	return &seedService{
		projects: projects,
		topics:   topics,
		users:    users,
		activity: activity,
		logger:   logger.With().Str("component", "seed_service").Logger(),
	}
}

// ParseSeedCatalog decodes a YAML catalog, rejecting unknown keys.
func ParseSeedCatalog(r io.Reader) (SeedCatalog, error) {
	var catalog SeedCatalog
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&catalog); err != nil {
		if err == io.EOF {
			return SeedCatalog{}, nil
		}
		return SeedCatalog{}, fmt.Errorf("decode seed catalog: %w", err)
	}
	return normalizeCatalog(catalog), nil
}

func (s *seedService) Seed(ctx context.Context, catalog SeedCatalog) (SeedResult, error) {
	catalog = normalizeCatalog(catalog)
	var result SeedResult

	system := models.User{ID: SystemUserID, FirstName: "System", Role: workflow.RoleAdministrator}
	if err := s.users.Upsert(ctx, &system); err != nil {
		return result, storageError("user.upsert", err)
	}

	for _, item := range catalog.Projects {
		taken, err := s.projects.NameTaken(ctx, item.Name, 0)
		if err != nil {
			return result, storageError("project.name_taken", err)
		}
		if taken {
			result.Skipped++
			continue
		}

		project := models.Project{Name: item.Name, Description: item.Description}
		if err := s.projects.Create(ctx, &project); err != nil {
			return result, storageError("project.create", err)
		}
		result.ProjectsCreated++
		recordActivity(ctx, s.activity, s.logger, ActivityEntry{
			ActorID:    SystemUserID,
			Action:     ActionCreated,
			EntityType: EntityProject,
			EntityID:   project.ID,
			Details:    fmt.Sprintf("Created project: %s", project.Name),
			Metadata:   map[string]interface{}{"source": "seed"},
		})
	}

	for _, name := range catalog.Topics {
		taken, err := s.topics.NameTaken(ctx, name)
		if err != nil {
			return result, storageError("topic.name_taken", err)
		}
		if taken {
			result.Skipped++
			continue
		}

		topic := models.Topic{Name: name}
		if err := s.topics.Create(ctx, &topic); err != nil {
			return result, storageError("topic.create", err)
		}
		result.TopicsCreated++
		recordActivity(ctx, s.activity, s.logger, ActivityEntry{
			ActorID:    SystemUserID,
			Action:     ActionCreated,
			EntityType: EntityTopic,
			EntityID:   topic.ID,
			Details:    fmt.Sprintf("Created topic: %s", topic.Name),
			Metadata:   map[string]interface{}{"source": "seed"},
		})
	}

	s.logger.Info().
		Int("projects", result.ProjectsCreated).
		Int("topics", result.TopicsCreated).
		Int("skipped", result.Skipped).
		Msg("catalog seeded")
	return result, nil
}

// normalizeCatalog trims names and drops blanks and duplicates.
func normalizeCatalog(catalog SeedCatalog) SeedCatalog {
	seen := map[string]struct{}{}
	projects := make([]SeedProject, 0, len(catalog.Projects))
	for _, item := range catalog.Projects {
		item.Name = strings.TrimSpace(item.Name)
		item.Description = strings.TrimSpace(item.Description)
		key := strings.ToLower(item.Name)
		if _, dup := seen[key]; dup || item.Name == "" {
			continue
		}
		seen[key] = struct{}{}
		projects = append(projects, item)
	}

	seen = map[string]struct{}{}
	topics := make([]string, 0, len(catalog.Topics))
	for _, name := range catalog.Topics {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup || name == "" {
			continue
		}
		seen[key] = struct{}{}
		topics = append(topics, name)
	}

	return SeedCatalog{Projects: projects, Topics: topics}
}
