package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/scriptdesk-api/internal/repository"
	"github.com/noah-isme/scriptdesk-api/internal/service"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load projects and topics from a YAML catalog",
	Long: `Load projects and topics from a YAML catalog. Existing names are skipped,
so the command can be re-run safely.

Catalog format:
  projects:
    - name: Morning Show
      description: Weekday breakfast programme
  topics:
    - Culture
    - Traffic`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "catalog file, '-' for stdin")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	var input io.Reader = cmd.InOrStdin()
	if seedFile != "-" {
		f, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer f.Close()
		input = f
	}

	db, cfg, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	result, err := seedCatalog(cmd.Context(), db, input, newLogger(cfg))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "projects created: %d\ntopics created:   %d\nskipped:          %d\n",
		result.ProjectsCreated, result.TopicsCreated, result.Skipped)
	return nil
}

func seedCatalog(ctx context.Context, db *gorm.DB, input io.Reader, logger zerolog.Logger) (service.SeedResult, error) {
	catalog, err := service.ParseSeedCatalog(input)
	if err != nil {
		return service.SeedResult{}, err
	}

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), 0, logger)
	seeder := service.NewSeedService(
		repository.NewProjectRepository(db),
		repository.NewTopicRepository(db),
		repository.NewUserRepository(db),
		activity,
		logger,
	)
	return seeder.Seed(ctx, catalog)
}
