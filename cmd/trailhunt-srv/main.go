package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/trailhunt-games/trailhunt/internal/cache/cachelru"
	"github.com/trailhunt-games/trailhunt/internal/database"
	snapDb "github.com/trailhunt-games/trailhunt/internal/database/snapshot/database"
	"github.com/trailhunt-games/trailhunt/internal/logging"
	"github.com/trailhunt-games/trailhunt/internal/questions"
	"github.com/trailhunt-games/trailhunt/internal/shutdown"
	"github.com/trailhunt-games/trailhunt/internal/trailhunt"
	"github.com/trailhunt-games/trailhunt/internal/trailhunt/resource"
)

func main() {
	_, _ = fmt.Fprintf(os.Stdout, "%s v%s\n", resource.ProjectName, resource.ProjectVersion)

	ctx, done := shutdown.New()
	defer done()
	logger := logging.FromContext(ctx)
	if err := realMain(ctx); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	config := trailhunt.Config{}
	if err := envconfig.Process("", &config); err != nil {
		logger.Fatalf("processing the config: %v", err)
	}

	if config.Debug {
		ctx = logging.WithLogger(ctx, logging.NewLogger(true))
	}

	db, err := database.NewFromEnv(ctx, &config.Db)
	if err != nil {
		return fmt.Errorf("new database from env: %w", err)
	}

	defer db.Close(ctx)

	topicCache, err := cachelru.NewLRU(config.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create lru cache: %w", err)
	}

	source := questions.NewSource(questions.Config{
		Endpoint: config.QuestionsEndpoint,
		APIKey:   config.QuestionsAPIKey,
		Model:    config.QuestionsModel,
	}, topicCache)

	manager := trailhunt.NewManager(&config, snapDb.New(db), source)
	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	return nil
}
