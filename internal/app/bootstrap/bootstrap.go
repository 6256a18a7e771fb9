// Package bootstrap wires the platform clients, repositories and services
// shared by the server, worker and judgectl binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tle_judge/internal/api"
	"tle_judge/internal/app/service"
	"tle_judge/internal/app/worker"
	"tle_judge/internal/common/security"
	"tle_judge/internal/domain/repository"
	"tle_judge/internal/platform/config"
	"tle_judge/internal/platform/database"
	"tle_judge/internal/platform/judge0"
	"tle_judge/internal/platform/logger"
	"tle_judge/internal/platform/queue"
)

type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *sql.DB
	Redis  *redis.Client
	Tokens *security.TokenIssuer

	Queue       *service.EvaluationQueue
	Evaluation  *service.EvaluationService
	Auth        *service.AuthService
	Problems    *service.ProblemService
	Submissions *service.SubmissionService
	Contests    *service.ContestService
	Languages   *service.LanguageService
	Admin       *service.AdminService
}

// NewLogger builds the process logger from the loaded configuration and
// installs it as zap's global logger.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputPath: cfg.LogOutput,
	})
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return log, nil
}

// New connects to Postgres and Redis and builds every service.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.Connect(ctx, cfg.DBConnStr)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	rdb, err := queue.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	userRepo := repository.NewPgUserRepository(db)
	problemRepo := repository.NewPgProblemRepository(db)
	submissionRepo := repository.NewPgSubmissionRepository(db)
	contestRepo := repository.NewPgContestRepository(db)

	judge := judge0.NewClient(cfg.Judge0URL, cfg.Judge0AuthToken, cfg.Judge0Timeout, log)
	tokens := security.NewTokenIssuer(cfg.JWTKey, cfg.JWTExp)
	evalQueue := service.NewEvaluationQueue(rdb, cfg.EvaluationQueueName, log)

	return &App{
		Config: cfg,
		Log:    log,
		DB:     db,
		Redis:  rdb,
		Tokens: tokens,

		Queue: evalQueue,
		Evaluation: service.NewEvaluationService(submissionRepo, problemRepo, judge, service.EvaluationOptions{
			AcceptedStatusID:   cfg.Judge0AcceptedStatusID,
			Concurrency:        cfg.EvaluationBatchConcurrency,
			StopOnFirstFailure: cfg.EvaluationStopOnFirstFailure,
		}, log),
		Auth:        service.NewAuthService(userRepo, tokens, log),
		Problems:    service.NewProblemService(problemRepo, db, log),
		Submissions: service.NewSubmissionService(submissionRepo, problemRepo, evalQueue, log),
		Contests:    service.NewContestService(contestRepo, problemRepo, submissionRepo, db, log),
		Languages:   service.NewLanguageService(judge, rdb, cfg.LanguageCacheKey, cfg.LanguageCacheTTL, log),
		Admin:       service.NewAdminService(repository.NewPgStatsRepository(db), evalQueue, log),
	}, nil
}

// Migrate applies the embedded schema.
func (a *App) Migrate(ctx context.Context) error {
	return database.Migrate(ctx, a.DB)
}

func (a *App) Router() http.Handler {
	return api.NewRouter(api.Services{
		Auth:        a.Auth,
		Problems:    a.Problems,
		Submissions: a.Submissions,
		Contests:    a.Contests,
		Languages:   a.Languages,
		Admin:       a.Admin,
	}, a.Tokens.Auth, a.Config.CORSAllowedOrigins, a.Log)
}

func (a *App) Worker() *worker.EvaluationWorker {
	return worker.NewEvaluationWorker(a.Redis, a.Evaluation, worker.Options{
		Queue:      a.Config.EvaluationQueueName,
		LockPrefix: a.Config.EvaluationLockPrefix,
		LockTTL:    a.Config.EvaluationLockTTL,
		Workers:    a.Config.EvaluationWorkers,
	}, a.Log)
}

func (a *App) Close() {
	if err := a.Redis.Close(); err != nil {
		a.Log.Warn("failed to close redis", zap.Error(err))
	}
	if err := a.DB.Close(); err != nil {
		a.Log.Warn("failed to close database", zap.Error(err))
	}
	_ = a.Log.Sync()
}
