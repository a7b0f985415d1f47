package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"audit-backend/internal/audits"
	"audit-backend/internal/llm"
	"audit-backend/internal/llm/huggingface"
	"audit-backend/internal/llm/ollama"
	"audit-backend/internal/mailer"
	"audit-backend/internal/queue"
	"audit-backend/internal/report"
	"audit-backend/internal/shared/config"
	"audit-backend/internal/shared/server"
	"audit-backend/internal/shared/storage/db"
	"audit-backend/internal/workerpool"
)

// App holds shared dependencies.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	DB           *sql.DB
	Repo         audits.Repo
	Queue        queue.Client
	Pool         *workerpool.Pool
	AuditService *audits.Service
	AuditHandler *audits.Handler
	JobProcessor JobProcessor
}

// JobProcessor allows callers to override job processing for tests.
type JobProcessor interface {
	ProcessJob(ctx context.Context, jobID string) error
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo audits.Repo
	if sqlDB != nil {
		repo = &audits.PGRepo{DB: sqlDB}
	} else {
		repo = audits.NewMemoryRepo()
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	transport, err := buildMailTransport(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	pool := workerpool.New(cfg.WorkerPoolSize)

	svc := &audits.Service{
		Repo:     repo,
		LLM:      llmClient,
		Renderer: &report.PDFBuilder{Dir: cfg.ArtifactDir},
		Mail:     transport,
		Pool:     pool,
		Queue:    queueClient,

		SenderAddress: cfg.SenderEmail,
		Retry: audits.RetryPolicy{
			MaxAttempts:    cfg.AnalysisMaxAttempts,
			BaseDelay:      cfg.AnalysisBackoffBase,
			MaxDelay:       cfg.AnalysisBackoffCap,
			AttemptTimeout: cfg.AnalysisAttemptTimeout,
		},
		LLMMaxTokens:    cfg.LLMMaxTokens,
		LLMTemperature:  cfg.LLMTemperature,
		DeliveryTimeout: cfg.DeliveryTimeout,
		JobBudget:       cfg.JobBudget,
	}

	app := &App{
		Config:       cfg,
		DB:           sqlDB,
		Repo:         repo,
		Queue:        queueClient,
		Pool:         pool,
		AuditService: svc,
		AuditHandler: audits.NewHandler(svc),
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:       cfg,
		AuditHandler: app.AuditHandler,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Printf("bootstrap: DATABASE_URL empty; using in-memory job journal")
		return nil, nil
	}
	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed, falling back to memory: %v", err)
			return nil, nil
		}
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed, falling back to memory: %v", err)
			return nil, nil
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "huggingface":
		client, err := huggingface.NewClient(cfg.HFAPIKey, cfg.HFModelURL)
		if err != nil {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: huggingface client unavailable, using placeholder: %v", err)
				return llm.PlaceholderClient{}, nil
			}
			return nil, err
		}
		return client, nil
	default:
		client, err := ollama.NewClient(cfg.OllamaBaseURL, cfg.OllamaModel)
		if err != nil {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: ollama client unavailable, using placeholder: %v", err)
				return llm.PlaceholderClient{}, nil
			}
			return nil, err
		}
		return client, nil
	}
}

func buildMailTransport(ctx context.Context, cfg config.Config) (mailer.Transport, error) {
	switch cfg.MailTransport {
	case "ses":
		return mailer.NewSESTransport(ctx, cfg.SESRegion)
	case "log":
		return mailer.LogTransport{}, nil
	default:
		if cfg.SenderEmail == "" || cfg.SMTPPassword == "" {
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: mail credentials not configured; using log transport")
				return mailer.LogTransport{}, nil
			}
			return nil, fmt.Errorf("SENDER_EMAIL and SMTP_PASSWORD are required for SMTP transport")
		}
		return mailer.SMTPTransport{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: smtpUsername(cfg),
			Password: cfg.SMTPPassword,
		}, nil
	}
}

func smtpUsername(cfg config.Config) string {
	if cfg.SMTPUsername != "" {
		return cfg.SMTPUsername
	}
	return cfg.SenderEmail
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("AUDIT_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	client, err := queue.NewSQSClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("build sqs client: %w", err)
	}
	return client, nil
}

func isDevLike(env string) bool {
	switch env {
	case "dev", "local", "staging":
		return true
	}
	return false
}
