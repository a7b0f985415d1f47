package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string

	LLMProvider    string
	OllamaBaseURL  string
	OllamaModel    string
	HFAPIKey       string
	HFModelURL     string
	LLMMaxTokens   int
	LLMTemperature float64

	AnalysisMaxAttempts    int
	AnalysisAttemptTimeout time.Duration
	AnalysisBackoffBase    time.Duration
	AnalysisBackoffCap     time.Duration
	DeliveryTimeout        time.Duration
	JobBudget              time.Duration
	WorkerPoolSize         int

	MailTransport string
	SenderEmail   string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SESRegion     string

	ArtifactDir string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "")),
		Env:             env,
		DatabaseURL:     dbURL,

		LLMProvider:    normalizeProvider(getEnv("LLM_PROVIDER", "ollama")),
		OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "llama3"),
		HFAPIKey:       getEnv("HF_API_KEY", ""),
		HFModelURL:     getEnv("HF_MODEL_URL", ""),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.1),

		AnalysisMaxAttempts:    getEnvInt("ANALYSIS_MAX_ATTEMPTS", 3),
		AnalysisAttemptTimeout: getEnvDuration("ANALYSIS_ATTEMPT_TIMEOUT", 30*time.Second),
		AnalysisBackoffBase:    getEnvDuration("ANALYSIS_BACKOFF_BASE", time.Second),
		AnalysisBackoffCap:     getEnvDuration("ANALYSIS_BACKOFF_CAP", 8*time.Second),
		DeliveryTimeout:        getEnvDuration("DELIVERY_TIMEOUT", 15*time.Second),
		JobBudget:              getEnvDuration("JOB_BUDGET", 2*time.Minute),
		WorkerPoolSize:         getEnvInt("WORKER_POOL_SIZE", 4),

		MailTransport: normalizeMailTransport(getEnv("MAIL_TRANSPORT", "smtp")),
		SenderEmail:   getEnv("SENDER_EMAIL", ""),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getEnvInt("SMTP_PORT", 465),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SESRegion:     getEnv("SES_REGION", "us-east-1"),

		ArtifactDir: getEnv("ARTIFACT_DIR", "./data/reports"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int %q, using default", key, raw)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: %s invalid float %q, using default", key, raw)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config: %s invalid duration %q, using default", key, raw)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "huggingface", "hf":
		return "huggingface"
	case "ollama":
		return "ollama"
	default:
		return "ollama"
	}
}

func normalizeMailTransport(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ses":
		return "ses"
	case "log":
		return "log"
	default:
		return "smtp"
	}
}
