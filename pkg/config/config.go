package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	OpenAI   OpenAIConfig
	Notion   NotionConfig
	Security SecurityConfig
	AuditDB  AuditDBConfig
	Logger   LoggerConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type NotionConfig struct {
	Token                  string
	TransactionsDatabaseID string
	ParentPageID           string
	BaseURL                string
	Version                string
	Timeout                time.Duration
}

type SecurityConfig struct {
	AuthToken          string // empty means authorization is disabled
	MaxFileSizeMB      int
	CORSOrigins        []string
	AllowedHosts       []string
	RateLimitPerMinute int
}

// AuditDBConfig configures the optional Postgres sink for security audit
// events. Persistence is enabled only when Host is set; otherwise audit
// events go to the log alone.
type AuditDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c AuditDBConfig) Enabled() bool {
	return c.Host != ""
}

type LoggerConfig struct {
	Level string
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}
	// No .env file is fine: plain environment variables are used directly
	// (Docker/K8s deployments).

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	openaiTimeout, _ := strconv.Atoi(getEnv("OPENAI_TIMEOUT", "120"))
	notionTimeout, _ := strconv.Atoi(getEnv("NOTION_TIMEOUT", "30"))
	maxFileSize, _ := strconv.Atoi(getEnv("MAX_FILE_SIZE_MB", "100"))
	rateLimit, _ := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "10"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8000"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-5"),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Timeout: time.Duration(openaiTimeout) * time.Second,
		},
		Notion: NotionConfig{
			Token:                  getEnv("NOTION_TOKEN", ""),
			TransactionsDatabaseID: getEnv("NOTION_TRANSACTIONS_DATABASE_ID", ""),
			ParentPageID:           getEnv("PAGE_ID", ""),
			BaseURL:                getEnv("NOTION_BASE_URL", "https://api.notion.com/v1"),
			Version:                getEnv("NOTION_VERSION", "2022-06-28"),
			Timeout:                time.Duration(notionTimeout) * time.Second,
		},
		Security: SecurityConfig{
			AuthToken:          getEnv("AUTH_TOKEN", ""),
			MaxFileSizeMB:      maxFileSize,
			CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "")),
			AllowedHosts:       splitList(getEnv("ALLOWED_HOSTS", "")),
			RateLimitPerMinute: rateLimit,
		},
		AuditDB: AuditDBConfig{
			Host:     getEnv("AUDIT_DB_HOST", ""),
			Port:     getEnv("AUDIT_DB_PORT", "5432"),
			User:     getEnv("AUDIT_DB_USER", "postgres"),
			Password: getEnv("AUDIT_DB_PASSWORD", "postgres"),
			DBName:   getEnv("AUDIT_DB_NAME", "receipt_scanner"),
			SSLMode:  getEnv("AUDIT_DB_SSLMODE", "disable"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
