package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	// WorkspaceDir is the parent of per-run workspaces and clones.
	WorkspaceDir string
	// PersistWorkspace keeps clone and execution directories after a request.
	PersistWorkspace bool

	DatabaseURL string
	Artifact    ArtifactConfig
	LLM         LLMConfig
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CanUseS3 reports whether enough is configured to talk to S3/MinIO.
func (a ArtifactConfig) CanUseS3() bool {
	return a.Enabled &&
		strings.TrimSpace(a.Endpoint) != "" &&
		strings.TrimSpace(a.AccessKey) != "" &&
		strings.TrimSpace(a.SecretKey) != "" &&
		strings.TrimSpace(a.Bucket) != ""
}

type LLMConfig struct {
	APIKey string
	Model  string
	RPS    float64
	Burst  int
}

// Load reads .env (if present) and the process environment. It never parses
// command-line flags; callers override fields afterwards.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local")
	return &Config{
		Port:             NormalizePort(firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), ":8081")),
		Env:              env,
		WorkspaceDir:     firstNonEmpty(strings.TrimSpace(os.Getenv("WORKSPACE_DIR")), "tmp/workspaces"),
		PersistWorkspace: strings.TrimSpace(os.Getenv("AGENT_PERSIST_WORKSPACE")) == "1",
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Artifact:         loadArtifactConfig(env),
		LLM:              loadLLMConfig(),
	}, nil
}

// NormalizePort turns "8081" into ":8081" and leaves host:port untouched.
func NormalizePort(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || strings.Contains(p, ":") {
		return p
	}
	return ":" + p
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "bootstrapper-artifacts"),
		UseSSL:    resolveArtifactUseSSL(env),
	}
}

func resolveArtifactEndpoint(env string) string {
	if isLocal(env) {
		return firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT")), strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT")))
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if isLocal(env) {
		return false
	}
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL")))
	if err != nil {
		return true
	}
	return v
}

func loadLLMConfig() LLMConfig {
	cfg := LLMConfig{
		APIKey: firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))),
		Model:  firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_MODEL")), "gemini-2.5-flash"),
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv("LLM_RPS")), 64); err == nil {
		cfg.RPS = f
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("LLM_BURST"))); err == nil {
		cfg.Burst = n
	}
	return cfg
}

func isLocal(env string) bool { return strings.EqualFold(strings.TrimSpace(env), "local") }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
