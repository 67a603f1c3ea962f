package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string
	Env  string

	// OutputDir is the base directory for local builds.
	OutputDir string
	// TemplateDir holds the base project skeleton that every build copies.
	TemplateDir string
	// PublicRoot is the prototypes directory served over HTTP.
	PublicRoot string

	// Bundler selects the prototype bundling strategy: esbuild or
	// expo-export.
	Bundler       string
	ExportTimeout time.Duration

	Artifact ArtifactConfig
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

// fileConfig is the optional YAML overlay; flags and environment variables
// win over it.
type fileConfig struct {
	Port          string `yaml:"port"`
	Env           string `yaml:"env"`
	OutputDir     string `yaml:"output_dir"`
	TemplateDir   string `yaml:"template_dir"`
	PublicRoot    string `yaml:"public_root"`
	Bundler       string `yaml:"bundler"`
	ExportTimeout string `yaml:"export_timeout"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	configPath := flag.String("config", "", "optional YAML config file")
	if !flag.Parsed() {
		flag.Parse()
	}

	cfg := &Config{
		Port:          *port,
		Bundler:       "esbuild",
		OutputDir:     "output",
		TemplateDir:   "template",
		PublicRoot:    "public/prototypes",
		ExportTimeout: 5 * time.Minute,
	}

	if *configPath != "" {
		if err := applyFile(cfg, *configPath); err != nil {
			return nil, err
		}
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			cfg.Port = envPort
		} else {
			cfg.Port = ":" + envPort
		}
	}

	cfg.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	if cfg.Env == "" {
		cfg.Env = "local"
	}

	if v := strings.TrimSpace(os.Getenv("OUTPUT_DIR")); v != "" {
		cfg.OutputDir = v
	}
	if v := strings.TrimSpace(os.Getenv("TEMPLATE_DIR")); v != "" {
		cfg.TemplateDir = v
	}
	if v := strings.TrimSpace(os.Getenv("PUBLIC_ROOT")); v != "" {
		cfg.PublicRoot = v
	}
	if v := strings.TrimSpace(os.Getenv("BUNDLER")); v != "" {
		cfg.Bundler = v
	}
	if v := strings.TrimSpace(os.Getenv("EXPORT_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("EXPORT_TIMEOUT: %w", err)
		}
		cfg.ExportTimeout = d
	}

	switch cfg.Bundler {
	case "esbuild", "expo-export", "expo-dev-server":
	default:
		return nil, fmt.Errorf("unknown bundler %q (want esbuild, expo-export or expo-dev-server)", cfg.Bundler)
	}

	cfg.Artifact = loadArtifactConfig(cfg.Env)
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.Env != "" {
		cfg.Env = fc.Env
	}
	if fc.OutputDir != "" {
		cfg.OutputDir = fc.OutputDir
	}
	if fc.TemplateDir != "" {
		cfg.TemplateDir = fc.TemplateDir
	}
	if fc.PublicRoot != "" {
		cfg.PublicRoot = fc.PublicRoot
	}
	if fc.Bundler != "" {
		cfg.Bundler = fc.Bundler
	}
	if fc.ExportTimeout != "" {
		d, err := time.ParseDuration(fc.ExportTimeout)
		if err != nil {
			return fmt.Errorf("export_timeout: %w", err)
		}
		cfg.ExportTimeout = d
	}
	return nil
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "appforge-prototypes"),
		UseSSL:    resolveArtifactUseSSL(env),
	}
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
