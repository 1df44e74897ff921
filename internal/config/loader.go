package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/example/chamada/internal/persistence"
)

var supportedDrivers = map[string]bool{"sqlite": true, "postgres": true, "fs": true, "memory": true, "s3": true}

// Config captures environment driven configuration values for the chamada service.
type Config struct {
	HTTPPort int

	StoreDriver string
	SQLiteDSN   string
	PostgresDSN string
	FSRoot      string
	S3          S3Config
	SnapshotKey string

	Locale    language.Tag
	LogLevel  string
	LogFormat string
}

// S3Config holds the object storage settings used when StoreDriver is "s3".
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	Prefix    string
	PathStyle bool
}

// LoadDotEnv seeds the process environment from the given .env files.
// Variables already present in the environment win. Missing files are
// ignored so a bare checkout still starts with defaults.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("falha ao carregar .env: %w", err)
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional values fall back to defaults; required values that depend on the
// selected driver are reported together with any unparsable entries.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:    8080,
		StoreDriver: "sqlite",
		SQLiteDSN:   "chamada.db",
		FSRoot:      "./data",
		S3:          S3Config{Region: "us-east-1"},
		SnapshotKey: persistence.DefaultSnapshotKey,
		Locale:      language.BrazilianPortuguese,
		LogLevel:    "info",
		LogFormat:   "json",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := env("CHAMADA_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "CHAMADA_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if driver := strings.ToLower(env("CHAMADA_STORE_DRIVER")); driver != "" {
		if !supportedDrivers[driver] {
			invalid = append(invalid, "CHAMADA_STORE_DRIVER")
		} else {
			cfg.StoreDriver = driver
		}
	}

	if dsn := env("CHAMADA_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	cfg.PostgresDSN = env("CHAMADA_POSTGRES_DSN")
	if cfg.StoreDriver == "postgres" && cfg.PostgresDSN == "" {
		missing = append(missing, "CHAMADA_POSTGRES_DSN")
	}
	if root := env("CHAMADA_FS_ROOT"); root != "" {
		cfg.FSRoot = root
	}

	cfg.S3.Bucket = env("CHAMADA_S3_BUCKET")
	if cfg.StoreDriver == "s3" && cfg.S3.Bucket == "" {
		missing = append(missing, "CHAMADA_S3_BUCKET")
	}
	if region := env("CHAMADA_S3_REGION"); region != "" {
		cfg.S3.Region = region
	}
	cfg.S3.Endpoint = env("CHAMADA_S3_ENDPOINT")
	cfg.S3.Prefix = env("CHAMADA_S3_PREFIX")
	if pathStyle := env("CHAMADA_S3_PATH_STYLE"); pathStyle != "" {
		value, err := strconv.ParseBool(pathStyle)
		if err != nil {
			invalid = append(invalid, "CHAMADA_S3_PATH_STYLE")
		} else {
			cfg.S3.PathStyle = value
		}
	}

	if key := env("CHAMADA_SNAPSHOT_KEY"); key != "" {
		cfg.SnapshotKey = key
	}

	if locale := env("CHAMADA_LOCALE"); locale != "" {
		tag, err := language.Parse(locale)
		if err != nil {
			invalid = append(invalid, "CHAMADA_LOCALE")
		} else {
			cfg.Locale = tag
		}
	}

	if level := strings.ToLower(env("CHAMADA_LOG_LEVEL")); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, "CHAMADA_LOG_LEVEL")
		}
	}
	if format := strings.ToLower(env("CHAMADA_LOG_FORMAT")); format != "" {
		switch format {
		case "json", "text":
			cfg.LogFormat = format
		default:
			invalid = append(invalid, "CHAMADA_LOG_FORMAT")
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("variáveis de ambiente obrigatórias ausentes: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valores inválidos nas variáveis de ambiente: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
