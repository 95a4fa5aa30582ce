package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the reservation service.
type Config struct {
	HTTPPort       int
	DBDriver       string
	DBDSN          string
	SessionSecret  string
	SessionTTL     time.Duration
	Location       *time.Location
	LogLevel       string
	LogFormat      string
	RateLimitRPM   int
	RateLimitBurst int
	AdminUsername  string
	AdminPassword  string
}

// Load reads an optional .env file from the working directory and then
// parses the process environment. Variables that are already set take
// precedence over the file.
func Load() (Config, error) {
	return LoadFiles(".env")
}

// LoadFiles behaves like Load but reads the given dotenv files. Missing files
// are ignored.
func LoadFiles(files ...string) (Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("設定ファイルを読み込めません (%s): %w", file, err)
		}
	}
	return parse(os.Getenv)
}

func parse(getenv func(string) string) (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		DBDriver:       "sqlite",
		DBDSN:          "file:reservation.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		SessionTTL:     24 * time.Hour,
		Location:       time.UTC,
		LogLevel:       "info",
		LogFormat:      "json",
		RateLimitRPM:   120,
		RateLimitBurst: 20,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	value := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	if portValue := value("RESERVATION_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "RESERVATION_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if driver := strings.ToLower(value("RESERVATION_DB_DRIVER")); driver != "" {
		switch driver {
		case "sqlite", "pgx":
			cfg.DBDriver = driver
		case "postgres", "postgresql":
			cfg.DBDriver = "pgx"
		default:
			invalid = append(invalid, "RESERVATION_DB_DRIVER")
		}
	}

	if dsn := value("RESERVATION_DB_DSN"); dsn != "" {
		cfg.DBDSN = dsn
	} else if cfg.DBDriver == "pgx" {
		missing = append(missing, "RESERVATION_DB_DSN")
	}

	if secret := value("RESERVATION_SESSION_SECRET"); secret == "" {
		missing = append(missing, "RESERVATION_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := value("RESERVATION_SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "RESERVATION_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if tz := value("RESERVATION_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "RESERVATION_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if level := strings.ToLower(value("RESERVATION_LOG_LEVEL")); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, "RESERVATION_LOG_LEVEL")
		}
	}

	if format := strings.ToLower(value("RESERVATION_LOG_FORMAT")); format != "" {
		if format != "json" && format != "text" {
			invalid = append(invalid, "RESERVATION_LOG_FORMAT")
		} else {
			cfg.LogFormat = format
		}
	}

	if rpmValue := value("RESERVATION_RATE_LIMIT_RPM"); rpmValue != "" {
		rpm, err := strconv.Atoi(rpmValue)
		if err != nil || rpm < 0 {
			invalid = append(invalid, "RESERVATION_RATE_LIMIT_RPM")
		} else {
			cfg.RateLimitRPM = rpm
		}
	}

	if burstValue := value("RESERVATION_RATE_LIMIT_BURST"); burstValue != "" {
		burst, err := strconv.Atoi(burstValue)
		if err != nil || burst <= 0 {
			invalid = append(invalid, "RESERVATION_RATE_LIMIT_BURST")
		} else {
			cfg.RateLimitBurst = burst
		}
	}

	// The bootstrap administrator is optional but needs both values.
	cfg.AdminUsername = value("RESERVATION_ADMIN_USERNAME")
	cfg.AdminPassword = getenv("RESERVATION_ADMIN_PASSWORD")
	if (cfg.AdminUsername == "") != (cfg.AdminPassword == "") {
		if cfg.AdminUsername == "" {
			missing = append(missing, "RESERVATION_ADMIN_USERNAME")
		} else {
			missing = append(missing, "RESERVATION_ADMIN_PASSWORD")
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
