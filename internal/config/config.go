package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir      string `json:"dataDir"`
	OutputDir    string `json:"outputDir"`
	StoreBackend string `json:"storeBackend"`
	DBPath       string `json:"dbPath"`
	PostgresDSN  string `json:"postgresDsn"`

	SearchAPIURL   string   `json:"searchApiUrl"`
	SearchSiteCode string   `json:"searchSiteCode"`
	SearchQuery    string   `json:"searchQuery"`
	SearchPageSize int      `json:"searchPageSize"`
	TitleKeywords  []string `json:"titleKeywords"`

	HTTPTimeoutMs    int    `json:"httpTimeoutMs"`
	HTTPAttempts     int    `json:"httpAttempts"`
	HTTPRateLimitRPS int    `json:"httpRateLimitRps"`
	UserAgent        string `json:"userAgent"`

	LogLevel  string `json:"logLevel"`
	LogFormat string `json:"logFormat"`

	WatchIntervalSec int  `json:"watchIntervalSec"`
	WatchAutoExport  bool `json:"watchAutoExport"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}
	dataDir := getEnv("DATA_DIR", filepath.Join(cwd, "data"))

	cfg := Config{
		DataDir:      dataDir,
		OutputDir:    getEnv("OUTPUT_DIR", filepath.Join(cwd, "docs")),
		StoreBackend: getEnv("STORE_BACKEND", "files"),
		DBPath:       getEnv("DB_PATH", filepath.Join(dataDir, "housingprice.db")),
		PostgresDSN:  getEnv("POSTGRES_DSN", ""),

		SearchAPIURL:   getEnv("SEARCH_API_URL", "https://api.so-gov.cn/query/s"),
		SearchSiteCode: getEnv("SEARCH_SITE_CODE", "bm36000002"),
		SearchQuery:    getEnv("SEARCH_QUERY", "70个大中城市商品住宅销售价格变动"),
		SearchPageSize: getEnvInt("SEARCH_PAGE_SIZE", 50),
		TitleKeywords:  getEnvList("TITLE_KEYWORDS", []string{"70个大中城市", "商品住宅销售价格变动"}),

		HTTPTimeoutMs:    getEnvInt("HTTP_TIMEOUT_MS", 30000),
		HTTPAttempts:     getEnvInt("HTTP_ATTEMPTS", 3),
		HTTPRateLimitRPS: getEnvInt("HTTP_RATE_LIMIT_RPS", 2),
		UserAgent:        getEnv("USER_AGENT", "Mozilla/5.0"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 6*60*60),
		WatchAutoExport:  getEnvBool("WATCH_AUTO_EXPORT", true),
	}

	if err := applyFileOverrides(&cfg, getEnv("CONFIG_FILE", filepath.Join(cwd, "housingprice.json5"))); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) RawDir() string {
	return filepath.Join(c.DataDir, "raw")
}

func (c Config) ProcessedDir() string {
	return filepath.Join(c.DataDir, "processed")
}

func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMs) * time.Millisecond
}

func (c Config) WatchInterval() time.Duration {
	return time.Duration(c.WatchIntervalSec) * time.Second
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required setting: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
