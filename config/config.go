package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Paths     PathsConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Inventory InventoryConfig
	Supplier  SupplierConfig
	Observ    ObservabilityConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type PathsConfig struct {
	// UserConfigDir holds the editable mapping tables; TemplatesDir is the
	// pristine set copied in on first run.
	UserConfigDir string
	TemplatesDir  string
	DownloadDir   string
}

type CacheConfig struct {
	// Backend is "file" or "redis".
	Backend   string
	Dir       string
	ValidDays int
	TestMode  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	// Empty Brokers disables event publishing.
	Brokers []string
	Topic   string
}

type InventoryConfig struct {
	// Env selects which inventree_<env>.yaml credentials file is used.
	Env                   string
	URL                   string
	Token                 string
	ConnectTimeoutSeconds int
}

type SupplierConfig struct {
	TimeoutSeconds int
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheDays, _ := strconv.Atoi(getEnv("PARTFLOW_CACHE_VALID_DAYS", "7"))
	supplierTimeout, _ := strconv.Atoi(getEnv("SUPPLIER_TIMEOUT_SECONDS", "20"))
	connectTimeout, _ := strconv.Atoi(getEnv("INVENTREE_CONNECT_TIMEOUT_SECONDS", "5"))

	home, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(home, ".config", "partflow")

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Paths: PathsConfig{
			UserConfigDir: getEnv("PARTFLOW_CONFIG_DIR", defaultRoot),
			TemplatesDir:  getEnv("PARTFLOW_TEMPLATES_DIR", "templates"),
			DownloadDir:   getEnv("PARTFLOW_DOWNLOAD_DIR", filepath.Join(defaultRoot, "downloads")),
		},
		Cache: CacheConfig{
			Backend:   getEnv("PARTFLOW_CACHE_BACKEND", "file"),
			Dir:       getEnv("PARTFLOW_CACHE_DIR", filepath.Join(defaultRoot, "cache")),
			ValidDays: cacheDays,
			TestMode:  getEnv("PARTFLOW_TEST_MODE", "") == "1",
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC_PART_EVENTS", "part-events"),
		},
		Inventory: InventoryConfig{
			Env:                   getEnv("INVENTREE_ENV", "testing"),
			URL:                   getEnv("INVENTREE_URL", ""),
			Token:                 getEnv("INVENTREE_TOKEN", ""),
			ConnectTimeoutSeconds: connectTimeout,
		},
		Supplier: SupplierConfig{
			TimeoutSeconds: supplierTimeout,
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
		},
	}

	log.Printf("Config loaded: env=%s, inventree_env=%s", cfg.Server.Env, cfg.Inventory.Env)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitNonEmpty(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
