package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	TelegramToken string  `json:"telegram_token" yaml:"telegram_token"`
	AdminIDs      []int64 `json:"admin_ids" yaml:"admin_ids"`
	StorageDir    string  `json:"storage_dir" yaml:"storage_dir"`
	UploadDir     string  `json:"upload_dir" yaml:"upload_dir"`
	DatabaseURL   string  `json:"database_url" yaml:"database_url"`
	// RetentionDays is only reported in reminders, archives are never removed.
	RetentionDays    int    `json:"retention_days" yaml:"retention_days"`
	ReminderInterval string `json:"reminder_interval" yaml:"reminder_interval"`
	Workers          int    `json:"workers" yaml:"workers"`

	StateBackend   string `json:"state_backend" yaml:"state_backend"`
	StateTTL       string `json:"state_ttl" yaml:"state_ttl"`
	StateCacheSize int    `json:"state_cache_size" yaml:"state_cache_size"`
	RedisAddr      string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword  string `json:"redis_password" yaml:"redis_password"`

	ArchiveBackend string `json:"archive_backend" yaml:"archive_backend"`
	MinioEndpoint  string `json:"minio_endpoint" yaml:"minio_endpoint"`
	MinioAccessKey string `json:"minio_access_key" yaml:"minio_access_key"`
	MinioSecretKey string `json:"minio_secret_key" yaml:"minio_secret_key"`
	MinioBucket    string `json:"minio_bucket" yaml:"minio_bucket"`
	MinioUseSSL    bool   `json:"minio_use_ssl" yaml:"minio_use_ssl"`

	ImapAddress        string `json:"imap_address" yaml:"imap_address"`
	ImapUsername       string `json:"imap_username" yaml:"imap_username"`
	ImapPassword       string `json:"imap_password" yaml:"imap_password"`
	EmailCheckInterval string `json:"email_check_interval" yaml:"email_check_interval"`

	MetricsAddress string `json:"metrics_address" yaml:"metrics_address"`
}

func defaultConfig() Config {
	return Config{
		TelegramToken:      os.Getenv("ACCOUNTS_BOT_TOKEN"),
		StorageDir:         os.Getenv("ACCOUNTS_BOT_STORAGE_DIR"),
		RetentionDays:      30,
		ReminderInterval:   "6h0m0s",
		Workers:            4,
		StateBackend:       "memory",
		StateTTL:           "0s",
		ArchiveBackend:     "local",
		EmailCheckInterval: "10m0s",
	}
}

func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// loadConfig reads the config file at path (ACCOUNTS_BOT_CONFIG_FILE or
// config.json when empty). A missing file is replaced with a default one and
// reported as an error so the operator can fill it in.
func loadConfig(path string) (Config, error) {
	if path == "" {
		path = os.Getenv("ACCOUNTS_BOT_CONFIG_FILE")
	}
	if path == "" {
		path = "config.json"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			writeDefaultConfig(path)
		}
		return Config{}, fmt.Errorf("read config %v: %w", path, err)
	}
	cfg := defaultConfig()
	if isYAMLPath(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config %v: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.fillDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func writeDefaultConfig(path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Printf("could not create default config file %v: %v", path, err)
		return
	}
	defer f.Close()
	cfg := defaultConfig()
	if isYAMLPath(path) {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		err = enc.Encode(cfg)
	} else {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(cfg)
	}
	if err != nil {
		log.Printf("could not write default config file %v: %v", path, err)
		return
	}
	log.Printf("created default config file %v", path)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ACCOUNTS_BOT_TOKEN"); v != "" {
		c.TelegramToken = v
	}
	if v := os.Getenv("ACCOUNTS_BOT_STORAGE_DIR"); v != "" {
		c.StorageDir = v
	}
	if v := os.Getenv("ACCOUNTS_BOT_DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("ACCOUNTS_BOT_ADMIN_IDS"); v != "" {
		ids, err := parseAdminIDs(v)
		if err != nil {
			return err
		}
		c.AdminIDs = ids
	}
	return nil
}

// parseAdminIDs parses a comma separated list of Telegram user ids.
func parseAdminIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Config) fillDefaults() {
	if c.StorageDir == "" {
		c.StorageDir = "data"
	}
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join(c.StorageDir, "uploads")
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.StateBackend == "" {
		c.StateBackend = "memory"
	}
	if c.ArchiveBackend == "" {
		c.ArchiveBackend = "local"
	}
	if c.MinioBucket == "" {
		c.MinioBucket = "accounts"
	}
}

func (c Config) validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("telegram_token (or ACCOUNTS_BOT_TOKEN) is not set")
	}
	if len(c.AdminIDs) == 0 {
		log.Printf("warning: no admin_ids configured, the admin panel will be unreachable")
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("invalid retention_days: %d", c.RetentionDays)
	}
	for name, value := range map[string]string{
		"reminder_interval":    c.ReminderInterval,
		"state_ttl":            c.StateTTL,
		"email_check_interval": c.EmailCheckInterval,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %v: %w", name, err)
		}
	}
	switch c.StateBackend {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("state_backend is redis but redis_addr is not set")
		}
	default:
		return fmt.Errorf("unknown state_backend %q", c.StateBackend)
	}
	switch c.ArchiveBackend {
	case "local":
	case "minio":
		if c.MinioEndpoint == "" {
			return fmt.Errorf("archive_backend is minio but minio_endpoint is not set")
		}
	default:
		return fmt.Errorf("unknown archive_backend %q", c.ArchiveBackend)
	}
	return nil
}

// duration parses a config duration, falling back when the value is empty.
func duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
