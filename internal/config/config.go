package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Auth      AuthConfig      `yaml:"auth"`
	AI        AIConfig        `yaml:"ai"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Storage   StorageConfig   `yaml:"storage"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Outbox    OutboxConfig    `yaml:"outbox"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	Mode string `yaml:"mode"` // gin 模式：debug / release / test
}

type MySQLConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"` // 变更通知频道前缀
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Audience  string `yaml:"audience"`
}

type AIConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type SMTPConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	From         string `yaml:"from"`
	SupportInbox string `yaml:"support_inbox"`
}

type StorageConfig struct {
	Bucket          string `yaml:"bucket"`
	PublicBaseURL   string `yaml:"public_base_url"`
	CredentialsFile string `yaml:"credentials_file"`
	EmulatorHost    string `yaml:"emulator_host"`
}

type WalletConfig struct {
	MinWithdrawalCents int64 `yaml:"min_withdrawal_cents"`
}

type OutboxConfig struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
	MaxRetry  int           `yaml:"max_retry"`
}

type ReconcileConfig struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
}

type LogConfig struct {
	Mode string `yaml:"mode"` // dev / prod
}

func Default() *Config {
	return &Config{
		Server:    ServerConfig{Addr: ":8080", Mode: "release"},
		MySQL:     MySQLConfig{MaxOpenConns: 20, MaxIdleConns: 5},
		Redis:     RedisConfig{Addr: "127.0.0.1:6379", Channel: "mentor:changes"},
		Kafka:     KafkaConfig{Topic: "ledger-events"},
		Auth:      AuthConfig{Audience: "authenticated"},
		AI:        AIConfig{BaseURL: "https://openrouter.ai/api/v1", Model: "deepseek/deepseek-chat-v3.1:free", Timeout: 60 * time.Second},
		SMTP:      SMTPConfig{Port: 587},
		Wallet:    WalletConfig{MinWithdrawalCents: 1000},
		Outbox:    OutboxConfig{Interval: time.Second, BatchSize: 200, MaxRetry: 10},
		Reconcile: ReconcileConfig{Interval: 5 * time.Minute, BatchSize: 500},
		Log:       LogConfig{Mode: "prod"},
	}
}

// Load 默认值 -> yaml 文件（可选）-> 环境变量，最后统一校验
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}

	str("MENTOR_HTTP_ADDR", &c.Server.Addr)
	str("MENTOR_GIN_MODE", &c.Server.Mode)
	str("MENTOR_MYSQL_DSN", &c.MySQL.DSN)
	str("MENTOR_REDIS_ADDR", &c.Redis.Addr)
	str("MENTOR_REDIS_PASSWORD", &c.Redis.Password)
	num("MENTOR_REDIS_DB", &c.Redis.DB)
	if v := strings.TrimSpace(getenv("MENTOR_KAFKA_BROKERS")); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	str("MENTOR_KAFKA_TOPIC", &c.Kafka.Topic)
	str("MENTOR_JWT_SECRET", &c.Auth.JWTSecret)
	str("OPENROUTER_API_KEY", &c.AI.APIKey)
	str("MENTOR_AI_MODEL", &c.AI.Model)
	str("MENTOR_SMTP_HOST", &c.SMTP.Host)
	num("MENTOR_SMTP_PORT", &c.SMTP.Port)
	str("MENTOR_SMTP_USERNAME", &c.SMTP.Username)
	str("MENTOR_SMTP_PASSWORD", &c.SMTP.Password)
	str("MENTOR_SMTP_FROM", &c.SMTP.From)
	str("MENTOR_SUPPORT_INBOX", &c.SMTP.SupportInbox)
	str("MENTOR_AVATAR_BUCKET", &c.Storage.Bucket)
	str("MENTOR_AVATAR_PUBLIC_URL", &c.Storage.PublicBaseURL)
	str("GOOGLE_APPLICATION_CREDENTIALS", &c.Storage.CredentialsFile)
	str("STORAGE_EMULATOR_HOST", &c.Storage.EmulatorHost)
	str("MENTOR_LOG_MODE", &c.Log.Mode)
	return errors.Join(errs...)
}

// Validate 收集全部问题一次返回
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr cannot be empty"))
	}
	if c.MySQL.DSN == "" {
		errs = append(errs, errors.New("mysql.dsn cannot be empty"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr cannot be empty"))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic cannot be empty when brokers are set"))
	}
	if c.SMTP.Host != "" && c.SMTP.SupportInbox == "" {
		errs = append(errs, errors.New("smtp.support_inbox cannot be empty when smtp.host is set"))
	}
	if c.Wallet.MinWithdrawalCents <= 0 {
		errs = append(errs, errors.New("wallet.min_withdrawal_cents must be greater than 0"))
	}
	if c.Outbox.Interval <= 0 || c.Outbox.BatchSize <= 0 || c.Outbox.MaxRetry <= 0 {
		errs = append(errs, errors.New("outbox.interval, batch_size and max_retry must be greater than 0"))
	}
	if c.Reconcile.Interval <= 0 || c.Reconcile.BatchSize <= 0 {
		errs = append(errs, errors.New("reconcile.interval and batch_size must be greater than 0"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
