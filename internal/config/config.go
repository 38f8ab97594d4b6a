package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Config vitalsync（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	APIKey    string
	DBEnabled bool
	Database  DatabaseConfig
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.APIKey = getEnv("API_KEY", "")

	// Default to true for local dev: if DB is unavailable, vitalsync falls back to
	// in-memory repositories (uniqueness still enforced, data not durable).
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "vitalsync")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

// AgentConfig vitalsync-agent（设备侧同步代理）配置
type AgentConfig struct {
	ServerURL    string
	APIKey       string
	CursorPath   string
	SpoolPath    string
	SourceDevice string
	SyncInterval time.Duration
	Device       struct {
		Model      string
		OSVersion  string
		AppVersion string
	}
	MQTT struct {
		Enabled  bool
		Broker   string
		ClientID string
		Username string
		Password string
		Topic    string
	}
	Log struct {
		Level  string
		Format string
	}
}

func LoadAgent() *AgentConfig {
	cfg := &AgentConfig{}
	cfg.ServerURL = getEnv("SERVER_URL", "http://localhost:8080")
	cfg.APIKey = getEnv("API_KEY", "")
	cfg.CursorPath = getEnv("CURSOR_PATH", "vitalsync-cursor.json")
	cfg.SpoolPath = getEnv("SPOOL_PATH", "vitalsync-spool.json")
	cfg.SourceDevice = getEnv("SOURCE_DEVICE", "")
	cfg.SyncInterval = parseDuration(getEnv("SYNC_INTERVAL", "15m"), 15*time.Minute)

	cfg.Device.Model = getEnv("DEVICE_MODEL", "")
	cfg.Device.OSVersion = getEnv("DEVICE_OS_VERSION", "")
	cfg.Device.AppVersion = getEnv("DEVICE_APP_VERSION", "")

	// MQTT 触发同步（默认禁用，走定时器）
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "vitalsync-agent")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "vitalsync/sync")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "console")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
