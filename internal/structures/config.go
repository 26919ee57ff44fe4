package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type RedisConfig struct {
	Driver   string `yaml:"driver" validate:"in:standalone,miniredis"`
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// StateStoreConfig selects where conversation dialogue states live.
// "file" keeps them in memory and snapshots to Persistence.FilePath.
type StateStoreConfig struct {
	Driver string      `yaml:"driver" validate:"required|in:file,redis"`
	Redis  RedisConfig `yaml:"redis"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver" validate:"required|in:sqlite,postgres"`
	DSN             string        `yaml:"dsn" validate:"required"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	LogLevel        string        `yaml:"logLevel" validate:"in:silent,error,warn,info"`
}

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

type TelegramConfig struct {
	Token         string        `yaml:"token" validate:"required"`
	APIURL        string        `yaml:"apiUrl" validate:"required|fullUrl"`
	Mode          string        `yaml:"mode" validate:"required|in:polling,webhook"`
	PollTimeout   time.Duration `yaml:"pollTimeout"`
	RetryPause    time.Duration `yaml:"retryPause"`
	WebhookPath   string        `yaml:"webhookPath"`
	WebhookSecret string        `yaml:"webhookSecret"`
	Workers       int           `yaml:"workers" validate:"required|min:1"`
	QueueSize     int           `yaml:"queueSize"`
}

type ClassifierConfig struct {
	Enabled bool          `yaml:"enabled"`
	APIKey  string        `yaml:"apiKey"`
	BaseURL string        `yaml:"baseUrl"`
	Model   string        `yaml:"model"`
	Prompt  string        `yaml:"prompt"`
	Timeout time.Duration `yaml:"timeout"`
}

// Marker is a piece of media identified by a persistent id (matching)
// and a sendable id (used when the bot posts the media itself).
type Marker struct {
	FileID   string `yaml:"fileId"`
	UniqueID string `yaml:"uniqueId"`
}

type SessionConfig struct {
	OpenPhrase        string        `yaml:"openPhrase" validate:"required"`
	ClosePhrase       string        `yaml:"closePhrase" validate:"required"`
	OpenMarker        Marker        `yaml:"openMarker"`
	CloseMarkers      []string      `yaml:"closeMarkers"`
	BroadcastInterval time.Duration `yaml:"broadcastInterval" validate:"required|min:1"`
	Timezone          string        `yaml:"timezone"`
	WeekStart         string        `yaml:"weekStart" validate:"in:sunday,monday,tuesday,wednesday,thursday,friday,saturday"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server           `yaml:"webServer"`
	Persistence Persistence      `yaml:"persistence"`
	Logger      LoggerConfig     `yaml:"logger"`
	StateStore  StateStoreConfig `yaml:"stateStore"`
	Database    DatabaseConfig   `yaml:"database"`
	Telegram    TelegramConfig   `yaml:"telegram"`
	Classifier  ClassifierConfig `yaml:"classifier"`
	Session     SessionConfig    `yaml:"session"`
	Cache       CacheConfig      `yaml:"cache"`
	Metrics     MetricsConfig    `yaml:"metrics"`
}
