package providers

import (
	"fmt"
	"path/filepath"
	"standbot/internal/structures"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("webServer.host", "0.0.0.0")
	v.SetDefault("webServer.port", 8080)
	v.SetDefault("persistence.filePath", "/var/lib/standbot/dialogues.dat")
	v.SetDefault("persistence.saveInterval", 30*time.Second)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("logger.dir", "/var/log/standbot")
	v.SetDefault("stateStore.driver", "file")
	v.SetDefault("stateStore.redis.driver", "standalone")
	v.SetDefault("stateStore.redis.prefix", "standbot:dialogue:")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "total.sqlite")
	v.SetDefault("database.logLevel", "warn")
	v.SetDefault("telegram.apiUrl", "https://api.telegram.org")
	v.SetDefault("telegram.mode", structures.ModePolling)
	v.SetDefault("telegram.pollTimeout", 30*time.Second)
	v.SetDefault("telegram.retryPause", 3*time.Second)
	v.SetDefault("telegram.webhookPath", "/telegram/webhook")
	v.SetDefault("telegram.workers", 4)
	v.SetDefault("telegram.queueSize", 64)
	v.SetDefault("classifier.baseUrl", "https://openrouter.ai/api/v1")
	v.SetDefault("classifier.model", "google/gemini-2.0-flash-001")
	v.SetDefault("classifier.timeout", 15*time.Second)
	v.SetDefault("session.broadcastInterval", 10*time.Second)
	v.SetDefault("session.timezone", "Local")
	v.SetDefault("session.weekStart", "monday")
	v.SetDefault("cache.ttl", 30*time.Second)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	setConfigDefaults(v)

	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.BindEnv("logger.level", "STANDBOT_LOG_LEVEL")
	v.BindEnv("webServer.port", "STANDBOT_PORT")
	v.BindEnv("telegram.token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.mode", "STANDBOT_TELEGRAM_MODE")
	v.BindEnv("telegram.webhookSecret", "STANDBOT_WEBHOOK_SECRET")
	v.BindEnv("classifier.apiKey", "OPENROUTER_API_KEY")
	v.BindEnv("database.driver", "STANDBOT_DATABASE_DRIVER")
	v.BindEnv("database.dsn", "STANDBOT_DATABASE_DSN")
	v.BindEnv("stateStore.driver", "STANDBOT_STATE_DRIVER")
	v.BindEnv("stateStore.redis.address", "STANDBOT_REDIS_ADDRESS")
	v.BindEnv("stateStore.redis.password", "STANDBOT_REDIS_PASSWORD")
	v.BindEnv("session.broadcastInterval", "STANDBOT_BROADCAST_INTERVAL")
	v.BindEnv("cache.enabled", "STANDBOT_CACHE_ENABLED")
	v.BindEnv("cache.size", "STANDBOT_CACHE_SIZE")
	v.BindEnv("metrics.enabled", "STANDBOT_METRICS_ENABLED")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "StandingSessionBot"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
