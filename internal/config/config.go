package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration for the webhook bridge. Values
// are read once at startup and passed into constructors; no package reads the
// environment after Load returns.
type Config struct {
	App      AppConfig
	WhatsApp WhatsAppConfig
	Dispatch DispatchConfig
	Server   ServerConfig
	Kafka    KafkaConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	Port     int
	LogLevel string
}

// WhatsAppConfig holds the Cloud API credentials and endpoint coordinates.
type WhatsAppConfig struct {
	VerifyToken   string
	AccessToken   string
	PhoneNumberID string
	GraphBaseURL  string
	APIVersion    string
}

// DispatchConfig bounds the detached reply-dispatch work.
type DispatchConfig struct {
	SendTimeout time.Duration
	Concurrency int
	MarkAsRead  bool
}

// ServerConfig tunes the inbound HTTP surface.
type ServerConfig struct {
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// KafkaConfig configures the optional dispatch-event publisher. The bridge
// runs without Kafka when no brokers are set.
type KafkaConfig struct {
	Brokers     []string
	EventsTopic string
}

// Enabled reports whether event publishing was configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// Load reads environment variables, applies defaults, validates required
// values and returns a populated Config instance.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.Port = ldr.getInt("APP_PORT", 8080, false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.WhatsApp.VerifyToken = ldr.getString("VERIFY_TOKEN", "", true)
	cfg.WhatsApp.AccessToken = ldr.getString("WHATSAPP_TOKEN", "", true)
	cfg.WhatsApp.PhoneNumberID = ldr.getString("PHONE_NUMBER_ID", "", true)
	cfg.WhatsApp.GraphBaseURL = ldr.getString("GRAPH_BASE_URL", "https://graph.facebook.com", false)
	cfg.WhatsApp.APIVersion = ldr.getString("GRAPH_API_VERSION", "v22.0", false)

	cfg.Dispatch.SendTimeout = time.Duration(ldr.getInt("SEND_TIMEOUT_SECONDS", 8, false)) * time.Second
	cfg.Dispatch.Concurrency = ldr.getInt("DISPATCH_CONCURRENCY", 16, false)
	cfg.Dispatch.MarkAsRead = ldr.getBool("MARK_AS_READ", true, false)

	cfg.Server.MaxBodyBytes = int64(ldr.getInt("WEBHOOK_MAX_BODY_BYTES", 1<<20, false))
	cfg.Server.ShutdownTimeout = time.Duration(ldr.getInt("SHUTDOWN_TIMEOUT_SECONDS", 10, false)) * time.Second

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", false)
	if len(cfg.Kafka.Brokers) > 0 {
		cfg.Kafka.EventsTopic = ldr.getString("KAFKA_EVENTS_TOPIC", "", true)
	}

	if cfg.Dispatch.SendTimeout <= 0 {
		ldr.addError("SEND_TIMEOUT_SECONDS must be > 0")
	}
	if cfg.Dispatch.Concurrency < 1 {
		ldr.addError("DISPATCH_CONCURRENCY must be >= 1")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		ldr.addError("WEBHOOK_MAX_BODY_BYTES must be > 0")
	}

	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		return val
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		i, err := strconv.Atoi(val)
		if err != nil {
			l.addError(fmt.Sprintf("%s must be a valid integer", key))
			return def
		}
		return i
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getBool(key string, def bool, required bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val == "" {
			if required {
				l.addError(fmt.Sprintf("%s is required", key))
			}
			return def
		}
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			l.addError(fmt.Sprintf("%s must be a valid boolean", key))
			return def
		}
		return parsed
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return def
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	raw := l.getString(key, "", required)
	if raw == "" {
		if required {
			return nil
		}
		return []string{}
	}
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if required && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
