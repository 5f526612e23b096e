package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	RuntimeName string            `yaml:"runtime_name"`
	Environment string            `yaml:"environment"`
	HTTP        HTTPConfig        `yaml:"http"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Bus         BusConfig         `yaml:"bus"`
	EventStore  EventStoreConfig  `yaml:"event_store"`
	Camera      CameraConfig      `yaml:"camera"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Health      HealthConfig      `yaml:"health"`
	Capture     CaptureConfig     `yaml:"capture"`
	Accumulator AccumulatorConfig `yaml:"accumulator"`
	Translation TranslationConfig `yaml:"translation"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	StoreDir       string   `yaml:"store_dir"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type EventStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type CameraConfig struct {
	Mode      string `yaml:"mode"` // mock, exec, directory
	Command   string `yaml:"command"`
	Directory string `yaml:"directory"`
	MimeType  string `yaml:"mime_type"`
}

type RecognitionConfig struct {
	Mode       string   `yaml:"mode"` // http, mock
	Endpoint   string   `yaml:"endpoint"`
	TimeoutMS  int      `yaml:"timeout_ms"`
	MockScript []string `yaml:"mock_script"`
}

type HealthConfig struct {
	IntervalMS int    `yaml:"interval_ms"`
	Path       string `yaml:"path"`
	TimeoutMS  int    `yaml:"timeout_ms"`
}

type CaptureConfig struct {
	IntervalMS    int  `yaml:"interval_ms"`
	AutoDetect    bool `yaml:"auto_detect"`
	CameraEnabled bool `yaml:"camera_enabled"`
}

type AccumulatorConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
	// NominalConfidence, when positive, replaces the classifier score shown for
	// the last accepted letter.
	NominalConfidence float64 `yaml:"nominal_confidence"`
}

type TranslationConfig struct {
	Mode           string `yaml:"mode"` // backend, gemini, openai, ollama, mock
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TargetLanguage string `yaml:"target_language"`
	TimeoutMS      int    `yaml:"timeout_ms"`
	CacheDir       string `yaml:"cache_dir"`
}

func Default() Config {
	return Config{
		RuntimeName: "loqa-sign",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8090,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Host:           "0.0.0.0",
			Port:           4222,
			StoreDir:       "./data/nats",
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		EventStore: EventStoreConfig{
			Path:          "./data/loqa-sign.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxSessions:   1000,
		},
		Camera: CameraConfig{
			Mode:     "mock",
			MimeType: "image/jpeg",
		},
		Recognition: RecognitionConfig{
			Mode:      "http",
			Endpoint:  "http://localhost:5000",
			TimeoutMS: 5000,
		},
		Health: HealthConfig{
			IntervalMS: 10000,
			Path:       "/health",
			TimeoutMS:  3000,
		},
		Capture: CaptureConfig{
			IntervalMS:    800,
			AutoDetect:    true,
			CameraEnabled: true,
		},
		Accumulator: AccumulatorConfig{
			MinConfidence: 0.7,
		},
		Translation: TranslationConfig{
			Mode:           "backend",
			Endpoint:       "http://localhost:5000",
			TargetLanguage: "Marathi",
			TimeoutMS:      15000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "LOQA_SIGN_RUNTIME_NAME")
	overrideString(&cfg.Environment, "LOQA_SIGN_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "LOQA_SIGN_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "LOQA_SIGN_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "LOQA_SIGN_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "LOQA_SIGN_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "LOQA_SIGN_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "LOQA_SIGN_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Enabled, "LOQA_SIGN_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "LOQA_SIGN_BUS_EMBEDDED")
	overrideString(&cfg.Bus.Host, "LOQA_SIGN_BUS_HOST")
	overrideInt(&cfg.Bus.Port, "LOQA_SIGN_BUS_PORT")
	overrideString(&cfg.Bus.StoreDir, "LOQA_SIGN_BUS_STORE_DIR")
	overrideStringSlice(&cfg.Bus.Servers, "LOQA_SIGN_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "LOQA_SIGN_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "LOQA_SIGN_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "LOQA_SIGN_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "LOQA_SIGN_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "LOQA_SIGN_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.EventStore.Path, "LOQA_SIGN_EVENT_STORE_PATH")
	overrideString(&cfg.EventStore.RetentionMode, "LOQA_SIGN_EVENT_STORE_RETENTION_MODE")
	overrideInt(&cfg.EventStore.RetentionDays, "LOQA_SIGN_EVENT_STORE_RETENTION_DAYS")
	overrideInt(&cfg.EventStore.MaxSessions, "LOQA_SIGN_EVENT_STORE_MAX_SESSIONS")
	overrideBool(&cfg.EventStore.VacuumOnStart, "LOQA_SIGN_EVENT_STORE_VACUUM_ON_START")
	overrideString(&cfg.Camera.Mode, "LOQA_SIGN_CAMERA_MODE")
	overrideString(&cfg.Camera.Command, "LOQA_SIGN_CAMERA_COMMAND")
	overrideString(&cfg.Camera.Directory, "LOQA_SIGN_CAMERA_DIRECTORY")
	overrideString(&cfg.Camera.MimeType, "LOQA_SIGN_CAMERA_MIME_TYPE")
	overrideString(&cfg.Recognition.Mode, "LOQA_SIGN_RECOGNITION_MODE")
	overrideString(&cfg.Recognition.Endpoint, "LOQA_SIGN_RECOGNITION_ENDPOINT")
	overrideInt(&cfg.Recognition.TimeoutMS, "LOQA_SIGN_RECOGNITION_TIMEOUT_MS")
	overrideStringSlice(&cfg.Recognition.MockScript, "LOQA_SIGN_RECOGNITION_MOCK_SCRIPT")
	overrideInt(&cfg.Health.IntervalMS, "LOQA_SIGN_HEALTH_INTERVAL_MS")
	overrideString(&cfg.Health.Path, "LOQA_SIGN_HEALTH_PATH")
	overrideInt(&cfg.Health.TimeoutMS, "LOQA_SIGN_HEALTH_TIMEOUT_MS")
	overrideInt(&cfg.Capture.IntervalMS, "LOQA_SIGN_CAPTURE_INTERVAL_MS")
	overrideBool(&cfg.Capture.AutoDetect, "LOQA_SIGN_CAPTURE_AUTO_DETECT")
	overrideBool(&cfg.Capture.CameraEnabled, "LOQA_SIGN_CAPTURE_CAMERA_ENABLED")
	overrideFloat(&cfg.Accumulator.MinConfidence, "LOQA_SIGN_ACCUMULATOR_MIN_CONFIDENCE")
	overrideFloat(&cfg.Accumulator.NominalConfidence, "LOQA_SIGN_ACCUMULATOR_NOMINAL_CONFIDENCE")
	overrideString(&cfg.Translation.Mode, "LOQA_SIGN_TRANSLATION_MODE")
	overrideString(&cfg.Translation.Endpoint, "LOQA_SIGN_TRANSLATION_ENDPOINT")
	overrideString(&cfg.Translation.APIKey, "LOQA_SIGN_TRANSLATION_API_KEY")
	overrideString(&cfg.Translation.Model, "LOQA_SIGN_TRANSLATION_MODEL")
	overrideString(&cfg.Translation.TargetLanguage, "LOQA_SIGN_TRANSLATION_TARGET_LANGUAGE")
	overrideInt(&cfg.Translation.TimeoutMS, "LOQA_SIGN_TRANSLATION_TIMEOUT_MS")
	overrideString(&cfg.Translation.CacheDir, "LOQA_SIGN_TRANSLATION_CACHE_DIR")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.EventStore.Path == "" {
		return errors.New("event_store.path must not be empty")
	}
	switch cfg.EventStore.RetentionMode {
	case "ephemeral", "session", "persistent":
	default:
		return errors.New("event_store.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.EventStore.RetentionDays < 0 {
		return errors.New("event_store.retention_days must be >= 0")
	}
	switch cfg.Camera.Mode {
	case "mock":
	case "exec":
		if cfg.Camera.Command == "" {
			return errors.New("camera.command must be set when mode=exec")
		}
	case "directory":
		if cfg.Camera.Directory == "" {
			return errors.New("camera.directory must be set when mode=directory")
		}
	default:
		return errors.New("camera.mode must be one of mock|exec|directory")
	}
	switch cfg.Recognition.Mode {
	case "mock":
	case "http":
		if cfg.Recognition.Endpoint == "" {
			return errors.New("recognition.endpoint must be set when mode=http")
		}
	default:
		return errors.New("recognition.mode must be one of http|mock")
	}
	if cfg.Recognition.TimeoutMS <= 0 {
		return errors.New("recognition.timeout_ms must be positive")
	}
	if cfg.Health.IntervalMS <= 0 {
		return errors.New("health.interval_ms must be positive")
	}
	if cfg.Capture.IntervalMS <= 0 {
		return errors.New("capture.interval_ms must be positive")
	}
	if cfg.Accumulator.MinConfidence < 0 || cfg.Accumulator.MinConfidence >= 1 {
		return errors.New("accumulator.min_confidence must be in [0,1)")
	}
	if cfg.Accumulator.NominalConfidence < 0 || cfg.Accumulator.NominalConfidence > 1 {
		return errors.New("accumulator.nominal_confidence must be in [0,1]")
	}
	switch cfg.Translation.Mode {
	case "mock":
	case "backend", "ollama":
		if cfg.Translation.Endpoint == "" {
			return fmt.Errorf("translation.endpoint must be set when mode=%s", cfg.Translation.Mode)
		}
	case "gemini", "openai":
		if cfg.Translation.APIKey == "" {
			return fmt.Errorf("translation.api_key must be set when mode=%s", cfg.Translation.Mode)
		}
	default:
		return errors.New("translation.mode must be one of backend|gemini|openai|ollama|mock")
	}
	if cfg.Translation.TimeoutMS <= 0 {
		return errors.New("translation.timeout_ms must be positive")
	}
	return nil
}
