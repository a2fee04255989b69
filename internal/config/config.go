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
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"app_env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		// Timeout por request, reintentos de IA incluidos.
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		MaxConns int    `yaml:"max_conns"`
		// Seed carga las sesiones de demo del dashboard.
		Seed bool `yaml:"seed"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`

	AI struct {
		GeminiAPIKey    string        `yaml:"gemini_api_key"`
		Model           string        `yaml:"model"`
		BaseURL         string        `yaml:"base_url"`
		MaxOutputTokens int           `yaml:"max_output_tokens"`
		Temperature     float64       `yaml:"temperature"`
		Timeout         time.Duration `yaml:"timeout"`
		MaxAttempts     int           `yaml:"max_attempts"`
		BaseDelay       time.Duration `yaml:"base_delay"`
		MaxJitter       time.Duration `yaml:"max_jitter"`
	} `yaml:"ai"`

	Voice struct {
		ElevenLabsAPIKey string        `yaml:"elevenlabs_api_key"`
		VoiceID          string        `yaml:"voice_id"`
		BaseURL          string        `yaml:"base_url"`
		Timeout          time.Duration `yaml:"timeout"`
	} `yaml:"voice"`

	KYC struct {
		VeriffAPIKey string `yaml:"veriff_api_key"`
		BaseURL      string `yaml:"base_url"`
		CallbackURL  string `yaml:"callback_url"`
	} `yaml:"kyc"`

	Security struct {
		// SecretBoxKey sella DOB y SSN en reposo (base64 o hex, 32 bytes).
		SecretBoxKey string `yaml:"secretbox_key"`
		// JWTSecret habilita la identidad por bearer (HS256). Vacío = anónimo.
		JWTSecret string `yaml:"jwt_secret"`
		JWTIssuer string `yaml:"jwt_issuer"`
	} `yaml:"security"`

	// Client configura el CLI.
	Client struct {
		APIBaseURL string        `yaml:"api_base_url"`
		Timeout    time.Duration `yaml:"timeout"`
		// file | cache
		StateBackend string `yaml:"state_backend"`
		StatePath    string `yaml:"state_path"`
		UserID       string `yaml:"user_id"`
		// Token es un JWT opcional que se manda como bearer.
		Token string `yaml:"token"`
	} `yaml:"client"`
}

// Load lee el YAML en path (opcional: si no existe se usan defaults),
// aplica defaults y luego las variables de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadDotEnv carga .env (y los archivos extra) sin pisar variables ya
// definidas. Un archivo ausente no es error.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 30 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "investiq:"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.MaxOutputTokens == 0 {
		c.AI.MaxOutputTokens = 256
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.3
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 20 * time.Second
	}
	if c.AI.MaxAttempts == 0 {
		c.AI.MaxAttempts = 3
	}
	if c.AI.BaseDelay == 0 {
		c.AI.BaseDelay = time.Second
	}
	if c.AI.MaxJitter == 0 {
		c.AI.MaxJitter = 500 * time.Millisecond
	}
	if c.Voice.Timeout == 0 {
		c.Voice.Timeout = 20 * time.Second
	}
	if c.Client.APIBaseURL == "" {
		c.Client.APIBaseURL = "http://localhost:8080"
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = 60 * time.Second
	}
	if c.Client.StateBackend == "" {
		c.Client.StateBackend = "file"
	}
	if c.Client.StatePath == "" {
		c.Client.StatePath = defaultStatePath()
	}
}

func defaultStatePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "investiq" + string(os.PathSeparator) + "session.json"
	}
	return ".investiq-session.json"
}

// RateWindow parsea Rate.Window (ya validado).
func (c *Config) RateWindow() time.Duration {
	d, _ := time.ParseDuration(c.Rate.Window)
	return d
}

// IsProd indica si la app corre en producción.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }

// Validate revisa los valores críticos.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return errors.New("config: storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return errors.New("config: cache.redis.addr is required for redis")
		}
	default:
		return fmt.Errorf("config: unknown cache kind %q", c.Cache.Kind)
	}
	if d, err := time.ParseDuration(c.Rate.Window); err != nil || d <= 0 {
		return fmt.Errorf("config: invalid rate.window %q", c.Rate.Window)
	}
	switch c.Client.StateBackend {
	case "file", "cache":
	default:
		return fmt.Errorf("config: unknown client.state_backend %q", c.Client.StateBackend)
	}
	return nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvFloat(key string) (float64, bool) {
	if s, ok := getEnvStr(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvDur("SERVER_REQUEST_TIMEOUT"); ok {
		c.Server.RequestTimeout = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.MaxConns = v
	}
	if v, ok := getEnvBool("STORAGE_SEED"); ok {
		c.Storage.Seed = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}

	// AI
	if v, ok := getEnvStr("GEMINI_API_KEY"); ok {
		c.AI.GeminiAPIKey = v
	}
	if v, ok := getEnvStr("GEMINI_MODEL"); ok {
		c.AI.Model = v
	}
	if v, ok := getEnvStr("GEMINI_BASE_URL"); ok {
		c.AI.BaseURL = v
	}
	if v, ok := getEnvInt("AI_MAX_OUTPUT_TOKENS"); ok {
		c.AI.MaxOutputTokens = v
	}
	if v, ok := getEnvFloat("AI_TEMPERATURE"); ok {
		c.AI.Temperature = v
	}
	if v, ok := getEnvDur("AI_TIMEOUT"); ok {
		c.AI.Timeout = v
	}
	if v, ok := getEnvInt("AI_MAX_ATTEMPTS"); ok {
		c.AI.MaxAttempts = v
	}

	// VOICE
	if v, ok := getEnvStr("ELEVENLABS_API_KEY"); ok {
		c.Voice.ElevenLabsAPIKey = v
	}
	if v, ok := getEnvStr("ELEVENLABS_VOICE_ID"); ok {
		c.Voice.VoiceID = v
	}

	// KYC
	if v, ok := getEnvStr("VERIFF_API_KEY"); ok {
		c.KYC.VeriffAPIKey = v
	}
	if v, ok := getEnvStr("VERIFF_BASE_URL"); ok {
		c.KYC.BaseURL = v
	}
	if v, ok := getEnvStr("VERIFF_CALLBACK_URL"); ok {
		c.KYC.CallbackURL = v
	}

	// SECURITY
	if v, ok := getEnvStr("SECRETBOX_MASTER_KEY"); ok {
		c.Security.SecretBoxKey = v
	}
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.Security.JWTSecret = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.Security.JWTIssuer = v
	}

	// CLIENT
	if v, ok := getEnvStr("INVESTIQ_API_URL"); ok {
		c.Client.APIBaseURL = v
	}
	if v, ok := getEnvDur("INVESTIQ_CLIENT_TIMEOUT"); ok {
		c.Client.Timeout = v
	}
	if v, ok := getEnvStr("INVESTIQ_STATE_BACKEND"); ok {
		c.Client.StateBackend = v
	}
	if v, ok := getEnvStr("INVESTIQ_STATE_PATH"); ok {
		c.Client.StatePath = v
	}
	if v, ok := getEnvStr("INVESTIQ_USER_ID"); ok {
		c.Client.UserID = v
	}
	if v, ok := getEnvStr("INVESTIQ_TOKEN"); ok {
		c.Client.Token = v
	}
}
