package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	ListenAddr    string        `yaml:"listen_addr"`
	APIBaseURL    string        `yaml:"api_base_url" validate:"required,url"`
	ImageBaseURL  string        `yaml:"image_base_url" validate:"required,url"`
	SecureCookies bool          `yaml:"secure_cookies"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	TemplateDir   string        `yaml:"template_dir"` // empty means embedded templates
	Log           Log           `yaml:"log"`
	Uploads       Uploads       `yaml:"uploads"`
	RateLimit     RateLimit     `yaml:"rate_limit"`
	CORSOrigins   []string      `yaml:"cors_origins"`
}

type Log struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json"`
}

type Uploads struct {
	StageDir      string        `yaml:"stage_dir"`
	StageTTL      time.Duration `yaml:"stage_ttl"`
	MaxImageBytes int64         `yaml:"max_image_bytes" validate:"gte=0"`
}

// RateLimit applies per client IP to the login and signup forms.
type RateLimit struct {
	AuthPerMinute float64 `yaml:"auth_per_minute" validate:"gte=0"`
	AuthBurst     int     `yaml:"auth_burst" validate:"gte=0"`
}

type Private struct {
	SessionSecret string `yaml:"session_secret" validate:"required,min=16"`
}

func (s *Config) SessionSecret() string {
	return s.private.SessionSecret
}

// New assembles a config in code, applying the same defaults as MustLoad.
func New(public Public, sessionSecret string) (*Config, error) {
	cfg := &Config{Public: public, private: Private{SessionSecret: sessionSecret}}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Config) applyDefaults() {
	p := &s.Public
	if p.ListenAddr == "" {
		p.ListenAddr = ":8081"
	}
	if p.SessionTTL == 0 {
		p.SessionTTL = 7 * 24 * time.Hour
	}
	if p.Log.Level == "" {
		p.Log.Level = "info"
	}
	if p.Uploads.StageDir == "" {
		p.Uploads.StageDir = path.Join(os.TempDir(), "blogfront-stage")
	}
	if p.Uploads.StageTTL == 0 {
		p.Uploads.StageTTL = time.Hour
	}
	if p.Uploads.MaxImageBytes == 0 {
		p.Uploads.MaxImageBytes = 10 << 20
	}
	if p.RateLimit.AuthPerMinute == 0 {
		p.RateLimit.AuthPerMinute = 10
	}
	if p.RateLimit.AuthBurst == 0 {
		p.RateLimit.AuthBurst = 5
	}
}

func (s *Config) applyEnv() {
	if v := os.Getenv("BLOGFRONT_API_BASE_URL"); v != "" {
		s.Public.APIBaseURL = v
	}
	if v := os.Getenv("BLOGFRONT_IMAGE_BASE_URL"); v != "" {
		s.Public.ImageBaseURL = v
	}
	if v := os.Getenv("BLOGFRONT_SESSION_SECRET"); v != "" {
		s.private.SessionSecret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		s.Public.ListenAddr = ":" + v
	}
}

func (s *Config) validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(s.Public); err != nil {
		return fmt.Errorf("invalid public config: %w", err)
	}
	if err := validate.Struct(s.private); err != nil {
		return fmt.Errorf("invalid private config: %w", err)
	}
	return nil
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file: " + configPath)
	}
}

// LoadPublic reads only public.yaml. The CLI uses it: it never signs cookies.
func LoadPublic(configFolder string) (Public, error) {
	var public Public
	configFile, err := os.ReadFile(path.Join(configFolder, "public.yaml"))
	if err != nil {
		return public, fmt.Errorf("read public config: %w", err)
	}
	if err := yaml.Unmarshal(configFile, &public); err != nil {
		return public, fmt.Errorf("parse public config: %w", err)
	}
	cfg := &Config{Public: public}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg.Public, nil
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		panic(err.Error())
	}
	return cfg
}
