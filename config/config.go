package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend   BackendConfig
	Target    TargetConfig
	Scheduler SchedulerConfig
	Export    ExportConfig
	Proxy     ProxyConfig
	Browser   BrowserConfig
	DBPath    string
	LogPath   string
}

// BackendConfig points at the auth/session backend.
type BackendConfig struct {
	BaseURL string
}

// TargetConfig describes the leads API being walked. Endpoints and paging
// knobs live in an optional YAML file so they can change without a rebuild.
type TargetConfig struct {
	LeadsURL           string `yaml:"leads_url"`
	PropertyURL        string `yaml:"property_url"`
	AppURL             string `yaml:"app_url"`
	PageSize           int    `yaml:"page_size"`
	PageDelayMS        int    `yaml:"page_delay_ms"`
	AllowAllPhoneTypes bool   `yaml:"allow_all_phone_types"`
}

type SchedulerConfig struct {
	Cron     string
	Interval time.Duration
}

type ExportConfig struct {
	Dir string
	S3  S3Config
}

// S3Config enables uploading the export file to S3-compatible storage
// when a bucket is configured.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type ProxyConfig struct {
	URL string
}

type BrowserConfig struct {
	UserDataDir string
	Headless    bool
}

const defaultTargetConfig = "config/target.yaml"

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_API_URL", "https://deal-machine-scraper.onrender.com/api"),
		},
		Target: TargetConfig{
			LeadsURL:           "https://api.dealmachine.com/v2/leads/",
			PropertyURL:        "https://api.dealmachine.com/v2/property/",
			AppURL:             "https://app.dealmachine.com/leads",
			PageSize:           getEnvInt("PAGE_SIZE", 100),
			PageDelayMS:        getEnvInt("PAGE_DELAY_MS", 200),
			AllowAllPhoneTypes: true,
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		Export: ExportConfig{
			Dir: getEnv("EXPORT_DIR", "exports"),
			S3: S3Config{
				Bucket:          os.Getenv("EXPORT_S3_BUCKET"),
				Region:          getEnv("EXPORT_S3_REGION", "us-east-1"),
				Endpoint:        os.Getenv("EXPORT_S3_ENDPOINT"),
				AccessKeyID:     os.Getenv("EXPORT_S3_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("EXPORT_S3_SECRET_ACCESS_KEY"),
			},
		},
		Proxy: ProxyConfig{
			URL: os.Getenv("PROXY_URL"),
		},
		Browser: BrowserConfig{
			UserDataDir: getEnv("BROWSER_DATA_DIR", "browser_data"),
			Headless:    os.Getenv("BROWSER_HEADLESS") == "true",
		},
		DBPath:  getEnv("DB_PATH", "dealsweep.db"),
		LogPath: getEnv("LOG_PATH", "dealsweep.log"),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadTargetConfig(getEnv("TARGET_CONFIG", defaultTargetConfig)); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadTargetConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	target := c.Target
	if err := yaml.Unmarshal(data, &target); err != nil {
		return err
	}

	if target.PageSize <= 0 {
		target.PageSize = c.Target.PageSize
	}
	if target.PageDelayMS <= 0 {
		target.PageDelayMS = c.Target.PageDelayMS
	}
	c.Target = target

	return nil
}

func (c *Config) PageDelay() time.Duration {
	return time.Duration(c.Target.PageDelayMS) * time.Millisecond
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
