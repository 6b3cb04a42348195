package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultEnv             = EnvLocal
	defaultLogLevel        = "info"
	defaultConfigDir       = ".tracker"
	defaultDataFile        = "tracker.db"
	defaultStorageDriver   = "sqlite"
	defaultTimeoutSeconds  = 15
	defaultSyncInterval    = 60
	defaultSyncConcurrency = 4
	defaultAPIAddress      = "127.0.0.1:8090"

	configFileName = "config.yaml"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrTraccarNotSet = errors.New("tracking server is not configured, run `tracker init`")
	storageDrivers   = map[string]bool{"sqlite": true, "postgres": true, "memory": true}
)

type Config struct {
	Env       string
	LogLevel  string
	ConfigDir string
	Traccar   Traccar
	Storage   Storage
	Sync      Sync
	API       API
}

type Traccar struct {
	URL          string
	User         string
	Password     string
	Timeout      time.Duration
	ServerFilter bool
}

type Storage struct {
	Driver      string
	DataPath    string
	DatabaseURI string
}

type Sync struct {
	// Interval 0 отключает автосинхронизацию
	Interval    time.Duration
	Concurrency int
}

type API struct {
	Address string
}

// MustLoad загружает конфигурацию клиента
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

// Load загружает конфигурацию из .env, переменных окружения и config.yaml
func Load() (*Config, error) {
	// Загружаем .env файл если существует
	for _, envPath := range []string{".env", "../.env"} {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
			}
			break
		}
	}

	v := newViper()

	configDir := resolveConfigDir(v.GetString("config_dir"))
	v.SetDefault("data_path", filepath.Join(configDir, defaultDataFile))

	v.SetConfigFile(filepath.Join(configDir, configFileName))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("ошибка чтения %s: %w", configFileName, err)
		}
	}

	cfg := &Config{
		Env:       v.GetString("app_env"),
		LogLevel:  v.GetString("log_level"),
		ConfigDir: configDir,
		Traccar: Traccar{
			URL:          v.GetString("traccar_url"),
			User:         v.GetString("traccar_user"),
			Password:     v.GetString("traccar_password"),
			Timeout:      time.Duration(v.GetInt("traccar_timeout_seconds")) * time.Second,
			ServerFilter: v.GetBool("traccar_server_filter"),
		},
		Storage: Storage{
			Driver:      v.GetString("storage_driver"),
			DataPath:    expandHome(v.GetString("data_path")),
			DatabaseURI: v.GetString("database_uri"),
		},
		Sync: Sync{
			Interval:    time.Duration(v.GetInt("sync_interval_seconds")) * time.Second,
			Concurrency: v.GetInt("sync_concurrency"),
		},
		API: API{
			Address: v.GetString("api_address"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	// Устанавливаем значения по умолчанию
	v.SetDefault("app_env", defaultEnv)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("config_dir", defaultConfigDir)
	v.SetDefault("traccar_timeout_seconds", defaultTimeoutSeconds)
	v.SetDefault("traccar_server_filter", false)
	v.SetDefault("storage_driver", defaultStorageDriver)
	v.SetDefault("sync_interval_seconds", defaultSyncInterval)
	v.SetDefault("sync_concurrency", defaultSyncConcurrency)
	v.SetDefault("api_address", defaultAPIAddress)

	// Ключи, которые могут прийти только из переменных окружения
	for _, key := range []string{"traccar_url", "traccar_user", "traccar_password", "database_uri", "data_path"} {
		_ = v.BindEnv(key)
	}

	return v
}

func (c *Config) validate() error {
	if !storageDrivers[c.Storage.Driver] {
		return fmt.Errorf("%w: неизвестный storage_driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Storage.Driver == "sqlite" && c.Storage.DataPath == "" {
		return fmt.Errorf("%w: data_path не может быть пустым", ErrInvalidConfig)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DatabaseURI == "" {
		return fmt.Errorf("%w: database_uri не может быть пустым", ErrInvalidConfig)
	}
	if c.Traccar.Timeout <= 0 {
		return fmt.Errorf("%w: traccar_timeout_seconds должен быть больше нуля", ErrInvalidConfig)
	}
	if c.Sync.Interval < 0 {
		return fmt.Errorf("%w: sync_interval_seconds не может быть отрицательным", ErrInvalidConfig)
	}
	if c.Sync.Concurrency <= 0 {
		return fmt.Errorf("%w: sync_concurrency должен быть больше нуля", ErrInvalidConfig)
	}
	if c.Traccar.URL != "" {
		u, err := url.Parse(c.Traccar.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: некорректный traccar_url %q", ErrInvalidConfig, c.Traccar.URL)
		}
	}
	return nil
}

// RequireTraccar проверяет, что заданы параметры подключения к серверу трекинга
func (c *Config) RequireTraccar() error {
	if c.Traccar.URL == "" || c.Traccar.User == "" {
		return ErrTraccarNotSet
	}
	return nil
}

// Save записывает параметры сервера трекинга в config.yaml
func (c *Config) Save() error {
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return fmt.Errorf("ошибка создания директории конфигурации: %w", err)
	}

	v := viper.New()
	v.SetConfigPermissions(0600)
	v.Set("traccar_url", c.Traccar.URL)
	v.Set("traccar_user", c.Traccar.User)
	v.Set("traccar_password", c.Traccar.Password)
	v.Set("traccar_timeout_seconds", int(c.Traccar.Timeout/time.Second))
	v.Set("traccar_server_filter", c.Traccar.ServerFilter)
	v.Set("storage_driver", c.Storage.Driver)
	v.Set("data_path", c.Storage.DataPath)
	v.Set("sync_interval_seconds", int(c.Sync.Interval/time.Second))
	v.Set("sync_concurrency", c.Sync.Concurrency)

	path := c.ConfigPath()
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}

	return nil
}

func (c *Config) ConfigPath() string {
	return filepath.Join(c.ConfigDir, configFileName)
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal || c.Env == ""
}

func resolveConfigDir(dir string) string {
	if dir == defaultConfigDir {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		return filepath.Join(homeDir, dir)
	}
	return expandHome(dir)
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}
