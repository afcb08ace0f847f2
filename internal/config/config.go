package config

import (
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"os"
	"time"
)

const (
	DriverMemory = "memory"
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	Env           string `yaml:"env" env-default:"prod"`
	StorageDriver string `yaml:"storage_driver" env:"STORAGE_DRIVER" env-default:"memory"`
	StoragePath   string `yaml:"storage_path" env-default:"./storage/mes.db"`
	HTTPServer    `yaml:"http_server"`
	DBUser        string `yaml:"db_user"`
	DBPassword    string `yaml:"db_password"`
	DBHost        string `yaml:"db_host" env-default:"localhost"`
	DBPort        int    `yaml:"db_port" env-default:"3306"`
	DBName        string `yaml:"db_name"`
	ParseTime     bool   `yaml:"parse_time" env-default:"true"`

	AdminLogin string `yaml:"admin_login"`
	AdminPass  string `yaml:"admin_pass"`

	FrontendDir string `yaml:"frontend_dir" env-default:"./frontend-dist"`

	Production Production `yaml:"production"`
}

type HTTPServer struct {
	Address        string        `yaml:"address" env-default:"localhost:4001"`
	Timeout        time.Duration `yaml:"timeout"  env-default:"4s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"  env-default:"60s"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// Production настройки цеха. Stages по ключу этапа (CUT_CNC, EDGE, ...).
type Production struct {
	Stages                   map[string]StageConfig `yaml:"stages"`
	ReseedChecklistOnAdvance bool                   `yaml:"reseed_checklist_on_advance" env-default:"false"`
	RequireMaterialsReady    bool                   `yaml:"require_materials_ready" env-default:"false"`
	EventLogSize             int                    `yaml:"event_log_size" env-default:"200"`
}

type StageConfig struct {
	WipLimit  int      `yaml:"wip_limit"`
	HourRate  float64  `yaml:"hour_rate"`
	Checklist []string `yaml:"checklist"`
}

func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return &cfg
}
