package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`

	Web struct {
		Origin string `mapstructure:"origin"`
	} `mapstructure:"web"`

	Database Database `mapstructure:"database"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`

	LDAP LDAP `mapstructure:"ldap"`

	JWT struct {
		Secret string `mapstructure:"secret"`
	} `mapstructure:"jwt"`

	Cookie struct {
		Secure bool `mapstructure:"secure"`
	} `mapstructure:"cookie"`

	Admin struct {
		// comma separated directory usernames that start as activated admins
		Usernames string `mapstructure:"usernames"`
	} `mapstructure:"admin"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		File   string `mapstructure:"file"`
	} `mapstructure:"logs"`

	LastSeen struct {
		Throttle time.Duration `mapstructure:"throttle"`
	} `mapstructure:"lastseen"`
}

type Database struct {
	Driver string `mapstructure:"driver"` // postgres | mysql
	DSN    string `mapstructure:"dsn"`
}

type LDAP struct {
	URL          string        `mapstructure:"url"`
	BaseDN       string        `mapstructure:"base_dn"`
	BindDN       string        `mapstructure:"bind_dn"`
	BindPassword string        `mapstructure:"bind_password"`
	UserFilter   string        `mapstructure:"user_filter"`
	Timeout      time.Duration `mapstructure:"timeout"` // per login when the request has no deadline
}

// AdminUsernames returns admin.usernames split and lower-cased.
func (c *Config) AdminUsernames() []string {
	var out []string
	for _, s := range strings.Split(c.Admin.Usernames, ",") {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, strings.ToLower(t))
		}
	}
	return out
}

// LoadEnv reads .env into the process environment. A missing file is fine.
func LoadEnv() {
	_ = godotenv.Load()
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8080")
	v.SetDefault("web.origin", "http://localhost:5173")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("ldap.url", "")
	v.SetDefault("ldap.base_dn", "")
	v.SetDefault("ldap.bind_dn", "")
	v.SetDefault("ldap.bind_password", "")
	v.SetDefault("ldap.timeout", "10s")
	v.SetDefault("ldap.user_filter", "(&(objectClass=user)(|(sAMAccountName=%s)(userPrincipalName=%s)))")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("cookie.secure", false)
	v.SetDefault("admin.usernames", "")
	v.SetDefault("logs.level", "info")
	v.SetDefault("logs.format", "text")
	v.SetDefault("logs.file", "")
	v.SetDefault("lastseen.throttle", "1m")

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = dsnFromEnv(cfg.Database.Driver)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// dsnFromEnv builds a DSN from the DB_* variables.
func dsnFromEnv(driver string) string {
	host, user, pass := os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD")
	name, port := os.Getenv("DB_NAME"), os.Getenv("DB_PORT")
	if host == "" {
		return ""
	}
	if driver == "mysql" {
		if port == "" {
			port = "3306"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", user, pass, host, port, name)
	}
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable", host, user, pass, name, port)
}

func validate(c *Config) error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("jwt.secret must be set")
	}
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("database.driver must be postgres or mysql, got %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn or DB_HOST must be set")
	}
	if strings.TrimSpace(c.Server.Port) == "" {
		return errors.New("server.port must not be empty")
	}
	if c.LastSeen.Throttle <= 0 {
		return errors.New("lastseen.throttle must be positive")
	}
	return nil
}
