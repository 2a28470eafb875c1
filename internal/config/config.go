// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	DB struct {
		Driver string `mapstructure:"driver"`
		Path   string `mapstructure:"path"`
	} `mapstructure:"db"`
	Mongo struct {
		URI      string `mapstructure:"uri"`
		Database string `mapstructure:"database"`
	} `mapstructure:"mongo"`
	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`
	Crypto struct {
		// FieldKey é a chave AES-256 em base64. Vazia desliga a cifragem.
		FieldKey string `mapstructure:"field_key"`
	} `mapstructure:"crypto"`
	Notify struct {
		SESRegion string        `mapstructure:"ses_region"`
		FromEmail string        `mapstructure:"from_email"`
		Timeout   time.Duration `mapstructure:"timeout"`
	} `mapstructure:"notify"`
	Log struct {
		Development bool `mapstructure:"development"`
	} `mapstructure:"log"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load lê config.yaml (opcional), o .env (opcional) e as variáveis
// NUTRIPLAN_*, nesta ordem crescente de prioridade.
// Ex.: NUTRIPLAN_DB_DRIVER=mongo, NUTRIPLAN_AUTH_JWT_SECRET=...
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.nutriplan")

	v.SetDefault("server.port", "8080")
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "./nutriplan.db")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("mongo.database", "nutriplan")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("crypto.field_key", "")
	v.SetDefault("notify.ses_region", "")
	v.SetDefault("notify.from_email", "")
	v.SetDefault("notify.timeout", 10*time.Second)
	v.SetDefault("log.development", false)
	v.SetDefault("shutdown_timeout", 10*time.Second)

	v.SetEnvPrefix("NUTRIPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("erro ao ler arquivo de configuração: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("erro ao decodificar configuração: %w", err)
	}
	return &cfg, nil
}

// Validate confere as combinações que impedem a API de subir.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return errors.New("db.path é obrigatório para o driver sqlite")
		}
	case DriverMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("mongo.uri e mongo.database são obrigatórios para o driver mongo")
		}
	default:
		return fmt.Errorf("db.driver desconhecido: %q", c.DB.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret é obrigatório")
	}
	if c.Notify.SESRegion != "" && c.Notify.FromEmail == "" {
		return errors.New("notify.from_email é obrigatório quando notify.ses_region está definido")
	}
	return nil
}

// SESEnabled indica se os e-mails de ativação devem sair pelo SES.
func (c *Config) SESEnabled() bool {
	return c.Notify.SESRegion != ""
}
