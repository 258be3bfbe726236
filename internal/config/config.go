// internal/config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	From string `mapstructure:"from"`
}

type SESConfig struct {
	Region          string `mapstructure:"region"`
	AuthType        string `mapstructure:"auth_type"` // static_credentials | iam_role
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	From            string `mapstructure:"from"`
}

type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Database struct {
		// リモート(サインイン時)ストアのPostgres接続URL。未設定ならローカルのみで動作する
		URL string `mapstructure:"url"`
		// ローカル(デバイス)ストアのSQLiteファイルパス
		LocalPath string `mapstructure:"local_path"`
	} `mapstructure:"database"`
	JWT struct {
		SecretKey      string        `mapstructure:"secret_key"`
		AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	} `mapstructure:"jwt"`
	CORS struct {
		AllowedOrigins   []string `mapstructure:"allowed_origins"`
		AllowedMethods   []string `mapstructure:"allowed_methods"`
		AllowedHeaders   []string `mapstructure:"allowed_headers"`
		AllowCredentials bool     `mapstructure:"allow_credentials"`
		MaxAge           int      `mapstructure:"max_age"`
	} `mapstructure:"cors"`
	Analyzer struct {
		Type    string        `mapstructure:"type"` // http | stub
		URL     string        `mapstructure:"url"`
		APIKey  string        `mapstructure:"api_key"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"analyzer"`
	Speech struct {
		Type    string        `mapstructure:"type"` // http | stub
		URL     string        `mapstructure:"url"`
		APIKey  string        `mapstructure:"api_key"`
		Voice   string        `mapstructure:"voice"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"speech"`
	Mailer struct {
		Type string `mapstructure:"type"` // log | smtp | ses
	} `mapstructure:"mailer"`
	SMTP SMTPConfig `mapstructure:"smtp"`
	SES  SESConfig  `mapstructure:"ses"`
	App  struct {
		Name         string `mapstructure:"name"`
		HistoryLimit int    `mapstructure:"history_limit"`
	} `mapstructure:"app"`
}

var Cfg Config

func LoadConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("analyzer.api_key", "ANALYZER_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	if err := viper.Unmarshal(&Cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	// --- デフォルト値の設定 ---
	if Cfg.Server.Port == "" {
		Cfg.Server.Port = DefaultServerPort
	}
	if Cfg.Log.Level == "" {
		Cfg.Log.Level = DefaultLogLevel
	}
	if Cfg.Database.LocalPath == "" {
		Cfg.Database.LocalPath = DefaultLocalStorePath
	}
	if Cfg.JWT.AccessTokenTTL <= 0 {
		Cfg.JWT.AccessTokenTTL = 24 * time.Hour
	}
	if Cfg.Analyzer.Type == "" {
		Cfg.Analyzer.Type = DefaultAnalyzerType
	}
	if Cfg.Analyzer.Timeout <= 0 {
		Cfg.Analyzer.Timeout = 60 * time.Second // ページ解析は長くかかる
	}
	if Cfg.Speech.Type == "" {
		Cfg.Speech.Type = DefaultSpeechType
	}
	if Cfg.Speech.Timeout <= 0 {
		Cfg.Speech.Timeout = 15 * time.Second
	}
	if Cfg.Mailer.Type == "" {
		Cfg.Mailer.Type = DefaultMailerType
	}
	if Cfg.App.Name == "" {
		Cfg.App.Name = AppName
	}
	if Cfg.App.HistoryLimit <= 0 {
		Cfg.App.HistoryLimit = DefaultHistoryLimit
	}
	if Cfg.Database.URL == "" {
		log.Println("Warning: Database URL is not set. Remote store is disabled; all learners fall back to the local store.")
	}
	if Cfg.JWT.SecretKey == "" {
		log.Println("Warning: JWT secret key is not set. Sign-in will be rejected.")
	}

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("Local Store: %s", Cfg.Database.LocalPath)
	log.Printf("Analyzer: %s", Cfg.Analyzer.Type)

	return nil
}
