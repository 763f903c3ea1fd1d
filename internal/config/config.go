package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port        string `mapstructure:"port"`
		Env         string `mapstructure:"env"`
		FrontendURL string `mapstructure:"frontend_url"`
		PublicURL   string `mapstructure:"public_url"`
	} `mapstructure:"app"`
	DB struct {
		DSN            string        `mapstructure:"dsn"`
		MaxConns       int32         `mapstructure:"max_conns"`
		MaxConnIdle    time.Duration `mapstructure:"max_conn_idle_time"`
		ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
		AutoMigrate    bool          `mapstructure:"auto_migrate"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret          string        `mapstructure:"jwt_secret"`
		TokenLifespan      time.Duration `mapstructure:"token_lifespan"`
		ResetTokenLifespan time.Duration `mapstructure:"reset_token_lifespan"`
	} `mapstructure:"auth"`
	Upload struct {
		Dir      string `mapstructure:"dir"`
		MaxBytes int64  `mapstructure:"max_bytes"`
	} `mapstructure:"upload"`
	Storage struct {
		Provider string `mapstructure:"provider"`
	} `mapstructure:"storage"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	LLM struct {
		Host   string `mapstructure:"host"`
		APIKey string `mapstructure:"api_key"`
		Model  string `mapstructure:"model"`
	} `mapstructure:"llm"`
	Mail struct {
		PlunkAPIKey string `mapstructure:"plunk_api_key"`
		PlunkAPIURL string `mapstructure:"plunk_api_url"`
		From        string `mapstructure:"from"`
	} `mapstructure:"mail"`
	Tracing struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"tracing"`
}

// LoadConfig reads .env and config.yaml from the given directories (the
// working directory when none are given) and lets the environment override.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	envFiles := make([]string, 0, len(paths))
	for _, p := range paths {
		envFiles = append(envFiles, strings.TrimRight(p, "/")+"/.env")
	}
	if err := godotenv.Load(envFiles...); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.frontend_url", "FRONTEND_URL")
	v.BindEnv("app.public_url", "APP_URL")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("db.max_conns", "DB_MAX_CONNS")
	v.BindEnv("db.max_conn_idle_time", "DB_MAX_CONN_IDLE_TIME")
	v.BindEnv("db.connect_timeout", "DB_CONNECT_TIMEOUT")
	v.BindEnv("db.auto_migrate", "DB_AUTO_MIGRATE")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")
	v.BindEnv("auth.reset_token_lifespan", "RESET_TOKEN_LIFESPAN")
	v.BindEnv("upload.dir", "UPLOAD_DIR")
	v.BindEnv("upload.max_bytes", "UPLOAD_MAX_BYTES")
	v.BindEnv("storage.provider", "STORAGE_PROVIDER")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	v.BindEnv("llm.host", "LLM_HOST")
	v.BindEnv("llm.api_key", "LLM_API_KEY")
	v.BindEnv("llm.model", "LLM_MODEL")

	v.BindEnv("mail.plunk_api_key", "PLUNK_API_KEY")
	v.BindEnv("mail.plunk_api_url", "PLUNK_API_URL")
	v.BindEnv("mail.from", "PLUNK_FROM")

	v.BindEnv("tracing.otlp_endpoint", "OTLP_ENDPOINT")

	if err = v.Unmarshal(&cfg); err != nil {
		return
	}
	err = cfg.Validate()
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "5000")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.frontend_url", "http://localhost:3000")
	v.SetDefault("app.public_url", "http://localhost:3000")
	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.max_conn_idle_time", 30*time.Second)
	v.SetDefault("db.connect_timeout", 5*time.Second)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("kafka.group_id", "profile-portal-worker")
	v.SetDefault("auth.token_lifespan", 24*time.Hour)
	v.SetDefault("auth.reset_token_lifespan", 30*time.Minute)
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_bytes", 10*1024*1024)
	v.SetDefault("storage.provider", "local")
	v.SetDefault("llm.model", "phi3:mini")
	v.SetDefault("mail.plunk_api_url", "https://api.useplunk.com/v1/send")
}

func (c Config) Validate() error {
	var errs []error
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("db.dsn (DB_DSN) is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret (JWT_SECRET) is required"))
	}
	if c.Auth.TokenLifespan <= 0 {
		errs = append(errs, errors.New("auth.token_lifespan (TOKEN_LIFESPAN) must be positive"))
	}
	switch c.Storage.Provider {
	case "local", "cloudinary":
	default:
		errs = append(errs, errors.New("storage.provider must be 'local' or 'cloudinary'"))
	}
	return errors.Join(errs...)
}
