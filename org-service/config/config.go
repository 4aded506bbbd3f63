package config

import (
	"fmt"
	"time"

	"github.com/automate/orgs-server/utils-go"
	"github.com/caarlos0/env/v6"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port                 string        `env:"LISTEN_ADDR" envDefault:":3000"`
	Timeout              uint64        `env:"TIMEOUT" envDefault:"10"`
	ReadBufferSize       int           `env:"READ_BUFFER_SIZE" envDefault:"4096"`
	BodyLimit            int           `env:"BODY_LIMIT" envDefault:"1048576"`
	AppName              string        `env:"APP_NAME" envDefault:"Organizations"`
	IsProduction         bool          `env:"PRODUCTION"`
	LogLevel             string        `env:"LOG_LEVEL"`
	StoreDriver          string        `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoUri             string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MasterDb             string        `env:"MASTER_DB" envDefault:"master_db"`
	Dsn                  string        `env:"DSN"`
	AutoMigrate          bool          `env:"AUTO_MIGRATE" envDefault:"true"`
	RedisUrl             string        `env:"REDIS_URL"`
	LockTtl              time.Duration `env:"LOCK_TTL" envDefault:"30s"`
	LockWait             time.Duration `env:"LOCK_WAIT" envDefault:"30s"`
	JwtSecret            string        `env:"JWT_SECRET"`
	JwtPrivateKey        string        `env:"JWT_PRIVATE_KEY"`
	JwtPublicKey         string        `env:"JWT_PUBLIC_KEY"`
	JwtExpires           time.Duration `env:"JWT_EXPIRES" envDefault:"24h"`
	RenameTimeout        time.Duration `env:"RENAME_TIMEOUT" envDefault:"5m"`
	AllowAnonymousUpdate bool          `env:"ALLOW_ANONYMOUS_UPDATE"`
	NatsUrl              string        `env:"NATS_URL"`
	NatsSubjectPrefix    string        `env:"NATS_SUBJECT_PREFIX" envDefault:"orgs"`
	EmailConfig          EmailConfig   `envPrefix:"EMAIL_"`
}

type EmailConfig struct {
	SmtpHost         string `env:"SMTP_HOST"`
	SmtpPort         int    `env:"SMTP_PORT" envDefault:"587"`
	SmtpUser         string `env:"SMTP_USER"`
	SmtpPassword     string `env:"SMTP_PASSWORD"`
	SmtpSkipInsecure bool   `env:"SMTP_SKIP_INSECURE" envDefault:"false"`
	From             string `env:"FROM"`
}

// Parse reads the -dev/-env flags and the environment.
func Parse() (*Config, error) {
	return parse(utils.ParseFlags())
}

// Load is Parse for callers that own the command line themselves.
func Load(envFile string, production bool) (*Config, error) {
	utils.LoadEnv(envFile)
	return parse(production)
}

func parse(production bool) (*Config, error) {
	cfg := Config{
		IsProduction: production,
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env config: %w", err)
	}

	switch cfg.StoreDriver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.StoreDriver == DriverPostgres && len(cfg.Dsn) == 0 {
		return nil, fmt.Errorf("DSN is required for the %s store", DriverPostgres)
	}

	return &cfg, nil
}
