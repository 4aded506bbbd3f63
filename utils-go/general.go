package utils

import (
	"encoding/json"
	"errors"
	"flag"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultEnvFile = ".prod.env"

type LoggerConfig struct {
	IsProduction bool
	LogLevel     string
}

// ConfigureLogger sets up the global zerolog logger: human readable output in dev mode,
// JSON lines in production.
func ConfigureLogger(config *LoggerConfig) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil || len(config.LogLevel) == 0 {
		level = zerolog.InfoLevel
		if !config.IsProduction {
			level = zerolog.DebugLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	if config.IsProduction {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// ParseFlags reads -dev and -env and loads the env file. It returns whether the service
// runs in production mode.
func ParseFlags() bool {
	devMode := flag.Bool("dev", false, "Run in dev mode")
	envFile := flag.String("env", "", ".env file path")

	flag.Parse()

	LoadEnv(*envFile)

	return !*devMode
}

// LoadEnv loads file into the process environment, or .prod.env when file is empty.
// A missing default file is fine, variables may come from the environment alone.
func LoadEnv(file string) {
	path := file
	if len(path) == 0 {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if len(file) == 0 && errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("file", path).Msg("No .env file, using process environment")
			return
		}
		log.Panic().Err(err).Str("file", path).Msg("Could not load .env file")
	}
}

// ConvertConfig projects a service config onto the smaller config a shared package needs,
// matching fields by name.
func ConvertConfig[T, S any](input *T) (*S, error) {
	res, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	cfg := new(S)
	err = json.Unmarshal(res, cfg)

	return cfg, err
}
