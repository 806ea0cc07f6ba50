package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageNone   = "none"
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"

	FallbackForfeit = "forfeit"
	FallbackRandom  = "random"
)

var (
	ErrUnknownStorage  = errors.New("unknown storage driver")
	ErrUnknownFallback = errors.New("unknown move fallback")
	ErrInvalidCount    = errors.New("count must be positive")
	ErrRedisAddr       = errors.New("redis host and port are required")
)

type Config struct {
	LogLevel     string       `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort     string       `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Ollama       Ollama       `yaml:"ollama"`
	TicTacToe    TicTacToe    `yaml:"tictactoe"`
	SplitOrSteal SplitOrSteal `yaml:"split-or-steal"`
	Storage      Storage      `yaml:"storage"`
	Redis        Redis        `yaml:"redis"`
	TUI          TUI          `yaml:"tui"`
}

type Ollama struct {
	URL     string        `yaml:"url" env:"OLLAMA_URL" env-default:"http://localhost:11434"`
	Timeout time.Duration `yaml:"timeout" env:"OLLAMA_TIMEOUT" env-default:"30s"`
}

type TicTacToe struct {
	ModelX         string        `yaml:"model-x" env:"TICTACTOE_MODEL_X" env-default:"llama3.2:1b"`
	ModelO         string        `yaml:"model-o" env:"TICTACTOE_MODEL_O" env-default:"llama3.2:3b"`
	Games          int           `yaml:"games" env:"TICTACTOE_GAMES" env-default:"100"`
	MoveAttempts   int           `yaml:"move-attempts" env-default:"5"`
	BackoffInitial time.Duration `yaml:"backoff-initial" env-default:"500ms"`
	BackoffMax     time.Duration `yaml:"backoff-max" env-default:"5s"`
	Fallback       string        `yaml:"fallback" env:"TICTACTOE_FALLBACK" env-default:"forfeit"`
	MoveDelay      time.Duration `yaml:"move-delay" env-default:"0s"`
}

type SplitOrSteal struct {
	ModelA     string        `yaml:"model-a" env:"SPLIT_OR_STEAL_MODEL_A" env-default:"llama3.2:3b"`
	NameA      string        `yaml:"name-a" env-default:"Llama3.2 3B"`
	ModelB     string        `yaml:"model-b" env:"SPLIT_OR_STEAL_MODEL_B" env-default:"llama3.2:1b"`
	NameB      string        `yaml:"name-b" env-default:"Llama3.2 1B"`
	Rounds     int           `yaml:"rounds" env:"SPLIT_OR_STEAL_ROUNDS" env-default:"10"`
	RoundDelay time.Duration `yaml:"round-delay" env-default:"1s"`
}

type Storage struct {
	Driver     string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"none"`
	SQLitePath string `yaml:"sqlite-path" env:"SQLITE_PATH" env-default:"./data/results.db"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type TUI struct {
	LogFile   string        `yaml:"log-file" env-default:"llm-arena.log"`
	Games     int           `yaml:"games" env-default:"1"`
	MoveDelay time.Duration `yaml:"move-delay" env-default:"1s"`
}

// MustLoad - load all configurations from the config file, or from env and defaults when the file is absent.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err = cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to read config from env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	switch that.Storage.Driver {
	case StorageNone, StorageMemory, StorageRedis, StorageSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, that.Storage.Driver)
	}

	if that.Storage.Driver == StorageRedis && (that.Redis.Host == "" || that.Redis.Port == "") {
		return ErrRedisAddr
	}

	switch that.TicTacToe.Fallback {
	case FallbackForfeit, FallbackRandom:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFallback, that.TicTacToe.Fallback)
	}

	if that.TicTacToe.Games <= 0 || that.TicTacToe.MoveAttempts <= 0 || that.SplitOrSteal.Rounds <= 0 || that.TUI.Games <= 0 {
		return ErrInvalidCount
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
