package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/llm-arena/internal/config"
	"github.com/rocketscienceinc/llm-arena/internal/console"
	"github.com/rocketscienceinc/llm-arena/internal/entity"
	"github.com/rocketscienceinc/llm-arena/internal/repository"
	"github.com/rocketscienceinc/llm-arena/internal/repository/storage"
	"github.com/rocketscienceinc/llm-arena/internal/service"
	"github.com/rocketscienceinc/llm-arena/internal/transport/ollama"
	"github.com/rocketscienceinc/llm-arena/internal/tui"
	"github.com/rocketscienceinc/llm-arena/internal/usecase"
	"github.com/rocketscienceinc/llm-arena/transport/rest"
)

const (
	CommandTicTacToe    = "tictactoe"
	CommandSplitOrSteal = "split-or-steal"
	CommandTUI          = "tui"
	CommandServe        = "serve"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrStorageRequired = errors.New("serve needs a storage driver other than none")
)

// RunApp - runs the given command until it finishes or the process is signalled.
func RunApp(logger *slog.Logger, conf *config.Config, command string) error {
	log := logger.With("component", "app")

	switch command {
	case CommandTicTacToe, CommandSplitOrSteal, CommandTUI, CommandServe:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	results, closeStorage, err := openResults(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeStorage()

	client := ollama.New(logger, conf.Ollama.URL, conf.Ollama.Timeout)

	log.Info("Running command", "command", command, "storage", conf.Storage.Driver)

	switch command {
	case CommandSplitOrSteal:
		return runSplitOrSteal(ctx, logger, conf, client, results)
	case CommandTUI:
		return runTUI(ctx, logger, conf, client, results)
	case CommandServe:
		if results == nil {
			return ErrStorageRequired
		}
		return rest.Start(ctx, log, conf.HTTPPort, rest.NewHandlers(logger, client, results))
	default:
		return runTicTacToe(ctx, logger, conf, client, results)
	}
}

// openResults returns a nil repository for the none driver.
func openResults(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.ResultRepository, func(), error) {
	noop := func() {}

	switch conf.Storage.Driver {
	case config.StorageMemory:
		return repository.NewMemoryResultRepository(), noop, nil

	case config.StorageRedis:
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return nil, noop, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewResultRepository(redisStorage.Connection), func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}, nil

	case config.StorageSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.Storage.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, noop, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLResultRepository(sqliteStorage.Connection), func() {
			if err = sqliteStorage.Close(); err != nil {
				log.Error("could not close sqlite storage", "error", err)
			}
		}, nil

	default:
		return nil, noop, nil
	}
}

func newMoveService(logger *slog.Logger, conf *config.Config, client *ollama.Client) service.MoveService {
	return service.NewMoveService(logger, client, service.NewBotService(), service.MoveOptions{
		Attempts:       conf.TicTacToe.MoveAttempts,
		BackoffInitial: conf.TicTacToe.BackoffInitial,
		BackoffMax:     conf.TicTacToe.BackoffMax,
		Fallback:       service.Fallback(conf.TicTacToe.Fallback),
	})
}

type runOutcome struct {
	result *entity.Result
	err    error
}

func runTicTacToe(ctx context.Context, logger *slog.Logger, conf *config.Config, client *ollama.Client, results repository.ResultRepository) error {
	playerX := entity.NewPlayer("", conf.TicTacToe.ModelX, "")
	playerO := entity.NewPlayer("", conf.TicTacToe.ModelO, "")

	tournament, err := usecase.NewTournament(logger, newMoveService(logger, conf, client), results, usecase.TournamentConfig{
		PlayerX:   playerX,
		PlayerO:   playerO,
		Games:     conf.TicTacToe.Games,
		MoveDelay: conf.TicTacToe.MoveDelay,
	})
	if err != nil {
		return fmt.Errorf("could not create tournament: %w", err)
	}

	updates := make(chan entity.Snapshot)
	done := make(chan runOutcome, 1)
	go func() {
		result, runErr := tournament.Run(ctx, updates)
		done <- runOutcome{result: result, err: runErr}
	}()

	console.PrintTournament(os.Stdout, playerX, playerO, conf.TicTacToe.Games, updates)

	outcome := <-done
	if outcome.result != nil {
		console.PrintTournamentResult(os.Stdout, outcome.result)
	}

	return outcome.err
}

func runSplitOrSteal(ctx context.Context, logger *slog.Logger, conf *config.Config, client *ollama.Client, results repository.ResultRepository) error {
	playerA := entity.NewPlayer(conf.SplitOrSteal.NameA, conf.SplitOrSteal.ModelA, "")
	playerB := entity.NewPlayer(conf.SplitOrSteal.NameB, conf.SplitOrSteal.ModelB, "")

	session, err := usecase.NewSession(logger, service.NewDecisionService(logger, client), results, usecase.SessionConfig{
		PlayerA:    playerA,
		PlayerB:    playerB,
		Rounds:     conf.SplitOrSteal.Rounds,
		RoundDelay: conf.SplitOrSteal.RoundDelay,
	})
	if err != nil {
		return fmt.Errorf("could not create session: %w", err)
	}

	updates := make(chan entity.RoundRecord)
	done := make(chan runOutcome, 1)
	go func() {
		result, runErr := session.Run(ctx, updates)
		done <- runOutcome{result: result, err: runErr}
	}()

	console.PrintSession(os.Stdout, playerA, playerB, updates)

	outcome := <-done
	if outcome.result != nil {
		console.PrintSessionResult(os.Stdout, outcome.result)
	}

	return outcome.err
}

func runTUI(ctx context.Context, logger *slog.Logger, conf *config.Config, client *ollama.Client, results repository.ResultRepository) error {
	moves := newMoveService(logger, conf, client)

	newRun := func(playerX, playerO *entity.Player) (tui.Runner, error) {
		tournament, err := usecase.NewTournament(logger, moves, results, usecase.TournamentConfig{
			PlayerX:   playerX,
			PlayerO:   playerO,
			Games:     conf.TUI.Games,
			MoveDelay: conf.TUI.MoveDelay,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create tournament: %w", err)
		}

		return tournament, nil
	}

	return tui.Run(ctx, logger, client, newRun, conf.TicTacToe.ModelX, conf.TicTacToe.ModelO)
}
