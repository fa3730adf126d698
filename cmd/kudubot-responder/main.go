// Command kudubot-responder is a kudubot external service: the host runs it
// once per message as
//
//	kudubot-responder <mode> <message_file> <response_file> [database_file]
//
// and reads the verdict back from the response file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"kudubot/internal/config"
	"kudubot/internal/domain"
	"kudubot/internal/logging"
	"kudubot/internal/protocol"
	"kudubot/internal/responder"
	"kudubot/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

type options struct {
	configPath string
	rulesFile  string
	logger     zerolog.Logger
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one invocation and returns the process exit status.
func run(args []string) int {
	logger, _, err := logging.New(logging.Options{Level: "info"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return protocol.ExitFailure
	}
	opts := &options{logger: logger}

	root := rootCmd(opts)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		opts.logger.Error().Err(err).Int("exit", protocol.ExitCode(err)).Msg("invocation failed")
		return protocol.ExitCode(err)
	}
	return protocol.ExitOK
}

func rootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "kudubot-responder <mode> <message_file> <response_file> [database_file]",
		Short: "Rule-based kudubot external service",
		Long: `Answers kudubot messages from a table of rules.

Modes:
  is_applicable_to  write {"is_applicable":true|false} to the response file
  handle_message    replace the message file with the reply and write {"mode":"reply"}`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(cmd.Context(), opts, args)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", protocol.ErrUsage, err)
	})

	// Flags come before the mode; everything after it is positional, so
	// exchange file names may start with "-".
	root.Flags().SetInterspersed(false)
	root.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (default: ~/.kudubot/config.yaml)")
	root.Flags().StringVar(&opts.rulesFile, "rules", "", "rules file, overrides responder.rulesFile")

	return root
}

func invoke(ctx context.Context, opts *options, args []string) error {
	inv, err := protocol.ParseInvocation(args)
	if err != nil {
		return err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		opts.logger.Warn().Err(err).Msg("cannot load .env")
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}
	cfg, found, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.rulesFile != "" {
		cfg.Responder.RulesFile = config.ExpandPath(opts.rulesFile)
	}

	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.General.LogLevel,
		Format: cfg.General.LogFormat,
		File:   cfg.General.LogFile,
	})
	if err != nil {
		return err
	}
	defer closer.Close()
	opts.logger = logger
	logger.Debug().Str("config", cfgPath).Bool("found", found).Strs("args", inv.Args()).Msg("starting")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := responder.Build(cfg.Responder, logger)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	history := openStore(inv, cfg, logger)
	if history != nil {
		defer history.Close()
	}

	d := protocol.NewDispatcher(protocol.DispatcherConfig{
		Service: svc,
		Store:   history,
		Logger:  logger,
	})
	return d.Run(ctx, inv)
}

// openStore opens the invocation history, preferring the database the host
// passed on the command line. It returns nil when there is none or it cannot
// be opened: the history never decides the protocol outcome.
func openStore(inv protocol.Invocation, cfg *config.Config, logger zerolog.Logger) domain.InvocationStore {
	dbPath := inv.DatabasePath
	if dbPath == "" {
		dbPath = cfg.Store.DBPath
	}
	if dbPath == "" {
		return nil
	}

	s, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		logger.Warn().Err(err).Str("db", dbPath).Msg("invocation history disabled")
		return nil
	}
	return s
}
