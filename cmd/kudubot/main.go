package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"kudubot/internal/config"
	"kudubot/internal/logging"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     zerolog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger, _, _ = logging.New(logging.Options{Level: "info"})

	root := &cobra.Command{
		Use:           "kudubot",
		Short:         "Tooling for kudubot external services",
		Long:          "Sets up, runs and inspects kudubot external services such as kudubot-responder.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logger.Warn().Err(err).Msg("cannot load .env")
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ~/.kudubot/config.yaml)")

	root.AddCommand(initCmd())
	root.AddCommand(invokeCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

const exampleRules = `# Rules are tried in order; the first matching rule answers.
# Matchers: equals, equalsFold, contains, containsFold, prefix, pattern.
rules:
  - name: greeting
    trigger:
      equalsFold: ["hi", "hello"]
    reply:
      title: Greeting
      body: "Hello {{.Sender.DisplayName}}!"
  - name: dice
    trigger:
      prefix: ["!roll"]
    reply:
      body: "4"
`

const exampleManifest = `name: responder
executable: kudubot-responder
timeoutSeconds: 10
`

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize config, example rules and a service manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, cfg, err := initConfig(resolveConfigPath(), force)
			if err != nil {
				return err
			}
			logger.Info().Str("config", cfgPath).Str("rules", cfg.Responder.RulesFile).Msg("initialized")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

// initConfig writes a default config at cfgPath with the example rules, the
// database and the services directory next to it.
func initConfig(cfgPath string, force bool) (string, *config.Config, error) {
	cfgPath, err := filepath.Abs(cfgPath)
	if err != nil {
		return "", nil, err
	}
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return "", nil, fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}
	cfgDir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", nil, err
	}

	cfg := config.Defaults()
	cfg.Responder.RulesFile = filepath.Join(cfgDir, "rules.yaml")
	cfg.Store.DBPath = filepath.Join(cfgDir, "kudubot.db")

	manifestPath := filepath.Join(cfgDir, "services", "responder.yaml")
	files := map[string]string{
		cfg.Responder.RulesFile: exampleRules,
		manifestPath:            exampleManifest,
	}
	for path, content := range files {
		if err := writeIfAbsent(path, content, force); err != nil {
			return "", nil, err
		}
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return "", nil, err
	}
	return cfgPath, cfg, nil
}

func writeIfAbsent(path, content string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		logger.Info().Str("path", path).Msg("keeping existing file")
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return config.ExpandPath(configPath)
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the config (or defaults) and reconfigures the logger from it.
func loadConfig() (*config.Config, error) {
	cfg, _, err := config.LoadOrDefault(resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	l, _, err := logging.New(logging.Options{Level: cfg.General.LogLevel, Format: cfg.General.LogFormat})
	if err != nil {
		return nil, err
	}
	logger = l
	return cfg, nil
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. general.logLevel)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. responder.disableBuiltins true)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info().Str("path", args[0]).Str("value", args[1]).Str("file", cfgPath).Msg("config updated")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			values := config.ListPaths(cfg)
			paths := make([]string, 0, len(values))
			for p := range values {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				data, _ := json.Marshal(values[p])
				fmt.Printf("%s = %s\n", p, data)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
