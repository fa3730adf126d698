package main

import (
	"fmt"
	"os"

	"kudubot/internal/config"
	"kudubot/internal/host"
	"kudubot/internal/responder"
	"kudubot/internal/store"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	var manifests []string
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your kudubot setup",
		Long: `Verifies that the configuration, rules, database, exchange directory
and service manifests are usable. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("kudubot doctor v%s\n\n", version)

			passed, warned, failed := 0, 0, 0

			// 1. Config file
			if _, err := os.Stat(cfgPath); err != nil {
				printWarn("Config file", fmt.Sprintf("not found at %s, using defaults", cfgPath))
				warned++
			} else {
				printPass("Config file", cfgPath)
				passed++
			}

			cfg, _, err := config.LoadOrDefault(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				failed++
				fmt.Printf("\n%d passed, %d warnings, %d failed\n", passed, warned, failed)
				return fmt.Errorf("%d check(s) failed", failed)
			}
			printPass("Config validation", "valid")
			passed++

			// 2. Rules
			if svc, err := responder.Build(cfg.Responder, logger); err != nil {
				printFail("Rules", err.Error())
				failed++
			} else if n := svc.Registry().Len(); n == 0 {
				printWarn("Rules", "no rules loaded, every message gets the fallback reply")
				warned++
			} else {
				printPass("Rules", fmt.Sprintf("%d rule(s) loaded", n))
				passed++
			}

			// 3. Database
			if cfg.Store.DBPath == "" {
				printWarn("Database", "store.dbPath not set, history only when the host passes a database")
				warned++
			} else if err := checkDatabase(cfg.Store.DBPath); err != nil {
				printFail("Database", err.Error())
				failed++
			} else {
				printPass("Database", cfg.Store.DBPath)
				passed++
			}

			// 4. Exchange directory
			if err := checkWritableDir(cfg.Host.WorkDir); err != nil {
				printFail("Exchange directory", err.Error())
				failed++
			} else {
				printPass("Exchange directory", cfg.Host.WorkDir)
				passed++
			}

			// 5. Manifests
			for _, path := range manifests {
				m, err := host.LoadManifest(path)
				if err != nil {
					printFail("Manifest", err.Error())
					failed++
					continue
				}
				printPass("Manifest: "+m.Name, fmt.Sprintf("%v %s", m.Command, m.Executable))
				passed++
			}

			fmt.Printf("\nResults: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&manifests, "manifest", "m", nil, "service manifest to check (repeatable)")
	return cmd
}

func checkDatabase(dbPath string) error {
	s, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if info, err := os.Stat(dbPath); err == nil {
		logger.Debug().Str("size", humanize.Bytes(uint64(info.Size()))).Msg("database")
	}
	return nil
}

func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	f.Close()
	return os.Remove(f.Name())
}

func printPass(name, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", name, detail)
}

func printWarn(name, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", name, detail)
}

func printFail(name, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", name, detail)
}
