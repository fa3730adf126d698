package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"kudubot/internal/domain"
	"kudubot/internal/store"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent service invocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.Store.DBPath
			}
			if dbPath == "" {
				return fmt.Errorf("no database: pass --db or set store.dbPath")
			}

			s, err := store.NewSQLiteStore(dbPath, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			records, err := s.RecentInvocations(ctx, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No invocations recorded yet.")
				return nil
			}

			names := make(map[int64]string)
			senderName := func(id int64) string {
				if name, ok := names[id]; ok {
					return name
				}
				name := fmt.Sprintf("#%d", id)
				if c, err := s.GetContact(ctx, id); err == nil && c != nil {
					name = fmt.Sprintf("%s <%s>", c.DisplayName, c.Address)
				}
				names[id] = name
				return name
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tMODE\tOUTCOME\tRULE\tFROM\tBODY")
			for _, rec := range records {
				from := senderName(rec.SenderID)
				if rec.GroupID != nil {
					from += " in " + senderName(*rec.GroupID)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					humanize.Time(rec.CreatedAt), rec.Mode, rec.Outcome, orDash(rec.Rule), from, preview(rec))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "database file (default: store.dbPath)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of invocations to show")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func preview(rec domain.InvocationRecord) string {
	body := []rune(strings.Join(strings.Fields(rec.MessageBody), " "))
	if len(body) > 40 {
		return string(body[:37]) + "..."
	}
	return string(body)
}
