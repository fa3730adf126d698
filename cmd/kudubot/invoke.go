package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"kudubot/internal/codec"
	"kudubot/internal/domain"
	"kudubot/internal/host"

	"github.com/spf13/cobra"
)

type invokeOptions struct {
	manifest string
	title    string
	body     string
	sender   domain.Contact
	receiver domain.Contact
	group    domain.Contact
	force    bool
}

func invokeCmd() *cobra.Command {
	opts := invokeOptions{}
	cmd := &cobra.Command{
		Use:   "invoke [body]",
		Short: "Send one message through an external service",
		Long: `Builds a message, asks the service whether it is applicable and, if so,
lets it handle the message. The reply is printed as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.body = args[0]
			}
			return runInvoke(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.manifest, "manifest", "m", "", "service manifest (YAML)")
	f.StringVar(&opts.title, "title", "", "message title")
	f.StringVar(&opts.body, "body", "", "message body")
	f.Int64Var(&opts.sender.DatabaseID, "sender-id", 2, "sender database id")
	f.StringVar(&opts.sender.DisplayName, "sender-name", "User", "sender display name")
	f.StringVar(&opts.sender.Address, "sender-address", "user@localhost", "sender address")
	f.Int64Var(&opts.receiver.DatabaseID, "receiver-id", 1, "receiver database id")
	f.StringVar(&opts.receiver.DisplayName, "receiver-name", "kudubot", "receiver display name")
	f.StringVar(&opts.receiver.Address, "receiver-address", "kudubot@localhost", "receiver address")
	f.Int64Var(&opts.group.DatabaseID, "group-id", 0, "group database id (0 for a direct message)")
	f.StringVar(&opts.group.DisplayName, "group-name", "", "group display name")
	f.StringVar(&opts.group.Address, "group-address", "", "group address")
	f.BoolVar(&opts.force, "force", false, "handle the message even if the service is not applicable")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func runInvoke(cmd *cobra.Command, opts invokeOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	manifest, err := host.LoadManifest(opts.manifest)
	if err != nil {
		return err
	}

	msg := domain.Message{
		MessageTitle: opts.title,
		MessageBody:  opts.body,
		Receiver:     opts.receiver,
		Sender:       opts.sender,
		Timestamp:    float64(time.Now().UnixNano()) / float64(time.Second),
	}
	if opts.group.DatabaseID != 0 {
		group := opts.group
		msg.SenderGroup = &group
	}

	invoker := host.NewInvoker(*manifest, host.InvokerConfig{
		WorkDir:        cfg.Host.WorkDir,
		TimeoutSeconds: cfg.Host.TimeoutSeconds,
		KeepFiles:      cfg.Host.KeepFiles,
	}, logger)

	ctx := cmd.Context()
	applicable, err := invoker.IsApplicable(ctx, msg)
	if err != nil {
		return fmt.Errorf("is_applicable_to: %w", err)
	}
	logger.Info().Str("service", manifest.Name).Bool("applicable", applicable).Msg("applicability")
	if !applicable && !opts.force {
		fmt.Fprintln(os.Stderr, "service is not applicable to this message")
		return nil
	}

	reply, err := invoker.Handle(ctx, msg)
	if err != nil {
		return fmt.Errorf("handle_message: %w", err)
	}
	if reply == nil {
		fmt.Fprintln(os.Stderr, "service chose not to reply")
		return nil
	}

	data, err := codec.Encode(*reply)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return err
	}
	fmt.Println(out.String())
	return nil
}
