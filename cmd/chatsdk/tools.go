package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hubspot/mobile-chat-sdk-go/internal/chaturl"
	"github.com/hubspot/mobile-chat-sdk-go/internal/config"
	"github.com/hubspot/mobile-chat-sdk-go/internal/hublet"
	"github.com/hubspot/mobile-chat-sdk-go/internal/identity"
	"github.com/hubspot/mobile-chat-sdk-go/internal/notification"
)

func hubletCmd() *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "hublet <id>",
		Short: "Print the hosts derived from a hublet id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := hublet.ParseEnvironment(env)
			if err != nil {
				return err
			}
			h := hublet.New(args[0], e)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "environment: %s\n", e.DisplayName())
			fmt.Fprintf(out, "app host:    %s\n", h.Hostname())
			fmt.Fprintf(out, "api host:    %s\n", h.APIHostname())
			fmt.Fprintf(out, "api base:    %s\n", h.APIBaseURL())
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "prod", "environment: prod or qa")
	return cmd
}

func chatURLCmd() *cobra.Command {
	var (
		sdkConfig string
		chatFlow  string
		token     string
		email     string
	)
	cmd := &cobra.Command{
		Use:   "chat-url",
		Short: "Build the chat embed URL from an SDK config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(sdkConfig)
			if err != nil {
				return err
			}
			req := chaturl.Request{Config: cfg, ChatFlow: chatFlow}
			if id, ok := identity.New(token, email); ok {
				req.Identity = id
			} else if token != "" || email != "" {
				return errors.New("--token and --email must be given together")
			}
			u, err := chaturl.Build(req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&sdkConfig, "sdk-config", config.DefaultSDKConfigFileName, "SDK config file (toml or yaml)")
	cmd.Flags().StringVar(&chatFlow, "chatflow", "", "chat flow, defaults to the configured one")
	cmd.Flags().StringVar(&token, "token", "", "visitor identification token")
	cmd.Flags().StringVar(&email, "email", "", "visitor email")
	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [payload.json]",
		Short: "Report whether a push payload is a chat notification",
		Long:  "Reads a JSON push payload from the file argument, or stdin when omitted or \"-\".",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			var payload map[string]any
			if err := json.NewDecoder(r).Decode(&payload); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
			data, ok := notification.Classify(payload)
			if !ok {
				return errors.New("not a chat notification")
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
}
