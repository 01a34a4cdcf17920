package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"arbiter-hq/arbiter/pkg/pdp"
	"arbiter-hq/arbiter/pkg/policy/manager"
)

var evalFlags struct {
	dir     string
	set     string
	subject string
	facts   []string
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a single decision request",
	Long: `Evaluate one decision request against policy sets loaded from disk,
without starting the server. The decision is printed as JSON.

Examples:
  # Evaluate with request facts
  arbiter eval --dir policies/ --set access-control \
    --subject alice \
    --fact 'role("alice", "admin")' \
    --fact 'request("alice", "delete", "db1")'`,
	RunE: evalDecision,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalFlags.dir, "dir", "d", "./policies", "directory of policy files")
	evalCmd.Flags().StringVarP(&evalFlags.set, "set", "s", "", "policy set name (required)")
	evalCmd.Flags().StringVar(&evalFlags.subject, "subject", "", "decision subject")
	evalCmd.Flags().StringArrayVarP(&evalFlags.facts, "fact", "F", nil, "ground request fact, repeatable")
	_ = evalCmd.MarkFlagRequired("set")
}

func evalDecision(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	mgr := manager.New(manager.Config{PolicyDir: evalFlags.dir}, logger)
	if err := mgr.Load(); err != nil {
		return fmt.Errorf("failed to load policies from %q: %w", evalFlags.dir, err)
	}

	decider := pdp.New(mgr, logger)
	decision, err := decider.Decide(context.Background(), pdp.Request{
		PolicySet: evalFlags.set,
		Subject:   evalFlags.subject,
		Facts:     evalFlags.facts,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(decision)
}
