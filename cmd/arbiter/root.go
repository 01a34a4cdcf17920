package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "arbiter",
	Short: "Arbiter - policy decision point for governance rules",
	Long: `Arbiter is a policy decision point (PDP) that evaluates governance
rules written in the Arbiter Policy Language (APL) and answers allow/deny
queries with obligations and derivation explanations.

It serves decisions over HTTP, providing:
  - Datalog-style rules with stratified negation
  - Deny-overrides conflict resolution with default deny
  - Hot reload of policy sets from disk
  - Fingerprinted decision caching
  - Step-by-step decision explanations

For more information, visit: https://github.com/arbiter-hq/arbiter`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
