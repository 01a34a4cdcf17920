package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"arbiter-hq/arbiter/pkg/apl/parser"
	"arbiter-hq/arbiter/pkg/policy/compiler"
)

var lintFlags struct {
	file   string
	dir    string
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate policy files",
	Long: `Validate APL policy files for syntax and semantic errors.

The lint command parses and compiles policy files exactly as the server does:
  - YAML syntax validation
  - Clause syntax validation
  - Rule safety checks (range restriction)
  - Stratification of negation
  - Decision predicate declaration checks

Examples:
  # Lint single file
  arbiter lint --file policies.yaml

  # Lint directory
  arbiter lint --dir policies/

  # JSON output for CI/CD
  arbiter lint --file policies.yaml --format json`,
	RunE: lintPolicies,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "policy file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of policy files")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintResult is the validation outcome for one policy file.
type LintResult struct {
	File   string      `json:"file"`
	Valid  bool        `json:"valid"`
	Set    string      `json:"policy_set,omitempty"`
	Rules  int         `json:"rules,omitempty"`
	Errors []LintError `json:"errors,omitempty"`
}

// LintError is one parse or compile error.
type LintError struct {
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func lintPolicies(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	var files []string
	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}
	if lintFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(lintFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("failed to list policy files: %w", err)
			}
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no policy files found")
	}

	results := make([]LintResult, 0, len(files))
	allValid := true
	for _, file := range files {
		result := lintFile(file)
		if !result.Valid {
			allValid = false
		}
		results = append(results, result)
	}

	if lintFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, result := range results {
			if result.Valid {
				fmt.Printf("OK   %s (%s, %d rules)\n", result.File, result.Set, result.Rules)
				continue
			}
			fmt.Printf("FAIL %s\n", result.File)
			for _, le := range result.Errors {
				if le.Line > 0 {
					fmt.Printf("  %d: %s\n", le.Line, le.Message)
				} else {
					fmt.Printf("  %s\n", le.Message)
				}
			}
		}
	}

	if !allValid {
		return fmt.Errorf("validation failed")
	}
	return nil
}

func lintFile(path string) LintResult {
	result := LintResult{File: path}

	set, err := parser.NewParser().ParseFile(path)
	if err != nil {
		result.Errors = append(result.Errors, toLintError(err))
		return result
	}
	result.Set = set.Name
	result.Rules = len(set.Rules)

	if _, err := compiler.New().Compile(set, 1); err != nil {
		result.Errors = append(result.Errors, toLintError(err))
		return result
	}

	result.Valid = true
	return result
}

func toLintError(err error) LintError {
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return LintError{
			Line:    parseErr.Location.Line,
			Column:  parseErr.Location.Column,
			Message: parseErr.Message,
		}
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return LintError{
			Line:    compileErr.Location.Line,
			Rule:    compileErr.RuleID,
			Message: compileErr.Message,
		}
	}
	return LintError{Message: err.Error()}
}
