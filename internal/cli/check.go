package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/qwed-ai/responseguard/internal/config"
	"github.com/qwed-ai/responseguard/internal/guard"
	"github.com/qwed-ai/responseguard/internal/redact"
	"github.com/qwed-ai/responseguard/internal/verify"
)

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Verify a single agent response from a file or stdin",
	Long: `Read an agent response (JSON or plain text) from the given file, or
from stdin when no file is given, run it through the configured guard set,
and print the result.

  responseguard check response.json
  echo '{"type":"tool_call","name":"bash","arguments":{}}' | responseguard check

Exits 0 when the response verifies, 1 on failed verification, 2 when the
response would be blocked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: checkCommand,
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the full result as JSON")
	rootCmd.AddCommand(checkCmd)
}

func checkCommand(cmd *cobra.Command, args []string) error {
	var input []byte
	var err error
	if len(args) == 1 {
		input, err = os.ReadFile(args[0])
	} else {
		input, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	verifier, err := buildVerifier(resolvePolicyPath(), resolvePacksDir())
	if err != nil {
		return fmt.Errorf("failed to load guard set: %w", err)
	}

	var raw any
	if jsonErr := json.Unmarshal(input, &raw); jsonErr != nil {
		raw = string(input)
	}

	result := verifier.Verify(raw, nil)

	if checkJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		printResult(result)
	}

	if result.Blocked {
		os.Exit(2)
	}
	if !result.Verified {
		os.Exit(1)
	}
	return nil
}

func printResult(result verify.Result) {
	for _, v := range result.Verdicts {
		icon := "✅"
		if !v.Passed {
			icon = "⚠️ "
			if v.Severity == guard.SeverityError {
				icon = "❌"
			}
		}
		fmt.Printf("  %s  %-10s %s\n", icon, v.GuardName, redact.Redact(v.Message))
	}

	fmt.Println()
	switch {
	case result.Blocked:
		fmt.Printf("BLOCKED: %s\n", redact.Redact(result.BlockReason))
	case result.Verified:
		fmt.Printf("Verified (%d guard(s) passed)\n", result.GuardsPassed)
	default:
		fmt.Printf("Failed verification: %d of %d guard(s) failed\n",
			result.GuardsFailed, result.GuardsPassed+result.GuardsFailed)
	}
}

func resolvePolicyPath() string {
	if policyPath != "" {
		return policyPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, config.DefaultConfigDir, "guards.yaml")
}

func resolvePacksDir() string {
	if packsDir != "" {
		return packsDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, config.DefaultConfigDir, "packs")
}
