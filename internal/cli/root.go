// Package cli wires the responseguard commands: serve, check, scan, and
// version.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/qwed-ai/responseguard/internal/policy"
	"github.com/qwed-ai/responseguard/internal/verify"
)

var (
	configPath string
	policyPath string
	packsDir   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "responseguard",
	Short: "ResponseGuard - Verification layer for AI agent output",
	Long: `ResponseGuard sits between AI agents and whatever consumes their output,
running every response through a configurable set of guards: blocked tools,
prompt injection, PII, schema conformance, arithmetic consistency, and more.
Failed verification can block the response before it does damage.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML file (default: ./config.yaml or ~/.responseguard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "Path to guard-set YAML file (default: ~/.responseguard/guards.yaml)")
	rootCmd.PersistentFlags().StringVar(&packsDir, "packs", "", "Directory of policy packs merged onto the guard set (default: ~/.responseguard/packs)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

func Execute() error {
	return rootCmd.Execute()
}

// buildVerifier loads the guard set (plus packs) and turns it into a
// ready verifier.
func buildVerifier(policyPath, packsDir string, opts ...verify.Option) (*verify.Verifier, error) {
	set, err := policy.Load(policyPath)
	if err != nil {
		return nil, err
	}
	if packsDir != "" {
		if set, _, err = policy.LoadPacks(packsDir, set); err != nil {
			return nil, err
		}
	}

	guards, err := set.Build()
	if err != nil {
		return nil, err
	}

	opts = append([]verify.Option{
		verify.WithGuards(guards...),
		verify.WithStrict(set.Strict()),
	}, opts...)
	return verify.New(opts...), nil
}
