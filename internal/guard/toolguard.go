package guard

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/qwed-ai/responseguard/internal/response"
)

// DefaultBlockedTools is the built-in deny list: shell/exec/eval,
// file-mutation, and payment primitives that an agent should never reach
// without explicit policy. Merged with caller-supplied entries unless the
// default list is disabled.
var DefaultBlockedTools = []string{
	// shell / command execution
	"execute_shell", "run_shell", "run_command", "shell", "bash", "sh",
	"exec", "terminal",
	// dynamic code execution
	"eval", "execute_code", "run_code", "python_exec",
	// file mutation
	"delete_file", "remove_file", "write_file", "modify_file", "move_file",
	// payments
	"send_payment", "transfer_funds", "charge_card", "refund_payment",
}

// defaultDangerousPatterns are scanned against the canonical serialization
// of every tool call's arguments: SQL-destructive, shell-destructive, and
// code-execution payloads. Pattern source strings are reported in details
// so policy authors can tell which entry fired.
var defaultDangerousPatterns = []string{
	// SQL-destructive
	`(?i)\bDROP\s+(TABLE|DATABASE|SCHEMA)\b`,
	`(?i)\bTRUNCATE\s+TABLE\b`,
	`(?i)\bDELETE\s+FROM\b`,
	// shell-destructive
	`rm\s+(-[a-z]*[rf][a-z]*\s+)+/`,
	`(?i)\bmkfs(\.[a-z0-9]+)?\b`,
	`\bdd\s+if=\S+\s+of=/dev/`,
	`:\(\)\s*\{[^}]*\}\s*;?\s*:`,
	// code execution
	`(?i)\beval\s*\(`,
	`(?i)\bexec\s*\(`,
	`(?i)__import__\s*\(`,
	`(?i)\bos\.system\s*\(`,
	`(?i)\bsubprocess\.(run|call|Popen)\b`,
}

// ToolGuardConfig configures a ToolGuard. The zero value yields the
// default policy: built-in blocklist on, no allow-list, built-in
// dangerous-pattern set.
type ToolGuardConfig struct {
	// BlockedTools are merged with the default blocklist (unless disabled).
	BlockedTools []string

	// AllowedTools, when non-empty, switches the guard into allow-list
	// mode: any tool not in the list fails.
	AllowedTools []string

	// DisableDefaultBlocklist drops the built-in blocked-tool entries.
	DisableDefaultBlocklist bool

	// DangerousPatterns are regex sources appended after the built-in
	// dangerous-pattern set. Invalid patterns are skipped.
	DangerousPatterns []string

	// DisableShellScan turns off the structural shell-AST scan of
	// command-like argument values.
	DisableShellScan bool
}

// ToolGuard verifies every tool call in a response against a blocked-tool
// set, an optional allow-list, and an ordered dangerous-pattern scan over
// the call's serialized arguments. The first offending call short-circuits.
type ToolGuard struct {
	blocked    map[string]struct{}
	allowed    map[string]struct{} // nil when allow-list mode is off
	allowList  []string
	patterns   []*regexp.Regexp
	patternSrc []string
	shellScan  bool
}

// NewToolGuard builds a ToolGuard from cfg. All patterns are compiled once
// here; Check never compiles.
func NewToolGuard(cfg ToolGuardConfig) *ToolGuard {
	g := &ToolGuard{
		blocked:   make(map[string]struct{}),
		shellScan: !cfg.DisableShellScan,
	}

	if !cfg.DisableDefaultBlocklist {
		for _, name := range DefaultBlockedTools {
			g.blocked[name] = struct{}{}
		}
	}
	for _, name := range cfg.BlockedTools {
		g.blocked[name] = struct{}{}
	}

	if len(cfg.AllowedTools) > 0 {
		g.allowed = make(map[string]struct{}, len(cfg.AllowedTools))
		for _, name := range cfg.AllowedTools {
			g.allowed[name] = struct{}{}
		}
		g.allowList = append([]string(nil), cfg.AllowedTools...)
	}

	sources := append(append([]string(nil), defaultDangerousPatterns...), cfg.DangerousPatterns...)
	for _, src := range sources {
		re, err := regexp.Compile(src)
		if err != nil {
			continue
		}
		g.patterns = append(g.patterns, re)
		g.patternSrc = append(g.patternSrc, src)
	}

	return g
}

func (g *ToolGuard) Name() string { return "tool" }

func (g *ToolGuard) Description() string {
	return "Verifies tool calls against blocked/allowed tool lists and dangerous argument patterns"
}

// Check scans the response's tool calls in order. Per call: blocked-tool
// check, then allow-list check, then the dangerous-pattern scan — the first
// failure wins and later calls are not scanned.
func (g *ToolGuard) Check(resp response.Response, _ map[string]any) Verdict {
	calls := resp.ToolCalls()
	if len(calls) == 0 {
		return pass(g.Name(), "No tool calls to verify")
	}

	for _, call := range calls {
		if _, hit := g.blocked[call.Name]; hit {
			return fail(g.Name(),
				fmt.Sprintf("Tool %q is blocked by policy", call.Name),
				map[string]any{"blockedTool": call.Name})
		}

		if g.allowed != nil {
			if _, ok := g.allowed[call.Name]; !ok {
				return fail(g.Name(),
					fmt.Sprintf("Tool %q is not in the allowed tools list", call.Name),
					map[string]any{"tool": call.Name, "allowedTools": g.allowList})
			}
		}

		serialized := canonicalArguments(call.Arguments)
		for i, re := range g.patterns {
			if re.MatchString(serialized) {
				return fail(g.Name(),
					fmt.Sprintf("Dangerous pattern detected in arguments of tool %q", call.Name),
					map[string]any{"tool": call.Name, "pattern": g.patternSrc[i]})
			}
		}

		if g.shellScan {
			if verdict, bad := g.scanCommandArguments(call); bad {
				return verdict
			}
		}
	}

	return pass(g.Name(), fmt.Sprintf("Verified %d tool call(s)", len(calls)))
}

// scanCommandArguments runs the shell-AST scan over argument values that
// carry whole commands. Regex catches literal payloads; the AST scan
// catches the reordered/aliased forms regex misses.
func (g *ToolGuard) scanCommandArguments(call response.ToolCall) (Verdict, bool) {
	for _, key := range commandArgKeys {
		src, ok := call.Arguments[key].(string)
		if !ok || src == "" {
			continue
		}
		if reason := scanShellCommand(src); reason != "" {
			return fail(g.Name(),
				fmt.Sprintf("Destructive shell command in argument %q of tool %q", key, call.Name),
				map[string]any{"tool": call.Name, "argument": key, "reason": reason}), true
		}
	}
	return Verdict{}, false
}

// canonicalArguments serializes arguments deterministically (JSON object
// keys are emitted sorted) so pattern matching sees one stable form.
func canonicalArguments(args map[string]any) string {
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(b)
}
