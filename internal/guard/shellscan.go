package guard

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// commandArgKeys are argument names whose values are treated as whole shell
// commands and run through the AST scan.
var commandArgKeys = []string{"command", "cmd", "script"}

var shellInterpreters = map[string]struct{}{
	"sh": {}, "bash": {}, "zsh": {}, "dash": {}, "ksh": {},
}

var downloaders = map[string]struct{}{
	"curl": {}, "wget": {},
}

// scanShellCommand parses src as a bash command and looks for destructive
// constructs that argument regexes miss once flags are reordered or
// combined: recursive rm of root/system paths, mkfs, dd onto a block
// device, and piping a downloader into a shell. Returns a human-readable
// reason, or "" when nothing fires. Unparsable input yields no finding —
// the regex scan has already had its chance.
func scanShellCommand(src string) string {
	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(src), "")
	if err != nil {
		return ""
	}

	var reason string
	syntax.Walk(file, func(node syntax.Node) bool {
		if reason != "" {
			return false
		}
		switch n := node.(type) {
		case *syntax.CallExpr:
			reason = checkCall(wordsOf(n))
		case *syntax.BinaryCmd:
			if n.Op == syntax.Pipe || n.Op == syntax.PipeAll {
				reason = checkPipe(n)
			}
		}
		return true
	})
	return reason
}

func checkCall(words []string) string {
	if len(words) == 0 {
		return ""
	}
	exe := baseName(words[0])
	if exe == "sudo" && len(words) > 1 {
		words = words[1:]
		exe = baseName(words[0])
	}

	switch {
	case exe == "rm":
		return checkRm(words[1:])
	case strings.HasPrefix(exe, "mkfs"):
		return "mkfs formats a filesystem"
	case exe == "dd":
		for _, w := range words[1:] {
			if strings.HasPrefix(w, "of=/dev/") {
				return "dd writes directly to a block device"
			}
		}
	case exe == "shutdown" || exe == "reboot" || exe == "halt":
		return exe + " halts the host"
	}
	return ""
}

// checkRm flags recursive+force removal of root or system directories.
func checkRm(args []string) string {
	recursive, force := false, false
	var targets []string

	for _, a := range args {
		switch {
		case a == "--recursive":
			recursive = true
		case a == "--force":
			force = true
		case strings.HasPrefix(a, "-") && !strings.HasPrefix(a, "--"):
			if strings.ContainsAny(a, "rR") {
				recursive = true
			}
			if strings.Contains(a, "f") {
				force = true
			}
		case !strings.HasPrefix(a, "-"):
			targets = append(targets, a)
		}
	}

	if !recursive && !force {
		return ""
	}
	for _, t := range targets {
		if isSystemPath(t) {
			return "recursive removal of " + t
		}
	}
	return ""
}

func isSystemPath(p string) bool {
	switch p {
	case "/", "/*", "/etc", "/usr", "/var", "/boot", "/home", "~", "~/":
		return true
	}
	return false
}

// checkPipe flags downloader-to-shell pipes (curl ... | bash).
func checkPipe(cmd *syntax.BinaryCmd) string {
	left := firstExecutable(cmd.X)
	right := firstExecutable(cmd.Y)
	if _, dl := downloaders[left]; !dl {
		return ""
	}
	if _, sh := shellInterpreters[right]; sh {
		return "pipes " + left + " output into " + right
	}
	return ""
}

// firstExecutable digs the executable name out of one side of a pipe.
func firstExecutable(stmt *syntax.Stmt) string {
	if stmt == nil {
		return ""
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return ""
	}
	words := wordsOf(call)
	if len(words) == 0 {
		return ""
	}
	exe := baseName(words[0])
	if exe == "sudo" && len(words) > 1 {
		return baseName(words[1])
	}
	return exe
}

// wordsOf flattens a call's words into plain strings, keeping only literal
// parts. Expansions are dropped — a variable can hide anything, and guessing
// produces false positives.
func wordsOf(call *syntax.CallExpr) []string {
	words := make([]string, 0, len(call.Args))
	for _, w := range call.Args {
		var sb strings.Builder
		for _, part := range w.Parts {
			switch p := part.(type) {
			case *syntax.Lit:
				sb.WriteString(p.Value)
			case *syntax.SglQuoted:
				sb.WriteString(p.Value)
			case *syntax.DblQuoted:
				for _, inner := range p.Parts {
					if lit, ok := inner.(*syntax.Lit); ok {
						sb.WriteString(lit.Value)
					}
				}
			}
		}
		words = append(words, sb.String())
	}
	return words
}

func baseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
