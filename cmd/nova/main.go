package main

import (
	"os"
	"strings"

	"nova-cli/internal/cli"
)

// isTaskID reports whether s looks like a task reference: the "task-"
// convenience prefix, or a raw Mongo-style object id (24 hex chars), which is
// what the backend's _id fields actually hold. Object ids cannot collide with
// subcommand names, so matching them bare is safe.
func isTaskID(s string) bool {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "task-") {
		return len(s) > len("task-")
	}
	if len(s) != 24 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func rewriteDirectTaskLookupArgs(argv []string) []string {
	// Convenience: `nova <task-id>` works like `nova tasks show <task-id>`.
	//
	// Cobra treats the first non-flag token as a subcommand, so we rewrite argv
	// before parsing.
	//
	// Users often pass persistent flags first (e.g. `nova --client ... <task-id>`),
	// so we must find the first positional token, not just argv[1].
	if len(argv) < 2 {
		return argv
	}

	// Minimal persistent-flag awareness. If we see flags we don't recognize, we
	// skip them (and do NOT try to skip their value) to avoid accidentally
	// consuming the task-id.
	valueFlags := map[string]bool{
		"--api-url": true,
		"--client":  true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			// Stop flag parsing; next token (if any) is the first positional.
			if i+1 < len(argv) && isTaskID(argv[i+1]) {
				out := make([]string, 0, len(argv)+2)
				out = append(out, argv[:i+1]...)
				out = append(out, "tasks", "show")
				out = append(out, argv[i+1:]...)
				return out
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			// --flag=value form
			if strings.Contains(a, "=") {
				continue
			}
			if boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++ // skip value if present
				continue
			}
			continue
		}

		// First positional token.
		if isTaskID(a) {
			out := make([]string, 0, len(argv)+2)
			out = append(out, argv[:i]...)
			out = append(out, "tasks", "show")
			out = append(out, argv[i:]...)
			return out
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteDirectTaskLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
