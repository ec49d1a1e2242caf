// Package shell builds the exact invocation strings executed inside a
// target machine.
//
// Every command driven at a machine goes through Wrap, including the
// diagnostics introspection commands, so all captured output comes back
// on a single merged stream and no embedded quote or metacharacter can
// alter command boundaries.
package shell

import (
	"sort"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// Wrap turns one logical command plus an environment mapping into the
// invocation string sent to the machine.
//
// The produced string:
//   - prefixes every env entry, value shell-escaped to a single token,
//     so the remote shell sees exactly those variables for this command only
//   - runs the command via `sh -c` with the command escaped as one token,
//     so quotes, `$`, or `;` inside it execute as literal text
//   - appends `2>&1` so stderr is merged into the captured stdout stream
//
// Env keys are emitted in sorted order; wrapping is deterministic and
// side-effect free. An empty env mapping emits no prefix.
func Wrap(command string, env map[string]string) string {
	var b strings.Builder
	for _, k := range sortedKeys(env) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(shellescape.Quote(env[k]))
		b.WriteByte(' ')
	}
	b.WriteString("sh -c ")
	b.WriteString(shellescape.Quote(command))
	b.WriteString(" 2>&1")
	return b.String()
}

func sortedKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
