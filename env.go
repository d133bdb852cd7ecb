package turnflow

import (
	"os"
	"strings"
	"unicode"
)

const envExprPrefix = "${env."

// EnvLookup resolves an environment key, reporting whether it is set
type EnvLookup func(key string) (string, bool)

// EnvOf returns a lookup that prefers values (e.g. parsed from a .env file) over the process environment
func EnvOf(values map[string]string) EnvLookup {
	return func(key string) (string, bool) {
		if value, ok := values[key]; ok {
			return value, true
		}
		return os.LookupEnv(key)
	}
}

// expandEnv substitutes ${env.KEY} with lookup(KEY); unset keys expand to empty text.
// An unterminated expression is kept as is, and a malformed key keeps its prefix.
func expandEnv(text string, lookup EnvLookup) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var out strings.Builder
	for {
		before, rest, found := strings.Cut(text, envExprPrefix)
		out.WriteString(before)
		if !found {
			return out.String()
		}
		key, after, closed := strings.Cut(rest, "}")
		switch {
		case !closed:
			out.WriteString(envExprPrefix)
			out.WriteString(rest)
			return out.String()
		case !isEnvKey(key):
			out.WriteString(envExprPrefix)
			text = rest
		default:
			value, _ := lookup(key)
			out.WriteString(value)
			text = after
		}
	}
}

func isEnvKey(key string) bool {
	return strings.IndexFunc(key, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}) < 0
}
