package logic

import (
	"fmt"
	"regexp"
	"strings"
)

// GlobToRegexp translates a shell glob into an anchored regular expression.
// "*" matches any run of characters and "?" exactly one.
func GlobToRegexp(glob string) string {
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return b.String()
}

// operands extracts [pattern, value]; anything else never matches.
func operands(values any) (pattern, value string, ok bool) {
	args, isList := values.([]any)
	if !isList || len(args) < 2 {
		return "", "", false
	}
	pattern, ok1 := args[0].(string)
	value, ok2 := args[1].(string)
	return pattern, value, ok1 && ok2
}

// opGlob matches {"glob": [pattern, value]}.
func opGlob(values, _ any) any {
	pattern, value, ok := operands(values)
	if !ok {
		return false
	}
	return regexp.MustCompile(GlobToRegexp(pattern)).MatchString(value)
}

// opRegexp matches {"regexp": [pattern, value]} unanchored. A pattern computed
// at evaluation time that does not compile aborts the evaluation.
func opRegexp(values, _ any) any {
	pattern, value, ok := operands(values)
	if !ok {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		panic(fmt.Errorf("regexp %q: %w", pattern, err))
	}
	return re.MatchString(value)
}
