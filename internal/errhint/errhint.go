// Package errhint maps database error messages to actionable guidance.
// Connection failures in particular tend to have terse driver messages;
// the matcher appends a human hint ("check the hostname", "check pg_hba")
// so an AI agent or operator can self-correct without reading server logs.
package errhint

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule pairs an error-message pattern with a guidance message.
type Rule struct {
	Pattern string
	Message string
}

// DefaultRules cover the common PostgreSQL connection failure modes.
// Config-supplied rules are evaluated before these.
var DefaultRules = []Rule{
	{
		Pattern: `(?i)connection refused`,
		Message: "Check the server hostname and port, and that PostgreSQL is accepting connections.",
	},
	{
		Pattern: `(?i)password authentication failed`,
		Message: "Check the username and password, and the server's pg_hba.conf rules.",
	},
	{
		Pattern: `(?i)database ".*" does not exist`,
		Message: "Check the configured database name.",
	},
	{
		Pattern: `(?i)(timeout|timed out)`,
		Message: "Check network connectivity to the server, or raise the connection timeout.",
	},
	{
		Pattern: `(?i)(no such host|name resolution)`,
		Message: "The server hostname did not resolve. Check the configured host.",
	},
}

type compiledRule struct {
	pattern *regexp.Regexp
	message string
}

// Matcher checks error messages against rules and returns guidance.
type Matcher struct {
	rules []compiledRule
}

// NewMatcher compiles extra rules followed by DefaultRules.
// Returns an error on an invalid regex pattern.
func NewMatcher(extra []Rule) (*Matcher, error) {
	all := make([]Rule, 0, len(extra)+len(DefaultRules))
	all = append(all, extra...)
	all = append(all, DefaultRules...)

	compiled := make([]compiledRule, len(all))
	for i, r := range all {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("errhint: invalid regex pattern %q: %w", r.Pattern, err)
		}
		compiled[i] = compiledRule{pattern: re, message: r.Message}
	}
	return &Matcher{rules: compiled}, nil
}

// Hint returns the guidance for the first rule matching errMsg,
// or empty string if none match.
func (m *Matcher) Hint(errMsg string) string {
	for _, rule := range m.rules {
		if rule.pattern.MatchString(errMsg) {
			return rule.message
		}
	}
	return ""
}

// Annotate appends the matching hint to errMsg, if any.
func (m *Matcher) Annotate(errMsg string) string {
	hint := m.Hint(errMsg)
	if hint == "" {
		return errMsg
	}
	return strings.TrimRight(errMsg, " \n") + "\nHint: " + hint
}
