// Package redact applies regex-based replacement rules to query result
// values before they leave the server, so columns holding emails, tokens,
// or other sensitive material can be masked without touching the database.
package redact

import (
	"fmt"
	"regexp"
)

// Rule is a single pattern-to-replacement redaction rule.
type Rule struct {
	Pattern     string
	Replacement string
}

type compiledRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Redactor applies redaction rules to result row field values.
type Redactor struct {
	rules []compiledRule
}

// NewRedactor compiles the rules. Returns an error on invalid regex patterns.
func NewRedactor(rules []Rule) (*Redactor, error) {
	compiled := make([]compiledRule, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("redact: invalid regex pattern %q: %w", r.Pattern, err)
		}
		compiled[i] = compiledRule{pattern: re, replacement: r.Replacement}
	}
	return &Redactor{rules: compiled}, nil
}

// HasRules returns true if any rules are configured.
func (r *Redactor) HasRules() bool {
	return len(r.rules) > 0
}

// Rows applies redaction to every field value in the result rows,
// recursing into nested maps and slices (JSONB columns, arrays).
func (r *Redactor) Rows(rows []map[string]interface{}) []map[string]interface{} {
	if !r.HasRules() {
		return rows
	}
	for _, row := range rows {
		for k, v := range row {
			row[k] = r.value(v)
		}
	}
	return rows
}

func (r *Redactor) value(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		result := val
		for _, rule := range r.rules {
			result = rule.pattern.ReplaceAllString(result, rule.replacement)
		}
		return result
	case map[string]interface{}:
		for k, item := range val {
			val[k] = r.value(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = r.value(item)
		}
		return val
	default:
		// Numbers, bools, nil pass through untouched.
		return v
	}
}
