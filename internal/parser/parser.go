// Package parser turns one server log line into a model.Record.
package parser

import (
	"time"

	"github.com/gyeh/logload/internal/extract"
	"github.com/gyeh/logload/internal/model"
)

// Timestamp layouts tried in order. Fractional seconds are accepted by
// time.Parse without being named in the layout.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07:00",
}

// Parser applies a shared RuleSet to individual lines. It holds no mutable
// state and is safe for concurrent use.
type Parser struct {
	rules *extract.RuleSet
}

// New returns a Parser over rules. A nil rules compiles a fresh set.
func New(rules *extract.RuleSet) *Parser {
	if rules == nil {
		rules = extract.NewRuleSet()
	}
	return &Parser{rules: rules}
}

// Parse returns the record for text or a *ParseError.
func (p *Parser) Parse(text string) (*model.Record, error) {
	env, ok := p.rules.MatchLine(text)
	if !ok {
		return nil, &ParseError{Kind: ErrNoStructuralMatch}
	}

	ts, err := ParseTimestamp(env.Timestamp)
	if err != nil {
		return nil, &ParseError{Kind: ErrBadTimestamp, Err: err}
	}

	e := p.rules.Enrich(env.Message, env.Component)
	return &model.Record{
		Timestamp:     ts,
		Severity:      env.Severity,
		Component:     env.Component,
		MessageRaw:    env.Message,
		ExecutionTime: e.ExecutionTime,
		PlanSummary:   e.PlanSummary,
		Command:       e.Command,
		DB:            e.DB,
		Collection:    e.Collection,
		Metrics:       e.Metrics,
	}, nil
}

// ParseTimestamp parses a timezone-bearing ISO-8601 timestamp and truncates
// it to millisecond precision. The zone offset is preserved.
func ParseTimestamp(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.Truncate(time.Millisecond), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
