package extract

import (
	"strconv"

	"github.com/gyeh/logload/internal/model"
)

// WriteComponent is the component category whose messages use the
// write-path pattern family.
const WriteComponent = "WRITE"

// Envelope is the structural part of a log line.
type Envelope struct {
	Timestamp string
	Severity  string
	Component string
	Message   string // remainder of the line, verbatim
}

// Enrichment holds the optional fields derived from a message.
type Enrichment struct {
	ExecutionTime int64
	PlanSummary   string
	Command       string
	DB            string
	Collection    string
	Metrics       []model.Metric
}

// MatchLine applies the envelope pattern. It reports false when the line does
// not match; there is no partial result.
func (rs *RuleSet) MatchLine(text string) (Envelope, bool) {
	m := rs.rules[Line].FindStringSubmatchIndex(text)
	if m == nil {
		return Envelope{}, false
	}
	group := func(i int) string { return text[m[2*i]:m[2*i+1]] }
	return Envelope{
		Timestamp: group(rs.tsIdx),
		Severity:  group(rs.sevIdx),
		Component: group(rs.compIdx),
		Message:   group(rs.msgIdx),
	}, true
}

// ExtractMetrics returns every metric-name/integer pair in message in
// discovery order. Values that overflow int64 are dropped.
func (rs *RuleSet) ExtractMetrics(message string) []model.Metric {
	matches := rs.rules[Infos].FindAllStringSubmatch(message, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]model.Metric, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseInt(m[rs.metricIdx], 10, 64)
		if err != nil {
			continue
		}
		out = append(out, model.Metric{Name: m[rs.nameIdx], Value: v})
	}
	return out
}

// ExtractExecutionTime returns the trailing "<N>ms" value, or 0.
func (rs *RuleSet) ExtractExecutionTime(message string) int64 {
	v, err := strconv.ParseInt(rs.value(ExecutionTime, message), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ExtractPlanSummary returns the token after "planSummary: ", or "".
func (rs *RuleSet) ExtractPlanSummary(message string) string {
	return rs.value(PlanSummary, message)
}

// ExtractCommand returns the operation verb for the component's pattern family.
func (rs *RuleSet) ExtractCommand(message, component string) string {
	return rs.value(pick(component, CommandWrite, CommandRead), message)
}

// ExtractDB returns the database name for the component's pattern family.
func (rs *RuleSet) ExtractDB(message, component string) string {
	return rs.value(pick(component, DbWrite, DbRead), message)
}

// ExtractCollection returns the collection name for the component's pattern family.
func (rs *RuleSet) ExtractCollection(message, component string) string {
	return rs.value(pick(component, CollectionWrite, CollectionRead), message)
}

// Enrich runs every enrichment extraction against message. Each field is
// independently optional.
func (rs *RuleSet) Enrich(message, component string) Enrichment {
	return Enrichment{
		ExecutionTime: rs.ExtractExecutionTime(message),
		PlanSummary:   rs.ExtractPlanSummary(message),
		Command:       rs.ExtractCommand(message, component),
		DB:            rs.ExtractDB(message, component),
		Collection:    rs.ExtractCollection(message, component),
		Metrics:       rs.ExtractMetrics(message),
	}
}

// IsWritePath reports whether component selects the write-path patterns.
func IsWritePath(component string) bool {
	return component == WriteComponent
}

func pick(component string, write, read Rule) Rule {
	if IsWritePath(component) {
		return write
	}
	return read
}

func (rs *RuleSet) value(r Rule, message string) string {
	m := rs.rules[r].FindStringSubmatchIndex(message)
	idx := rs.valueIdx[r]
	if m == nil || m[2*idx] < 0 {
		return ""
	}
	return message[m[2*idx]:m[2*idx+1]]
}
