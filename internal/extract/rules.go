// Package extract holds the compiled pattern library used to pull structured
// fields out of database server log lines.
//
// A RuleSet is built once with NewRuleSet and is safe for concurrent use; it is
// never mutated after construction.
package extract

import (
	"fmt"
	"regexp"
)

// Rule names one compiled pattern in a RuleSet.
type Rule int

const (
	Line Rule = iota
	Infos
	ExecutionTime
	PlanSummary
	CommandWrite
	CommandRead
	DbWrite
	DbRead
	CollectionWrite
	CollectionRead

	numRules
)

var ruleNames = [numRules]string{
	Line:            "Line",
	Infos:           "Infos",
	ExecutionTime:   "ExecutionTime",
	PlanSummary:     "PlanSummary",
	CommandWrite:    "CommandWrite",
	CommandRead:     "CommandRead",
	DbWrite:         "DbWrite",
	DbRead:          "DbRead",
	CollectionWrite: "CollectionWrite",
	CollectionRead:  "CollectionRead",
}

func (r Rule) String() string {
	if r < 0 || r >= numRules {
		return fmt.Sprintf("Rule(%d)", int(r))
	}
	return ruleNames[r]
}

// Enrichment patterns capture their result in the "value" group.
var patterns = [numRules]string{
	Line:            `^(?P<timestamp>[0-9\-]+?T[0-9\.\:\-\+Z]+?)\s+(?P<severity>[A-Z]{1})\s+(?P<component>[A-Z_]+?)\s+\[(?P<context>.+?)\]\s+(?P<message>.+)$`,
	Infos:           `(?P<name>bytesRead|nreturned|docsExamined|keysExamined|reslen):?\s?(?P<value>[0-9]+)`,
	ExecutionTime:   `(?P<value>[0-9]+)ms$`,
	PlanSummary:     `planSummary: (?P<value>[A-Z_]+)`,
	CommandWrite:    `(?:warning:.+?)?(?P<value>update|remove|insert)`,
	CommandRead:     `command: (?P<value>[a-zA-Z_]+)`,
	DbWrite:         `(?:update|remove|insert)\s+(?P<value>.+?)\.`,
	DbRead:          `\$db"?:\s*"(?P<value>.+?)"`,
	CollectionWrite: `(?:update|remove|insert)\s+.+?\.(?P<value>.+?)\s+`,
	CollectionRead:  `(?:find|aggregate|count|distinct|findAndModify)"?:\s+"(?P<value>.+?)"`,
}

// RuleSet is the immutable table of compiled extraction rules.
type RuleSet struct {
	rules [numRules]*regexp.Regexp

	// submatch indexes resolved once at construction
	tsIdx, sevIdx, compIdx, msgIdx int
	nameIdx, metricIdx            int
	valueIdx                      [numRules]int
}

// NewRuleSet compiles every rule. The patterns are fixed, so a compile
// failure is a programming error and panics.
func NewRuleSet() *RuleSet {
	rs := &RuleSet{}
	for r := Rule(0); r < numRules; r++ {
		rs.rules[r] = regexp.MustCompile(patterns[r])
		rs.valueIdx[r] = rs.rules[r].SubexpIndex("value")
	}

	line := rs.rules[Line]
	rs.tsIdx = line.SubexpIndex("timestamp")
	rs.sevIdx = line.SubexpIndex("severity")
	rs.compIdx = line.SubexpIndex("component")
	rs.msgIdx = line.SubexpIndex("message")

	rs.nameIdx = rs.rules[Infos].SubexpIndex("name")
	rs.metricIdx = rs.valueIdx[Infos]
	return rs
}

// Rule returns the compiled pattern for r.
func (rs *RuleSet) Rule(r Rule) *regexp.Regexp {
	return rs.rules[r]
}
