package extract

import (
	"reflect"
	"testing"

	"github.com/gyeh/logload/internal/model"
)

const (
	readLine = `2023-05-10T12:00:00.123-0300 I COMMAND  [conn12] command mydb.orders command: find { find: "orders", filter: { status: "A" }, $db: "mydb" } planSummary: COLLSCAN keysExamined:0 docsExamined:42 cursorExhausted:1 numYields:0 nreturned:1 reslen:230 locks:{} protocol:op_msg 12ms`
	writeLine = `2023-05-10T12:00:01.456-0300 I WRITE    [conn7] update mydb.orders query: { _id: 1 } planSummary: IDHACK keysExamined:1 docsExamined:1 nMatched:1 nModified:1 numYields:0 locks:{} 3ms`
)

func TestMatchLine(t *testing.T) {
	rs := NewRuleSet()

	env, ok := rs.MatchLine(readLine)
	if !ok {
		t.Fatal("expected envelope match")
	}
	if env.Timestamp != "2023-05-10T12:00:00.123-0300" {
		t.Errorf("timestamp: got %q", env.Timestamp)
	}
	if env.Severity != "I" {
		t.Errorf("severity: got %q", env.Severity)
	}
	if env.Component != "COMMAND" {
		t.Errorf("component: got %q", env.Component)
	}
	want := `command mydb.orders command: find { find: "orders", filter: { status: "A" }, $db: "mydb" } planSummary: COLLSCAN keysExamined:0 docsExamined:42 cursorExhausted:1 numYields:0 nreturned:1 reslen:230 locks:{} protocol:op_msg 12ms`
	if env.Message != want {
		t.Errorf("message not verbatim:\n got %q\nwant %q", env.Message, want)
	}
}

func TestMatchLine_NoMatch(t *testing.T) {
	rs := NewRuleSet()
	for _, line := range []string{
		"",
		"garbage",
		"2023-05-10T12:00:00.123-0300 I COMMAND no context brackets",
		"2023-05-10T12:00:00.123-0300 info COMMAND [conn1] lowercase severity",
		"[conn1] 2023-05-10T12:00:00.123-0300 I COMMAND message",
	} {
		if env, ok := rs.MatchLine(line); ok {
			t.Errorf("MatchLine(%q) = %+v, want no match", line, env)
		}
	}
}

func TestExtractMetrics(t *testing.T) {
	rs := NewRuleSet()

	got := rs.ExtractMetrics("docsExamined: 42 keysExamined:7")
	want := []model.Metric{{Name: "docsExamined", Value: 42}, {Name: "keysExamined", Value: 7}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got = rs.ExtractMetrics(readLine)
	want = []model.Metric{
		{Name: "keysExamined", Value: 0},
		{Name: "docsExamined", Value: 42},
		{Name: "nreturned", Value: 1},
		{Name: "reslen", Value: 230},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := rs.ExtractMetrics("no counters here"); got != nil {
		t.Errorf("expected nil metrics, got %v", got)
	}
	if got := rs.ExtractMetrics("reslen:99999999999999999999999"); len(got) != 0 {
		t.Errorf("overflowing value should be dropped, got %v", got)
	}
}

func TestExtractExecutionTime(t *testing.T) {
	rs := NewRuleSet()
	tests := []struct {
		msg  string
		want int64
	}{
		{"query took 123ms", 123},
		{"123ms", 123},
		{"took 123ms to finish", 0},
		{"no timing", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := rs.ExtractExecutionTime(tt.msg); got != tt.want {
			t.Errorf("ExtractExecutionTime(%q) = %d, want %d", tt.msg, got, tt.want)
		}
	}
}

func TestExtractPlanSummary(t *testing.T) {
	rs := NewRuleSet()
	if got := rs.ExtractPlanSummary(readLine); got != "COLLSCAN" {
		t.Errorf("got %q, want COLLSCAN", got)
	}
	if got := rs.ExtractPlanSummary("planSummary: IXSCAN { a: 1 }"); got != "IXSCAN" {
		t.Errorf("got %q, want IXSCAN", got)
	}
	if got := rs.ExtractPlanSummary("no plan"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestWritePathFields(t *testing.T) {
	rs := NewRuleSet()
	msg := "update mydb.orders query: { _id: 1 } 3ms"

	if got := rs.ExtractCommand(msg, "WRITE"); got != "update" {
		t.Errorf("command: got %q", got)
	}
	if got := rs.ExtractDB(msg, "WRITE"); got != "mydb" {
		t.Errorf("db: got %q", got)
	}
	if got := rs.ExtractCollection(msg, "WRITE"); got != "orders" {
		t.Errorf("collection: got %q", got)
	}

	// read-path patterns do not apply to the same message
	if got := rs.ExtractDB(msg, "COMMAND"); got != "" {
		t.Errorf("read-path db on write message: got %q", got)
	}
}

func TestReadPathFields(t *testing.T) {
	rs := NewRuleSet()
	tests := []struct {
		name string
		msg  string
	}{
		{"legacy", `command mydb.orders command: find { find: "orders", $db: "mydb" } 4ms`},
		{"quoted keys", `command: find { "find": "orders", "filter": {}, "$db": "mydb" }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rs.ExtractCommand(tt.msg, "QUERY"); got != "find" {
				t.Errorf("command: got %q", got)
			}
			if got := rs.ExtractDB(tt.msg, "QUERY"); got != "mydb" {
				t.Errorf("db: got %q", got)
			}
			if got := rs.ExtractCollection(tt.msg, "QUERY"); got != "orders" {
				t.Errorf("collection: got %q", got)
			}
		})
	}
}

func TestEnrich_Misses(t *testing.T) {
	rs := NewRuleSet()
	e := rs.Enrich("connection accepted from 10.0.0.1:5000", "NETWORK")
	if e.ExecutionTime != 0 || e.PlanSummary != "" || e.Command != "" || e.DB != "" || e.Collection != "" || len(e.Metrics) != 0 {
		t.Errorf("expected empty enrichment, got %+v", e)
	}
}

func TestEnrich_WriteLine(t *testing.T) {
	rs := NewRuleSet()
	env, ok := rs.MatchLine(writeLine)
	if !ok {
		t.Fatal("expected envelope match")
	}
	e := rs.Enrich(env.Message, env.Component)
	if e.Command != "update" || e.DB != "mydb" || e.Collection != "orders" {
		t.Errorf("unexpected namespace fields: %+v", e)
	}
	if e.PlanSummary != "IDHACK" {
		t.Errorf("plan summary: got %q", e.PlanSummary)
	}
	if e.ExecutionTime != 3 {
		t.Errorf("execution time: got %d", e.ExecutionTime)
	}
}

func TestRuleString(t *testing.T) {
	if CollectionRead.String() != "CollectionRead" {
		t.Errorf("got %q", CollectionRead.String())
	}
	if Rule(99).String() != "Rule(99)" {
		t.Errorf("got %q", Rule(99).String())
	}
}
