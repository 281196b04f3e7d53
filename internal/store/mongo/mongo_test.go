package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/gyeh/logload/internal/model"
)

func TestToDocument(t *testing.T) {
	ts := time.Date(2023, 5, 10, 15, 0, 0, 123_000_000, time.UTC)
	r := &model.Record{
		Timestamp:     ts,
		Severity:      "I",
		Component:     "WRITE",
		MessageRaw:    "update mydb.orders 3ms",
		ExecutionTime: 3,
		Command:       "update",
		DB:            "mydb",
		Collection:    "orders",
		Metrics:       []model.Metric{{Name: "keysExamined", Value: 1}, {Name: "docsExamined", Value: 1}},
		Line:          7,
	}

	doc := ToDocument(r)
	keys := make([]string, len(doc))
	for i, e := range doc {
		keys[i] = e.Key
	}
	assert.Equal(t, []string{
		"timestamp", "severity", "component", "message_raw", "execution_time",
		"command", "db", "collection", "keysExamined", "docsExamined",
	}, keys, "plan_summary is empty and must be omitted; line is never stored")

	m := doc.Map()
	assert.Equal(t, ts, m["timestamp"])
	assert.Equal(t, int64(3), m["execution_time"])
	assert.Equal(t, int64(1), m["docsExamined"])
}

func TestToDocument_MarshalsToBSON(t *testing.T) {
	r := &model.Record{Timestamp: time.Unix(0, 0).UTC(), Severity: "W", Component: "NETWORK", MessageRaw: "x"}
	raw, err := bson.Marshal(ToDocument(r))
	require.NoError(t, err)

	var back bson.M
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, "W", back["severity"])
	_, hasCommand := back["command"]
	assert.False(t, hasCommand)
}

func TestOpen_BadURI(t *testing.T) {
	_, err := Open(context.Background(), "mongodb://host:notaport", zerolog.Nop())
	assert.Error(t, err)
}
