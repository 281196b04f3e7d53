package all

import (
	"testing"

	"github.com/gyeh/logload/internal/store"
)

func TestAllSchemesRegistered(t *testing.T) {
	registered := make(map[string]bool)
	for _, s := range store.Schemes() {
		registered[s] = true
	}
	for _, want := range []string{
		"memory", "mongodb", "mongodb+srv", "mysql", "parquet", "postgres", "postgresql", "sqlite", "sqlserver",
	} {
		if !registered[want] {
			t.Errorf("scheme %q not registered; have %v", want, store.Schemes())
		}
	}
}
