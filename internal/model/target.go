package model

import (
	"fmt"
	"strings"
)

// Target names the destination of a load as <database>.<collection>.
// Relational backends read Database as the schema and Collection as the table.
type Target struct {
	Database   string
	Collection string
}

// ParseTarget splits "<database>.<collection>" at the first dot.
// The collection part may itself contain dots.
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	db, coll, ok := strings.Cut(s, ".")
	if !ok || db == "" || coll == "" {
		return Target{}, fmt.Errorf("invalid target %q: want <database>.<collection>", s)
	}
	return Target{Database: db, Collection: coll}, nil
}

func (t Target) String() string {
	return t.Database + "." + t.Collection
}
