// Package all registers every built-in store backend. Import it for side
// effects from the command wiring:
//
//	import _ "github.com/gyeh/logload/internal/store/all"
package all

import (
	_ "github.com/gyeh/logload/internal/store/mongo"
	_ "github.com/gyeh/logload/internal/store/mssql"
	_ "github.com/gyeh/logload/internal/store/mysql"
	_ "github.com/gyeh/logload/internal/store/parquet"
	_ "github.com/gyeh/logload/internal/store/postgres"
	_ "github.com/gyeh/logload/internal/store/sqlite"
)
