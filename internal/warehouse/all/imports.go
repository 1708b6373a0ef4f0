// Package all wires the built-in warehouse backends into the factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the warehouse package. After
//
//	import _ "songlake/internal/warehouse/all"
//
// the kinds "postgres", "sqlite", "mysql" and "mssql" are available through
// warehouse.New. A binary that wants only a subset of backends can
// blank-import the individual backend packages instead.
package all

import (
	_ "songlake/internal/warehouse/mssql"
	_ "songlake/internal/warehouse/mysql"
	_ "songlake/internal/warehouse/postgres"
	_ "songlake/internal/warehouse/sqlite"
)
