package migrations

import "embed"

// PostgresFS holds the PostgreSQL schema files shipped with the binary.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the ClickHouse schema files shipped with the binary.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
