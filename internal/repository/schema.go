package repository

import "fmt"

// SchemaStatements returns the idempotent DDL for the bronze layer. Bronze
// tables are append-only and partitioned by ingestion batch; the silver
// tables are created by the rebuild itself (CREATE OR REPLACE ... AS SELECT).
func SchemaStatements(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.bronze_universe (
    symbol         String,
    name           String,
    sector         String,
    sub_sector     String,
    ingestion_date Date,
    ingested_at    DateTime
) ENGINE = MergeTree
PARTITION BY ingestion_date
ORDER BY (ingestion_date, symbol)`, database),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.bronze_prices (
    symbol         String,
    date           Date,
    open           Float64,
    high           Float64,
    low            Float64,
    close          Float64,
    adj_close      Float64,
    volume         Float64,
    ingestion_date Date,
    ingested_at    DateTime
) ENGINE = MergeTree
PARTITION BY ingestion_date
ORDER BY (ingestion_date, symbol, date)`, database),
	}
}
