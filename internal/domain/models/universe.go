package models

import "time"

// UniverseMember is one constituent of the screening universe (silver view).
type UniverseMember struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"company_name"`
	Sector    string `json:"sector"`
	SubSector string `json:"sub_sector"`
	IsActive  bool   `json:"is_active"`
}

// RawUniverseRow is a bronze universe row: one constituent as ingested,
// tagged with the batch it arrived in.
type RawUniverseRow struct {
	Symbol        string
	Name          string
	Sector        string
	SubSector     string
	IngestionDate string // YYYY-MM-DD batch tag
	IngestedAt    time.Time
}
