package domain

import "time"

// IngestStats holds statistics about a single ingestion run.
type IngestStats struct {
	SourceID string
	Fetched  int
	Relevant int
	New      int
	Known    int
	Dropped  int
	Errors   int
	Duration time.Duration
}
