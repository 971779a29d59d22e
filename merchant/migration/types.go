package migration

import "time"

// Stats tracks a migration run. Packs maps each pack to the rows read for it.
type Stats struct {
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	Processed      int             `json:"processed"`
	Inserted       int64           `json:"inserted"`
	Skipped        int             `json:"skipped"`
	Packs          map[string]int  `json:"packs"`
	SkippedRecords []SkippedRecord `json:"skipped_records"`
}

// SkippedRecord is a document that could not be converted.
type SkippedRecord struct {
	ID        string    `json:"id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// maxSkippedRecords bounds the report size for very dirty collections.
const maxSkippedRecords = 1000
