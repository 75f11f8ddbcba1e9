package domain

import "time"

// IngestionReport accounts for every row of one upload. RowsRead always
// equals RowsCommitted + RowsRejected + RowsDroppedStatus +
// RowsDroppedRoster; the drop counts are surfaced to the operator, never
// swallowed.
type IngestionReport struct {
	JobID             string     `json:"job_id"`
	Module            string     `json:"module"`
	SourceFile        string     `json:"source_file,omitempty"`
	RowsRead          int        `json:"rows_read"`
	RowsCommitted     int        `json:"rows_committed"`
	RowsRejected      int        `json:"rows_rejected"` // failed row-level validation
	RowsDroppedStatus int        `json:"rows_dropped_status"`
	RowsDroppedRoster int        `json:"rows_dropped_roster"`
	RowErrors         []RowError `json:"row_errors,omitempty"`
	CompletedAt       time.Time  `json:"completed_at"`
}

// AuditEntry records one ingestion attempt in the metastore.
type AuditEntry struct {
	ID          string    `json:"id"`
	Actor       string    `json:"actor"`
	Module      string    `json:"module"`
	SourceFile  string    `json:"source_file,omitempty"`
	Status      string    `json:"status"` // COMMITTED or REJECTED
	Detail      string    `json:"detail,omitempty"`
	RowsRead    int       `json:"rows_read"`
	RowsDropped int       `json:"rows_dropped"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	AuditStatusCommitted = "COMMITTED"
	AuditStatusRejected  = "REJECTED"
)
