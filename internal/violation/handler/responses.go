package handler

// ReportResponse is the HTTP response for POST /violations/report.
type ReportResponse struct {
	ReportID  string `json:"report_id"`
	NextSteps string `json:"next_steps"`
}

// ComplianceResponse is the HTTP response for POST /audit/log.
type ComplianceResponse struct {
	EntryID string `json:"entry_id"`
}
