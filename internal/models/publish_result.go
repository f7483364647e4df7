package models

const (
	PublishStatusSuccess = "success"
	PublishStatusError   = "error"
)

// PublishResult is the outcome of pushing one receipt to Notion. It is
// returned verbatim as the "notion_response" field of the /scan body and
// never persisted.
type PublishResult struct {
	Status     string `json:"status"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
	PageURL    string `json:"page_url,omitempty"`
	Message    string `json:"message,omitempty"`
}
