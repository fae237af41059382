package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "annotate/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SheetsConfig locates the spreadsheet that holds records and annotations.
type SheetsConfig struct {
	HTTPConfig `yaml:",inline"`

	// SpreadsheetID is the Google Sheets document ID.
	SpreadsheetID string `json:"spreadsheet_id" yaml:"spreadsheet_id"`

	// APIKey is the read-only Sheets API key.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// DataRange is the A1 range holding records (default "Data!A:M").
	DataRange string `json:"data_range" yaml:"data_range"`

	// AnnotationsRange is the A1 range whose first column lists annotated
	// record IDs (default "Annotations!A:A").
	AnnotationsRange string `json:"annotations_range" yaml:"annotations_range"`
}

// RelayConfig points at the HTTP relay that writes into the spreadsheet.
type RelayConfig struct {
	HTTPConfig `yaml:",inline"`

	// URL is the relay endpoint (an Apps Script web app or `annotate relay`).
	URL string `json:"url" yaml:"url"`
}

// LocalStoreConfig holds settings for the SQLite store and journal.
type LocalStoreConfig struct {
	// Path is the database file (default "annotate.db").
	Path string `json:"path" yaml:"path"`
}

// SessionConfig holds settings for one annotation session.
type SessionConfig struct {
	// UserID is the session identity attached to every write.
	UserID string `json:"user_id" yaml:"user_id"`

	// Mode selects cursor or scan progress tracking.
	Mode ProgressMode `json:"mode" yaml:"mode"`

	// Wrap makes scan mode resume from the last position and wrap around once.
	Wrap bool `json:"wrap" yaml:"wrap"`

	// IPLookupURL is queried for the client's public address. Empty disables the lookup.
	IPLookupURL string `json:"ip_lookup_url" yaml:"ip_lookup_url"`

	// FlushTimeout bounds the final progress flush at sign-out (default 5s).
	FlushTimeout time.Duration `json:"flush_timeout" yaml:"flush_timeout"`
}
