package market

import (
	"bytes"
	"fmt"
	"time"
)

// ---- Dataset Models ----

// Dataset is a marketplace listing. Records are owned by the backend; the
// client only requests and renders copies. Rating, quality and verification
// fields are display metadata.
type Dataset struct {
	ID                 string       `json:"id"`
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	Provider           Provider     `json:"provider"`
	Category           Category     `json:"category"`
	SubCategory        string       `json:"subCategory,omitempty"`
	Frequency          Frequency    `json:"frequency"`
	LastUpdated        Timestamp    `json:"lastUpdated"`
	PricingModel       PricingModel `json:"pricingModel"`
	Price              float64      `json:"price"`
	Currency           string       `json:"currency"`
	AccessLevel        AccessLevel  `json:"accessLevel"`
	Rating             float64      `json:"rating"`
	RatingsCount       int          `json:"ratingsCount"`
	DownloadCount      int          `json:"downloadCount"`
	Tags               []string     `json:"tags"`
	Formats            []string     `json:"formats"`
	GeographicCoverage []string     `json:"geographicCoverage"`
	TimeRange          *TimeRange   `json:"timeRange,omitempty"`
	SampleAvailable    bool         `json:"sampleAvailable"`
	SampleURL          string       `json:"sampleUrl,omitempty"`
	PreviewImage       string       `json:"previewImage,omitempty"`
	QualityScore       int          `json:"qualityScore"`
	Verified           bool         `json:"verified"`
}

// Validate checks the enumerated fields against their closed sets. Decoding
// accepts any string so that the typed *DecodeError survives to the caller;
// the client validates every record it returns.
func (d *Dataset) Validate() error {
	errs := []error{
		checkEnum("category", d.Category, Categories),
		checkEnum("frequency", d.Frequency, frequencies),
		checkEnum("pricingModel", d.PricingModel, pricingModels),
		checkEnum("accessLevel", d.AccessLevel, accessLevels),
	}
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("dataset %q: %w", d.ID, err)
		}
	}
	return nil
}

type Provider struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Logo     string `json:"logo,omitempty"`
	Verified bool   `json:"verified"`
}

// TimeRange accepts both {start,end} and the legacy {from,to} shape.
type TimeRange struct {
	Start Timestamp  `json:"start"`
	End   *Timestamp `json:"end,omitempty"`
}

func (r *TimeRange) UnmarshalJSON(b []byte) error {
	var raw struct {
		Start *Timestamp `json:"start"`
		End   *Timestamp `json:"end"`
		From  *Timestamp `json:"from"`
		To    *Timestamp `json:"to"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch {
	case raw.Start != nil:
		r.Start = *raw.Start
	case raw.From != nil:
		r.Start = *raw.From
	}
	r.End = raw.End
	if r.End == nil {
		r.End = raw.To
	}
	return nil
}

// Timestamp decodes the datetime layouts emitted by the backend, which
// include zone-less ISO datetimes.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return &DecodeError{Field: "timestamp", Value: s, Err: fmt.Errorf("unsupported layout")}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// DatasetPage is the paginated envelope returned by list and search endpoints.
type DatasetPage struct {
	Data  []Dataset `json:"data"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// Validate checks every dataset on the page.
func (p *DatasetPage) Validate() error {
	for i := range p.Data {
		if err := p.Data[i].Validate(); err != nil {
			return fmt.Errorf("data[%d]: %w", i, err)
		}
	}
	return nil
}

type DatasetStats struct {
	TotalDatasets  int            `json:"totalDatasets"`
	TotalProviders int            `json:"totalProviders"`
	CategoryCounts map[string]int `json:"categoryCounts"`
}

type RefreshResponse struct {
	Message string `json:"message"`
}

// ---- Preview Models ----

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TablePreview is a bounded sample of a remote table. Column order is the
// display order; each row maps column name to a nullable scalar.
type TablePreview struct {
	TableName    string           `json:"table_name"`
	Columns      []Column         `json:"columns"`
	Rows         []map[string]any `json:"data"`
	RowCount     int              `json:"row_count"`
	PreviewLimit int              `json:"preview_limit"`
	Error        string           `json:"error,omitempty"`
}

// WellFormed reports whether RowCount agrees with the rows present.
func (p *TablePreview) WellFormed() bool { return p != nil && p.RowCount == len(p.Rows) }

// Empty reports a preview with no rows.
func (p *TablePreview) Empty() bool { return p == nil || p.RowCount == 0 }

// ColumnNames returns the column names in display order.
func (p *TablePreview) ColumnNames() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = c.Name
	}
	return out
}

type ConnectionStatus struct {
	Status          ConnectionState `json:"status"`
	Service         string          `json:"service"`
	ServerHostname  string          `json:"server_hostname"`
	HTTPPath        string          `json:"http_path"`
	PreviewLimit    int             `json:"preview_limit"`
	UsingCLIProfile bool            `json:"using_cli_profile"`
}

func (s *ConnectionStatus) Validate() error {
	return checkEnum("status", s.Status, connectionStates)
}

// Health is intentionally open below the top-level fields.
type Health struct {
	Status       string         `json:"status"`
	Service      string         `json:"service"`
	Database     string         `json:"database"`
	DatabaseAuth map[string]any `json:"database_auth,omitempty"`
	Environment  string         `json:"environment"`
	Error        string         `json:"error,omitempty"`
}
