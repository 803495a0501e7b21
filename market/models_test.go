package market

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCategory("market trading")
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "category", de.Field)
	assert.Equal(t, "market trading", de.Value)
	assert.ErrorIs(t, err, ErrUnknownValue)
}

func TestParseOtherEnums(t *testing.T) {
	f, err := ParseFrequency("Annual")
	require.NoError(t, err)
	assert.Equal(t, FrequencyAnnually, f)
	_, err = ParseFrequency("Hourly")
	assert.ErrorIs(t, err, ErrUnknownValue)

	p, err := ParsePricingModel("Pay-per-use")
	require.NoError(t, err)
	assert.Equal(t, PricingPayPerUse, p)

	a, err := ParseAccessLevel("Enterprise")
	require.NoError(t, err)
	assert.Equal(t, AccessEnterprise, a)
	_, err = ParseAccessLevel("")
	assert.ErrorIs(t, err, ErrUnknownValue)

	s, err := ParseConnectionState("disconnected")
	require.NoError(t, err)
	assert.Equal(t, Disconnected, s)
}

func TestDataset_DecodeBackendRecord(t *testing.T) {
	raw := `{
		"id": "msci-esg",
		"title": "MSCI ESG Ratings",
		"description": "ESG ratings",
		"provider": {"id": "msci", "name": "MSCI", "verified": true},
		"category": "ESG & Sustainability",
		"frequency": "Monthly",
		"lastUpdated": "2024-01-15T10:30:00",
		"pricingModel": "Subscription",
		"price": 2500.0,
		"currency": "USD",
		"accessLevel": "Premium",
		"rating": 4.7,
		"ratingsCount": 120,
		"downloadCount": 900,
		"tags": ["esg"],
		"formats": ["CSV", "API"],
		"geographicCoverage": ["Global"],
		"timeRange": {"from": "2015-01-01", "to": "2024-01-01"},
		"sampleAvailable": true,
		"sampleUrl": "/samples/msci-esg-sample.csv",
		"qualityScore": 95,
		"verified": true
	}`
	var d Dataset
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	assert.Equal(t, CategoryESGSustainability, d.Category)
	assert.Equal(t, FrequencyMonthly, d.Frequency)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), d.LastUpdated.Time)
	require.NotNil(t, d.TimeRange)
	assert.Equal(t, 2015, d.TimeRange.Start.Year())
	require.NotNil(t, d.TimeRange.End)
	assert.Equal(t, 2024, d.TimeRange.End.Year())
	assert.True(t, PreviewAvailable(d))
	assert.Equal(t, "ESG Ratings", ExtractTableName(d.SampleURL))
}

func TestDataset_Validate(t *testing.T) {
	var d Dataset
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","category":"Credit Risk","pricingModel":"Barter"}`), &d))
	err := d.Validate()
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "pricingModel", de.Field)
	assert.Equal(t, "Barter", de.Value)

	// Absent fields pass.
	assert.NoError(t, (&Dataset{ID: "y"}).Validate())

	page := DatasetPage{Data: []Dataset{testDataset("a", CategoryCreditRisk), {ID: "b", AccessLevel: "Secret"}}}
	err = page.Validate()
	assert.ErrorIs(t, err, ErrUnknownValue)
	assert.Contains(t, err.Error(), "data[1]")

	assert.ErrorIs(t, (&ConnectionStatus{Status: "maybe"}).Validate(), ErrUnknownValue)
}

func TestTimeRange_StartEnd(t *testing.T) {
	var r TimeRange
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2020-01-01T00:00:00Z"}`), &r))
	assert.Equal(t, 2020, r.Start.Year())
	assert.Nil(t, r.End)
}

func TestTimestamp(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())

	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	require.NoError(t, json.Unmarshal([]byte(`"2024-03-01 08:00:00"`), &ts))
	assert.Equal(t, 8, ts.Hour())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestTablePreview_Helpers(t *testing.T) {
	p := &TablePreview{
		Columns:  []Column{{Name: "ticker", Type: "string"}, {Name: "close", Type: "double"}},
		Rows:     []map[string]any{{"ticker": "AAPL", "close": 190.5}, {"ticker": "MSFT", "close": nil}},
		RowCount: 2,
	}
	assert.True(t, p.WellFormed())
	assert.False(t, p.Empty())
	assert.Equal(t, []string{"ticker", "close"}, p.ColumnNames())

	var nilPreview *TablePreview
	assert.True(t, nilPreview.Empty())
	assert.Nil(t, nilPreview.ColumnNames())

	type quote struct {
		Ticker string   `json:"ticker"`
		Close  *float64 `json:"close"`
	}
	rows, err := DecodeRows[quote](p)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "AAPL", rows[0].Ticker)
	require.NotNil(t, rows[0].Close)
	assert.Equal(t, 190.5, *rows[0].Close)
	assert.Nil(t, rows[1].Close)

	empty, err := DecodeRows[quote](nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "Corporate Bonds", ExtractTableName("/samples/bloomberg-corporate-bonds.parquet"))
	assert.Equal(t, "S&P 500 Data", ExtractTableName("/samples/sp500-daily.csv"))
	assert.Equal(t, "Weather Station Feed", ExtractTableName("/samples/weather-station-feed.json"))

	assert.Equal(t, "Number", FormatDataType("BIGINT"))
	assert.Equal(t, "Date/Time", FormatDataType("timestamp"))
	assert.Equal(t, "map<string,int>", FormatDataType("map<string,int>"))

	assert.False(t, PreviewAvailable(Dataset{SampleAvailable: true}))
	assert.False(t, PreviewAvailable(Dataset{SampleURL: "/samples/x.csv"}))
}
