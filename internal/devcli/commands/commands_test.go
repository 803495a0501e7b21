package commands

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steven3002/datamarket-go/market"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func catalogue() []market.Dataset {
	mk := func(id string, cat market.Category, sample string) market.Dataset {
		return market.Dataset{
			ID: id, Title: "Dataset " + id, Category: cat,
			Provider:     market.Provider{Name: "Provider " + id},
			Frequency:    market.FrequencyDaily,
			PricingModel: market.PricingSubscription, Price: 100, Currency: "USD",
			AccessLevel:     market.AccessPremium,
			SampleAvailable: sample != "", SampleURL: sample,
		}
	}
	return []market.Dataset{
		mk("esg-1", market.CategoryESGSustainability, "/samples/msci-esg-sample.csv"),
		mk("credit-1", market.CategoryCreditRisk, ""),
		mk("trading-1", market.CategoryMarketTrading, ""),
	}
}

type backend struct {
	previews atomic.Int32
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	all := catalogue()
	switch r.URL.Path {
	case "/datasets":
		data := all
		if c := r.URL.Query().Get("category"); c != "" {
			data = market.FilterByCategory(all, []market.Category{market.Category(c)})
		}
		_ = enc.Encode(market.DatasetPage{Data: data, Total: len(data), Page: 1, Limit: 50})
	case "/datasets/search":
		_ = enc.Encode(market.DatasetPage{Data: all[2:], Total: 1, Page: 1, Limit: 50})
	case "/datasets/stats":
		_ = enc.Encode(market.DatasetStats{TotalDatasets: 3, TotalProviders: 3, CategoryCounts: map[string]int{"Credit Risk": 1}})
	case "/datasets/esg-1":
		_ = enc.Encode(all[0])
	case "/preview":
		if b.previews.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"warehouse waking up"}`))
			return
		}
		_ = enc.Encode(market.TablePreview{
			TableName: r.URL.Query().Get("table_reference"),
			Columns:   []market.Column{{Name: "company", Type: "string"}, {Name: "score", Type: "double"}},
			Rows:      []map[string]any{{"company": "Acme", "score": 7.5}},
			RowCount:  1, PreviewLimit: 5,
		})
	case "/preview/test":
		_ = enc.Encode(market.ConnectionStatus{Status: market.Connected, Service: "Databricks SQL", PreviewLimit: 5})
	case "/health":
		_ = enc.Encode(market.Health{Status: "healthy", Service: "data-marketplace-api", Database: "connected"})
	default:
		http.NotFound(w, r)
	}
}

func run(t *testing.T, stdin string, args ...string) (string, *backend, error) {
	t.Helper()
	testChdir(t, t.TempDir())
	b := &backend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	root, out := newTestRoot(t, srv.URL, strings.NewReader(stdin), args...)
	err := root.Execute()
	return out.String(), b, err
}

func newTestRoot(t *testing.T, baseURL string, stdin io.Reader, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(stdin)
	root.SetArgs(append([]string{"--base-url", baseURL, "--preview-retry-delay", "10ms", "--debounce", "10ms"}, args...))
	t.Cleanup(func() {
		if errOut.Len() > 0 {
			t.Log(errOut.String())
		}
	})
	return root, &out
}

func TestDatasetsList_JSON(t *testing.T) {
	out, _, err := run(t, "", "datasets", "list", "-o", "json", "--category", "Credit Risk")
	require.NoError(t, err)

	var page market.DatasetPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "credit-1", page.Data[0].ID)
}

func TestDatasetsList_UnknownCategory(t *testing.T) {
	_, _, err := run(t, "", "datasets", "list", "--category", "Weather")
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrUnknownValue)
	assert.Contains(t, err.Error(), "Credit Risk")
}

func TestDatasetsListAllAndStream(t *testing.T) {
	out, _, err := run(t, "", "datasets", "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "(3 datasets)")

	out, _, err = run(t, "", "datasets", "list", "--stream")
	require.NoError(t, err)
	assert.Contains(t, out, "trading-1")
}

func TestBrowse_MultiCategory(t *testing.T) {
	out, _, err := run(t, "", "browse", "-c", "ESG & Sustainability", "-c", "Credit Risk")
	require.NoError(t, err)
	assert.Contains(t, out, "all filtered to ESG & Sustainability, Credit Risk")
	assert.Contains(t, out, "esg-1")
	assert.Contains(t, out, "credit-1")
	assert.NotContains(t, out, "trading-1")
}

func TestBrowse_SearchWins(t *testing.T) {
	out, _, err := run(t, "", "browse", "-q", "ESG data for European banks", "-c", "Credit Risk", "-o", "json")
	require.NoError(t, err)

	var ds []market.Dataset
	require.NoError(t, json.Unmarshal([]byte(out), &ds))
	require.Len(t, ds, 1)
	assert.Equal(t, "trading-1", ds[0].ID)
}

func TestPreviewShow_RetriesOnce(t *testing.T) {
	out, b, err := run(t, "", "preview", "show", "--dataset", "esg-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, b.previews.Load())
	assert.Contains(t, out, "Acme")
	assert.Contains(t, strings.ToLower(out), "decimal", "column types are shown in display form")
	assert.Contains(t, out, "(1 rows, limit 5)")
}

func TestDatasetsGet_Preview(t *testing.T) {
	out, _, err := run(t, "", "datasets", "get", "esg-1", "--preview")
	require.NoError(t, err)
	assert.Contains(t, out, "esg-1")
	assert.Contains(t, out, "Preview not available")
}

func TestStatus(t *testing.T) {
	out, _, err := run(t, "", "status", "-o", "json")
	require.NoError(t, err)

	var rep statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "healthy", rep.Health.Status)
	assert.Equal(t, 3, rep.Stats.TotalDatasets)
	assert.Equal(t, market.Connected, rep.Connection.Status)
	assert.Empty(t, rep.Errors)
}

func TestExplore_FinalStateIsPrinted(t *testing.T) {
	out, _, err := run(t, "ESG\n:cat Credit Risk\n", "explore")
	require.NoError(t, err)
	assert.Contains(t, out, `search q="ESG"`)
	assert.Contains(t, out, "trading-1")
}

func TestExplore_ReturnsWhenContextCancelled(t *testing.T) {
	testChdir(t, t.TempDir())
	srv := httptest.NewServer(&backend{})
	t.Cleanup(srv.Close)

	// stdin stays open, so only cancellation can end the command.
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_, _ = io.WriteString(pw, "ESG\nfraud\n")
		cancel()
	}()

	root, _ := newTestRoot(t, srv.URL, pr, "explore")
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("explore did not return after its context was cancelled")
	}
}
