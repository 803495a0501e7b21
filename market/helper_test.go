package market

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestServer(handler http.HandlerFunc) (*httptest.Server, *Client) {
	srv := httptest.NewServer(handler)
	cl := New(
		WithBaseURL(srv.URL),
		WithBackoff(10*time.Millisecond, 50*time.Millisecond),
	)
	return srv, cl
}

func mustPath(t *testing.T, r *http.Request, want string) {
	t.Helper()
	require.Equal(t, want, r.URL.Path)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func testDataset(id string, cat Category) Dataset {
	return Dataset{
		ID:           id,
		Title:        "Dataset " + id,
		Provider:     Provider{ID: "p-" + id, Name: "Provider " + id},
		Category:     cat,
		Frequency:    FrequencyDaily,
		PricingModel: PricingSubscription,
		AccessLevel:  AccessPremium,
		Currency:     "USD",
		Tags:         []string{},
		Formats:      []string{"CSV"},
	}
}

func pageOf(ds ...Dataset) DatasetPage {
	return DatasetPage{Data: ds, Total: len(ds), Page: 1, Limit: 50}
}

func ids(ds []Dataset) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}
