package market

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource records calls and serves a fixed catalogue. With hold set,
// every call waits until released by index.
type fakeSource struct {
	mu      sync.Mutex
	calls   []string
	catalog []Dataset
	err     error
	hold    bool
	gates   []chan struct{}
}

func (f *fakeSource) record(call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	var gate chan struct{}
	if f.hold {
		gate = make(chan struct{})
		f.gates = append(f.gates, gate)
	}
	err := f.err
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeSource) release(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.gates[i])
}

func (f *fakeSource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSource) SearchDatasets(_ context.Context, q string, _ ...CallOption) ([]Dataset, error) {
	if err := f.record("search:" + q); err != nil {
		return nil, err
	}
	return []Dataset{f.catalog[len(f.catalog)-1]}, nil
}

func (f *fakeSource) DatasetsByCategory(_ context.Context, c Category, _ ...CallOption) ([]Dataset, error) {
	if err := f.record("category:" + string(c)); err != nil {
		return nil, err
	}
	return FilterByCategory(f.catalog, []Category{c}), nil
}

func (f *fakeSource) AllDatasets(_ context.Context, _ ...CallOption) ([]Dataset, error) {
	if err := f.record("all"); err != nil {
		return nil, err
	}
	return append([]Dataset(nil), f.catalog...), nil
}

func testCatalog() []Dataset {
	return []Dataset{
		testDataset("a", CategoryMarketTrading),
		testDataset("b", CategoryESGSustainability),
		testDataset("c", CategoryCreditRisk),
		testDataset("d", CategoryESGSustainability),
		testDataset("e", CategoryFraudDetection),
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		in   FilterState
		want FetchDecision
	}{
		{"empty", FilterState{}, FetchDecision{Kind: DecideAll}},
		{"blank query", FilterState{SearchQuery: "  \t"}, FetchDecision{Kind: DecideAll}},
		{"query wins over categories",
			FilterState{SearchQuery: " ESG ", Categories: []Category{CategoryMarketTrading, CategoryCreditRisk}},
			FetchDecision{Kind: DecideSearch, Query: "ESG"}},
		{"single category",
			FilterState{Categories: []Category{CategoryCreditRisk}},
			FetchDecision{Kind: DecideCategory, Category: CategoryCreditRisk}},
		{"duplicate collapses to single",
			FilterState{Categories: []Category{CategoryCreditRisk, CategoryCreditRisk}},
			FetchDecision{Kind: DecideCategory, Category: CategoryCreditRisk}},
		{"multi category",
			FilterState{Categories: []Category{CategoryESGSustainability, CategoryCreditRisk, CategoryESGSustainability}},
			FetchDecision{Kind: DecideAll, Categories: []Category{CategoryESGSustainability, CategoryCreditRisk}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.in))
		})
	}
}

func TestResolve_SearchIgnoresCategories(t *testing.T) {
	for _, cats := range [][]Category{nil, {CategoryMarketTrading}, {CategoryMarketTrading, CategoryCreditRisk}} {
		src := &fakeSource{catalog: testCatalog()}
		ds, d, err := Resolver{Source: src}.Resolve(context.Background(), FilterState{Categories: cats, SearchQuery: "fraud "})
		require.NoError(t, err)
		assert.Equal(t, DecideSearch, d.Kind)
		assert.Equal(t, []string{"search:fraud"}, src.Calls())
		assert.Equal(t, []string{"e"}, ids(ds))
	}
}

func TestResolve_SingleCategory(t *testing.T) {
	src := &fakeSource{catalog: testCatalog()}
	ds, d, err := Resolver{Source: src}.Resolve(context.Background(), FilterState{Categories: []Category{CategoryESGSustainability}})
	require.NoError(t, err)
	assert.Equal(t, "category", d.Op())
	assert.Equal(t, []string{"category:ESG & Sustainability"}, src.Calls())
	assert.Equal(t, []string{"b", "d"}, ids(ds))
}

func TestResolve_MultiCategoryFiltersLocallyPreservingOrder(t *testing.T) {
	src := &fakeSource{catalog: testCatalog()}
	ds, d, err := Resolver{Source: src}.Resolve(context.Background(), FilterState{
		Categories: []Category{CategoryESGSustainability, CategoryCreditRisk},
	})
	require.NoError(t, err)
	assert.Equal(t, DecideAll, d.Kind)
	assert.Equal(t, []string{"all"}, src.Calls())
	assert.Equal(t, []string{"b", "c", "d"}, ids(ds))
}

func TestResolve_NoFiltersReturnsBackendList(t *testing.T) {
	src := &fakeSource{catalog: testCatalog()}
	ds, _, err := Resolver{Source: src}.Resolve(context.Background(), FilterState{})
	require.NoError(t, err)
	assert.Equal(t, []string{"all"}, src.Calls())
	assert.Equal(t, ids(testCatalog()), ids(ds))
}

func TestResolve_ErrorNamesOperation(t *testing.T) {
	boom := errors.New("connection reset")
	tests := []struct {
		in FilterState
		op string
	}{
		{FilterState{SearchQuery: "x"}, "search"},
		{FilterState{Categories: []Category{CategoryCreditRisk}}, "category"},
		{FilterState{Categories: []Category{CategoryCreditRisk, CategoryFraudDetection}}, "all"},
	}
	for _, tt := range tests {
		src := &fakeSource{catalog: testCatalog(), err: boom}
		ds, _, err := Resolver{Source: src}.Resolve(context.Background(), tt.in)
		require.NotNil(t, ds)
		assert.Empty(t, ds)
		var re *ResolveError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, tt.op, re.Op)
		assert.ErrorIs(t, err, boom)
		assert.Len(t, src.Calls(), 1)
	}
}

func TestResolve_AgainstClientEncodesSearch(t *testing.T) {
	var got []string
	srv, cl := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.Path+"?"+r.URL.RawQuery)
		writeJSON(w, pageOf(testDataset("1", CategoryMarketTrading)))
	})
	defer srv.Close()

	_, d, err := Resolver{Source: cl}.Resolve(context.Background(), FilterState{
		SearchQuery: "ESG data for European banks",
		Categories:  []Category{CategoryMarketTrading},
	})
	require.NoError(t, err)
	assert.Equal(t, `search q="ESG data for European banks"`, d.String())
	assert.Equal(t, []string{"/datasets/search?q=ESG%20data%20for%20European%20banks"}, got)
}
