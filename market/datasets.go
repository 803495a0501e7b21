package market

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListOptions selects a page of datasets, optionally scoped to a category.
// Zero values leave the server defaults in place (page 1, limit 50).
type ListOptions struct {
	Category Category
	Page     int
	Limit    int
}

func (o ListOptions) query() string {
	var page, limit string
	if o.Page > 0 {
		page = strconv.Itoa(o.Page)
	}
	if o.Limit > 0 {
		limit = strconv.Itoa(o.Limit)
	}
	return buildQuery("category", string(o.Category), "page", page, "limit", limit)
}

// ListDatasets returns a page of datasets.
func (c *Client) ListDatasets(ctx context.Context, o ListOptions, opts ...CallOption) (*DatasetPage, error) {
	op := "list datasets"
	if o.Category != "" {
		op = "list datasets by category"
	}
	var out DatasetPage
	if err := c.doJSON(ctx, op, http.MethodGet, "/datasets"+o.query(), nil, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// AllDatasets returns the unfiltered dataset list.
func (c *Client) AllDatasets(ctx context.Context, opts ...CallOption) ([]Dataset, error) {
	page, err := c.ListDatasets(ctx, ListOptions{}, opts...)
	if err != nil {
		return nil, err
	}
	return nonNil(page.Data), nil
}

// DatasetsByCategory returns the datasets of one category.
func (c *Client) DatasetsByCategory(ctx context.Context, cat Category, opts ...CallOption) ([]Dataset, error) {
	page, err := c.ListDatasets(ctx, ListOptions{Category: cat}, opts...)
	if err != nil {
		return nil, err
	}
	return nonNil(page.Data), nil
}

// SearchDatasets runs a free-text search. The query is sent as given.
func (c *Client) SearchDatasets(ctx context.Context, query string, opts ...CallOption) ([]Dataset, error) {
	page, err := c.SearchDatasetsPage(ctx, query, 0, 0, opts...)
	if err != nil {
		return nil, err
	}
	return nonNil(page.Data), nil
}

// SearchDatasetsPage returns one page of search results.
func (c *Client) SearchDatasetsPage(ctx context.Context, query string, page, limit int, opts ...CallOption) (*DatasetPage, error) {
	var p, l string
	if page > 0 {
		p = strconv.Itoa(page)
	}
	if limit > 0 {
		l = strconv.Itoa(limit)
	}
	path := "/datasets/search?q=" + escapeQuery(query)
	if rest := buildQuery("page", p, "limit", l); rest != "" {
		path += "&" + rest[1:]
	}
	var out DatasetPage
	if err := c.doJSON(ctx, "search datasets", http.MethodGet, path, nil, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDataset returns a single dataset by id.
func (c *Client) GetDataset(ctx context.Context, id string, opts ...CallOption) (*Dataset, error) {
	var out Dataset
	if err := c.doJSON(ctx, "get dataset", http.MethodGet, "/datasets/"+url.PathEscape(id), nil, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStats returns catalogue-wide counts.
func (c *Client) GetStats(ctx context.Context, opts ...CallOption) (*DatasetStats, error) {
	var out DatasetStats
	if err := c.doJSON(ctx, "get stats", http.MethodGet, "/datasets/stats", nil, &out, opts...); err != nil {
		return nil, err
	}
	if out.CategoryCounts == nil {
		out.CategoryCounts = map[string]int{}
	}
	return &out, nil
}

// RefreshDatasets asks the backend to reload its dataset cache.
func (c *Client) RefreshDatasets(ctx context.Context, opts ...CallOption) (*RefreshResponse, error) {
	var out RefreshResponse
	if err := c.doJSON(ctx, "refresh datasets", http.MethodPost, "/datasets/refresh", struct{}{}, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func nonNil(ds []Dataset) []Dataset {
	if ds == nil {
		return []Dataset{}
	}
	return ds
}
