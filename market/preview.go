package market

import (
	"context"
	"net/http"
)

// GetTablePreview fetches a bounded preview of a remote table. When the
// backend answers 2xx but reports an error field, the payload is returned
// together with a *PreviewError so callers can still show partial data.
func (c *Client) GetTablePreview(ctx context.Context, tableReference string, opts ...CallOption) (*TablePreview, error) {
	var out TablePreview
	path := "/preview" + buildQuery("table_reference", tableReference)
	if err := c.doJSON(ctx, "get table preview", http.MethodGet, path, nil, &out, opts...); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return &out, &PreviewError{TableReference: tableReference, Message: out.Error}
	}
	return &out, nil
}

// TestConnection reports whether the backend can reach its SQL warehouse.
func (c *Client) TestConnection(ctx context.Context, opts ...CallOption) (*ConnectionStatus, error) {
	var out ConnectionStatus
	if err := c.doJSON(ctx, "test connection", http.MethodGet, "/preview/test", nil, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health returns the backend health report.
func (c *Client) Health(ctx context.Context, opts ...CallOption) (*Health, error) {
	var out Health
	if err := c.doJSON(ctx, "health", http.MethodGet, "/health", nil, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}
