package market

import "context"

// DatasetRef is a light-weight handle bound to a specific dataset ID.
type DatasetRef struct {
	ID     string
	Client *Client
}

// Dataset returns a handle for a given dataset ID.
func (c *Client) Dataset(id string) DatasetRef { return DatasetRef{ID: id, Client: c} }

// Get fetches the dataset record.
func (d DatasetRef) Get(ctx context.Context, opts ...CallOption) (*Dataset, error) {
	return d.Client.GetDataset(ctx, d.ID, opts...)
}

// Preview fetches the dataset and previews its sample table. It returns
// ErrEmptyPreview without a second request when the dataset has no sample.
func (d DatasetRef) Preview(ctx context.Context, opts ...CallOption) (*Dataset, *TablePreview, error) {
	ds, err := d.Get(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	if !PreviewAvailable(*ds) {
		return ds, nil, ErrEmptyPreview
	}
	p, err := d.Client.GetTablePreview(ctx, ds.SampleURL, opts...)
	return ds, p, err
}
