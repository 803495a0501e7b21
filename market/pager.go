package market

import "context"

// DatasetPager iterates through dataset pages using repeated ListDatasets
// calls. It stops on an empty or short page, or once Total is reached.
type DatasetPager struct {
	Client   *Client
	Category Category
	Limit    int
	Page     int
	Done     bool

	seen int
}

// Next returns the next batch of datasets, or nil when iteration finishes.
func (p *DatasetPager) Next(ctx context.Context) ([]Dataset, error) {
	if p.Done {
		return nil, nil
	}
	if p.Page < 1 {
		p.Page = 1
	}
	resp, err := p.Client.ListDatasets(ctx, ListOptions{Category: p.Category, Page: p.Page, Limit: p.Limit})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		p.Done = true
		return nil, nil
	}
	p.seen += len(resp.Data)
	p.Page++
	limit := p.Limit
	if limit <= 0 {
		limit = resp.Limit
	}
	if (resp.Total > 0 && p.seen >= resp.Total) || (limit > 0 && len(resp.Data) < limit) {
		p.Done = true
	}
	return resp.Data, nil
}

// All drains the pager.
func (p *DatasetPager) All(ctx context.Context) ([]Dataset, error) {
	out := []Dataset{}
	for {
		batch, err := p.Next(ctx)
		if err != nil {
			return out, err
		}
		if batch == nil {
			return out, nil
		}
		out = append(out, batch...)
	}
}
