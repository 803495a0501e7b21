package market

import "fmt"

// DecodeRows maps preview rows into a typed slice using a JSON round-trip.
// Struct fields should be tagged with column names, for example
// `json:"trade_date"`.
func DecodeRows[T any](p *TablePreview) ([]T, error) {
	if p == nil || len(p.Rows) == 0 {
		return []T{}, nil
	}
	out := make([]T, 0, len(p.Rows))
	for i, row := range p.Rows {
		b, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("row %d encoding failed: %w", i, err)
		}
		var t T
		if err := json.Unmarshal(b, &t); err != nil {
			return nil, fmt.Errorf("row %d decoding failed: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}
