package market

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// FilterState is the user-facing filter selection that drives dataset
// resolution. Duplicate categories are collapsed.
type FilterState struct {
	Categories  []Category
	SearchQuery string
}

// DecisionKind names the backend access pattern chosen for a FilterState.
type DecisionKind int

const (
	DecideAll DecisionKind = iota
	DecideCategory
	DecideSearch
)

func (k DecisionKind) String() string {
	switch k {
	case DecideSearch:
		return "search"
	case DecideCategory:
		return "category"
	default:
		return "all"
	}
}

// FetchDecision is the outcome of Decide: exactly one backend request plus
// the local filter applied to its result.
type FetchDecision struct {
	Kind DecisionKind
	// Query is the trimmed search query (DecideSearch).
	Query string
	// Category is the single selected category (DecideCategory).
	Category Category
	// Categories is the local filter applied after DecideAll. Empty means
	// the backend list is returned as is.
	Categories []Category
}

// Op names the request issued for this decision.
func (d FetchDecision) Op() string { return d.Kind.String() }

func (d FetchDecision) String() string {
	switch d.Kind {
	case DecideSearch:
		return fmt.Sprintf("search q=%q", d.Query)
	case DecideCategory:
		return fmt.Sprintf("category %q", d.Category)
	default:
		if len(d.Categories) == 0 {
			return "all"
		}
		names := make([]string, len(d.Categories))
		for i, c := range d.Categories {
			names[i] = string(c)
		}
		return "all filtered to " + strings.Join(names, ", ")
	}
}

// Decide picks the request for f. A non-blank query wins over categories;
// a single category is fetched server side; anything else fetches all
// datasets and filters locally when more than one category is selected.
func Decide(f FilterState) FetchDecision {
	if q := strings.TrimSpace(f.SearchQuery); q != "" {
		return FetchDecision{Kind: DecideSearch, Query: q}
	}
	cats := uniqueCategories(f.Categories)
	if len(cats) == 1 {
		return FetchDecision{Kind: DecideCategory, Category: cats[0]}
	}
	return FetchDecision{Kind: DecideAll, Categories: cats}
}

func uniqueCategories(in []Category) []Category {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[Category]struct{}, len(in))
	out := make([]Category, 0, len(in))
	for _, c := range in {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// DatasetSource is the backend used by a Resolver. *Client satisfies it.
type DatasetSource interface {
	SearchDatasets(ctx context.Context, query string, opts ...CallOption) ([]Dataset, error)
	DatasetsByCategory(ctx context.Context, cat Category, opts ...CallOption) ([]Dataset, error)
	AllDatasets(ctx context.Context, opts ...CallOption) ([]Dataset, error)
}

var _ DatasetSource = (*Client)(nil)

// Resolver turns a FilterState into a dataset list with exactly one request.
type Resolver struct {
	Source DatasetSource
	Logger *slog.Logger
}

// Resolve decides and executes a single request for f. On failure it returns
// an empty list and a *ResolveError naming the failed operation. Backend
// order is preserved.
func (r Resolver) Resolve(ctx context.Context, f FilterState, opts ...CallOption) ([]Dataset, FetchDecision, error) {
	d := Decide(f)
	log := r.logger()
	log.Debug("resolve datasets", "decision", d.String())

	var (
		out []Dataset
		err error
	)
	switch d.Kind {
	case DecideSearch:
		out, err = r.Source.SearchDatasets(ctx, d.Query, opts...)
	case DecideCategory:
		out, err = r.Source.DatasetsByCategory(ctx, d.Category, opts...)
	default:
		out, err = r.Source.AllDatasets(ctx, opts...)
	}
	if err != nil {
		log.Warn("resolve datasets failed", "op", d.Op(), "error", err)
		return []Dataset{}, d, &ResolveError{Op: d.Op(), Err: err}
	}
	if d.Kind == DecideAll && len(d.Categories) > 1 {
		out = FilterByCategory(out, d.Categories)
	}
	return nonNil(out), d, nil
}

// FilterByCategory keeps the datasets whose category is in cats, in order.
func FilterByCategory(ds []Dataset, cats []Category) []Dataset {
	set := make(map[Category]struct{}, len(cats))
	for _, c := range cats {
		set[c] = struct{}{}
	}
	out := make([]Dataset, 0, len(ds))
	for _, d := range ds {
		if _, ok := set[d.Category]; ok {
			out = append(out, d)
		}
	}
	return out
}

func (r Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return discardLogger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil)) // slog.DiscardHandler requires Go 1.24
