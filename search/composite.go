package search

import (
	"context"
	"sync"
)

// CompositeProvider fans out a query to multiple child providers
// concurrently and unions their results by URL, first-seen wins in child
// order. It fails only if every child fails and the union is empty.
type CompositeProvider struct {
	children []Provider
}

// NewCompositeProvider creates a CompositeProvider over children.
func NewCompositeProvider(children ...Provider) *CompositeProvider {
	return &CompositeProvider{children: children}
}

type childOutcome struct {
	index   int
	results []Result
	err     error
}

// Search queries every child concurrently and returns the deduped union.
func (c *CompositeProvider) Search(ctx context.Context, query string) ([]Result, error) {
	outcomes := make([]childOutcome, len(c.children))
	var wg sync.WaitGroup

	for i, child := range c.children {
		wg.Add(1)
		go func(i int, child Provider) {
			defer wg.Done()
			results, err := child.Search(ctx, query)
			outcomes[i] = childOutcome{index: i, results: results, err: err}
		}(i, child)
	}
	wg.Wait()

	var union []Result
	var firstErr error
	allFailed := true
	for _, o := range outcomes {
		if o.err == nil {
			allFailed = false
			union = append(union, o.results...)
		} else if firstErr == nil {
			firstErr = o.err
		}
	}

	union = Dedup(union)
	if len(union) == 0 && allFailed && firstErr != nil {
		return nil, firstErr
	}
	return union, nil
}
