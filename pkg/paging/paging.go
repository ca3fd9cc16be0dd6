package paging

import (
	"context"
	"sync"
)

// Page holds one page of a list query together with the unpaged total.
type Page[T any] struct {
	Items      []T
	TotalCount int64
	Limit      int
	Offset     int64
}

// Fetch runs the count and the page query concurrently and returns the first
// error encountered.
func Fetch[T any](ctx context.Context, limit int, offset int64,
	count func(ctx context.Context) (int64, error),
	find func(ctx context.Context) ([]T, error),
) (*Page[T], error) {
	var (
		wg       sync.WaitGroup
		items    []T
		total    int64
		findErr  error
		countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		total, countErr = count(ctx)
	}()
	go func() {
		defer wg.Done()
		items, findErr = find(ctx)
	}()
	wg.Wait()

	if findErr != nil {
		return nil, findErr
	}
	if countErr != nil {
		return nil, countErr
	}
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, TotalCount: total, Limit: limit, Offset: offset}, nil
}

// Map converts the items of a page, keeping the paging metadata.
func Map[T, U any](p *Page[T], fn func(T) U) *Page[U] {
	out := make([]U, 0, len(p.Items))
	for _, item := range p.Items {
		out = append(out, fn(item))
	}
	return &Page[U]{Items: out, TotalCount: p.TotalCount, Limit: p.Limit, Offset: p.Offset}
}
