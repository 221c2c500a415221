package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/shashiranjanraj/productd/app/requests"
	"github.com/shashiranjanraj/productd/app/resources"
	"github.com/shashiranjanraj/productd/pkg/collection"
	"github.com/shashiranjanraj/productd/pkg/logger"
	"github.com/shashiranjanraj/productd/pkg/storage"
	"github.com/shashiranjanraj/productd/pkg/validate"
	"github.com/shashiranjanraj/productd/pkg/workerpool"
)

// importBatch is how many rows one pool task inserts.
const importBatch = 50

// ImportResult summarises an import run.
type ImportResult struct {
	Imported int
	Skipped  int
	Failed   int
}

// Export writes every product to path on disk as a JSON array in the same
// shape GET /products/ returns.
func (s *ProductService) Export(ctx context.Context, disk storage.Disk, path string) (int, error) {
	products, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	data, err := json.MarshalIndent(resources.NewProducts(products), "", "  ")
	if err != nil {
		return 0, fmt.Errorf("products: export: encode: %w", err)
	}
	if err := disk.Put(ctx, path, bytes.NewReader(data)); err != nil {
		return 0, fmt.Errorf("products: export: %w", err)
	}
	return len(products), nil
}

// Import reads a JSON array from path on disk and creates one product per
// element. Ids in the file are ignored; rows missing name or description are
// skipped. Inserts run on a pool of workers goroutines, so ctx must carry a
// session that is safe for concurrent use (the pool, not a single
// connection).
func (s *ProductService) Import(ctx context.Context, disk storage.Disk, path string, workers int) (ImportResult, error) {
	rc, err := disk.Get(ctx, path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("products: import: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return ImportResult{}, fmt.Errorf("products: import: read: %w", err)
	}
	var rows []requests.ProductInput
	if err := json.Unmarshal(raw, &rows); err != nil {
		return ImportResult{}, fmt.Errorf("products: import: decode: %w", err)
	}

	valid := collection.Filter(rows, func(in requests.ProductInput) bool {
		return !validate.HasErrors(validate.Struct(in))
	})
	res := ImportResult{Skipped: len(rows) - len(valid)}

	var (
		mu   sync.Mutex
		errs []error
	)
	pool := workerpool.New(workers, workerpool.WithPanicHandler(func(r any) {
		mu.Lock()
		errs = append(errs, fmt.Errorf("panic: %v", r))
		mu.Unlock()
	}))

	for _, batch := range collection.Chunk(valid, importBatch) {
		err := pool.SubmitWait(ctx, func() {
			for _, in := range batch {
				_, err := s.Create(ctx, in)
				mu.Lock()
				if err != nil {
					res.Failed++
					errs = append(errs, err)
				} else {
					res.Imported++
				}
				mu.Unlock()
			}
		})
		if err != nil {
			pool.Shutdown()
			return res, fmt.Errorf("products: import: %w", err)
		}
	}
	pool.Shutdown()

	if len(errs) > 0 {
		logger.WithCtx(ctx).Warn("products: import finished with errors", "failed", res.Failed)
		return res, fmt.Errorf("products: import: %w", errors.Join(errs...))
	}
	return res, nil
}
