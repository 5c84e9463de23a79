package fit

import (
	"errors"
	"fmt"
	"sync"

	"github.com/solter/sphere-interp/sh"
	"gonum.org/v1/gonum/mat"
)

// Batch fits several sample vectors against one shared basis matrix on a
// pool of nWorkers goroutines. The basis and blocks are only read, and
// every fit owns its working matrices, so the sets are independent.
//
// results[i] corresponds to sets[i] and is nil when that set failed; the
// returned error joins the per-set failures, each wrapped with its index.
func Batch(basis *mat.Dense, sets [][]float64, blocks []sh.Block, opts *Options, nWorkers int) ([]*Result, error) {
	if nWorkers < 1 {
		nWorkers = 1
	}
	results := make([]*Result, len(sets))
	errs := make([]error, len(sets))
	jobs := make(chan int, 100)
	defer close(jobs)
	var wg sync.WaitGroup

	for w := 0; w < nWorkers; w++ {
		go func() {
			for i := range jobs {
				results[i], errs[i] = Fit(basis, sets[i], blocks, opts)
				wg.Done()
			}
		}()
	}
	for i := range sets {
		wg.Add(1)
		jobs <- i
	}
	wg.Wait()

	var err error
	for i, e := range errs {
		if e != nil {
			err = errors.Join(err, fmt.Errorf("set %d: %w", i, e))
		}
	}
	return results, err
}
