package parser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"logdissect/internal/record"
)

// DoneFunc receives each record of a batch with its outcome: nil or a
// *DissectionFailure. Calls are serialized but arrive in completion order.
type DoneFunc[R any] func(index int, rec R, err error)

// ParseBatch dissects lines with up to workers goroutines. Each worker owns
// its value store. A record that cannot be dissected is handed to done and
// the batch continues; an *InternalConsistencyError or the end of ctx stops
// the batch and is returned.
func (p *Parser[R]) ParseBatch(ctx context.Context, lines []string, workers int, newRecord func() R, done DoneFunc[R]) error {
	if p.plan == nil {
		return ErrNotBuilt
	}

	if workers < 1 {
		workers = 1
	}

	if workers > len(lines) {
		workers = max(len(lines), 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)

	g.Go(func() error {
		defer close(jobs)

		for i := range lines {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}

		return nil
	})

	var mu sync.Mutex

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			s := record.NewStore(record.WithLogger(p.log))

			for i := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}

				rec := newRecord()
				err := p.parse(s, lines[i], rec)
				s.Reset()

				var ice *InternalConsistencyError
				if errors.As(err, &ice) {
					p.log.Error("batch aborted", zap.Int("record", i), zap.Error(err))
					return fmt.Errorf("record %d: %w", i, err)
				}

				if done != nil {
					mu.Lock()
					done(i, rec, err)
					mu.Unlock()
				}
			}

			return nil
		})
	}

	return g.Wait()
}
