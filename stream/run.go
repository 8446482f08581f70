package stream

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Source produces a stream of text chunks. The returned channel must be
// closed by the producer when the stream ends; producers should stop on
// context cancellation.
type Source interface {
	Stream(ctx context.Context) (<-chan string, error)
}

// Run drains a source into the session until the source is exhausted or the
// context is canceled. The trailing partial line is flushed on normal
// completion. Run returns the first error from either side of the pipeline.
func Run(ctx context.Context, src Source, s *Session) error {
	chunks, err := src.Stream(ctx)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	feed := make(chan string, 16)

	g.Go(func() error {
		defer close(feed)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case chunk, ok := <-chunks:
				if !ok {
					return nil
				}
				select {
				case feed <- chunk:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	})

	g.Go(func() error {
		for chunk := range feed {
			s.Feed(chunk)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.Flush()
		return nil
	})

	return g.Wait()
}
