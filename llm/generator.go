// Package llm invokes a language model and exposes its output as a chunk
// stream consumable by the stream package. The validation engine never
// depends on this package; it exists for the generate workflow of the CLI.
package llm

import (
	"bufio"
	"context"
	"io"

	"github.com/patchgate/patchgate/stream"
)

// Generator produces a stream of text chunks for a prompt. The channel is
// closed when generation completes; generators stop early on context
// cancellation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (<-chan string, error)
}

// GeneratorSource binds a generator and a prompt into a stream.Source so the
// generation output can be piped through stream.Run.
func GeneratorSource(g Generator, prompt string) stream.Source {
	return generatorSource{g: g, prompt: prompt}
}

type generatorSource struct {
	g      Generator
	prompt string
}

func (s generatorSource) Stream(ctx context.Context) (<-chan string, error) {
	return s.g.Generate(ctx, s.prompt)
}

// ReaderSource adapts an io.Reader (a file, stdin, a recorded transcript) to
// stream.Source, emitting one line per chunk.
type ReaderSource struct {
	R io.Reader
}

func (r ReaderSource) Stream(ctx context.Context) (<-chan string, error) {
	out := make(chan string, 16)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r.R)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case out <- sc.Text() + "\n":
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
