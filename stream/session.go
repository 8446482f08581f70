// Package stream validates model-produced patch operations as they arrive.
// A Session buffers streamed text into lines, extracts one JSON patch
// operation per line, validates it against the session schema, and hands the
// verdict to a sink. Prose lines and code fences around the JSON are skipped,
// not treated as errors.
package stream

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patchgate/patchgate"
)

// Verdict is the outcome of validating one streamed operation line.
type Verdict struct {
	// Raw is the extracted JSON candidate exactly as it appeared.
	Raw string

	// Op is the decoded operation object.
	Op map[string]any

	Valid  bool
	Errors []patchgate.OpError
}

// Sink receives verdicts in stream order. It is called from the goroutine
// driving Feed, never concurrently.
type Sink func(Verdict)

// Stats counts what a session has seen so far.
type Stats struct {
	Lines    int // complete lines processed
	Skipped  int // lines with no JSON object candidate
	Valid    int // operations that passed validation
	Rejected int // operations that failed validation
}

// Session is an incremental line-oriented validator over a fixed schema.
// Methods are safe for concurrent use, though chunks fed from multiple
// goroutines interleave at chunk granularity.
type Session struct {
	id     uuid.UUID
	schema patchgate.Schema
	opts   patchgate.Options
	log    *zap.Logger
	sink   Sink

	mu    sync.Mutex
	buf   strings.Builder
	stats Stats
}

// NewSession creates a session over the given schema. A nil logger disables
// logging; a nil sink discards verdicts (only the stats remain observable).
func NewSession(schema patchgate.Schema, opts patchgate.Options, log *zap.Logger, sink Sink) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if sink == nil {
		sink = func(Verdict) {}
	}
	id := uuid.New()
	return &Session{
		id:     id,
		schema: schema,
		opts:   opts,
		log:    log.With(zap.String("session", id.String())),
		sink:   sink,
	}
}

// ID returns the session identifier used in log correlation.
func (s *Session) ID() uuid.UUID { return s.id }

// Feed appends a chunk of streamed text. Complete lines are validated
// immediately; a trailing partial line is buffered until the next chunk or
// Flush.
func (s *Session) Feed(chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.WriteString(chunk)
	text := s.buf.String()

	last := strings.LastIndexByte(text, '\n')
	if last < 0 {
		return
	}
	complete, rest := text[:last], text[last+1:]
	s.buf.Reset()
	s.buf.WriteString(rest)

	for _, line := range strings.Split(complete, "\n") {
		s.handleLine(line)
	}
}

// Flush validates any buffered trailing line. Call once at end of stream;
// further Feed calls start a fresh line.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf.Len() == 0 {
		return
	}
	line := s.buf.String()
	s.buf.Reset()
	s.handleLine(line)
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// handleLine is called with s.mu held.
func (s *Session) handleLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	s.stats.Lines++

	raw, ok := extractCandidate(line)
	if !ok {
		s.stats.Skipped++
		s.log.Debug("no operation candidate in line", zap.String("line", line))
		return
	}

	var op map[string]any
	if err := json.Unmarshal([]byte(raw), &op); err != nil {
		// Balanced braces but not valid JSON, e.g. single quotes.
		s.stats.Skipped++
		s.log.Debug("candidate is not valid JSON", zap.String("candidate", raw), zap.Error(err))
		return
	}

	res := patchgate.ValidatePatchOpts([]map[string]any{op}, s.schema, s.opts)
	if res.Valid {
		s.stats.Valid++
	} else {
		s.stats.Rejected++
		s.log.Debug("operation rejected",
			zap.String("candidate", raw),
			zap.Int("errors", len(res.Errors)))
	}
	s.sink(Verdict{Raw: raw, Op: op, Valid: res.Valid, Errors: res.Errors})
}
