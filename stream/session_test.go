package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/patchgate/patchgate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testSchema(t *testing.T) patchgate.Schema {
	t.Helper()
	var s patchgate.Schema
	err := json.Unmarshal([]byte(`{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name":  {"type": "string"},
			"tags":  {"type": "array", "items": {"type": "string"}}
		},
		"additionalProperties": false
	}`), &s)
	require.NoError(t, err)
	return s
}

func collector() (*[]Verdict, Sink) {
	var got []Verdict
	return &got, func(v Verdict) { got = append(got, v) }
}

func TestSession_FeedReassemblesChunks(t *testing.T) {
	got, sink := collector()
	s := NewSession(testSchema(t), patchgate.DefaultOptions(), nil, sink)

	// One operation split across three chunks, newline in the last.
	s.Feed(`{"op": "add", "pa`)
	s.Feed(`th": "/name", "val`)
	assert.Empty(t, *got, "no verdict before the line completes")
	s.Feed("ue\": \"x\"}\n")

	require.Len(t, *got, 1)
	assert.True(t, (*got)[0].Valid)
	assert.Equal(t, "add", (*got)[0].Op["op"])
}

func TestSession_MultipleLinesInOneChunk(t *testing.T) {
	got, sink := collector()
	s := NewSession(testSchema(t), patchgate.DefaultOptions(), nil, sink)

	s.Feed("{\"op\": \"add\", \"path\": \"/name\", \"value\": \"a\"}\n" +
		"{\"op\": \"remove\", \"path\": \"/name\"}\n")

	require.Len(t, *got, 2)
	assert.True(t, (*got)[0].Valid)
	assert.False(t, (*got)[1].Valid, "removing a required property is rejected")
	require.NotEmpty(t, (*got)[1].Errors)
	assert.Equal(t, patchgate.KindSemantic, (*got)[1].Errors[0].Kind)
}

func TestSession_SkipsProseAndFences(t *testing.T) {
	got, sink := collector()
	s := NewSession(testSchema(t), patchgate.DefaultOptions(), nil, sink)

	s.Feed("Here are the operations you asked for:\n")
	s.Feed("```json\n")
	s.Feed("{\"op\": \"add\", \"path\": \"/name\", \"value\": \"x\"}\n")
	s.Feed("```\n")
	s.Flush()

	require.Len(t, *got, 1, "only the JSON line produces a verdict")
	stats := s.Stats()
	assert.Equal(t, 4, stats.Lines)
	assert.Equal(t, 3, stats.Skipped)
	assert.Equal(t, 1, stats.Valid)
}

func TestSession_ExtractsObjectFromSurroundingText(t *testing.T) {
	got, sink := collector()
	s := NewSession(testSchema(t), patchgate.DefaultOptions(), nil, sink)

	s.Feed("1. {\"op\": \"add\", \"path\": \"/name\", \"value\": \"x\"} (sets the name)\n")

	require.Len(t, *got, 1)
	assert.True(t, (*got)[0].Valid)
	assert.Equal(t, `{"op": "add", "path": "/name", "value": "x"}`, (*got)[0].Raw)
}

func TestSession_FlushValidatesTrailingLine(t *testing.T) {
	got, sink := collector()
	s := NewSession(testSchema(t), patchgate.DefaultOptions(), nil, sink)

	s.Feed(`{"op": "add", "path": "/name", "value": "x"}`)
	assert.Empty(t, *got)
	s.Flush()
	require.Len(t, *got, 1)
	assert.True(t, (*got)[0].Valid)

	// Flush is idempotent.
	s.Flush()
	assert.Len(t, *got, 1)
}

func TestSession_RejectedOperationCarriesErrors(t *testing.T) {
	got, sink := collector()
	s := NewSession(testSchema(t), patchgate.DefaultOptions(), nil, sink)

	s.Feed("{\"op\": \"replace\", \"path\": \"/bogus\", \"value\": 1}\n")

	require.Len(t, *got, 1)
	assert.False(t, (*got)[0].Valid)
	require.Len(t, (*got)[0].Errors, 1)
	assert.Equal(t, patchgate.KindPath, (*got)[0].Errors[0].Kind)
	assert.Equal(t, 0, (*got)[0].Errors[0].OpIndex)

	stats := s.Stats()
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 0, stats.Valid)
}

func TestSession_InvalidJSONCandidateSkipped(t *testing.T) {
	got, sink := collector()
	s := NewSession(testSchema(t), patchgate.DefaultOptions(), nil, sink)

	s.Feed("{'op': 'add'}\n")

	assert.Empty(t, *got)
	assert.Equal(t, 1, s.Stats().Skipped)
}

func TestExtractCandidate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"surrounded", `x {"a": 1} y`, `{"a": 1}`, true},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`, true},
		{"braces in string", `{"a": "}{"}`, `{"a": "}{"}`, true},
		{"escaped quote in string", `{"a": "\"}"}`, `{"a": "\"}"}`, true},
		{"prose only", "no json here", "", false},
		{"unbalanced", `{"a": 1`, "", false},
		{"stray close", `} {"a": 1}`, `{"a": 1}`, true},
		{"empty", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractCandidate(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

type chanSource struct {
	chunks []string
}

func (c chanSource) Stream(ctx context.Context) (<-chan string, error) {
	out := make(chan string)
	go func() {
		defer close(out)
		for _, chunk := range c.chunks {
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func TestRun_DrainsSourceAndFlushes(t *testing.T) {
	got, sink := collector()
	s := NewSession(testSchema(t), patchgate.DefaultOptions(), nil, sink)

	src := chanSource{chunks: []string{
		"{\"op\": \"add\", \"path\": \"/name\", \"value\": \"a\"}\n",
		`{"op": "test", "path": "/name",`,
		` "value": "a"}`, // no trailing newline, Flush must pick it up
	}}
	require.NoError(t, Run(context.Background(), src, s))

	require.Len(t, *got, 2)
	assert.True(t, (*got)[0].Valid)
	assert.True(t, (*got)[1].Valid)
}

type blockedSource struct{}

func (blockedSource) Stream(ctx context.Context) (<-chan string, error) {
	out := make(chan string)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s := NewSession(testSchema(t), patchgate.DefaultOptions(), nil, nil)
	err := Run(ctx, blockedSource{}, s)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
