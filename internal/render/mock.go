package render

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/abhisek/celebrate/internal/compose"
	"github.com/abhisek/celebrate/internal/encoder"
	"github.com/abhisek/celebrate/internal/rarity"
)

// MockCall records one Encode invocation.
type MockCall struct {
	Tier   rarity.Tier
	Output string
	Graph  *compose.Graph
}

// MockEncoder is a deterministic Encoder for testing. It writes a small
// placeholder file instead of spawning a process and records every call.
type MockEncoder struct {
	mu sync.Mutex

	// LocateErr is returned by Locate when set.
	LocateErr error
	// Errs fails the encode of the given tiers.
	Errs map[rarity.Tier]error
	// Block makes Encode wait for ctx to be done.
	Block bool

	Calls []MockCall
}

// Locate returns LocateErr or a fake path.
func (m *MockEncoder) Locate() (string, error) {
	if m.LocateErr != nil {
		return "", m.LocateErr
	}
	return "/mock/ffmpeg", nil
}

// Encode records the call and writes "mock-mp4" to output.
func (m *MockEncoder) Encode(ctx context.Context, g *compose.Graph, output string) (*encoder.Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Tier: g.Tier, Output: output, Graph: g})
	err := m.Errs[g.Tier]
	block := m.Block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return &encoder.Result{Output: output}, err
	}

	start := time.Now()
	if err := os.WriteFile(output, []byte("mock-mp4"), 0o644); err != nil {
		return nil, err
	}
	return &encoder.Result{Output: output, Elapsed: time.Since(start), Size: int64(len("mock-mp4"))}, nil
}

// CallCount returns the number of Encode calls so far.
func (m *MockEncoder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
