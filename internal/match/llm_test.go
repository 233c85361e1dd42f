package match

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplygraph/matching-engine/internal/model"
	"github.com/supplygraph/matching-engine/pkg/anthropic"
)

type fakeAnthropicClient struct {
	text  string
	err   error
	calls int
	last  anthropic.MessageRequest
}

func (f *fakeAnthropicClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{Text: f.text}, nil
}

func TestInterpretReturnsConfidence(t *testing.T) {
	client := &fakeAnthropicClient{text: "0.85"}
	interp := NewAnthropicInterpreter(client, "test-model", 0)

	conf, err := interp.Interpret(context.Background(),
		model.Requirement{Name: "milling"},
		model.Capability{Name: "CNC Milling"},
	)
	require.NoError(t, err)
	assert.InDelta(t, 0.85, conf, 0.0001)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "test-model", client.last.Model)
	require.Len(t, client.last.Messages, 1)
	assert.Contains(t, client.last.Messages[0].Content, "milling")
}

func TestInterpretUnparseableReply(t *testing.T) {
	client := &fakeAnthropicClient{text: "definitely maybe"}
	interp := NewAnthropicInterpreter(client, "test-model", 0)

	_, err := interp.Interpret(context.Background(), model.Requirement{Name: "x"}, model.Capability{Name: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparseable confidence")
}

func TestInterpretClientError(t *testing.T) {
	client := &fakeAnthropicClient{err: errors.New("boom")}
	interp := NewAnthropicInterpreter(client, "test-model", 0)

	_, err := interp.Interpret(context.Background(), model.Requirement{Name: "x"}, model.Capability{Name: "y"})
	assert.Error(t, err)
}

func TestParseConfidence(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"0.7", 0.7, true},
		{"0.7\n", 0.7, true},
		{"Confidence: 0.35", 0.35, true},
		{".9", 0.9, true},
		{"1", 1.0, true},
		{"42", 1.0, true}, // clamped
		{"0", 0.0, true},
		{"no number here", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseConfidence(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 0.0001, "input %q", tc.in)
		}
	}
}

func TestLayerHelpers(t *testing.T) {
	req := model.Requirement{Name: "cut panel", ProcessName: "Laser Cutting"}
	caps := []model.Capability{
		{Name: "Plasma Cutting"},
		{Name: "laser cutting"},
	}

	hit := matchHeuristic(req, caps, 2)
	require.NotNil(t, hit)
	assert.Equal(t, model.MatchHeuristic, hit.layer)

	// Semantic layer groups both cutting processes together.
	vocab := map[string][]string{
		"cutting": {"laser cutting", "plasma cutting", "waterjet cutting"},
	}
	semantic := matchSemantic(model.Requirement{Name: "waterjet cutting"},
		[]model.Capability{{Name: "plasma cutting"}}, vocab)
	require.NotNil(t, semantic)
	assert.Equal(t, model.MatchNLP, semantic.layer)
}
