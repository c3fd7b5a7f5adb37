package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwriting-cli/pkg/anthropic"
)

// fakeClient returns canned responses and records requests.
type fakeClient struct {
	reqs  []anthropic.MessageRequest
	resps []*anthropic.MessageResponse
	errs  []error
	calls int
}

func (f *fakeClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.reqs = append(f.reqs, req)
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.resps) {
		return f.resps[i], nil
	}
	return f.resps[len(f.resps)-1], nil
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func TestAnthropicGenerator_Generate(t *testing.T) {
	fc := &fakeClient{resps: []*anthropic.MessageResponse{textResponse(`{"ok": true}`)}}
	gen := NewAnthropicGenerator(fc, "claude-sonnet-4-5-20250929", 0)

	out, err := gen.Generate(context.Background(), Request{
		Step:   "classify",
		System: "You are an underwriter.",
		Prompt: "Classify this business.",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, out)

	require.Len(t, fc.reqs, 1)
	assert.Equal(t, "claude-sonnet-4-5-20250929", fc.reqs[0].Model)
	assert.Equal(t, "You are an underwriter.", fc.reqs[0].System)
	assert.Equal(t, int64(2048), fc.reqs[0].MaxTokens)
}

func TestAnthropicGenerator_RetriesOverload(t *testing.T) {
	fc := &fakeClient{
		errs:  []error{errors.New("anthropic: create message: 529 overloaded_error")},
		resps: []*anthropic.MessageResponse{nil, textResponse("recovered")},
	}
	gen := NewAnthropicGenerator(fc, "claude-sonnet-4-5-20250929", 0)
	gen.retry.InitialBackoff = 1
	gen.retry.MaxBackoff = 1

	out, err := gen.Generate(context.Background(), Request{Step: "classify", Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Equal(t, 2, fc.calls)
}

func TestAnthropicGenerator_PermanentError(t *testing.T) {
	fc := &fakeClient{errs: []error{errors.New("anthropic: create message: 400 invalid_request_error")}}
	gen := NewAnthropicGenerator(fc, "claude-sonnet-4-5-20250929", 0)

	_, err := gen.Generate(context.Background(), Request{Step: "classify", Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, 1, fc.calls)
}

func TestCountingGenerator(t *testing.T) {
	fc := &fakeClient{resps: []*anthropic.MessageResponse{textResponse("hi")}}
	counting := &CountingGenerator{Inner: NewAnthropicGenerator(fc, "m", 0)}

	_, err := counting.Generate(context.Background(), Request{Step: "a", Prompt: "x"})
	require.NoError(t, err)
	_, err = counting.Generate(context.Background(), Request{Step: "b", Prompt: "y"})
	require.NoError(t, err)

	assert.Equal(t, int64(2), counting.Calls())
}
