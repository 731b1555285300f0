package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type scriptedModels struct {
	responses map[string]string // model -> raw response text
	errs      map[string]error
	calls     []string
}

func (s *scriptedModels) client() Client {
	return ClientFunc(func(
		ctx context.Context, model string, messages []Message, opts Options,
	) (string, error) {
		s.calls = append(s.calls, model)
		if err, ok := s.errs[model]; ok {
			return "", err
		}
		if response, ok := s.responses[model]; ok {
			return response, nil
		}
		return "", ErrExhausted
	})
}

type parsedOut struct {
	Value int `json:"value"`
}

func TestModelRingFirstModelSucceeds(t *testing.T) {
	models := &scriptedModels{responses: map[string]string{"a": `{"value": 1}`}}
	ring := NewModelRing([]string{"a", "b"})

	var out parsedOut
	err := ring.CompleteJson(context.Background(), models.client(), nil, Options{}, &out, testLogger{})
	require.NoError(t, err)
	require.Equal(t, 1, out.Value)
	require.Equal(t, []string{"a"}, models.calls)
}

func TestModelRingAdvancesOnApiError(t *testing.T) {
	models := &scriptedModels{
		errs:      map[string]error{"a": ErrExhausted},
		responses: map[string]string{"b": `{"value": 2}`},
	}
	ring := NewModelRing([]string{"a", "b"})

	var out parsedOut
	err := ring.CompleteJson(context.Background(), models.client(), nil, Options{}, &out, testLogger{})
	require.NoError(t, err)
	require.Equal(t, 2, out.Value)
	require.Equal(t, []string{"a", "b"}, models.calls)
}

func TestModelRingAdvancesOnParseError(t *testing.T) {
	models := &scriptedModels{
		responses: map[string]string{
			"a": `here are my thoughts, not json`,
			"b": `{"value": 3}`,
		},
	}
	ring := NewModelRing([]string{"a", "b"})

	var out parsedOut
	err := ring.CompleteJson(context.Background(), models.client(), nil, Options{}, &out, testLogger{})
	require.NoError(t, err)
	require.Equal(t, 3, out.Value)
	require.Equal(t, []string{"a", "b"}, models.calls)
}

func TestModelRingRemembersGoodAndBadModels(t *testing.T) {
	models := &scriptedModels{
		errs:      map[string]error{"a": ErrExhausted},
		responses: map[string]string{"b": `{"value": 4}`},
	}
	ring := NewModelRing([]string{"a", "b", "c"})

	var out parsedOut
	err := ring.CompleteJson(context.Background(), models.client(), nil, Options{}, &out, testLogger{})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, models.calls)

	// Second call tries the last good model first and skips the known-bad one
	models.calls = nil
	err = ring.CompleteJson(context.Background(), models.client(), nil, Options{}, &out, testLogger{})
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, models.calls)
}

func TestModelRingExhaustion(t *testing.T) {
	models := &scriptedModels{errs: map[string]error{"a": ErrExhausted, "b": ErrExhausted}}
	ring := NewModelRing([]string{"a", "b"})

	var out parsedOut
	err := ring.CompleteJson(context.Background(), models.client(), nil, Options{}, &out, testLogger{})
	require.ErrorIs(t, err, ErrExhausted)
}

func TestModelRingNegativeCacheNeverEmptiesTheRing(t *testing.T) {
	models := &scriptedModels{errs: map[string]error{"a": ErrExhausted}}
	ring := NewModelRing([]string{"a"})

	var out parsedOut
	err := ring.CompleteJson(context.Background(), models.client(), nil, Options{}, &out, testLogger{})
	require.ErrorIs(t, err, ErrExhausted)

	// The model recovered; with every model marked bad the full list is retried
	models.errs = nil
	models.responses = map[string]string{"a": `{"value": 5}`}
	err = ring.CompleteJson(context.Background(), models.client(), nil, Options{}, &out, testLogger{})
	require.NoError(t, err)
	require.Equal(t, 5, out.Value)
}

func TestModelRingReset(t *testing.T) {
	ring := NewModelRing([]string{"a", "b"})
	ring.noteFailed("a")
	ring.noteGood("b")
	require.Equal(t, []string{"b"}, ring.candidates())

	ring.Reset()
	require.Equal(t, []string{"a", "b"}, ring.candidates())
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, test := range tests {
		require.Equal(t, test.expected, stripCodeFence(test.input))
	}
}
