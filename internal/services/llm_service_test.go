package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aiwuxian/neon-panels/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatServer 模拟chat completions接口，记录收到的请求
func fakeChatServer(t *testing.T, reply string, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-3.5-turbo",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func recapView(t *testing.T) (*SessionView, *models.Content) {
	e := testEngine(t)
	st := e.NewState()
	st.ClassKey = "pathfinder"
	st.Index = pChoice
	st.Dead = []string{"dedor"}
	st.Bonds["apex"] = 3
	st.Normalize()
	view, _ := e.Render(st)
	return &SessionView{SessionID: "s1", Panel: view, State: st}, e.Content()
}

func TestNarratorDisabledWithoutKey(t *testing.T) {
	ls := NewLLMService(models.LLMConfig{})
	assert.False(t, ls.Enabled())

	view, content := recapView(t)
	_, err := ls.Recap(context.Background(), view, content)
	assert.ErrorIs(t, err, ErrNarratorDisabled)
}

func TestNarratorRecap(t *testing.T) {
	var req map[string]any
	srv := fakeChatServer(t, "  You slipped into the market.  ", &req)

	ls := NewLLMService(models.LLMConfig{APIKey: "test-key", APIBase: srv.URL, Model: "gpt-3.5-turbo"})
	require.True(t, ls.Enabled())

	view, content := recapView(t)
	before := cloneState(view.State)

	recap, err := ls.Recap(context.Background(), view, content)
	require.NoError(t, err)
	assert.Equal(t, "You slipped into the market.", recap)
	assert.Equal(t, before, view.State, "旁白不修改进度")

	assert.Equal(t, "gpt-3.5-turbo", req["model"])
	messages, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
}

func TestBuildRecapPrompt(t *testing.T) {
	view, content := recapView(t)
	prompt := buildRecapPrompt(view, content)

	assert.Contains(t, prompt, "Current chapter: Act 1")
	assert.Contains(t, prompt, "Current scene: The Night Market")
	assert.Contains(t, prompt, "Player class: Pathfinder")
	assert.Contains(t, prompt, "Fallen: Dedor")
	assert.Contains(t, prompt, "Bond with Apex: 3")
	assert.Contains(t, prompt, "Mara")
	assert.NotContains(t, prompt, "Party: Apex, Dedor")
}
