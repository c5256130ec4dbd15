package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/aiwuxian/neon-panels/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// ErrNarratorDisabled 未配置API Key，旁白不可用
var ErrNarratorDisabled = errors.New("narrator disabled: no api key configured")

// LLMService 旁白：根据当前进度生成一段“前情提要”，只读，不修改进度
type LLMService struct {
	client *openai.Client
	config models.LLMConfig
}

func NewLLMService(config models.LLMConfig) *LLMService {
	if config.Model == "" {
		config.Model = openai.GPT3Dot5Turbo
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 400
	}
	ls := &LLMService{config: config}
	if config.APIKey == "" {
		return ls
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.APIBase != "" {
		clientConfig.BaseURL = config.APIBase
	}
	ls.client = openai.NewClientWithConfig(clientConfig)
	return ls
}

// Enabled 是否配置了API Key
func (ls *LLMService) Enabled() bool {
	return ls != nil && ls.client != nil
}

// Recap 生成前情提要
func (ls *LLMService) Recap(ctx context.Context, view *SessionView, content *models.Content) (string, error) {
	if !ls.Enabled() {
		return "", ErrNarratorDisabled
	}

	resp, err := ls.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: ls.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: recapSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildRecapPrompt(view, content)},
		},
		Temperature: ls.config.Temperature,
		MaxTokens:   ls.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("调用LLM失败: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM返回为空")
	}

	recap := strings.TrimSpace(resp.Choices[0].Message.Content)
	log.Printf("🎙️ [旁白] 会话 %s 生成前情提要 (%d 字)\n", view.SessionID, len([]rune(recap)))
	return recap, nil
}

const recapSystemPrompt = `You are the narrator of a neon-noir survival story told in comic panels.
Write a short "story so far" recap in second person, at most three sentences.
Only use the facts given. Never invent deaths, companions or events.`

// buildRecapPrompt 把当前视图和进度整理成给模型的事实清单
func buildRecapPrompt(view *SessionView, content *models.Content) string {
	st := view.State
	var b strings.Builder

	fmt.Fprintf(&b, "Current chapter: %s\n", view.Panel.Act.Label)
	if view.Panel.SceneTitle != "" {
		fmt.Fprintf(&b, "Current scene: %s\n", view.Panel.SceneTitle)
	}
	if view.Panel.Title != "" {
		fmt.Fprintf(&b, "Current panel: %s\n", view.Panel.Title)
	}
	if st == nil {
		return b.String()
	}

	if cl, ok := content.Class(st.ClassKey); ok {
		fmt.Fprintf(&b, "Player class: %s\n", cl.Name)
	}
	if st.Gift != "" {
		fmt.Fprintf(&b, "Gift: %s\n", st.Gift)
	}
	fmt.Fprintf(&b, "Party: %s\n", joinNames(st.Party, content))
	if len(st.Dead) > 0 {
		fmt.Fprintf(&b, "Fallen: %s\n", joinNames(st.Dead, content))
	}
	fmt.Fprintf(&b, "Supplies %d, morale %d, suspicion %d, wounds %d\n",
		st.Stats.Supplies, st.Stats.Morale, st.Stats.Suspicion, st.Stats.Wounds)

	keys := make([]string, 0, len(st.Bonds))
	for k := range st.Bonds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "Bond with %s: %d\n", content.NPCName(k), st.Bonds[k])
	}

	scenes := make([]string, 0, len(st.PassedScenes))
	for k, passed := range st.PassedScenes {
		if passed {
			scenes = append(scenes, k)
		}
	}
	sort.Strings(scenes)
	if len(scenes) > 0 {
		titles := make([]string, 0, len(scenes))
		for _, k := range scenes {
			if sc, ok := content.Scene(k); ok && sc.Title != "" {
				titles = append(titles, sc.Title)
			} else {
				titles = append(titles, k)
			}
		}
		fmt.Fprintf(&b, "Scenes passed: %s\n", strings.Join(titles, ", "))
	}
	return b.String()
}

func joinNames(keys []string, content *models.Content) string {
	if len(keys) == 0 {
		return "none"
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, content.NPCName(k))
	}
	return strings.Join(names, ", ")
}
