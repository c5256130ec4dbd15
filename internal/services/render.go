package services

import (
	"fmt"
	"log"
	"sort"

	"github.com/aiwuxian/neon-panels/internal/models"
)

// PanelView 渲染结果，展示层直接使用，不需要再推导任何逻辑
type PanelView struct {
	Index          int              `json:"index"`
	Total          int              `json:"total"`
	Kind           models.PanelKind `json:"kind"`
	Title          string           `json:"title,omitempty"`
	Text           string           `json:"text,omitempty"`
	Prompt         string           `json:"prompt,omitempty"`
	Speaker        string           `json:"speaker,omitempty"`
	Image          string           `json:"image,omitempty"`
	Scene          string           `json:"scene,omitempty"`
	SceneTitle     string           `json:"sceneTitle,omitempty"`
	Act            Act              `json:"act"`
	Emphasis       models.Emphasis  `json:"emphasis,omitempty"`
	EmphasisWeight int              `json:"emphasisWeight,omitempty"`
	Choices        []ChoiceView     `json:"choices,omitempty"`
	Classes        []ClassView      `json:"classes,omitempty"`
	Camp           *CampView        `json:"camp,omitempty"`
	Death          *DeathView       `json:"death,omitempty"`
	Diagnostic     string           `json:"diagnostic,omitempty"`
	CanAdvance     bool             `json:"canAdvance"`
}

type ChoiceView struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

type ClassView struct {
	Key      string            `json:"key"`
	Name     string            `json:"name"`
	Tagline  string            `json:"tagline"`
	Perks    []string          `json:"perks,omitempty"`
	Emphasis []models.Emphasis `json:"emphasis,omitempty"`
}

type CampView struct {
	ActionsLeft int       `json:"actionsLeft"`
	NPCs        []NPCCard `json:"npcs"`
}

// NPCCard 营地里一名同伴的卡片
type NPCCard struct {
	Key              string              `json:"key"`
	Name             string              `json:"name"`
	Role             string              `json:"role,omitempty"`
	Blurb            string              `json:"blurb,omitempty"`
	Bond             int                 `json:"bond"`
	Tier             int                 `json:"tier"`
	TierTitle        string              `json:"tierTitle,omitempty"`
	TierNotes        string              `json:"tierNotes,omitempty"`
	NextUnlock       int                 `json:"nextUnlock,omitempty"`
	NextTitle        string              `json:"nextTitle,omitempty"`
	AllTiersUnlocked bool                `json:"allTiersUnlocked"`
	ClassAffinity    int                 `json:"classAffinity"`
	LastTalk         *models.TalkSummary `json:"lastTalk,omitempty"`
	CanTalk          bool                `json:"canTalk"`
}

type GuideView struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type DeathView struct {
	Outcome *DeathOutcome `json:"outcome,omitempty"`
	Guides  []GuideView   `json:"guides,omitempty"`
	Empty   bool          `json:"empty"`
	Notice  string        `json:"notice,omitempty"`
}

// Render 渲染当前面板。渲染本身会修改进度：记录当前幕、已经过的场景，
// 以及因此加入队伍的同伴。返回的提示需要展示给玩家。
func (e *Engine) Render(st *models.State) (PanelView, []string) {
	total := len(e.content.Panels)
	view := PanelView{Index: st.Index, Total: total, CanAdvance: true}

	panel, ok := e.panel(st.Index)
	if !ok {
		view.Kind = "missing"
		view.Diagnostic = fmt.Sprintf("Panel #%d does not exist.", st.Index+1)
		log.Printf("⚠️ [渲染] 面板索引越界: %d / %d\n", st.Index, total)
		if total > 0 {
			if st.Index < 0 {
				st.Index = 0
			} else {
				st.Index = total - 1
			}
		}
		return view, nil
	}

	act := ResolveAct(panel, st)
	st.Act = act.Value

	var notices []string
	if panel.Scene != "" {
		if st.PassedScenes == nil {
			st.PassedScenes = map[string]bool{}
		}
		st.PassedScenes[panel.Scene] = true
		notices = e.ensurePartyAvailability(st)
	}

	classKey := st.ClassKey
	view.Kind = panel.Kind
	view.Act = act
	view.Title = ResolveVariant(panel.Title, panel.TitleVariants, classKey)
	view.Text = ResolveVariant(panel.Text, panel.TextVariants, classKey)
	view.Prompt = ResolveVariant(panel.Prompt, panel.PromptVariants, classKey)
	view.Speaker = panel.Speaker
	view.Image = panel.Image
	view.Scene = panel.Scene
	view.SceneTitle = panel.Scene
	if sc, ok := e.content.Scene(panel.Scene); ok && sc.Title != "" {
		view.SceneTitle = sc.Title
	}
	if panel.Emphasis.Valid() {
		view.Emphasis = panel.Emphasis
		if cl, ok := e.content.Class(classKey); ok {
			view.EmphasisWeight = cl.SceneWeights[panel.Emphasis]
		}
	}

	switch panel.Kind {
	case models.KindNarration, models.KindArc, models.KindEnding:
	case models.KindDialogue:
		if view.Speaker == "" {
			view.Speaker = "Unknown"
		}
	case models.KindChoice:
		for i, c := range panel.Choices {
			view.Choices = append(view.Choices, ChoiceView{
				Index: i,
				Label: ResolveVariant(c.Label, c.LabelVariants, classKey),
			})
		}
	case models.KindClassSelect:
		for _, c := range e.content.Classes {
			view.Classes = append(view.Classes, ClassView{
				Key:      c.Key,
				Name:     c.Name,
				Tagline:  c.Tagline,
				Perks:    c.Perks,
				Emphasis: rankedEmphasis(c.SceneWeights),
			})
		}
		view.CanAdvance = classKey != ""
	case models.KindCamp:
		view.Camp = e.renderCamp(st)
	case models.KindDeathChoice:
		view.Death = e.renderDeath(st, panel)
		// 有候选时必须先救人或选人，前进按钮只在无人可选时出现
		view.CanAdvance = view.Death.Empty
	default:
		view.Diagnostic = fmt.Sprintf("Unknown panel kind: %s", panel.Kind)
		log.Printf("⚠️ [渲染] 未知面板类型 %q (#%d)\n", panel.Kind, st.Index)
	}

	return view, notices
}

func (e *Engine) renderCamp(st *models.State) *CampView {
	camp := &CampView{ActionsLeft: st.NightActionsLeft}
	for _, key := range st.Party {
		npc, ok := e.content.NPC(key)
		if !ok {
			continue
		}
		bond := st.Bonds[key]
		cur, next := tierInfo(npc, bond)
		card := NPCCard{
			Key:              npc.Key,
			Name:             npc.Name,
			Role:             npc.Role,
			Blurb:            npc.Blurb,
			Bond:             bond,
			Tier:             ComputeTier(npc, bond),
			AllTiersUnlocked: next == nil,
			CanTalk:          st.NightActionsLeft > 0,
		}
		if st.ClassKey != "" {
			card.ClassAffinity = npc.Affinity[st.ClassKey]
		}
		if cur != nil {
			card.TierTitle, card.TierNotes = cur.Title, cur.Notes
		}
		if next != nil {
			card.NextUnlock, card.NextTitle = next.Unlock, next.Title
		}
		if lt, ok := st.LastTalk[key]; ok {
			card.LastTalk = &lt
		}
		camp.NPCs = append(camp.NPCs, card)
	}
	return camp
}

func (e *Engine) renderDeath(st *models.State, panel *models.Panel) *DeathView {
	res := ResolveDeathEvent(st, panel)
	if res == nil {
		return &DeathView{Empty: true, Notice: "No guides remain to choose from."}
	}
	dv := &DeathView{Outcome: res}
	for _, k := range res.Options {
		dv.Guides = append(dv.Guides, GuideView{Key: k, Name: e.content.NPCName(k)})
	}
	return dv
}

// ensurePartyAvailability 按可用规则把同伴加入队伍，死者和已在队伍中的跳过
func (e *Engine) ensurePartyAvailability(st *models.State) []string {
	var notices []string
	for i := range e.content.NPCs {
		npc := &e.content.NPCs[i]
		for _, rule := range npc.Availability {
			if rule.When != models.RuleAfterScene || !st.PassedScenes[rule.SceneKey] {
				continue
			}
			if st.InParty(npc.Key) || st.IsDead(npc.Key) {
				continue
			}
			st.Party = append(st.Party, npc.Key)
			notices = append(notices, fmt.Sprintf("%s joins the party.", displayName(npc)))
			log.Printf("🤝 [队伍] %s 加入队伍\n", npc.Key)
		}
	}
	return notices
}

// rankedEmphasis 按权重从高到低列出职业侧重，同权重按名称排序
func rankedEmphasis(weights map[models.Emphasis]int) []models.Emphasis {
	out := make([]models.Emphasis, 0, len(weights))
	for k, w := range weights {
		if w > 0 {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		wi, wj := weights[out[i]], weights[out[j]]
		if wi != wj {
			return wi > wj
		}
		return out[i] < out[j]
	})
	return out
}
