package services

import (
	"fmt"
	"log"

	"github.com/aiwuxian/neon-panels/internal/models"
)

// CommandType 玩家指令类型
type CommandType string

const (
	CmdAdvance   CommandType = "advance"
	CmdPickClass CommandType = "pick_class"
	CmdChoose    CommandType = "choose"
	CmdTalk      CommandType = "talk"
	CmdSaveAll   CommandType = "save_all"
	CmdProtect   CommandType = "protect"
	CmdRestart   CommandType = "restart"
)

// Command 玩家指令
type Command struct {
	Type     CommandType `json:"type" binding:"required"`
	ClassKey string      `json:"classKey,omitempty"`
	Choice   int         `json:"choice,omitempty"`
	NPC      string      `json:"npc,omitempty"`
}

// DirectiveKind 指令处理后交给外层执行的副作用
type DirectiveKind string

const (
	DirectivePersist  DirectiveKind = "persist"
	DirectiveNotify   DirectiveKind = "notify"
	DirectiveNavigate DirectiveKind = "navigate"
	DirectiveReset    DirectiveKind = "reset"
)

type Directive struct {
	Kind    DirectiveKind `json:"kind"`
	Message string        `json:"message,omitempty"`
	Index   int           `json:"index"`
}

// Outcome 指令处理结果。State通常就是传入的进度，restart时是新进度。
type Outcome struct {
	State      *models.State
	Directives []Directive
}

func (o *Outcome) notify(msg string) {
	o.Directives = append(o.Directives, Directive{Kind: DirectiveNotify, Message: msg})
}

func (o *Outcome) persist() {
	for _, d := range o.Directives {
		if d.Kind == DirectivePersist {
			return
		}
	}
	o.Directives = append(o.Directives, Directive{Kind: DirectivePersist})
}

func (o *Outcome) navigate(index int) {
	o.Directives = append(o.Directives, Directive{Kind: DirectiveNavigate, Index: index})
}

// Has 是否包含某类副作用
func (o *Outcome) Has(kind DirectiveKind) bool {
	for _, d := range o.Directives {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// Notices 所有给玩家的提示
func (o *Outcome) Notices() []string {
	var out []string
	for _, d := range o.Directives {
		if d.Kind == DirectiveNotify {
			out = append(out, d.Message)
		}
	}
	return out
}

// campNightActions 每次进入营地时的夜间行动数
const campNightActions = 2

// Engine 面板状态机。只读作者内容，进度由调用方显式传入。
type Engine struct {
	content *models.Content
	game    models.GameConfig
}

func NewEngine(content *models.Content, game models.GameConfig) *Engine {
	if game.NightActions <= 0 {
		game.NightActions = models.DefaultGameConfig().NightActions
	}
	return &Engine{content: content, game: game}
}

func (e *Engine) Content() *models.Content {
	return e.content
}

// NewState 默认进度
func (e *Engine) NewState() *models.State {
	return models.NewState(e.game)
}

func (e *Engine) panel(index int) (*models.Panel, bool) {
	if index < 0 || index >= len(e.content.Panels) {
		return nil, false
	}
	return &e.content.Panels[index], true
}

// Handle 处理一条指令。非法操作不会报错，只返回提示且不改动进度。
func (e *Engine) Handle(st *models.State, cmd Command) Outcome {
	out := Outcome{State: st}
	switch cmd.Type {
	case CmdAdvance:
		e.advance(st, &out)
	case CmdPickClass:
		e.pickClass(st, cmd.ClassKey, &out)
	case CmdChoose:
		e.choose(st, cmd.Choice, &out)
	case CmdTalk:
		e.talk(st, cmd.NPC, &out)
	case CmdSaveAll:
		e.saveAll(st, &out)
	case CmdProtect:
		e.protect(st, cmd.NPC, &out)
	case CmdRestart:
		out.State = e.NewState()
		out.Directives = append(out.Directives, Directive{Kind: DirectiveReset})
		out.persist()
		out.navigate(0)
		log.Println("🔄 [重开] 进度已重置")
	default:
		out.notify(fmt.Sprintf("Unknown command %q.", cmd.Type))
	}
	return out
}

// advance 前进到下一个面板。选职业面板上未选职业时拒绝；
// 最后一个面板重复前进不变；进入营地前重置夜间行动数。
func (e *Engine) advance(st *models.State, out *Outcome) {
	cur, ok := e.panel(st.Index)
	if ok && cur.Kind == models.KindClassSelect && st.ClassKey == "" {
		out.notify("Pick a class first.")
		return
	}

	last := len(e.content.Panels) - 1
	if last < 0 {
		return
	}
	next := st.Index + 1
	if next > last {
		next = last
	}
	if next == st.Index {
		return
	}

	if ok {
		switch cur.Kind {
		case models.KindNarration, models.KindArc, models.KindDialogue, models.KindEnding:
			ApplyEffects(st, cur.Effects)
		}
	}
	if nxt, ok := e.panel(next); ok && nxt.Kind == models.KindCamp {
		st.NightActionsLeft = campNightActions
	}
	st.Index = next
	out.persist()
	out.navigate(next)
}

func (e *Engine) pickClass(st *models.State, classKey string, out *Outcome) {
	cur, ok := e.panel(st.Index)
	if !ok || cur.Kind != models.KindClassSelect {
		out.notify("There is no class to pick here.")
		return
	}
	class, ok := e.content.Class(classKey)
	if !ok {
		out.notify(fmt.Sprintf("Unknown class %q.", classKey))
		return
	}
	st.ClassKey = class.Key
	out.notify("Class locked: " + class.Name)
	out.persist()
	e.advance(st, out)
}

func (e *Engine) choose(st *models.State, choice int, out *Outcome) {
	cur, ok := e.panel(st.Index)
	if !ok || cur.Kind != models.KindChoice {
		out.notify("There is nothing to choose here.")
		return
	}
	if choice < 0 || choice >= len(cur.Choices) {
		out.notify("That choice is not available.")
		return
	}
	ApplyEffects(st, cur.Choices[choice].Effects)
	out.notify("Choice locked.")
	out.persist()
	e.advance(st, out)
}

func (e *Engine) talk(st *models.State, npcKey string, out *Outcome) {
	cur, ok := e.panel(st.Index)
	if !ok || cur.Kind != models.KindCamp {
		out.notify("You can only talk at camp.")
		return
	}
	if st.NightActionsLeft <= 0 {
		out.notify("No actions left tonight.")
		return
	}
	npc, ok := e.content.NPC(npcKey)
	if !ok || !st.InParty(npcKey) {
		out.notify(fmt.Sprintf("%s is not at camp.", e.content.NPCName(npcKey)))
		return
	}

	res, ok := Talk(st, npc)
	if !ok {
		out.notify("No actions left tonight.")
		return
	}
	if res.Gained > 1 {
		out.notify(fmt.Sprintf("%s vibes with your craft (+%d bond).", npc.Name, res.Gained-1))
	} else {
		out.notify(fmt.Sprintf("You talk with %s.", npc.Name))
	}
	out.persist()
	out.navigate(st.Index)
}

func (e *Engine) deathPanel(st *models.State, out *Outcome) (*models.Panel, *DeathOutcome, bool) {
	cur, ok := e.panel(st.Index)
	if !ok || cur.Kind != models.KindDeathChoice {
		out.notify("There is no one to save here.")
		return nil, nil, false
	}
	res := ResolveDeathEvent(st, cur)
	if res == nil {
		out.notify("No guides remain to choose from.")
		return nil, nil, false
	}
	return cur, res, true
}

func (e *Engine) saveAll(st *models.State, out *Outcome) {
	cur, res, ok := e.deathPanel(st, out)
	if !ok {
		return
	}
	if !SaveAll(st, res, cur.Death) {
		out.notify("You don't have the supplies or the nerve to save everyone.")
		return
	}
	out.notify(fmt.Sprintf("Everyone makes it through (-%d supplies).", res.CostSupplies))
	out.persist()
	e.advance(st, out)
}

func (e *Engine) protect(st *models.State, npcKey string, out *Outcome) {
	cur, res, ok := e.deathPanel(st, out)
	if !ok {
		return
	}
	if !res.OfferChoice {
		out.notify("Everyone can still be saved.")
		return
	}
	victim, ok := Sacrifice(st, res, cur.Death, npcKey)
	if !ok {
		out.notify(fmt.Sprintf("%s is not one of the guides.", e.content.NPCName(npcKey)))
		return
	}
	log.Printf("💀 [死亡事件] %s 牺牲，%s 被保护\n", victim, npcKey)
	out.notify(fmt.Sprintf("%s is lost. %s survives.", e.content.NPCName(victim), e.content.NPCName(npcKey)))
	out.persist()
	e.advance(st, out)
}
