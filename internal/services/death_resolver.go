package services

import (
	"github.com/aiwuxian/neon-panels/internal/models"
)

// 死亡事件默认参数
const (
	defaultMinSupplies  = 10
	defaultMinMorale    = 5
	defaultCostSupplies = 10
	defaultMoraleLoss   = 3

	// 情报贩子在嫌疑≥2时会把牺牲者换成这个人
	infobrokerClass     = "infobroker"
	infobrokerFallback  = "jeffery"
	infobrokerSuspicion = 2
)

// defaultGuides 未指定guides时的候选向导
func defaultGuides() []string {
	return []string{"apex", "dedor", "jeffery"}
}

// 叙事标志对阈值的调整，各自独立、可叠加
var flagAdjustments = []struct {
	flag        string
	minSupplies int
	minMorale   int
	cost        int
}{
	{flag: "scouted_route", minSupplies: -3},
	{flag: "cached_supplies", cost: -3},
	{flag: "shaken_party", minMorale: 2},
}

// 职业对阈值的调整，附带给玩家看的说明
var classAdjustments = map[string]struct {
	minSupplies int
	cost        int
	note        string
}{
	"quartermaster": {cost: -4, note: "Quartermaster: careful rationing trims the rescue cost by 4 supplies."},
	"pathfinder":    {minSupplies: -2, note: "Pathfinder: a safer line through the ruins needs 2 fewer supplies."},
}

// DeathOutcome 死亡事件的判定结果
type DeathOutcome struct {
	CanSaveAll   bool     `json:"canSaveAll"`
	CostSupplies int      `json:"costSupplies"`
	MinSupplies  int      `json:"minSupplies"`
	MinMorale    int      `json:"minMorale"`
	MoraleLoss   int      `json:"moraleLoss"`
	Options      []string `json:"options"`
	Perks        []string `json:"perks,omitempty"`
	OfferChoice  bool     `json:"offerChoice"` // 是否开放"选择保护谁"
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// ResolveDeathEvent 判定死亡事件。队伍里没有可用向导时返回nil，
// 调用方需要把它当作"没有选项"报告给玩家。
func ResolveDeathEvent(st *models.State, panel *models.Panel) *DeathOutcome {
	desc := panel.Death
	if desc == nil {
		desc = &models.DeathEvent{}
	}
	guides := desc.Guides
	if len(guides) == 0 {
		guides = defaultGuides()
	}

	var candidates []string
	for _, g := range guides {
		if st.InParty(g) && !st.IsDead(g) {
			candidates = models.AppendUnique(candidates, g)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	minSupplies := intOr(desc.MinSupplies, defaultMinSupplies)
	minMorale := intOr(desc.MinMorale, defaultMinMorale)
	cost := intOr(desc.CostSupplies, defaultCostSupplies)
	var perks []string

	for _, adj := range flagAdjustments {
		if !st.FlagSet(adj.flag) {
			continue
		}
		minSupplies += adj.minSupplies
		minMorale += adj.minMorale
		cost += adj.cost
	}
	if adj, ok := classAdjustments[st.ClassKey]; ok {
		minSupplies += adj.minSupplies
		cost += adj.cost
		perks = append(perks, adj.note)
	}
	if minSupplies < 0 {
		minSupplies = 0
	}
	if cost < 0 {
		cost = 0
	}

	out := &DeathOutcome{
		MinSupplies: minSupplies,
		MinMorale:   minMorale,
		MoraleLoss:  intOr(desc.MoraleLoss, defaultMoraleLoss),
		Options:     candidates,
		Perks:       perks,
	}
	if st.Stats.Supplies >= minSupplies && st.Stats.Morale >= minMorale {
		out.CanSaveAll = true
		out.CostSupplies = cost
	}
	out.OfferChoice = !out.CanSaveAll || desc.OfferChoiceWhenSafe
	return out
}

// SaveAll 付出物资救下所有人，只有CanSaveAll时可用
func SaveAll(st *models.State, out *DeathOutcome, desc *models.DeathEvent) bool {
	if out == nil || !out.CanSaveAll {
		return false
	}
	st.Stats.Add("supplies", -out.CostSupplies)
	if desc != nil {
		ApplyEffects(st, desc.OnSaveAll)
	}
	return true
}

// PickVictim 玩家保护protected时的牺牲者：候选顺序里第一个其他人；
// 只有protected一个候选时由他自己承担。情报贩子在嫌疑足够高时
// 会把牺牲者换成固定的替身。
func PickVictim(st *models.State, out *DeathOutcome, protected string) string {
	victim := protected
	for _, c := range out.Options {
		if c != protected {
			victim = c
			break
		}
	}
	if st.ClassKey == infobrokerClass &&
		st.Stats.Suspicion >= infobrokerSuspicion &&
		models.Contains(out.Options, infobrokerFallback) &&
		infobrokerFallback != victim {
		victim = infobrokerFallback
	}
	return victim
}

// Sacrifice 保护protected，另一名向导死去。返回牺牲者；
// protected不在候选中或当前不开放选择时返回false。
func Sacrifice(st *models.State, out *DeathOutcome, desc *models.DeathEvent, protected string) (string, bool) {
	if out == nil || !out.OfferChoice || !models.Contains(out.Options, protected) {
		return "", false
	}
	victim := PickVictim(st, out, protected)
	st.Dead = models.AppendUnique(st.Dead, victim)
	st.Party = models.Remove(st.Party, victim)
	st.Stats.Add("morale", -out.MoraleLoss)
	if desc != nil {
		ApplyEffects(st, desc.OnSacrifice)
	}
	return victim, true
}
