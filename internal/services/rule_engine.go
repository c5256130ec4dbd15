package services

import (
	"log"

	"github.com/aiwuxian/neon-panels/internal/models"
)

// ApplyEffects 把效果描述应用到进度上（原地修改），eff为nil时什么也不做
func ApplyEffects(st *models.State, eff *models.Effect) {
	for _, op := range eff.Ops() {
		applyOp(st, op)
	}
}

func applyOp(st *models.State, op models.EffectOp) {
	switch o := op.(type) {
	case models.GiftOp:
		st.Gift = o.Gift

	case models.ClassOp:
		st.ClassKey = o.ClassKey

	case models.FlagsOp:
		if st.Flags == nil {
			st.Flags = map[string]any{}
		}
		for k, v := range o.Flags {
			st.Flags[k] = v
		}

	case models.StatsOp:
		for name, delta := range o.Delta {
			if !st.Stats.Add(name, delta) {
				log.Printf("⚠️ [效果] 未知数值 %q，已忽略\n", name)
			}
		}

	case models.PartyOp:
		for _, k := range o.Add {
			// 死者永远不能回到队伍
			if st.IsDead(k) {
				continue
			}
			st.Party = models.AppendUnique(st.Party, k)
		}
		for _, k := range o.Remove {
			st.Party = models.Remove(st.Party, k)
		}

	case models.BondOp:
		if st.Bonds == nil {
			st.Bonds = map[string]int{}
		}
		for npc, delta := range o.Delta {
			st.Bonds[npc] += delta
		}

	case models.UnlockOp:
		if st.UnlockedNodes.PerNPC == nil {
			st.UnlockedNodes.PerNPC = map[string][]string{}
		}
		for _, ref := range o.NPCNodes {
			st.UnlockedNodes.PerNPC[ref.NPCKey] = models.AppendUnique(st.UnlockedNodes.PerNPC[ref.NPCKey], ref.NodeKey)
		}
		for _, key := range o.GlobalNodes {
			st.UnlockedNodes.Global = models.AppendUnique(st.UnlockedNodes.Global, key)
		}

	default:
		log.Printf("⚠️ [效果] 未处理的效果类型 %T\n", op)
	}
}
