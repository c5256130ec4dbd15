package services

import (
	"fmt"

	"github.com/aiwuxian/neon-panels/internal/models"
)

// 职业亲和度达到该值时，每次交谈额外+1羁绊
const affinityBonusThreshold = 4

// ComputeTier 计算羁绊阶段：取不超过interactions的最大解锁值对应的阶段，
// 没有满足的阶段时返回0
func ComputeTier(npc *models.NPC, interactions int) int {
	tier, best := 0, -1
	for _, t := range npc.Tiers {
		if t.Unlock <= interactions && t.Unlock >= best {
			tier, best = t.Tier, t.Unlock
		}
	}
	return tier
}

// tierInfo 当前阶段和下一个阶段
func tierInfo(npc *models.NPC, interactions int) (current *models.Tier, next *models.Tier) {
	tier := ComputeTier(npc, interactions)
	for i := range npc.Tiers {
		t := &npc.Tiers[i]
		if tier > 0 && t.Tier == tier && current == nil {
			current = t
		}
		if t.Unlock > interactions && (next == nil || t.Unlock < next.Unlock) {
			next = t
		}
	}
	return current, next
}

// AffinityBonus 职业亲和度≥4时返回1，否则0
func AffinityBonus(npc *models.NPC, classKey string) int {
	if classKey == "" || npc.Affinity == nil {
		return 0
	}
	if npc.Affinity[classKey] >= affinityBonusThreshold {
		return 1
	}
	return 0
}

// PickNode 选出本次交谈要展示的营地节点。
// 候选按tierMin降序、actMin降序排列，取第一个；同分时保持作者顺序。
func PickNode(npc *models.NPC, st *models.State) *models.CampNode {
	var best *models.CampNode
	for i := range npc.Nodes {
		n := &npc.Nodes[i]
		if !nodeEligible(npc.Key, n, st) {
			continue
		}
		if best == nil || n.TierMin > best.TierMin ||
			(n.TierMin == best.TierMin && n.ActMin > best.ActMin) {
			best = n
		}
	}
	return best
}

func nodeEligible(npcKey string, n *models.CampNode, st *models.State) bool {
	if n.SingleUse() && models.Contains(st.SeenNodes[npcKey], n.Key) {
		return false
	}
	if models.Contains(st.UnlockedNodes.PerNPC[npcKey], n.Key) ||
		models.Contains(st.UnlockedNodes.Global, n.Key) {
		return true
	}
	if st.Bonds[npcKey] < n.TierMin {
		return false
	}
	if st.Act < n.ActMin {
		return false
	}
	for _, f := range n.RequiresFlags {
		if !st.FlagSet(f) {
			return false
		}
	}
	return true
}

// TalkResult 一次营地交谈的结果
type TalkResult struct {
	Node    *models.CampNode
	Summary models.TalkSummary
	Gained  int // 本次增加的羁绊
}

// Talk 与NPC交谈：消耗一次夜间行动，羁绊+1（亲和加成再+1），士气+1，
// 并解析要展示的节点。没有剩余行动时返回false且不改动任何状态。
func Talk(st *models.State, npc *models.NPC) (TalkResult, bool) {
	if st.NightActionsLeft <= 0 {
		return TalkResult{}, false
	}
	st.NightActionsLeft--

	if st.Bonds == nil {
		st.Bonds = map[string]int{}
	}
	gained := 1 + AffinityBonus(npc, st.ClassKey)
	st.Bonds[npc.Key] += gained
	st.Stats.Add("morale", 1)

	res := TalkResult{Gained: gained}
	node := PickNode(npc, st)
	if node == nil {
		res.Summary = models.TalkSummary{
			Kind: "none",
			Text: fmt.Sprintf("%s has nothing new to share tonight.", displayName(npc)),
		}
	} else {
		if node.SingleUse() {
			if st.SeenNodes == nil {
				st.SeenNodes = map[string][]string{}
			}
			st.SeenNodes[npc.Key] = models.AppendUnique(st.SeenNodes[npc.Key], node.Key)
		}
		res.Node = node
		res.Summary = models.TalkSummary{
			Key:  node.Key,
			Kind: node.Kind,
			Text: ResolveVariant(node.Text, node.TextVariants, st.ClassKey),
		}
	}

	if st.LastTalk == nil {
		st.LastTalk = map[string]models.TalkSummary{}
	}
	st.LastTalk[npc.Key] = res.Summary
	return res, true
}

func displayName(npc *models.NPC) string {
	if npc.Name != "" {
		return npc.Name
	}
	return npc.Key
}
