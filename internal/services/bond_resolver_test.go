package services

import (
	"testing"

	"github.com/aiwuxian/neon-panels/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTier(t *testing.T) {
	c := testContent(t)
	dedor := npcByKey(t, c, "dedor")

	assert.Equal(t, 0, ComputeTier(dedor, 0))
	assert.Equal(t, 0, ComputeTier(dedor, 2))
	assert.Equal(t, 1, ComputeTier(dedor, 3))
	assert.Equal(t, 1, ComputeTier(dedor, 4))
	assert.Equal(t, 2, ComputeTier(dedor, 6))
	assert.Equal(t, 2, ComputeTier(dedor, 60))
}

func TestComputeTierIsMonotonic(t *testing.T) {
	c := testContent(t)
	for _, npc := range c.NPCs {
		prev := ComputeTier(&npc, 0)
		for n := 1; n <= 20; n++ {
			cur := ComputeTier(&npc, n)
			assert.GreaterOrEqual(t, cur, prev, "%s at %d", npc.Key, n)
			prev = cur
		}
	}
}

func TestComputeTierUnsortedAndEmpty(t *testing.T) {
	npc := &models.NPC{Key: "x", Tiers: []models.Tier{
		{Tier: 2, Unlock: 5},
		{Tier: 1, Unlock: 1},
	}}
	assert.Equal(t, 0, ComputeTier(npc, 0))
	assert.Equal(t, 1, ComputeTier(npc, 4))
	assert.Equal(t, 2, ComputeTier(npc, 5))

	assert.Equal(t, 0, ComputeTier(&models.NPC{Key: "y"}, 10))
}

func TestTierInfo(t *testing.T) {
	c := testContent(t)
	dedor := npcByKey(t, c, "dedor")

	cur, next := tierInfo(dedor, 4)
	require.NotNil(t, cur)
	require.NotNil(t, next)
	assert.Equal(t, "Tinker", cur.Title)
	assert.Equal(t, 6, next.Unlock)

	_, next = tierInfo(dedor, 6)
	assert.Nil(t, next, "所有阶段都已解锁")
}

func TestAffinityBonus(t *testing.T) {
	c := testContent(t)
	apex := npcByKey(t, c, "apex")

	assert.Equal(t, 1, AffinityBonus(apex, "pathfinder"))
	assert.Equal(t, 0, AffinityBonus(apex, "infobroker"))
	assert.Equal(t, 0, AffinityBonus(apex, ""))
	assert.Equal(t, 0, AffinityBonus(npcByKey(t, c, "felix"), "pathfinder"))
}

func TestPickNodePrefersHighestTierThenAct(t *testing.T) {
	c := testContent(t)
	apex := npcByKey(t, c, "apex")
	st := models.NewState(testGameConfig())

	st.Bonds["apex"] = 1
	node := PickNode(apex, st)
	require.NotNil(t, node)
	assert.Equal(t, "apex_banter", node.Key)

	st.Bonds["apex"] = 5
	st.Act = 0
	assert.Equal(t, "apex_banter", PickNode(apex, st).Key, "actMin未满足")

	st.Act = 1
	assert.Equal(t, "apex_memory", PickNode(apex, st).Key)
}

func TestPickNodeTieKeepsAuthorOrder(t *testing.T) {
	npc := &models.NPC{Key: "x", Nodes: []models.CampNode{
		{Key: "first", TierMin: 1, ActMin: 1},
		{Key: "second", TierMin: 1, ActMin: 1},
	}}
	st := models.NewState(testGameConfig())
	st.Bonds["x"] = 1
	st.Act = 1

	assert.Equal(t, "first", PickNode(npc, st).Key)
}

func TestPickNodeRequiresFlags(t *testing.T) {
	c := testContent(t)
	dedor := npcByKey(t, c, "dedor")
	st := models.NewState(testGameConfig())
	st.Bonds["dedor"] = 3

	assert.Nil(t, PickNode(dedor, st))

	st.Flags["met_oracle"] = true
	require.NotNil(t, PickNode(dedor, st))
	assert.Equal(t, "dedor_confession", PickNode(dedor, st).Key)
}

func TestPickNodeGlobalUnlockBypassesGates(t *testing.T) {
	c := testContent(t)
	jeffery := npcByKey(t, c, "jeffery")
	st := models.NewState(testGameConfig())

	assert.Nil(t, PickNode(jeffery, st))

	ApplyEffects(st, effect(t, `{"unlock": {"globalNodes": ["secret_1"]}}`))
	node := PickNode(jeffery, st)
	require.NotNil(t, node)
	assert.Equal(t, "secret_1", node.Key)
}

func TestPickNodePerNPCUnlock(t *testing.T) {
	c := testContent(t)
	apex := npcByKey(t, c, "apex")
	st := models.NewState(testGameConfig())

	ApplyEffects(st, effect(t, `{"unlock": {"npcNodes": [{"npcKey": "apex", "nodeKey": "apex_memory"}]}}`))
	assert.Equal(t, "apex_memory", PickNode(apex, st).Key)
}

func TestPickNodeSkipsSeenSingleUse(t *testing.T) {
	c := testContent(t)
	jeffery := npcByKey(t, c, "jeffery")
	st := models.NewState(testGameConfig())
	st.UnlockedNodes.Global = []string{"secret_1"}
	st.SeenNodes["jeffery"] = []string{"secret_1"}

	assert.Nil(t, PickNode(jeffery, st))
}

func TestTalkWithoutActionsChangesNothing(t *testing.T) {
	c := testContent(t)
	st := models.NewState(testGameConfig())
	st.NightActionsLeft = 0
	before := cloneState(st)

	_, ok := Talk(st, npcByKey(t, c, "apex"))
	assert.False(t, ok)
	assert.Equal(t, before, st)
}

func TestTalkWithAffinityBonus(t *testing.T) {
	c := testContent(t)
	st := models.NewState(testGameConfig())
	st.ClassKey = "pathfinder"

	res, ok := Talk(st, npcByKey(t, c, "apex"))
	require.True(t, ok)

	assert.Equal(t, 2, res.Gained)
	assert.Equal(t, 2, st.Bonds["apex"])
	assert.Equal(t, 1, st.NightActionsLeft)
	assert.Equal(t, 6, st.Stats.Morale)
	require.NotNil(t, res.Node)
	assert.Equal(t, "apex_banter", res.Node.Key)
	assert.Equal(t, res.Summary, st.LastTalk["apex"])
	assert.Empty(t, st.SeenNodes["apex"], "可重复节点不记录")
}

func TestTalkRecordsSingleUseNodeAndVariant(t *testing.T) {
	c := testContent(t)
	st := models.NewState(testGameConfig())
	st.ClassKey = "pathfinder"
	st.Bonds["apex"] = 4
	st.Act = 1

	res, ok := Talk(st, npcByKey(t, c, "apex"))
	require.True(t, ok)

	assert.Equal(t, "apex_memory", res.Summary.Key)
	assert.Equal(t, "Apex shows you his map.", res.Summary.Text)
	assert.Equal(t, []string{"apex_memory"}, st.SeenNodes["apex"])
}

func TestTalkPlaceholderWhenNothingEligible(t *testing.T) {
	c := testContent(t)
	st := models.NewState(testGameConfig())

	res, ok := Talk(st, npcByKey(t, c, "felix"))
	require.True(t, ok)

	assert.Nil(t, res.Node)
	assert.Equal(t, "none", res.Summary.Kind)
	assert.Equal(t, "Felix has nothing new to share tonight.", res.Summary.Text)
	assert.Equal(t, 1, st.Bonds["felix"])
}

func TestComputeTierDedorScenario(t *testing.T) {
	dedor := &models.NPC{Key: "dedor", Tiers: []models.Tier{
		{Tier: 1, Unlock: 2},
		{Tier: 2, Unlock: 5},
	}}
	st := models.NewState(testGameConfig())
	st.Bonds["dedor"] = 4

	assert.Equal(t, 1, ComputeTier(dedor, st.Bonds["dedor"]))
}
