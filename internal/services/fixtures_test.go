package services

import (
	"encoding/json"
	"testing"

	"github.com/aiwuxian/neon-panels/internal/models"
	"github.com/stretchr/testify/require"
)

// ---- 通用辅助函数 ----

// 测试用面板下标
const (
	pClassSelect = iota
	pNarration
	pChoice
	pCamp
	pDeath
	pEnding
)

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }

// effect 从作者写法的JSON构造效果
func effect(t *testing.T, raw string) *models.Effect {
	t.Helper()
	var eff models.Effect
	require.NoError(t, json.Unmarshal([]byte(raw), &eff))
	return &eff
}

func testGameConfig() models.GameConfig {
	return models.GameConfig{
		StartingParty:   []string{"apex", "dedor", "jeffery", "felix"},
		DefaultSupplies: 20,
		DefaultMorale:   5,
		NightActions:    2,
	}
}

func testClasses() []models.Class {
	return []models.Class{
		{Key: "infobroker", Name: "Infobroker", SceneWeights: map[models.Emphasis]int{
			models.EmphasisSocial: 4, models.EmphasisLore: 3,
		}},
		{Key: "quartermaster", Name: "Quartermaster", SceneWeights: map[models.Emphasis]int{
			models.EmphasisSurvival: 4, models.EmphasisTech: 2,
		}},
		{Key: "pathfinder", Name: "Pathfinder", SceneWeights: map[models.Emphasis]int{
			models.EmphasisStealth: 4, models.EmphasisSurvival: 3,
		}},
	}
}

func testNPCs() []models.NPC {
	return []models.NPC{
		{
			Key:      "apex",
			Name:     "Apex",
			Affinity: map[string]int{"pathfinder": 4, "infobroker": 2},
			Tiers: []models.Tier{
				{Tier: 0, Unlock: 0, Title: "Stranger"},
				{Tier: 1, Unlock: 2, Title: "Wingman"},
				{Tier: 2, Unlock: 5, Title: "Brother"},
			},
			Nodes: []models.CampNode{
				{Key: "apex_banter", Kind: "banter", Text: "Apex brags.", Once: boolPtr(false)},
				{Key: "apex_memory", Kind: "memory", Text: "Apex remembers.",
					TextVariants: map[string]string{"pathfinder": "Apex shows you his map."},
					TierMin:      2, ActMin: 1},
			},
		},
		{
			Key:      "dedor",
			Name:     "Dedor",
			Affinity: map[string]int{"quartermaster": 4},
			Tiers: []models.Tier{
				{Tier: 0, Unlock: 0, Title: "Grump"},
				{Tier: 1, Unlock: 3, Title: "Tinker"},
				{Tier: 2, Unlock: 6, Title: "Partner"},
			},
			Nodes: []models.CampNode{
				{Key: "dedor_confession", Kind: "confession", Text: "Dedor confesses.",
					TierMin: 3, RequiresFlags: []string{"met_oracle"}},
			},
		},
		{
			Key:      "jeffery",
			Name:     "Jeffery",
			Affinity: map[string]int{"infobroker": 4},
			Tiers: []models.Tier{
				{Tier: 0, Unlock: 0, Title: "Contact"},
				{Tier: 1, Unlock: 2, Title: "Associate"},
			},
			Nodes: []models.CampNode{
				{Key: "secret_1", Kind: "secret", Text: "A keycard.", TierMin: 9, ActMin: 9},
			},
		},
		{
			Key:  "felix",
			Name: "Felix",
		},
		{
			Key:          "mara",
			Name:         "Mara",
			Availability: []models.AvailabilityRule{{When: models.RuleAfterScene, SceneKey: "act1_market"}},
		},
	}
}

func testPanels(t *testing.T) []models.Panel {
	return []models.Panel{
		{Kind: models.KindClassSelect, Scene: "intro_rooftop", Act: models.ActMarker{Value: 0, Set: true}},
		{Kind: models.KindNarration, Text: "Rain.", Scene: "intro_rooftop",
			TextVariants: map[string]string{"infobroker": "Your contacts went quiet."},
			Emphasis:     models.EmphasisLore,
			Effects:      effect(t, `{"gift": "rain_coat", "flags": {"met_oracle": true}}`)},
		{Kind: models.KindChoice, Prompt: "Drones sweep the gate.", Scene: "act1_market",
			Choices: []models.Choice{
				{Label: "Slip through", LabelVariants: map[string]string{"pathfinder": "Take your duct"},
					Effects: effect(t, `{"flags": {"scouted_route": true}, "stats": {"suspicion": 1}}`)},
				{Label: "Bribe", Effects: effect(t, `{"stats_delta": {"supplies": -4}, "bond": {"jeffery": 1}}`)},
			}},
		{Kind: models.KindCamp, Scene: "camp_underpass"},
		{Kind: models.KindDeathChoice, Scene: "act2_tunnels",
			Death: &models.DeathEvent{
				OnSacrifice: effect(t, `{"flags": {"lost_one": true}}`),
				OnSaveAll:   effect(t, `{"flags": {"saved_all": true}}`),
			}},
		{Kind: models.KindEnding, Text: "The end.", Scene: "end_tower"},
	}
}

func testContent(t *testing.T) *models.Content {
	return models.NewContent(testClasses(), testNPCs(), []models.Scene{
		{Key: "intro_rooftop", Title: "Rain on the Rooftop"},
		{Key: "act1_market", Title: "The Night Market"},
	}, testPanels(t))
}

func testEngine(t *testing.T) *Engine {
	return NewEngine(testContent(t), testGameConfig())
}

func npcByKey(t *testing.T, c *models.Content, key string) *models.NPC {
	t.Helper()
	npc, ok := c.NPC(key)
	require.True(t, ok, key)
	return npc
}
