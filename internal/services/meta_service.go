package services

import (
	"github.com/aiwuxian/neon-panels/internal/models"
)

// EmphasisRow 一个职业对各类场景的侧重
type EmphasisRow struct {
	ClassKey  string                  `json:"classKey"`
	ClassName string                  `json:"className"`
	Weights   map[models.Emphasis]int `json:"weights"`
	Ranked    []models.Emphasis       `json:"ranked"`
}

// AffinityRow 一名同伴对各职业的好感（0-4）
type AffinityRow struct {
	NPCKey  string         `json:"npcKey"`
	NPCName string         `json:"npcName"`
	ByClass map[string]int `json:"byClass"`
}

// ContentTables 参考面板用的两张只读表
type ContentTables struct {
	Emphasis   []models.Emphasis `json:"emphasisKinds"`
	Classes    []EmphasisRow     `json:"classes"`
	Affinities []AffinityRow     `json:"affinities"`
}

var allEmphasis = []models.Emphasis{
	models.EmphasisCombat,
	models.EmphasisStealth,
	models.EmphasisSocial,
	models.EmphasisLore,
	models.EmphasisSurvival,
	models.EmphasisTech,
}

type MetaService struct {
	content *models.Content
	tables  ContentTables
}

// NewMetaService 内容只读，表格在创建时一次算好
func NewMetaService(content *models.Content) *MetaService {
	ms := &MetaService{content: content}
	ms.tables = ms.buildTables()
	return ms
}

// Tables 返回职业侧重表和同伴好感矩阵
func (ms *MetaService) Tables() ContentTables {
	return ms.tables
}

func (ms *MetaService) buildTables() ContentTables {
	t := ContentTables{Emphasis: allEmphasis}

	for _, c := range ms.content.Classes {
		weights := make(map[models.Emphasis]int, len(allEmphasis))
		for _, e := range allEmphasis {
			weights[e] = c.SceneWeights[e]
		}
		t.Classes = append(t.Classes, EmphasisRow{
			ClassKey:  c.Key,
			ClassName: c.Name,
			Weights:   weights,
			Ranked:    rankedEmphasis(c.SceneWeights),
		})
	}

	for i := range ms.content.NPCs {
		npc := &ms.content.NPCs[i]
		row := AffinityRow{
			NPCKey:  npc.Key,
			NPCName: displayName(npc),
			ByClass: make(map[string]int, len(ms.content.Classes)),
		}
		for _, c := range ms.content.Classes {
			row.ByClass[c.Key] = models.Clamp(npc.Affinity[c.Key], 0, 4)
		}
		t.Affinities = append(t.Affinities, row)
	}
	return t
}
