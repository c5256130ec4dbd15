package services

import (
	"testing"

	"github.com/aiwuxian/neon-panels/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentTables(t *testing.T) {
	ms := NewMetaService(testContent(t))
	tables := ms.Tables()

	assert.Len(t, tables.Emphasis, 6)

	require.Len(t, tables.Classes, 3)
	pathfinder := tables.Classes[2]
	assert.Equal(t, "pathfinder", pathfinder.ClassKey)
	assert.Equal(t, 4, pathfinder.Weights[models.EmphasisStealth])
	assert.Equal(t, 0, pathfinder.Weights[models.EmphasisSocial])
	assert.Len(t, pathfinder.Weights, 6, "每种侧重都有一列")
	assert.Equal(t, []models.Emphasis{models.EmphasisStealth, models.EmphasisSurvival}, pathfinder.Ranked)

	require.Len(t, tables.Affinities, 5)
	apex := tables.Affinities[0]
	assert.Equal(t, "Apex", apex.NPCName)
	assert.Equal(t, map[string]int{"infobroker": 2, "quartermaster": 0, "pathfinder": 4}, apex.ByClass)
}

func TestContentTablesClampAffinity(t *testing.T) {
	content := models.NewContent(
		[]models.Class{{Key: "infobroker"}},
		[]models.NPC{{Key: "x", Affinity: map[string]int{"infobroker": 11}}},
		nil,
		[]models.Panel{{Kind: models.KindNarration}},
	)

	tables := NewMetaService(content).Tables()
	assert.Equal(t, 4, tables.Affinities[0].ByClass["infobroker"])
	assert.Equal(t, "x", tables.Affinities[0].NPCName)
}
