package services

import (
	"testing"

	"github.com/aiwuxian/neon-panels/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	game := testGameConfig()
	st := models.NewState(game)
	st.Index = 4
	st.ClassKey = "infobroker"
	st.Gift = "rain_coat"
	st.Bonds["apex"] = 3
	st.SeenNodes["apex"] = []string{"apex_memory"}
	st.UnlockedNodes.Global = []string{"secret_1"}
	st.LastTalk["apex"] = models.TalkSummary{Key: "apex_memory", Kind: "memory", Text: "..."}
	st.Act = 1.5
	st.Dead = []string{"dedor"}
	st.Party = []string{"apex", "jeffery"}
	st.Flags["met_oracle"] = true
	st.Flags["route"] = "north"
	st.Stats = models.Stats{Supplies: 7, Morale: -2, Suspicion: 3, Wounds: 1}
	st.PassedScenes["act1_market"] = true

	body, err := EncodeState(st)
	require.NoError(t, err)

	got, defaulted := DecodeState(body, game)
	assert.Empty(t, defaulted)
	assert.Equal(t, st, got)
}

func TestExportIsIndented(t *testing.T) {
	body, err := ExportState(models.NewState(testGameConfig()))
	require.NoError(t, err)
	assert.Contains(t, string(body), "\n  \"index\": 0")
}

func TestDecodeGarbageFallsBackToDefaults(t *testing.T) {
	game := testGameConfig()
	for _, raw := range []string{`not json`, `[1,2]`, `null`, `"x"`} {
		st, defaulted := DecodeState([]byte(raw), game)
		assert.Equal(t, models.NewState(game), st, raw)
		assert.Equal(t, []string{"*"}, defaulted, raw)
	}
}

func TestDecodeIsTolerantPerField(t *testing.T) {
	game := testGameConfig()
	raw := `{
		"index": "three",
		"classKey": "pathfinder",
		"bonds": {"apex": 2},
		"party": null,
		"dead": ["dedor"],
		"stats": {"supplies": 4},
		"flags": 7
	}`

	st, defaulted := DecodeState([]byte(raw), game)
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, "pathfinder", st.ClassKey)
	assert.Equal(t, 2, st.Bonds["apex"])
	assert.Equal(t, []string{"apex", "jeffery", "felix"}, st.Party, "默认队伍去掉死者")
	assert.Equal(t, 4, st.Stats.Supplies)
	assert.Equal(t, game.DefaultMorale, st.Stats.Morale, "缺少的子字段保留默认值")
	assert.Empty(t, st.Flags)

	assert.Contains(t, defaulted, "index")
	assert.Contains(t, defaulted, "party")
	assert.Contains(t, defaulted, "flags")
	assert.NotContains(t, defaulted, "classKey")
	assert.NotContains(t, defaulted, "stats")
}

func TestDecodeLegacyFieldNames(t *testing.T) {
	st, _ := DecodeState([]byte(`{"idx": 5, "_passedScenes": {"act1_market": true}}`), testGameConfig())
	assert.Equal(t, 5, st.Index)
	assert.True(t, st.PassedScenes["act1_market"])
}

func TestDecodeNormalizesValues(t *testing.T) {
	raw := `{"index": -2, "nightActionsLeft": -1, "stats": {"supplies": 500}, "party": ["apex", "apex"]}`
	st, _ := DecodeState([]byte(raw), testGameConfig())

	assert.Equal(t, 0, st.Index)
	assert.Equal(t, 0, st.NightActionsLeft)
	assert.Equal(t, models.SuppliesMax, st.Stats.Supplies)
	assert.Equal(t, []string{"apex"}, st.Party)
}

func TestValidateSave(t *testing.T) {
	assert.NoError(t, ValidateSave([]byte(`{}`)))
	assert.NoError(t, ValidateSave([]byte(`{"index": "nonsense"}`)))

	for _, raw := range []string{``, `nope`, `[]`, `null`, `42`} {
		assert.ErrorIs(t, ValidateSave([]byte(raw)), ErrInvalidSave, raw)
	}
}
