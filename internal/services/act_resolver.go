package services

import (
	"strconv"
	"strings"

	"github.com/aiwuxian/neon-panels/internal/models"
)

// Act 幕
type Act struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// actKind 幕的种类，决定显示标签
type actKind int

const (
	actNumbered actKind = iota
	actInterlude
	actEnding
)

const interludeValue = 1.5

func kindOfAct(v float64) actKind {
	switch {
	case v == interludeValue:
		return actInterlude
	case v >= 3:
		return actEnding
	default:
		return actNumbered
	}
}

// ActLabel 幕的显示标签
func ActLabel(v float64) string {
	switch kindOfAct(v) {
	case actInterlude:
		return "Interlude"
	case actEnding:
		return "Ending"
	default:
		return "Act " + strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// 场景key前缀到幕的映射，按顺序匹配；carry表示沿用当前幕
var scenePrefixes = []struct {
	prefix string
	value  float64
	carry  bool
}{
	{prefix: "act0", value: 0},
	{prefix: "intro", value: 0},
	{prefix: "act1", value: 1},
	{prefix: "interlude", value: interludeValue},
	{prefix: "act2", value: 2},
	{prefix: "end", value: 3},
	{prefix: "camp", carry: true},
}

// ResolveAct 解析面板所属的幕：优先使用面板上的显式标记，其次按场景前缀匹配，
// 都没有时沿用进度里的当前幕
func ResolveAct(panel *models.Panel, st *models.State) Act {
	if panel.Act.Set {
		return Act{Value: panel.Act.Value, Label: ActLabel(panel.Act.Value)}
	}
	scene := strings.ToLower(panel.Scene)
	if scene != "" {
		for _, p := range scenePrefixes {
			if !strings.HasPrefix(scene, p.prefix) {
				continue
			}
			if p.carry {
				break
			}
			return Act{Value: p.value, Label: ActLabel(p.value)}
		}
	}
	return Act{Value: st.Act, Label: ActLabel(st.Act)}
}

// ResolveVariant 按职业取文本变体，没有对应变体时返回原值
func ResolveVariant(base string, variants map[string]string, classKey string) string {
	if classKey == "" {
		return base
	}
	if v, ok := variants[classKey]; ok {
		return v
	}
	return base
}
