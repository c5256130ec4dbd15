package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aiwuxian/neon-panels/internal/models"
)

// ErrInvalidSave 导入的存档无法解析
var ErrInvalidSave = errors.New("invalid save file")

// EncodeState 序列化进度
func EncodeState(st *models.State) ([]byte, error) {
	return json.Marshal(st)
}

// ExportState 导出用的格式化JSON
func ExportState(st *models.State) ([]byte, error) {
	return json.MarshalIndent(st, "", "  ")
}

// cloneState 深拷贝进度，返回给锁外的调用方使用
func cloneState(st *models.State) *models.State {
	body, err := json.Marshal(st)
	if err != nil {
		return st
	}
	var c models.State
	if err := json.Unmarshal(body, &c); err != nil {
		return st
	}
	return &c
}

// ValidateSave 导入前唯一的检查：必须能解析成JSON对象
func ValidateSave(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	if obj == nil {
		return fmt.Errorf("%w: not an object", ErrInvalidSave)
	}
	return nil
}

// DecodeState 宽容地解析存档：每个顶层字段独立解析，缺失或类型不对的字段
// 使用默认值，整份文档无法解析时全部使用默认值。返回被默认化的字段名。
func DecodeState(data []byte, game models.GameConfig) (*models.State, []string) {
	st := models.NewState(game)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return st, []string{"*"}
	}

	var defaulted []string
	check := func(name string, ok bool) {
		if !ok {
			defaulted = append(defaulted, name)
		}
	}

	// 早期存档用idx/_passedScenes
	check("index", decodeField(raw, "index", &st.Index) || decodeField(raw, "idx", &st.Index))
	check("classKey", decodeField(raw, "classKey", &st.ClassKey))
	check("gift", decodeField(raw, "gift", &st.Gift))
	check("nightActionsLeft", decodeField(raw, "nightActionsLeft", &st.NightActionsLeft))
	check("bonds", decodeField(raw, "bonds", &st.Bonds))
	check("seenNodes", decodeField(raw, "seenNodes", &st.SeenNodes))
	check("unlockedNodes", decodeField(raw, "unlockedNodes", &st.UnlockedNodes))
	check("lastTalk", decodeField(raw, "lastTalk", &st.LastTalk))
	check("act", decodeField(raw, "act", &st.Act))
	check("party", decodeField(raw, "party", &st.Party))
	check("dead", decodeField(raw, "dead", &st.Dead))
	check("flags", decodeField(raw, "flags", &st.Flags))
	check("passedScenes", decodeField(raw, "passedScenes", &st.PassedScenes) ||
		decodeField(raw, "_passedScenes", &st.PassedScenes))

	// stats缺少的子字段保留默认值
	stats := st.Stats
	if msg, ok := raw["stats"]; ok && json.Unmarshal(msg, &stats) == nil {
		st.Stats = stats
	} else {
		defaulted = append(defaulted, "stats")
	}

	st.Normalize()
	return st, defaulted
}

// decodeField 解析单个字段，缺失、null或解析失败时不改动dst
func decodeField[T any](raw map[string]json.RawMessage, name string, dst *T) bool {
	msg, ok := raw[name]
	if !ok || string(bytes.TrimSpace(msg)) == "null" {
		return false
	}
	var v T
	if err := json.Unmarshal(msg, &v); err != nil {
		return false
	}
	*dst = v
	return true
}
