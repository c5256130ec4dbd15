package models

import (
	"encoding/json"
	"fmt"
)

// NodeRef 指向某个NPC的营地节点
type NodeRef struct {
	NPCKey  string `json:"npcKey"`
	NodeKey string `json:"nodeKey"`
}

// Effect 效果描述（已规范化）。作者数据里的同义key在解码时合并到同一字段，
// 未知key直接忽略。
type Effect struct {
	Gift              string
	ClassKey          *string
	Flags             map[string]any
	StatsDelta        map[string]int
	PartyAdd          []string
	PartyRemove       []string
	Bond              map[string]int
	UnlockNPCNodes    []NodeRef
	UnlockGlobalNodes []string
}

// 同义key，按顺序合并，后者覆盖前者的同名项
var (
	statsKeys = []string{"stats", "stats_delta", "statsDelta"}
	bondKeys  = []string{"bonds", "bond"}
)

type rawParty struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

type rawUnlock struct {
	NPCNodes       []NodeRef `json:"npcNodes"`
	NPCNodesAlt    []NodeRef `json:"npc_nodes"`
	GlobalNodes    []string  `json:"globalNodes"`
	GlobalNodesAlt []string  `json:"global_nodes"`
}

func (e *Effect) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Effect{}

	if msg, ok := raw["gift"]; ok {
		if err := json.Unmarshal(msg, &e.Gift); err != nil {
			return fmt.Errorf("effect gift: %w", err)
		}
	}
	if msg, ok := raw["classKey"]; ok {
		var key string
		if err := json.Unmarshal(msg, &key); err != nil {
			return fmt.Errorf("effect classKey: %w", err)
		}
		e.ClassKey = &key
	}
	if msg, ok := raw["flags"]; ok {
		if err := json.Unmarshal(msg, &e.Flags); err != nil {
			return fmt.Errorf("effect flags: %w", err)
		}
	}
	for _, k := range statsKeys {
		msg, ok := raw[k]
		if !ok {
			continue
		}
		var delta map[string]int
		if err := json.Unmarshal(msg, &delta); err != nil {
			return fmt.Errorf("effect %s: %w", k, err)
		}
		if e.StatsDelta == nil {
			e.StatsDelta = map[string]int{}
		}
		for name, v := range delta {
			e.StatsDelta[name] = v
		}
	}
	if msg, ok := raw["party"]; ok {
		var p rawParty
		if err := json.Unmarshal(msg, &p); err != nil {
			return fmt.Errorf("effect party: %w", err)
		}
		e.PartyAdd, e.PartyRemove = p.Add, p.Remove
	}
	for _, k := range bondKeys {
		msg, ok := raw[k]
		if !ok {
			continue
		}
		var delta map[string]int
		if err := json.Unmarshal(msg, &delta); err != nil {
			return fmt.Errorf("effect %s: %w", k, err)
		}
		if e.Bond == nil {
			e.Bond = map[string]int{}
		}
		for npc, v := range delta {
			e.Bond[npc] = v
		}
	}
	if msg, ok := raw["unlock"]; ok {
		var u rawUnlock
		if err := json.Unmarshal(msg, &u); err != nil {
			return fmt.Errorf("effect unlock: %w", err)
		}
		e.UnlockNPCNodes = append(u.NPCNodesAlt, u.NPCNodes...)
		e.UnlockGlobalNodes = append(u.GlobalNodesAlt, u.GlobalNodes...)
	}
	return nil
}

// EffectOp 效果操作（封闭集合，只有本包内的类型实现）
type EffectOp interface {
	effectOp()
}

type GiftOp struct{ Gift string }
type ClassOp struct{ ClassKey string }
type FlagsOp struct{ Flags map[string]any }
type StatsOp struct{ Delta map[string]int }
type PartyOp struct{ Add, Remove []string }
type BondOp struct{ Delta map[string]int }
type UnlockOp struct {
	NPCNodes    []NodeRef
	GlobalNodes []string
}

func (GiftOp) effectOp()   {}
func (ClassOp) effectOp()  {}
func (FlagsOp) effectOp()  {}
func (StatsOp) effectOp()  {}
func (PartyOp) effectOp()  {}
func (BondOp) effectOp()   {}
func (UnlockOp) effectOp() {}

// Ops 把效果拆成操作列表，顺序固定
func (e *Effect) Ops() []EffectOp {
	if e == nil {
		return nil
	}
	var ops []EffectOp
	if e.Gift != "" {
		ops = append(ops, GiftOp{Gift: e.Gift})
	}
	if e.ClassKey != nil {
		ops = append(ops, ClassOp{ClassKey: *e.ClassKey})
	}
	if len(e.Flags) > 0 {
		ops = append(ops, FlagsOp{Flags: e.Flags})
	}
	if len(e.StatsDelta) > 0 {
		ops = append(ops, StatsOp{Delta: e.StatsDelta})
	}
	if len(e.PartyAdd) > 0 || len(e.PartyRemove) > 0 {
		ops = append(ops, PartyOp{Add: e.PartyAdd, Remove: e.PartyRemove})
	}
	if len(e.Bond) > 0 {
		ops = append(ops, BondOp{Delta: e.Bond})
	}
	if len(e.UnlockNPCNodes) > 0 || len(e.UnlockGlobalNodes) > 0 {
		ops = append(ops, UnlockOp{NPCNodes: e.UnlockNPCNodes, GlobalNodes: e.UnlockGlobalNodes})
	}
	return ops
}
