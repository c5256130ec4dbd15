package models

// SaveKey 存档的逻辑key（带版本号）
const SaveKey = "jacob_neon_save_v1"

// 各项数值的取值范围
const (
	SuppliesMin, SuppliesMax   = 0, 99
	MoraleMin, MoraleMax       = -20, 20
	SuspicionMin, SuspicionMax = 0, 99
	WoundsMin, WoundsMax       = 0, 99
)

// Stats 队伍数值
type Stats struct {
	Supplies  int `json:"supplies"`
	Morale    int `json:"morale"`
	Suspicion int `json:"suspicion"`
	Wounds    int `json:"wounds"`
}

// Add 按名称叠加数值并钳制，未知名称返回false
func (s *Stats) Add(name string, delta int) bool {
	switch name {
	case "supplies":
		s.Supplies = Clamp(s.Supplies+delta, SuppliesMin, SuppliesMax)
	case "morale":
		s.Morale = Clamp(s.Morale+delta, MoraleMin, MoraleMax)
	case "suspicion":
		s.Suspicion = Clamp(s.Suspicion+delta, SuspicionMin, SuspicionMax)
	case "wounds":
		s.Wounds = Clamp(s.Wounds+delta, WoundsMin, WoundsMax)
	default:
		return false
	}
	return true
}

// Clamp 把所有数值拉回合法范围
func (s *Stats) Clamp() {
	s.Supplies = Clamp(s.Supplies, SuppliesMin, SuppliesMax)
	s.Morale = Clamp(s.Morale, MoraleMin, MoraleMax)
	s.Suspicion = Clamp(s.Suspicion, SuspicionMin, SuspicionMax)
	s.Wounds = Clamp(s.Wounds, WoundsMin, WoundsMax)
}

func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// UnlockedNodes 被效果强制解锁的营地节点
type UnlockedNodes struct {
	PerNPC map[string][]string `json:"perNpc"`
	Global []string            `json:"global"`
}

// TalkSummary 最近一次营地对话的摘要（仅用于显示）
type TalkSummary struct {
	Key  string `json:"key"`
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// State 玩家进度（会话独占，每次变更后持久化）
type State struct {
	Index            int                    `json:"index"`
	ClassKey         string                 `json:"classKey"`
	Gift             string                 `json:"gift"`
	NightActionsLeft int                    `json:"nightActionsLeft"`
	Bonds            map[string]int         `json:"bonds"`
	SeenNodes        map[string][]string    `json:"seenNodes"`
	UnlockedNodes    UnlockedNodes          `json:"unlockedNodes"`
	LastTalk         map[string]TalkSummary `json:"lastTalk"`
	Act              float64                `json:"act"`
	Party            []string               `json:"party"`
	Dead             []string               `json:"dead"`
	Flags            map[string]any         `json:"flags"`
	Stats            Stats                  `json:"stats"`
	PassedScenes     map[string]bool        `json:"passedScenes"`
}

// NewState 按游戏配置创建默认进度
func NewState(cfg GameConfig) *State {
	st := &State{
		NightActionsLeft: cfg.NightActions,
		Bonds:            map[string]int{},
		SeenNodes:        map[string][]string{},
		UnlockedNodes:    UnlockedNodes{PerNPC: map[string][]string{}, Global: []string{}},
		LastTalk:         map[string]TalkSummary{},
		Party:            append([]string{}, cfg.StartingParty...),
		Dead:             []string{},
		Flags:            map[string]any{},
		Stats:            Stats{Supplies: cfg.DefaultSupplies, Morale: cfg.DefaultMorale},
		PassedScenes:     map[string]bool{},
	}
	st.Stats.Clamp()
	return st
}

// Normalize 补齐nil集合并恢复不变量：数值钳制、行动数非负、死者不在队伍中
func (st *State) Normalize() {
	if st.Bonds == nil {
		st.Bonds = map[string]int{}
	}
	if st.SeenNodes == nil {
		st.SeenNodes = map[string][]string{}
	}
	if st.UnlockedNodes.PerNPC == nil {
		st.UnlockedNodes.PerNPC = map[string][]string{}
	}
	if st.UnlockedNodes.Global == nil {
		st.UnlockedNodes.Global = []string{}
	}
	if st.LastTalk == nil {
		st.LastTalk = map[string]TalkSummary{}
	}
	if st.Party == nil {
		st.Party = []string{}
	}
	if st.Dead == nil {
		st.Dead = []string{}
	}
	if st.Flags == nil {
		st.Flags = map[string]any{}
	}
	if st.PassedScenes == nil {
		st.PassedScenes = map[string]bool{}
	}
	if st.NightActionsLeft < 0 {
		st.NightActionsLeft = 0
	}
	if st.Index < 0 {
		st.Index = 0
	}
	st.Stats.Clamp()

	party := st.Party[:0]
	for _, k := range st.Party {
		if !st.IsDead(k) && !Contains(party, k) {
			party = append(party, k)
		}
	}
	st.Party = party
}

func (st *State) InParty(key string) bool { return Contains(st.Party, key) }

func (st *State) IsDead(key string) bool { return Contains(st.Dead, key) }

// FlagSet 标志是否为真值（与作者数据里的truthy语义一致）
func (st *State) FlagSet(name string) bool {
	v, ok := st.Flags[name]
	if !ok || v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	}
	return true
}

func Contains(list []string, key string) bool {
	for _, k := range list {
		if k == key {
			return true
		}
	}
	return false
}

// AppendUnique 追加（已存在则不变）
func AppendUnique(list []string, key string) []string {
	if Contains(list, key) {
		return list
	}
	return append(list, key)
}

// Remove 过滤掉key
func Remove(list []string, key string) []string {
	out := list[:0]
	for _, k := range list {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}
