package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Class 玩家职业
type Class struct {
	Key          string           `json:"key"`
	Name         string           `json:"name"`
	Tagline      string           `json:"tagline"`
	Perks        []string         `json:"perks"`
	SceneWeights map[Emphasis]int `json:"sceneWeights"` // emphasis kind -> weight
}

// Emphasis 场景侧重类型（封闭枚举）
type Emphasis string

const (
	EmphasisCombat   Emphasis = "combat"
	EmphasisStealth  Emphasis = "stealth"
	EmphasisSocial   Emphasis = "social"
	EmphasisLore     Emphasis = "lore"
	EmphasisSurvival Emphasis = "survival"
	EmphasisTech     Emphasis = "tech"
)

// Valid 是否为已知侧重类型
func (e Emphasis) Valid() bool {
	switch e {
	case EmphasisCombat, EmphasisStealth, EmphasisSocial, EmphasisLore, EmphasisSurvival, EmphasisTech:
		return true
	}
	return false
}

// NPC 同伴角色
type NPC struct {
	Key          string             `json:"key"`
	Name         string             `json:"name"`
	Role         string             `json:"role"`
	Blurb        string             `json:"blurb"`
	Affinity     map[string]int     `json:"affinity"` // class key -> 0..4
	Tiers        []Tier             `json:"tiers"`
	Nodes        []CampNode         `json:"nodes"`
	Availability []AvailabilityRule `json:"availability,omitempty"`
}

// Tier 羁绊阶段：互动次数达到Unlock时解锁
type Tier struct {
	Tier   int    `json:"tier"`
	Unlock int    `json:"unlock"`
	Title  string `json:"title"`
	Notes  string `json:"notes"`
}

// CampNode 营地小剧情
type CampNode struct {
	Key           string            `json:"key"`
	Kind          string            `json:"kind"` // banter, memory, confession ...
	Title         string            `json:"title"`
	Text          string            `json:"text"`
	TextVariants  map[string]string `json:"text_variants,omitempty"`
	TierMin       int               `json:"tierMin"`
	ActMin        float64           `json:"actMin"`
	RequiresFlags []string          `json:"requiresFlags,omitempty"`
	Once          *bool             `json:"once,omitempty"` // nil means single-use
}

// SingleUse 是否只展示一次（默认是）
func (n CampNode) SingleUse() bool {
	return n.Once == nil || *n.Once
}

// AvailabilityRule 满足条件后NPC加入队伍
type AvailabilityRule struct {
	When     string `json:"when"` // after_scene
	SceneKey string `json:"sceneKey"`
}

const RuleAfterScene = "after_scene"

// Scene 场景（仅用于显示标题）
type Scene struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// PanelKind 面板类型
type PanelKind string

const (
	KindClassSelect PanelKind = "class_select"
	KindNarration   PanelKind = "narration"
	KindArc         PanelKind = "arc"
	KindEnding      PanelKind = "ending"
	KindDialogue    PanelKind = "dialogue"
	KindChoice      PanelKind = "choice"
	KindCamp        PanelKind = "camp"
	KindDeathChoice PanelKind = "death_choice"
)

// Known 引擎是否认识该面板类型
func (k PanelKind) Known() bool {
	switch k {
	case KindClassSelect, KindNarration, KindArc, KindEnding, KindDialogue,
		KindChoice, KindCamp, KindDeathChoice:
		return true
	}
	return false
}

// Panel 面板（一个叙事单元）
type Panel struct {
	Kind           PanelKind         `json:"kind"`
	Title          string            `json:"title,omitempty"`
	TitleVariants  map[string]string `json:"title_variants,omitempty"`
	Text           string            `json:"text,omitempty"`
	TextVariants   map[string]string `json:"text_variants,omitempty"`
	Prompt         string            `json:"prompt,omitempty"`
	PromptVariants map[string]string `json:"prompt_variants,omitempty"`
	Speaker        string            `json:"speaker,omitempty"`
	Image          string            `json:"image,omitempty"`
	Act            ActMarker         `json:"act"`
	Scene          string            `json:"scene,omitempty"`
	Emphasis       Emphasis          `json:"emphasis,omitempty"`
	Choices        []Choice          `json:"choices,omitempty"`
	Effects        *Effect           `json:"effects,omitempty"`
	Death          *DeathEvent       `json:"death,omitempty"`
}

// Choice 选项
type Choice struct {
	Label         string            `json:"label"`
	LabelVariants map[string]string `json:"label_variants,omitempty"`
	Effects       *Effect           `json:"effects,omitempty"`
}

// DeathEvent 死亡事件描述，数值字段为nil时使用默认值
type DeathEvent struct {
	Guides              []string `json:"guides,omitempty"`
	MinSupplies         *int     `json:"minSupplies,omitempty"`
	MinMorale           *int     `json:"minMorale,omitempty"`
	CostSupplies        *int     `json:"costSupplies,omitempty"`
	MoraleLoss          *int     `json:"moraleLoss,omitempty"`
	OfferChoiceWhenSafe bool     `json:"offerChoiceWhenSafe,omitempty"`
	OnSaveAll           *Effect  `json:"onSaveAll,omitempty"`
	OnSacrifice         *Effect  `json:"onSacrifice,omitempty"`
}

// ActMarker 面板上的幕标记，可写数字或数字字符串，其他写法视为未设置
type ActMarker struct {
	Value float64
	Set   bool
}

func (a *ActMarker) UnmarshalJSON(data []byte) error {
	*a = ActMarker{}
	if strings.TrimSpace(string(data)) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		a.Value, a.Set = n, true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			a.Value, a.Set = v, true
		}
	}
	return nil
}

func (a ActMarker) MarshalJSON() ([]byte, error) {
	if !a.Set {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// Content 全部作者内容（只读，启动时加载一次）
type Content struct {
	Classes []Class
	NPCs    []NPC
	Scenes  []Scene
	Panels  []Panel

	classByKey map[string]*Class
	npcByKey   map[string]*NPC
	sceneByKey map[string]*Scene
}

// NewContent 建立按key查找的索引
func NewContent(classes []Class, npcs []NPC, scenes []Scene, panels []Panel) *Content {
	c := &Content{
		Classes:    classes,
		NPCs:       npcs,
		Scenes:     scenes,
		Panels:     panels,
		classByKey: make(map[string]*Class, len(classes)),
		npcByKey:   make(map[string]*NPC, len(npcs)),
		sceneByKey: make(map[string]*Scene, len(scenes)),
	}
	for i := range c.Classes {
		c.classByKey[c.Classes[i].Key] = &c.Classes[i]
	}
	for i := range c.NPCs {
		c.npcByKey[c.NPCs[i].Key] = &c.NPCs[i]
	}
	for i := range c.Scenes {
		c.sceneByKey[c.Scenes[i].Key] = &c.Scenes[i]
	}
	return c
}

func (c *Content) Class(key string) (*Class, bool) {
	cl, ok := c.classByKey[key]
	return cl, ok
}

func (c *Content) NPC(key string) (*NPC, bool) {
	n, ok := c.npcByKey[key]
	return n, ok
}

func (c *Content) Scene(key string) (*Scene, bool) {
	s, ok := c.sceneByKey[key]
	return s, ok
}

// NPCName 显示名，未知NPC直接返回key
func (c *Content) NPCName(key string) string {
	if n, ok := c.npcByKey[key]; ok && n.Name != "" {
		return n.Name
	}
	return key
}

// Config 配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Content  ContentConfig  `yaml:"content"`
	LLM      LLMConfig      `yaml:"llm"`
	Game     GameConfig     `yaml:"game"`
}

type ServerConfig struct {
	Port string `yaml:"port" env:"NEON_PORT"`
	Host string `yaml:"host" env:"NEON_HOST"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"NEON_DB_PATH"`
}

type ContentConfig struct {
	Dir string `yaml:"dir" env:"NEON_CONTENT_DIR"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider" env:"NEON_LLM_PROVIDER"`
	APIKey      string  `yaml:"api_key" env:"NEON_LLM_API_KEY"`
	APIBase     string  `yaml:"api_base" env:"NEON_LLM_API_BASE"`
	Model       string  `yaml:"model" env:"NEON_LLM_MODEL"`
	Temperature float32 `yaml:"temperature" env:"NEON_LLM_TEMPERATURE"`
	MaxTokens   int     `yaml:"max_tokens" env:"NEON_LLM_MAX_TOKENS"`
}

type GameConfig struct {
	StartingParty   []string `yaml:"starting_party" env:"NEON_STARTING_PARTY" envSeparator:","`
	DefaultSupplies int      `yaml:"default_supplies" env:"NEON_DEFAULT_SUPPLIES"`
	DefaultMorale   int      `yaml:"default_morale" env:"NEON_DEFAULT_MORALE"`
	NightActions    int      `yaml:"night_actions" env:"NEON_NIGHT_ACTIONS"` // 仅用于新进度，进入营地固定重置为2
}

// DefaultGameConfig 配置文件未填写game段时使用
func DefaultGameConfig() GameConfig {
	return GameConfig{
		StartingParty:   []string{"apex", "dedor", "jeffery", "felix"},
		DefaultSupplies: 20,
		DefaultMorale:   5,
		NightActions:    2,
	}
}
