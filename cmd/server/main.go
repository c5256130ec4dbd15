package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aiwuxian/neon-panels/internal/api"
	"github.com/aiwuxian/neon-panels/internal/models"
	"github.com/aiwuxian/neon-panels/internal/services"
	"github.com/aiwuxian/neon-panels/internal/storage"
)

func main() {
	// .env可选
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("⚠️ 读取.env失败: %v", err)
	}

	// 加载配置
	configPath := os.Getenv("NEON_CONFIG")
	if configPath == "" {
		configPath = "config.yml"
	}
	config, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 加载内容
	content, err := services.LoadContent(context.Background(), os.DirFS(config.Content.Dir))
	if err != nil {
		log.Fatalf("加载内容失败: %v", err)
	}

	// 初始化数据库
	store, err := storage.New(config.Database.Path)
	if err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer store.Close()

	// 初始化服务
	engine := services.NewEngine(content, config.Game)
	storyService := services.NewStoryService(store, engine)
	metaService := services.NewMetaService(content)
	llmService := services.NewLLMService(config.LLM)
	if !llmService.Enabled() {
		log.Println("ℹ️ 未配置LLM API Key，旁白功能关闭")
	}

	// 初始化API处理器
	handler := api.NewHandler(storyService, metaService, llmService)

	// 设置Gin路由
	r := gin.Default()

	api.Register(r, handler)

	// 启动服务器
	addr := fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)
	log.Printf("🎮 Neon Panels 启动成功！访问 http://localhost:%s", config.Server.Port)
	log.Printf("📖 共 %d 个面板，准备开始霓虹之夜...", len(content.Panels))

	if err := r.Run(addr); err != nil {
		log.Fatalf("启动服务器失败: %v", err)
	}
}

// loadConfig 读取yaml配置，再用环境变量覆盖，最后补齐默认值
func loadConfig(path string) (*models.Config, error) {
	var config models.Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("⚠️ 未找到配置文件 %s，使用默认配置", path)
	default:
		return nil, err
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *models.Config) {
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if config.Database.Path == "" {
		config.Database.Path = "./data/neon.db"
	}
	if config.Content.Dir == "" {
		config.Content.Dir = "./data"
	}

	defaults := models.DefaultGameConfig()
	if len(config.Game.StartingParty) == 0 {
		config.Game.StartingParty = defaults.StartingParty
	}
	if config.Game.DefaultSupplies <= 0 {
		config.Game.DefaultSupplies = defaults.DefaultSupplies
	}
	if config.Game.DefaultMorale <= 0 {
		config.Game.DefaultMorale = defaults.DefaultMorale
	}
	if config.Game.NightActions <= 0 {
		config.Game.NightActions = defaults.NightActions
	}
}
