package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/aiwuxian/neon-panels/internal/models"
	"github.com/aiwuxian/neon-panels/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExportFileName 导出存档的下载文件名
const ExportFileName = "jacob_neon_save.json"

// 导入存档的大小上限
const maxImportBytes = 1 << 20

type Handler struct {
	storyService *services.StoryService
	metaService  *services.MetaService
	llmService   *services.LLMService
}

func NewHandler(storyService *services.StoryService, metaService *services.MetaService,
	llmService *services.LLMService) *Handler {
	return &Handler{
		storyService: storyService,
		metaService:  metaService,
		llmService:   llmService,
	}
}

// Register 注册全部路由
func Register(r *gin.Engine, h *Handler) {
	apiGroup := r.Group("/api")
	{
		// 内容
		apiGroup.GET("/content/tables", h.ContentTables)

		// 会话
		apiGroup.POST("/sessions", h.CreateSession)
		apiGroup.GET("/sessions/:id", h.GetSession)
		apiGroup.POST("/sessions/:id/commands", h.ExecuteCommand)
		apiGroup.POST("/sessions/:id/restart", h.Restart)

		// 存档
		apiGroup.GET("/sessions/:id/export", h.ExportSave)
		apiGroup.POST("/sessions/:id/import", h.ImportSave)
		apiGroup.GET("/saves", h.ListSaves)

		// 旁白
		apiGroup.GET("/sessions/:id/recap", h.Recap)
	}
}

// getCustomLLMService 从请求头获取自定义API配置并创建LLMService
func (h *Handler) getCustomLLMService(c *gin.Context) *services.LLMService {
	apiKey := c.GetHeader("X-Custom-API-Key")
	if apiKey == "" {
		return h.llmService
	}

	return services.NewLLMService(models.LLMConfig{
		Provider:    "openai",
		APIKey:      apiKey,
		APIBase:     c.GetHeader("X-Custom-API-Base"),
		Model:       c.GetHeader("X-Custom-API-Model"),
		Temperature: 0.7,
		MaxTokens:   400,
	})
}

// sessionID 校验路径中的会话ID
func sessionID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "会话ID无效"})
		return "", false
	}
	return id, true
}

// ContentTables 职业侧重表和同伴好感矩阵
func (h *Handler) ContentTables(c *gin.Context) {
	c.JSON(http.StatusOK, h.metaService.Tables())
}

// CreateSession 创建新会话
func (h *Handler) CreateSession(c *gin.Context) {
	view, err := h.storyService.NewSession()
	if err != nil {
		log.Printf("❌ 创建会话失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("✅ 会话创建成功, ID: %s\n", view.SessionID)
	c.JSON(http.StatusOK, view)
}

// GetSession 渲染当前面板
func (h *Handler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	view, err := h.storyService.View(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// ExecuteCommand 执行一条玩家指令
func (h *Handler) ExecuteCommand(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var cmd services.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}

	view, err := h.storyService.Execute(id, cmd)
	if err != nil {
		log.Printf("❌ 执行指令 %s 失败: %v\n", cmd.Type, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// Restart 重新开始
func (h *Handler) Restart(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	view, err := h.storyService.Restart(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// ExportSave 下载当前存档
func (h *Handler) ExportSave(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	body, err := h.storyService.Export(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+ExportFileName+`"`)
	c.Data(http.StatusOK, "application/json", body)
}

// ImportSave 上传存档覆盖当前进度，无法解析时原存档保持不变
func (h *Handler) ImportSave(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取存档失败"})
		return
	}

	view, err := h.storyService.Import(id, body)
	if errors.Is(err, services.ErrInvalidSave) {
		log.Printf("⚠️ 会话 %s 导入存档失败: %v\n", id, err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "存档无法解析",
			"notices": []string{"Invalid save file."},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	view.Notices = append([]string{"Save imported."}, view.Notices...)
	c.JSON(http.StatusOK, view)
}

// ListSaves 列出所有存档
func (h *Handler) ListSaves(c *gin.Context) {
	saves, err := h.storyService.ListSaves()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"saves": saves})
}

// Recap 旁白生成前情提要
func (h *Handler) Recap(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	// 使用自定义LLM配置（如果有）
	llmService := h.getCustomLLMService(c)
	if !llmService.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": services.ErrNarratorDisabled.Error()})
		return
	}

	view, err := h.storyService.Snapshot(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	recap, err := llmService.Recap(c.Request.Context(), view, h.storyService.Engine().Content())
	if err != nil {
		log.Printf("❌ 生成前情提要失败: %v\n", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": id,
		"act":        view.Panel.Act,
		"recap":      recap,
	})
}
