package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/aiwuxian/neon-panels/internal/models"
	"golang.org/x/sync/errgroup"
)

// 内容目录下的文件名
const (
	ClassesFile = "classes.json"
	NPCsFile    = "npcs.json"
	ScenesFile  = "scenes.json"
	PanelsFile  = "panels.json"
)

// ErrNoPanels 内容里一个面板都没有
var ErrNoPanels = errors.New("content has no panels")

// LoadContent 并发读取四个内容文件，任意一个失败都视为致命错误
func LoadContent(ctx context.Context, fsys fs.FS) (*models.Content, error) {
	var (
		classes []models.Class
		npcs    []models.NPC
		scenes  []models.Scene
		panels  []models.Panel
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return readJSON(ctx, fsys, ClassesFile, &classes) })
	g.Go(func() error { return readJSON(ctx, fsys, NPCsFile, &npcs) })
	g.Go(func() error { return readJSON(ctx, fsys, ScenesFile, &scenes) })
	g.Go(func() error { return readJSON(ctx, fsys, PanelsFile, &panels) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(panels) == 0 {
		return nil, ErrNoPanels
	}

	for i := range classes {
		sanitizeWeights(&classes[i])
	}
	for i, p := range panels {
		if !p.Kind.Known() {
			log.Printf("⚠️ [内容] 面板 #%d 类型未知: %q\n", i, p.Kind)
		}
		if p.Emphasis != "" && !p.Emphasis.Valid() {
			log.Printf("⚠️ [内容] 面板 #%d 侧重未知: %q\n", i, p.Emphasis)
		}
	}

	content := models.NewContent(classes, npcs, scenes, panels)
	log.Printf("📚 [内容] 已加载 %d 个职业、%d 名同伴、%d 个场景、%d 个面板\n",
		len(classes), len(npcs), len(scenes), len(panels))
	return content, nil
}

func readJSON(ctx context.Context, fsys fs.FS, name string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("读取内容文件 %s 失败: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("解析内容文件 %s 失败: %w", name, err)
	}
	return nil
}

// sanitizeWeights 去掉未知的侧重类型
func sanitizeWeights(c *models.Class) {
	for k := range c.SceneWeights {
		if !k.Valid() {
			log.Printf("⚠️ [内容] 职业 %s 的侧重 %q 未知，已忽略\n", c.Key, k)
			delete(c.SceneWeights, k)
		}
	}
}
