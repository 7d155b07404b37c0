// Package router wires services, handlers and middleware into the gin
// engine.
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ilmarsk/notehub/config"
	"github.com/ilmarsk/notehub/internal/handler"
	"github.com/ilmarsk/notehub/internal/middleware"
	"github.com/ilmarsk/notehub/internal/notify"
	fileservice "github.com/ilmarsk/notehub/internal/service/file"
	ingestservice "github.com/ilmarsk/notehub/internal/service/ingest"
	noteservice "github.com/ilmarsk/notehub/internal/service/note"
	renderservice "github.com/ilmarsk/notehub/internal/service/render"
	tagservice "github.com/ilmarsk/notehub/internal/service/tag"
	userservice "github.com/ilmarsk/notehub/internal/service/user"
	ws "github.com/ilmarsk/notehub/internal/websocket"
)

// Router holds the configured engine.
type Router struct {
	engine *gin.Engine
}

// New builds the service graph and registers all routes. The bus is
// created by the caller so the same instance reaches both the publishing
// services and the websocket hub.
func New(db *gorm.DB, cfg *config.Config, bus *notify.Bus, hub *ws.Hub) (*Router, error) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	fileService, err := fileservice.NewFileService(db, cfg.Storage)
	if err != nil {
		return nil, err
	}
	tagService := tagservice.NewTagService(db)
	noteService := noteservice.NewNoteService(db, tagService, fileService, bus)
	ingestService := ingestservice.NewIngestService(noteService)
	renderService := renderservice.NewRenderService()
	userService := userservice.NewUserService(db)

	noteHandler := handler.NewNoteHandler(noteService, ingestService)
	tagHandler := handler.NewTagHandler(tagService)
	fileHandler := handler.NewFileHandler(fileService, noteService)
	renderHandler := handler.NewRenderHandler(renderService)
	userHandler := handler.NewUserHandler(userService)
	wsHandler := handler.NewWSHandler(hub)

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	{
		api.POST("/notes/ingest", noteHandler.Ingest)
		api.GET("/notes", noteHandler.List)
		api.GET("/notes/:id", noteHandler.Get)
		api.PATCH("/notes/:id", noteHandler.Update)
		api.DELETE("/notes/:id", noteHandler.Delete)
		api.POST("/notes/:id/files", fileHandler.Upload)

		api.GET("/files/:id", fileHandler.Download)
		api.DELETE("/files/:id", fileHandler.Delete)

		api.GET("/tags", tagHandler.List)
		api.GET("/tags/search", tagHandler.Search)
		api.GET("/tags/popular", tagHandler.Popular)
		api.GET("/tags/:name", tagHandler.Get)
		api.GET("/tags/:name/stats", tagHandler.UsageStats)

		api.POST("/render/preview", renderHandler.Preview)

		api.POST("/users", userHandler.Ensure)
		api.GET("/users/:id", userHandler.Get)

		api.GET("/ws", wsHandler.Attach)
	}

	return &Router{engine: engine}, nil
}

// Engine exposes the underlying gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
