package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sanctumforge/merchant/merchant"
)

const maxBodySize = 8 << 20

// Server exposes merchants, item sources and stocking runs over HTTP.
type Server struct {
	app *fiber.App
	bot *merchant.Bot
}

func New(b *merchant.Bot) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "Merchant API",
		ServerHeader:          "Merchant",
		ErrorHandler:          ErrorHandler,
		BodyLimit:             maxBodySize,
		UnescapePath:          true,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(LoggingMiddleware())

	s := &Server{app: app, bot: b}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.health)

	api := s.app.Group("/api", TokenRequired(s.bot.Cfg.API.Token))
	api.Get("/sources", s.listSources)
	api.Post("/imports", s.createImport)

	guild := api.Group("/guilds/:guild")
	guild.Get("/merchants", s.listMerchants)
	guild.Get("/merchants/:name/wares", s.listWares)
	guild.Post("/stock", s.stock)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving on the configured address until Shutdown is called.
func (s *Server) Listen() error {
	return s.app.Listen(s.bot.Cfg.API.Address())
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
