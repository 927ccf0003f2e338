package api

import (
	"context"
	"errors"
	"time"

	"token-holders/internal/holders/config"
	"token-holders/internal/holders/coordinator"
	"token-holders/internal/holders/ledger"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Server struct {
	cfg     config.APIConfig
	app     *fiber.App
	ledger  ledger.Client
	opts    func() coordinator.Options
	tl      *zap.Logger
}

// New builds the HTTP API. opts is read per lookup so hot reloaded pool
// settings apply to the next request.
func New(cfg config.APIConfig, client ledger.Client, opts func() coordinator.Options, tl *zap.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		ledger:  client,
		opts:    opts,
		tl:      tl,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "Token Holders API",
		DisableStartupMessage: true,
		// 参数字符串会写入查询结果，不能复用请求缓冲区
		Immutable:             true,
		ReadTimeout:           time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.WriteTimeout) * time.Second,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          s.errorHandler,
	})
	s.register()
	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) register() {
	s.app.Get("/health", health)

	v1 := s.app.Group("/api/v1")
	v1.Get("/endpoint", s.GetEndpoint)
	v1.Get("/tokens/:address/holders", s.GetTokenHolders)
}

// Start blocks until the listener stops.
func (s *Server) Start() error {
	s.tl.Info("starting API server", zap.String("addr", s.cfg.Listen))
	return s.app.Listen(s.cfg.Listen)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.tl.Error("request failed", zap.String("path", c.Path()), zap.Int("status", code), zap.Error(err))
	}
	return c.Status(code).JSON(ErrorResponse{Code: code, Message: errorText(err)})
}

func errorText(err error) string {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return coordinator.FallbackMessage
}

func health(c *fiber.Ctx) error {
	return c.SendString("OK")
}
