package api

import (
	"imantap/internal/repository"
	"imantap/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Notifier delivers transactional Telegram messages triggered by API
// calls. A nil notifier silently drops them.
type Notifier interface {
	SendMessage(chatID int64, text string) error
}

// Server exposes the mini-app HTTP API: progress syncs, profile reads,
// access checks, leaderboards and circles.
type Server struct {
	app      *fiber.App
	progress *service.ProgressService
	access   *service.AccessService
	circles  *service.CircleService
	boards   repository.LeaderboardRepository
	users    repository.UserRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewServer creates the API server and registers all routes.
func NewServer(
	progress *service.ProgressService,
	access *service.AccessService,
	circles *service.CircleService,
	boards repository.LeaderboardRepository,
	users repository.UserRepository,
	notifier Notifier,
	logger *zap.Logger,
) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		progress: progress,
		access:   access,
		circles:  circles,
		boards:   boards,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/api/check-access", s.handleCheckAccess)

	s.app.Post("/api/user/:id/sync", s.handleSync)
	s.app.Get("/api/user/:id/full", s.handleFullProfile)
	s.app.Get("/api/user/:id/access", s.handleUserAccess)

	s.app.Get("/api/leaderboard/global", s.handleGlobalLeaderboard)
	s.app.Get("/api/leaderboard/friends/:id", s.handleFriendsLeaderboard)
	s.app.Get("/api/leaderboard/rank/:id", s.handleRank)

	s.app.Post("/api/circles/create", s.handleCreateCircle)
	s.app.Get("/api/circles/user/:id", s.handleUserCircles)
	s.app.Get("/api/circles/:id/details", s.handleCircleDetails)
	s.app.Post("/api/circles/invite", s.handleCircleInvite)
	s.app.Post("/api/circles/accept", s.handleCircleAccept)
	s.app.Post("/api/circles/decline", s.handleCircleDecline)
	s.app.Post("/api/circles/join", s.handleCircleJoin)
	s.app.Post("/api/circles/leave", s.handleCircleLeave)
	s.app.Post("/api/circles/remove-member", s.handleCircleRemoveMember)
	s.app.Post("/api/circles/delete", s.handleCircleDelete)
}

// Listen starts serving on the given port. Blocks until shutdown.
func (s *Server) Listen(port string) error {
	return s.app.Listen(":" + port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}
