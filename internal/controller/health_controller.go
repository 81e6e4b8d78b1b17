package controller

import (
	"time"

	"ai-discovery-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Check(ctx *fiber.Ctx) error
}

type HealthStatus struct {
	Status        string `json:"status"`
	Storage       string `json:"storage"`
	ActiveRunners int    `json:"active_runners"`
	Uptime        string `json:"uptime"`
}

type healthController struct {
	storage   string
	runners   func() int
	startedAt time.Time
}

// NewHealthController reports liveness. runners may be nil.
func NewHealthController(storage string, runners func() int) IHealthController {
	return &healthController{
		storage:   storage,
		runners:   runners,
		startedAt: time.Now(),
	}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Check)
}

func (c *healthController) Check(ctx *fiber.Ctx) error {
	status := HealthStatus{
		Status:  "ok",
		Storage: c.storage,
		Uptime:  time.Since(c.startedAt).Round(time.Second).String(),
	}
	if c.runners != nil {
		status.ActiveRunners = c.runners()
	}
	return ctx.JSON(serverutils.SuccessResponse("Healthy", status))
}
