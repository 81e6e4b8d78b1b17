package controller

import (
	"errors"

	"ai-discovery-be/internal/dto"
	"ai-discovery-be/internal/pkg/serverutils"
	"ai-discovery-be/internal/service"
	"ai-discovery-be/pkg/agent"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDiscoveryController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Continue(ctx *fiber.Ctx) error
	Transcript(ctx *fiber.Ctx) error
	Ideas(ctx *fiber.Ctx) error
	UpdatePhase(ctx *fiber.Ctx) error
	End(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Techniques(ctx *fiber.Ctx) error
}

type discoveryController struct {
	discoveryService service.IDiscoveryService
	jwtSecret        string
}

func NewDiscoveryController(discoveryService service.IDiscoveryService, jwtSecret string) IDiscoveryController {
	return &discoveryController{
		discoveryService: discoveryService,
		jwtSecret:        jwtSecret,
	}
}

func (c *discoveryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/discovery/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("techniques", c.Techniques)
	h.Post("sessions/start", c.Start)
	h.Get("sessions", c.List)
	h.Get("sessions/:id", c.Show)
	h.Post("sessions/:id/messages", c.Continue)
	h.Get("sessions/:id/messages", c.Transcript)
	h.Get("sessions/:id/ideas", c.Ideas)
	h.Put("sessions/:id/phase", c.UpdatePhase)
	h.Post("sessions/:id/end", c.End)
	h.Delete("sessions/:id", c.Delete)
}

func (c *discoveryController) Start(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.StartSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.discoveryService.StartSession(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	if res.SessionId == nil {
		return ctx.JSON(serverutils.SuccessResponse("Available commands", res))
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success start discovery session", res))
}

func (c *discoveryController) List(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.discoveryService.ListSessions(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list discovery sessions", res))
}

func (c *discoveryController) Show(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.identify(ctx)
	if err != nil {
		return err
	}

	res, err := c.discoveryService.GetSession(ctx.UserContext(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show discovery session", res))
}

func (c *discoveryController) Continue(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.identify(ctx)
	if err != nil {
		return err
	}

	var req dto.ContinueSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.discoveryService.ContinueSession(ctx.UserContext(), userId, sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success continue discovery session", res))
}

func (c *discoveryController) Transcript(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.identify(ctx)
	if err != nil {
		return err
	}

	res, err := c.discoveryService.GetTranscript(ctx.UserContext(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get transcript", res))
}

func (c *discoveryController) Ideas(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.identify(ctx)
	if err != nil {
		return err
	}

	var filter dto.IdeaFilterRequest
	if err := ctx.QueryParser(&filter); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}

	res, err := c.discoveryService.ListIdeas(ctx.UserContext(), userId, sessionId, &filter)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list ideas", res))
}

func (c *discoveryController) UpdatePhase(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.identify(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdatePhaseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.discoveryService.UpdatePhase(ctx.UserContext(), userId, sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update phase", res))
}

func (c *discoveryController) End(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.identify(ctx)
	if err != nil {
		return err
	}

	res, err := c.discoveryService.CloseSession(ctx.UserContext(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success end discovery session", res))
}

func (c *discoveryController) Delete(ctx *fiber.Ctx) error {
	userId, sessionId, err := c.identify(ctx)
	if err != nil {
		return err
	}

	if err := c.discoveryService.DeleteSession(ctx.UserContext(), userId, sessionId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete discovery session", nil))
}

func (c *discoveryController) Techniques(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success list techniques", c.discoveryService.Techniques()))
}

func (c *discoveryController) identify(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}
	return userId, sessionId, nil
}

// MapDomainError is the StatusMapper for discovery errors.
func MapDomainError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.StatusNotFound, "Session not found", true
	case errors.Is(err, service.ErrSessionAlreadyCompleted):
		return fiber.StatusConflict, "Session is already completed", true
	case errors.Is(err, service.ErrUnknownCommand), errors.Is(err, service.ErrInvalidPhase):
		return fiber.StatusBadRequest, err.Error(), true
	case errors.Is(err, agent.ErrUpstreamAgent):
		return fiber.StatusBadGateway, "The discovery agent is unavailable, please try again", true
	}
	return 0, "", false
}
