package controller

import (
	"errors"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"ai-manuscript-be/internal/dto"
	"ai-manuscript-be/internal/pkg/serverutils"
	"ai-manuscript-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	SendChat(ctx *fiber.Ctx) error
	SelectMode(ctx *fiber.Ctx) error
	ApplyGenres(ctx *fiber.Ctx) error
	ApplyAnnotation(ctx *fiber.Ctx) error
	ListChanges(ctx *fiber.Ctx) error
	ExportChange(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
}

func NewAssistantController(assistantService service.IAssistantService) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Post("/session", c.Upload)
	h.Get("/session/:id", c.Show)
	h.Post("/session/:id/chat", c.SendChat)
	h.Post("/session/:id/mode", c.SelectMode)
	h.Post("/session/:id/genres/apply", c.ApplyGenres)
	h.Post("/session/:id/annotation/apply", c.ApplyAnnotation)
	h.Get("/session/:id/changes", c.ListChanges)
	h.Get("/session/:id/changes/:changeId/export", c.ExportChange)
	h.Delete("/session/:id", c.Reset)
}

// Upload accepts the manuscript either as a multipart file or as a JSON
// body. Non-text input is rejected here, before any session state exists.
func (c *assistantController) Upload(ctx *fiber.Ctx) error {
	var req dto.UploadManuscriptRequest

	if file, err := ctx.FormFile("file"); err == nil {
		if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".txt" {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "only .txt files are supported")
		}

		f, err := file.Open()
		if err != nil {
			return err
		}
		defer f.Close()

		buf, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		if !utf8.Valid(buf) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "file is not valid UTF-8 text")
		}

		req.FileName = file.Filename
		req.Content = string(buf)
	} else {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "expected a multipart file or a JSON body")
		}
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.UploadManuscript(ctx.Context(), &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success upload manuscript", res))
}

func (c *assistantController) Show(ctx *fiber.Ctx) error {
	id, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	res, err := c.assistantService.GetSession(ctx.Context(), id)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *assistantController) SendChat(ctx *fiber.Ctx) error {
	id, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.SendChat(ctx.Context(), id, &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *assistantController) SelectMode(ctx *fiber.Ctx) error {
	id, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	var req dto.SelectModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.SelectMode(ctx.Context(), id, &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select mode", res))
}

func (c *assistantController) ApplyGenres(ctx *fiber.Ctx) error {
	id, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	var req dto.ApplyGenresRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.assistantService.ApplyGenres(ctx.Context(), id, &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success apply genres", res))
}

func (c *assistantController) ApplyAnnotation(ctx *fiber.Ctx) error {
	id, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	var req dto.ApplyAnnotationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.ApplyAnnotation(ctx.Context(), id, &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success apply annotation", res))
}

func (c *assistantController) ListChanges(ctx *fiber.Ctx) error {
	id, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	res, err := c.assistantService.ListChanges(ctx.Context(), id)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list changes", res))
}

// ExportChange serves a ledger entry as a .txt download.
func (c *assistantController) ExportChange(ctx *fiber.Ctx) error {
	id, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	changeId, err := uuid.Parse(ctx.Params("changeId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid change id")
	}

	res, err := c.assistantService.ExportChange(ctx.Context(), id, changeId)
	if err != nil {
		return mapServiceError(err)
	}

	ctx.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	ctx.Set(fiber.HeaderContentDisposition,
		"attachment; filename*=UTF-8''"+url.PathEscape(res.FileName))
	return ctx.SendString(res.Content)
}

func (c *assistantController) Reset(ctx *fiber.Ctx) error {
	id, err := parseSessionId(ctx)
	if err != nil {
		return err
	}

	if err := c.assistantService.Reset(ctx.Context(), id); err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reset session", nil))
}

func parseSessionId(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrChangeNotFound):
		return fiber.NewError(fiber.StatusNotFound, "change not found")
	case errors.Is(err, service.ErrCallInFlight):
		return fiber.NewError(fiber.StatusConflict, "a request is already being processed")
	}
	return err
}
