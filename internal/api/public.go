package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/logger"
	"github.com/julianstephens/goalkeeper/internal/planner"
	"github.com/julianstephens/goalkeeper/internal/webhook"
)

const llmApology = "I apologize, but I'm having trouble responding. Could you try rephrasing that?"

// handleGeneratePlan answers 422 when the model replied with something that
// is not a plan and 500 for any other failure. It does not fall back; the
// caller decides.
func (s *Server) handleGeneratePlan(c echo.Context) error {
	var req planner.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if s.deps.Generator == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "plan generator not configured")
	}

	res, err := s.deps.Generator.Generate(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, planner.ErrParse) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		logger.Error("Plan generation failed", "title", req.Title, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

type LlamaRequest struct {
	Prompt string `json:"prompt"`
}

type LlamaResponse struct {
	Output string `json:"output"`
}

func (s *Server) handleLlama(c echo.Context) error {
	var req LlamaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt is required")
	}
	if s.deps.LLM == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, llmApology)
	}

	out, err := s.deps.LLM.Complete(c.Request().Context(), req.Prompt)
	if err != nil {
		logger.Error("LLM passthrough failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, llmApology)
	}
	return c.JSON(http.StatusOK, LlamaResponse{Output: out})
}

type WebhookResponse struct {
	Success bool `json:"success"`
}

func (s *Server) handleIdentityWebhook(c echo.Context) error {
	if s.deps.Webhook == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, webhook.ErrNotConfigured.Error())
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, constants.MaxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
		}
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	typ, err := s.deps.Webhook.Handle(c.Request().Context(), c.Request().Header, body)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, WebhookResponse{Success: true})
	case errors.Is(err, webhook.ErrMissingHeaders),
		errors.Is(err, webhook.ErrInvalidSignature),
		errors.Is(err, webhook.ErrInvalidPayload):
		logger.Warn("Rejected identity webhook", "type", typ, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, webhook.ErrNotConfigured):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		logger.Error("Identity webhook failed", "type", typ, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "database error")
	}
}
