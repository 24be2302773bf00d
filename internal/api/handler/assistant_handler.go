package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/midnightlabs/midnight/internal/core/ports"
)

type AssistantHandler struct {
	assistant ports.AssistantService
}

func NewAssistantHandler(assistant ports.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

type chatRequest struct {
	Message string `json:"message" validate:"required"`
}

// Chat returns the assistant's reply. The user's message and the reply are
// both appended to the history.
//
// @Summary      Chat with the assistant
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      chatRequest  true  "User message"
// @Success      200   {object}  domain.ChatMessage
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/assistant/chat [post]
func (h *AssistantHandler) Chat(c echo.Context) error {
	var req chatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	msg, err := h.assistant.Chat(c.Request().Context(), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msg)
}

// History lists chat history.
//
// @Summary      List chat history
// @Tags         assistant
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  []domain.ChatMessage
// @Failure      401  {object}  map[string]string
// @Router       /api/assistant/history [get]
func (h *AssistantHandler) History(c echo.Context) error {
	return c.JSON(http.StatusOK, h.assistant.History())
}

// ClearHistory clears chat history.
//
// @Summary      Clear chat history
// @Tags         assistant
// @Produce      json
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/assistant/history [delete]
func (h *AssistantHandler) ClearHistory(c echo.Context) error {
	if err := h.assistant.ClearHistory(); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
