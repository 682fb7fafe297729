package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smartadmission/admissions-api/internal/service"
	appErrors "github.com/smartadmission/admissions-api/pkg/errors"
	"github.com/smartadmission/admissions-api/pkg/response"
)

// ChatbotHandler exposes the visitor assistant endpoint.
type ChatbotHandler struct {
	chatbot *service.ChatbotService
}

// NewChatbotHandler constructs ChatbotHandler.
func NewChatbotHandler(chatbot *service.ChatbotService) *ChatbotHandler {
	return &ChatbotHandler{chatbot: chatbot}
}

type chatRequest struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

// Chat godoc
// @Summary Ask the admissions assistant
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body chatRequest true "Topic id or free-text message"
// @Success 200 {object} response.Envelope
// @Router /chat [post]
func (h *ChatbotHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.Topic) == "" && strings.TrimSpace(req.Message) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "topic or message is required"))
		return
	}

	reply := h.chatbot.Reply(c.Request.Context(), strings.TrimSpace(req.Topic), req.Message)
	response.JSON(c, http.StatusOK, reply, nil)
}

// Topics godoc
// @Summary List quick-query topics
// @Tags Chat
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /chat/topics [get]
func (h *ChatbotHandler) Topics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.chatbot.Topics(), nil)
}
