package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeguru/internal/app"
	"resumeguru/internal/transport/http/response"
)

type SubscriptionHandler struct {
	subscriptions *app.SubscriptionService
	exports       *app.ExportService
}

func NewSubscriptionHandler(subscriptions *app.SubscriptionService, exports *app.ExportService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions, exports: exports}
}

func (h *SubscriptionHandler) Status(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	status, err := h.subscriptions.Status(userID, h.exports)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch subscription status failed")
		return
	}

	response.OK(c, status)
}
