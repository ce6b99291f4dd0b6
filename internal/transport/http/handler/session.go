package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeguru/internal/app"
	"resumeguru/internal/model"
	"resumeguru/internal/transport/http/response"
)

// SessionHandler exposes the reconciliation lifecycle: restore on load,
// reconcile on tab focus, notify on unload, reset on demand.
type SessionHandler struct {
	reconciler *app.ReconcilerService
}

type RestoreRequest struct {
	SessionID string `json:"session_id"`
}

type VisibilityRequest struct {
	SessionID string `json:"session_id"`
}

type UnloadRequest struct {
	SessionID string `json:"session_id"`
}

type ResetRequest struct {
	SessionID string `json:"session_id"`
}

func NewSessionHandler(reconciler *app.ReconcilerService) *SessionHandler {
	return &SessionHandler{reconciler: reconciler}
}

// Restore returns a coherent snapshot for the user, verifying the supplied
// identifier when one is given.
func (h *SessionHandler) Restore(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	var (
		snapshot *model.SessionSnapshot
		err      error
	)
	if req.SessionID != "" {
		snapshot, err = h.reconciler.VerifyAndRestore(c.Request.Context(), userID, req.SessionID)
	} else {
		snapshot, err = h.reconciler.RestoreOrCreate(c.Request.Context(), userID)
	}
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "restore session failed")
		}
		return
	}

	response.OK(c, snapshot)
}

// Visibility reconciles a refocused tab against the remembered session. The
// response says whether the tab's view must be replaced.
func (h *SessionHandler) Visibility(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	snapshot, replaced, err := h.reconciler.ReconcileOnVisibility(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "reconcile session failed")
		return
	}

	response.OK(c, gin.H{
		"replaced": replaced,
		"snapshot": snapshot,
	})
}

// Unload acknowledges immediately; the status transition happens in the
// background. Beacon-style senders cannot read the response, so a mangled
// payload is acknowledged too.
func (h *SessionHandler) Unload(c *gin.Context) {
	if _, ok := getUserIDFromContext(c); !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req UnloadRequest
	_ = c.ShouldBindJSON(&req)

	if req.SessionID != "" {
		h.reconciler.MarkInactive(c.Request.Context(), req.SessionID)
	}
	response.OK(c, gin.H{"acknowledged": true})
}

func (h *SessionHandler) Reset(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	snapshot, err := h.reconciler.Reset(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "reset session failed")
		return
	}

	response.OK(c, snapshot)
}
