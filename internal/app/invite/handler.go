package invite

import (
	"net/http"

	"taskboard/internal/middleware"
	"taskboard/pkg/apierrors"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	SendInvite(c *gin.Context)
	ListInvites(c *gin.Context)
	AcceptInvite(c *gin.Context)
	RejectInvite(c *gin.Context)
}

type handler struct {
	service Service
}

func NewHandler(service Service) Handler {
	return &handler{service: service}
}

// @Summary Send invite
// @Tags Invite
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SendInviteRequest true "Invite"
// @Success 201 {object} models.Invite
// @Failure 400 {object} apierrors.JsonErr
// @Failure 404 {object} apierrors.JsonErr
// @Router /api/invites [post]
func (h *handler) SendInvite(c *gin.Context) {
	var req SendInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Respond(c, apierrors.New(apierrors.ErrInvalidInput, "Invalid invite payload"))
		return
	}
	inv, err := h.service.Send(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// @Summary List pending invites
// @Description Pending invites addressed to the caller's email, newest first
// @Tags Invite
// @Produce json
// @Security BearerAuth
// @Success 200 {array} InviteView
// @Router /api/invites [get]
func (h *handler) ListInvites(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		apierrors.Respond(c, apierrors.New(apierrors.ErrUnauthenticated, "No token provided"))
		return
	}
	invites, err := h.service.ListPending(c.Request.Context(), user.Email)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, invites)
}

// @Summary Accept invite
// @Tags Invite
// @Produce json
// @Security BearerAuth
// @Param inviteId path string true "Invite ID"
// @Success 200 {object} AcceptResponse
// @Failure 403 {object} apierrors.JsonErr
// @Failure 404 {object} apierrors.JsonErr
// @Router /api/invites/{inviteId}/accept [post]
func (h *handler) AcceptInvite(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		apierrors.Respond(c, apierrors.New(apierrors.ErrUnauthenticated, "No token provided"))
		return
	}
	boardID, err := h.service.Accept(c.Request.Context(), c.Param("inviteId"), user)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, AcceptResponse{Message: "Invite accepted", BoardID: boardID})
}

// @Summary Reject invite
// @Tags Invite
// @Produce json
// @Security BearerAuth
// @Param inviteId path string true "Invite ID"
// @Success 200 {object} RejectResponse
// @Failure 403 {object} apierrors.JsonErr
// @Failure 404 {object} apierrors.JsonErr
// @Router /api/invites/{inviteId}/reject [post]
func (h *handler) RejectInvite(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		apierrors.Respond(c, apierrors.New(apierrors.ErrUnauthenticated, "No token provided"))
		return
	}
	if err := h.service.Reject(c.Request.Context(), c.Param("inviteId"), user); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, RejectResponse{Message: "Invite rejected"})
}
