package auth

import (
	"net/http"

	"taskboard/internal/middleware"
	"taskboard/pkg/apierrors"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Validate(c *gin.Context)
}

type handler struct {
	service Service
}

func NewHandler(service Service) Handler {
	return &handler{service: service}
}

// @Summary Register
// @Description Creates an account with a default board and returns a token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Account"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} apierrors.JsonErr
// @Router /api/auth/register [post]
func (h *handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Respond(c, apierrors.New(apierrors.ErrInvalidInput, "All fields are required"))
		return
	}
	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} apierrors.JsonErr
// @Router /api/auth/login [post]
func (h *handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Respond(c, apierrors.New(apierrors.ErrInvalidInput, "Email and password are required"))
		return
	}
	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Validate token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ValidateResponse
// @Failure 401 {object} apierrors.JsonErr
// @Router /api/auth/validate [get]
func (h *handler) Validate(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		apierrors.Respond(c, apierrors.New(apierrors.ErrUnauthenticated, "Invalid token"))
		return
	}
	c.JSON(http.StatusOK, ValidateResponse{User: u.Summary()})
}
