package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"propertyhub/internal/models"
	"propertyhub/internal/pipeline"
	"propertyhub/internal/render"
	"propertyhub/internal/validate"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a session token, returned both in the body
// and as an HTTP-only cookie.
func (h HandlerSet) Login(c *gin.Context) {
	req, violations := validate.Bind[loginRequest](c)
	if violations != nil {
		render.ErrorDetails(c, http.StatusBadRequest, "Validation failed", violations)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		pipeline.Fail(c, err)
		return
	}

	maxAge := int(time.Until(result.Session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Security.CookieName, result.Session.Token, maxAge, "/", "", h.cfg.Security.CookieSecure, true)

	h.log.Info().Str("user_id", result.User.ID).Msg("user logged in")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    newUserView(result.User),
		"token":   result.Session.Token,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Security.CookieName, "", -1, "/", "", h.cfg.Security.CookieSecure, true)
	render.Message(c, http.StatusOK, "Logged out")
}

func (h HandlerSet) Me(c *gin.Context, user models.User) (pipeline.Result, error) {
	current, err := h.userRepo.GetByID(c.Request.Context(), user.ID)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("user", newUserView(current)), nil
}

type meRequest struct {
	Name  string  `json:"name" binding:"required,max=200"`
	Phone *string `json:"phone" binding:"omitempty,max=40"`
}

// UpdateMe only touches name and phone; role and organization stay admin-managed.
func (h HandlerSet) UpdateMe(c *gin.Context, user models.User, req meRequest) (pipeline.Result, error) {
	updated, err := h.userRepo.Update(c.Request.Context(), user.ID, map[string]any{
		"name":  strings.TrimSpace(req.Name),
		"phone": req.Phone,
	})
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.OK("user", newUserView(updated)), nil
}
