package handlers

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-session-auth/internal/application"
	"github.com/oksasatya/go-session-auth/internal/interface/middleware"
	"github.com/oksasatya/go-session-auth/pkg/helpers"
	"github.com/oksasatya/go-session-auth/pkg/mailer"
	tpl "github.com/oksasatya/go-session-auth/pkg/mailer/templates"
	"github.com/oksasatya/go-session-auth/pkg/response"
	"github.com/oksasatya/go-session-auth/pkg/validation"
)

// Counters published on /api/v1/debug/vars.
var stats = expvar.NewMap("auth")

// Publisher enqueues email jobs.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// MailOptions controls the reset email. A nil Pub disables it.
type MailOptions struct {
	Pub              Publisher
	AppName          string
	CompanyName      string
	ResetPasswordURL string
}

type AuthHandler struct {
	Auth   *application.AuthService
	Cookie *helpers.Manager
	Mail   MailOptions
	Logger *logrus.Logger
}

func NewAuthHandler(auth *application.AuthService, cookie *helpers.Manager, mail MailOptions, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Cookie: cookie, Mail: mail, Logger: logger}
}

type credentialsRequest struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required,pwd"`
}

// loginRequest is unvalidated: every failed login is a 401 decided by ValidLogin.
type loginRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

type updatePasswordRequest struct {
	Email       string `form:"email"`
	ResetToken  string `form:"reset_token" binding:"required"`
	NewPassword string `form:"new_password" binding:"required,pwd"`
}

func (h *AuthHandler) internalError(c *gin.Context, op string, err error) {
	h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error(op)
	response.Error(c, http.StatusInternalServerError, "internal error", nil)
}

// Index - GET /
func (h *AuthHandler) Index(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"message": "Bienvenue"}, "Bienvenue")
}

// Register - POST /users {email, password}
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Auth.RegisterUser(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, application.ErrAlreadyExists) {
		response.Error(c, http.StatusBadRequest, "email already registered", nil)
		return
	}
	if err != nil {
		h.internalError(c, "register user", err)
		return
	}
	stats.Add("registrations", 1)
	response.Success(c, http.StatusOK, gin.H{"email": u.Email, "message": "user created"}, "user created")
}

// Login - POST /sessions {email, password}
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	ctx := c.Request.Context()
	ok, err := h.Auth.ValidLogin(ctx, req.Email, req.Password)
	if err != nil {
		h.internalError(c, "validate login", err)
		return
	}
	if !ok {
		stats.Add("login_failures", 1)
		response.Error(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	sid, found, err := h.Auth.CreateSession(ctx, req.Email)
	if err != nil {
		h.internalError(c, "create session", err)
		return
	}
	if !found {
		// deleted between the two calls
		response.Error(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	stats.Add("logins", 1)
	h.Cookie.SetSession(c, sid)
	response.Success(c, http.StatusOK, gin.H{"email": req.Email, "message": "logged in"}, "logged in")
}

// Logout - DELETE /sessions
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := h.Auth.GetUserFromSessionID(ctx, h.Cookie.Session(c))
	if err != nil {
		h.internalError(c, "resolve session", err)
		return
	}
	if u == nil {
		response.Error(c, http.StatusForbidden, "Forbidden", nil)
		return
	}
	if err := h.Auth.DestroySession(ctx, u.ID); err != nil {
		h.internalError(c, "destroy session", err)
		return
	}
	h.Cookie.Clear(c)
	c.Redirect(http.StatusFound, "/")
}

// Profile - GET /profile
func (h *AuthHandler) Profile(c *gin.Context) {
	u, err := h.Auth.GetUserFromSessionID(c.Request.Context(), h.Cookie.Session(c))
	if err != nil {
		h.internalError(c, "resolve session", err)
		return
	}
	if u == nil {
		response.Error(c, http.StatusForbidden, "Forbidden", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"email": u.Email}, "profile")
}

// ResetToken - POST /reset_password {email}
// The token is returned in the body; the email only carries a copy of the link.
func (h *AuthHandler) ResetToken(c *gin.Context) {
	email := c.PostForm("email")
	if email == "" {
		response.Error(c, http.StatusForbidden, "Forbidden", nil)
		return
	}
	token, err := h.Auth.GetResetPasswordToken(c.Request.Context(), email)
	if errors.Is(err, application.ErrUserNotFound) {
		response.Error(c, http.StatusForbidden, "Forbidden", nil)
		return
	}
	if err != nil {
		h.internalError(c, "issue reset token", err)
		return
	}
	stats.Add("reset_tokens", 1)
	h.enqueueResetEmail(c, email, token)
	response.Success(c, http.StatusOK, gin.H{"email": email, "reset_token": token}, "reset token issued")
}

func (h *AuthHandler) enqueueResetEmail(c *gin.Context, email, token string) {
	if h.Mail.Pub == nil {
		return
	}
	data := tpl.NewEmailData(h.Mail.AppName, email,
		tpl.WithCompany(h.Mail.CompanyName),
		tpl.WithResetURL(mailer.ResetLink(h.Mail.ResetPasswordURL, token)),
		tpl.WithIP(c.GetString("real_ip")),
		tpl.WithUserAgent(c.GetHeader("User-Agent")),
		tpl.WithTime(time.Now()),
	)
	if err := h.Mail.Pub.PublishJSON(c.Request.Context(), mailer.NewResetPasswordJob(data)); err != nil {
		// the token is already in the response; a lost email is not fatal
		h.Logger.WithError(err).Warn("enqueue reset email")
	}
}

// UpdatePassword - PUT /reset_password {email, reset_token, new_password}
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Auth.UpdatePassword(c.Request.Context(), req.ResetToken, req.NewPassword)
	if errors.Is(err, application.ErrInvalidResetToken) {
		response.Error(c, http.StatusForbidden, "Forbidden", nil)
		return
	}
	if err != nil {
		h.internalError(c, "update password", err)
		return
	}
	stats.Add("password_updates", 1)
	response.Success(c, http.StatusOK, gin.H{"email": req.Email, "message": "Password updated"}, "Password updated")
}

// Status - GET /api/v1/status
func (h *AuthHandler) Status(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"status": "OK"}, "OK")
}

// Me - GET /api/v1/users/me, behind middleware.Authenticate
func (h *AuthHandler) Me(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusForbidden, "Forbidden", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": u.ID, "email": u.Email}, "current user")
}
