package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	"github.com/BruksfildServices01/clinic-pos/internal/config"
	"github.com/BruksfildServices01/clinic-pos/internal/flash"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
	"github.com/BruksfildServices01/clinic-pos/internal/middleware"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type AuthHandler struct {
	db     *gorm.DB
	config *config.Config
	audit  *audit.Dispatcher
	flash  flash.Store
	log    logrus.FieldLogger
}

func NewAuthHandler(
	db *gorm.DB,
	cfg *config.Config,
	dispatcher *audit.Dispatcher,
	store flash.Store,
	log logrus.FieldLogger,
) *AuthHandler {
	return &AuthHandler{db: db, config: cfg, audit: dispatcher, flash: store, log: log}
}

// --------- Requests ---------

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Next     string `json:"next" form:"next"`
}

type loginPage struct {
	Next string `json:"next"`
	CSRF string `json:"csrf_token"`
}

// safeNext keeps redirects on this site. Browsers drop tabs and newlines
// and treat a backslash as a slash, so any of those rejects the target.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return adminURL
	}
	for _, r := range next {
		if r < 0x20 || r == 0x7f || r == '\\' || unicode.IsSpace(r) {
			return adminURL
		}
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return adminURL
	}
	return next
}

func wantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json")
}

// --------- Handlers ---------

func (h *AuthHandler) LoginPage(c *gin.Context) {
	httpresp.Render(c, loginPage{
		Next: safeNext(c.Query("next")),
		CSRF: c.GetString(middleware.ContextCSRF),
	}, h.flash.Pop(c))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		if wantsJSON(c) {
			httperr.BadRequest(c, "invalid_request", "Username and password are required.")
			return
		}
		flash.Error(h.flash, c, "Username and password are required.")
		redirect(c, "/login?next="+url.QueryEscape(safeNext(req.Next)))
		return
	}

	user, err := h.check(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, errInvalidCredentials) {
			h.log.WithError(err).Error("login lookup failed")
		}
		if wantsJSON(c) {
			httperr.Unauthorized(c, "invalid_credentials", "Invalid username or password.")
			return
		}
		flash.Error(h.flash, c, "Invalid username or password.")
		redirect(c, "/login?next="+url.QueryEscape(safeNext(req.Next)))
		return
	}

	now := time.Now().UTC()
	token, err := middleware.IssueToken(h.config.SecretKey, user, now)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Could not start a session.")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Model(user).Update("last_login_at", now).Error; err != nil {
		h.log.WithError(err).WithField("user_id", user.ID).Warn("failed to record last login")
	}

	a := actor.Actor{UserID: user.ID, Username: user.Username, Superuser: user.IsSuperuser}
	h.audit.Dispatch(audit.Event{
		Actor:    a,
		Action:   "login",
		Entity:   "user",
		EntityID: audit.Ref(user.ID),
	})

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(middleware.TokenTTL.Seconds()), "/", "", !h.config.Debug, true)

	if wantsJSON(c) {
		httpresp.OK(c, gin.H{
			"user":  user,
			"token": token,
		})
		return
	}
	redirect(c, safeNext(req.Next))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if raw, err := c.Cookie(middleware.SessionCookie); err == nil {
		if a, err := middleware.ParseToken(h.config.SecretKey, raw); err == nil {
			h.audit.Dispatch(audit.Event{Actor: a, Action: "logout", Entity: "user", EntityID: a.ID()})
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", !h.config.Debug, true)
	redirect(c, "/login")
}

// --------- Credentials ---------

var errInvalidCredentials = errors.New("invalid credentials")

func (h *AuthHandler) check(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := h.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return &user, nil
}
