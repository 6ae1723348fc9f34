package agencies

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/creatorportal/backend/internal/middleware"
	"github.com/creatorportal/backend/internal/models"
	"github.com/creatorportal/backend/pkg/response"
)

// Slug must be lowercase alphanumeric and hyphens only, 2-64 chars.
var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

// Handler handles agency HTTP endpoints.
type Handler struct {
	repo      *Repository
	directory *Directory
}

// NewHandler creates an agencies handler.
func NewHandler(repo *Repository, directory *Directory) *Handler {
	return &Handler{repo: repo, directory: directory}
}

// CreateRequest is the body for POST /agencies.
type CreateRequest struct {
	Name        string                `json:"name" binding:"required"`
	DisplayName string                `json:"display_name" binding:"required"`
	Description string                `json:"description"`
	Industry    string                `json:"industry"`
	SocialMedia map[string]string     `json:"social_media"`
	Settings    models.AgencySettings `json:"settings"`
}

// Create handles POST /agencies. Creates the agency with the current user as
// owner; the owner membership and member_count commit atomically.
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	req.Name = strings.ToLower(strings.TrimSpace(req.Name))
	if !slugRegex.MatchString(req.Name) {
		response.BadRequest(c, "name must be 2-64 chars, lowercase letters, numbers, hyphens only")
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if len(req.DisplayName) < 1 || len(req.DisplayName) > 255 {
		response.BadRequest(c, "display_name must be 1-255 characters")
		return
	}
	if req.Settings.MaxCreators < 0 {
		response.BadRequest(c, "max_creators must not be negative")
		return
	}
	if req.SocialMedia == nil {
		req.SocialMedia = map[string]string{}
	}

	ag := &models.Agency{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Industry:    req.Industry,
		SocialMedia: req.SocialMedia,
		Settings:    req.Settings,
		OwnerID:     userID,
	}
	if err := h.repo.Create(c.Request.Context(), ag); err != nil {
		response.Error(c, err, "failed to create agency")
		return
	}
	h.directory.Invalidate(c.Request.Context())
	response.Created(c, ag)
}

// Get handles GET /agencies/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid agency id")
		return
	}
	ag, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load agency")
		return
	}
	if ag == nil {
		response.NotFound(c, "agency not found")
		return
	}
	response.OK(c, ag)
}

// ListPublic handles GET /agencies/directory (?q= substring filter).
func (h *Handler) ListPublic(c *gin.Context) {
	list, err := h.directory.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Internal(c, "failed to load directory")
		return
	}
	response.OK(c, gin.H{"agencies": list})
}
