package invites

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorportal/backend/internal/middleware"
	"github.com/creatorportal/backend/internal/models"
	"github.com/creatorportal/backend/pkg/queue"
	"github.com/creatorportal/backend/pkg/response"
)

// AccessChecker reports whether a user holds an owner/admin membership in an
// agency. Implemented by the memberships repository.
type AccessChecker interface {
	HasAgencyAccess(ctx context.Context, agencyID, userID uuid.UUID) (bool, error)
}

// AgencyGetter loads an agency for invite email payloads.
type AgencyGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Agency, error)
}

// Handler handles invite HTTP endpoints.
type Handler struct {
	service  *Service
	access   AccessChecker
	agencies AgencyGetter
	queue    *queue.Queue
	logger   *zap.Logger
}

// NewHandler creates an invites handler.
func NewHandler(service *Service, access AccessChecker, agencies AgencyGetter, q *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{service: service, access: access, agencies: agencies, queue: q, logger: logger}
}

// CreateRequest is the body for POST /agencies/:id/invites.
type CreateRequest struct {
	Role          string `json:"role" binding:"required"`
	MaxUses       *int   `json:"max_uses"`
	ExpiresInDays int    `json:"expires_in_days"`
	Note          string `json:"note"`
	Email         string `json:"email"`
}

// Create handles POST /agencies/:id/invites (owner/admin of the agency).
func (h *Handler) Create(c *gin.Context) {
	agencyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid agency id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if !h.requireAccess(c, agencyID, userID) {
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	inv, err := h.service.Create(c.Request.Context(), agencyID, userID, CreateParams{
		Role:          models.MembershipRole(req.Role),
		MaxUses:       req.MaxUses,
		ExpiresInDays: req.ExpiresInDays,
		Note:          req.Note,
		Email:         req.Email,
	})
	if err != nil {
		response.Error(c, err, "failed to create invite")
		return
	}

	if inv.Email != "" && h.queue != nil {
		agencyName := ""
		if ag, err := h.agencies.GetByID(c.Request.Context(), agencyID); err == nil && ag != nil {
			agencyName = ag.DisplayName
		}
		if err := h.queue.EnqueueInviteEmail(c.Request.Context(), queue.InviteEmailPayload{
			InviteID:       inv.ID,
			CorporationID:  agencyID,
			RecipientEmail: inv.Email,
			InviteLink:     inv.Link,
			AgencyName:     agencyName,
		}); err != nil {
			h.logger.Warn("enqueue invite email", zap.Error(err))
		}
	}

	response.Created(c, inv)
}

// List handles GET /agencies/:id/invites (owner/admin of the agency).
func (h *Handler) List(c *gin.Context) {
	agencyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid agency id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if !h.requireAccess(c, agencyID, userID) {
		return
	}

	list, err := h.service.ListActive(c.Request.Context(), agencyID)
	if err != nil {
		response.Internal(c, "failed to list invites")
		return
	}
	response.OK(c, gin.H{"invites": list})
}

// Revoke handles DELETE /invites/:id (owner/admin of the invite's agency).
func (h *Handler) Revoke(c *gin.Context) {
	inviteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid invite id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	inv, err := h.service.Get(c.Request.Context(), inviteID)
	if err != nil {
		response.Error(c, err, "failed to load invite")
		return
	}
	if !h.requireAccess(c, inv.CorporationID, userID) {
		return
	}

	revoked, err := h.service.Revoke(c.Request.Context(), inviteID)
	if err != nil {
		response.Error(c, err, "failed to revoke invite")
		return
	}
	response.OK(c, revoked)
}

func (h *Handler) requireAccess(c *gin.Context, agencyID, userID uuid.UUID) bool {
	role := c.GetString(middleware.ContextUserRole)
	if role == string(models.RoleAdmin) {
		return true
	}
	ok, err := h.access.HasAgencyAccess(c.Request.Context(), agencyID, userID)
	if err != nil {
		response.Internal(c, "failed to check agency access")
		return false
	}
	if !ok {
		response.Forbidden(c, "not authorized for this agency")
		return false
	}
	return true
}
