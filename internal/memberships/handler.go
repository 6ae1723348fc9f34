package memberships

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/creatorportal/backend/internal/middleware"
	"github.com/creatorportal/backend/internal/models"
	"github.com/creatorportal/backend/pkg/response"
)

// Handler handles membership HTTP endpoints.
type Handler struct {
	service *Service
	repo    *Repository
}

// NewHandler creates a memberships handler.
func NewHandler(service *Service, repo *Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

// RedeemRequest is the body for POST /invites/redeem.
type RedeemRequest struct {
	Code string `json:"code" binding:"required"`
}

// Redeem handles POST /invites/redeem. Joins the caller to the invite's
// agency.
func (h *Handler) Redeem(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invite code required")
		return
	}
	ag, err := h.service.JoinViaInvite(c.Request.Context(), userID, req.Code)
	if err != nil {
		response.Error(c, err, "failed to redeem invite")
		return
	}
	response.OK(c, ag)
}

// JoinPublic handles POST /agencies/:id/join.
func (h *Handler) JoinPublic(c *gin.Context) {
	agencyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid agency id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ag, err := h.service.JoinPublic(c.Request.Context(), userID, agencyID)
	if err != nil {
		response.Error(c, err, "failed to join agency")
		return
	}
	response.OK(c, ag)
}

// GetMine handles GET /membership. Returns the caller's membership or null.
func (h *Handler) GetMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	m, err := h.service.GetMembership(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load membership")
		return
	}
	response.OK(c, m)
}

// List handles GET /agencies/:id/members (owner/admin of the agency).
func (h *Handler) List(c *gin.Context) {
	agencyID, ok := h.agencyAccess(c)
	if !ok {
		return
	}
	members, err := h.repo.ListByAgency(c.Request.Context(), agencyID)
	if err != nil {
		response.Internal(c, "failed to list members")
		return
	}
	response.OK(c, gin.H{"members": members})
}

// Approve handles POST /agencies/:id/members/:userId/approve.
func (h *Handler) Approve(c *gin.Context) {
	agencyID, ok := h.agencyAccess(c)
	if !ok {
		return
	}
	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	m, err := h.service.ApproveMembership(c.Request.Context(), agencyID, memberID)
	if err != nil {
		response.Error(c, err, "failed to approve membership")
		return
	}
	response.OK(c, m)
}

// Reject handles POST /agencies/:id/members/:userId/reject.
func (h *Handler) Reject(c *gin.Context) {
	agencyID, ok := h.agencyAccess(c)
	if !ok {
		return
	}
	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	if err := h.service.RejectMembership(c.Request.Context(), agencyID, memberID); err != nil {
		response.Error(c, err, "failed to reject membership")
		return
	}
	response.NoContent(c)
}

// agencyAccess parses the path agency id and requires the caller to be a
// platform admin or an owner/admin member of that agency.
func (h *Handler) agencyAccess(c *gin.Context) (uuid.UUID, bool) {
	agencyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid agency id")
		return uuid.Nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if c.GetString(middleware.ContextUserRole) == string(models.RoleAdmin) {
		return agencyID, true
	}
	ok, err := h.repo.HasAgencyAccess(c.Request.Context(), agencyID, userID)
	if err != nil {
		response.Internal(c, "failed to check agency access")
		return uuid.Nil, false
	}
	if !ok {
		response.Forbidden(c, "not authorized for this agency")
		return uuid.Nil, false
	}
	return agencyID, true
}
