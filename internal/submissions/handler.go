package submissions

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/creatorportal/backend/internal/middleware"
	"github.com/creatorportal/backend/internal/models"
	"github.com/creatorportal/backend/internal/realtime"
	"github.com/creatorportal/backend/pkg/queue"
	"github.com/creatorportal/backend/pkg/response"
)

// MembershipFinder resolves a creator's agency so review events reach the
// right dashboard room.
type MembershipFinder interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error)
}

// Handler handles submission HTTP endpoints.
type Handler struct {
	service     *Service
	memberships MembershipFinder
	hub         *realtime.Hub
	queue       *queue.Queue
	logger      *zap.Logger
}

// NewHandler creates a submissions handler.
func NewHandler(service *Service, memberships MembershipFinder, hub *realtime.Hub, q *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{service: service, memberships: memberships, hub: hub, queue: q, logger: logger}
}

// SubmitRequest is the body for POST /submissions.
type SubmitRequest struct {
	TikTokURL    string `json:"tiktok_url"`
	InstagramURL string `json:"instagram_url"`
	Caption      string `json:"caption"`
	Hashtags     string `json:"hashtags"`
	Notes        string `json:"notes"`
}

// Submit handles POST /submissions.
func (h *Handler) Submit(c *gin.Context) {
	creatorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	subs, err := h.service.Submit(c.Request.Context(), creatorID, SubmitParams{
		TikTokURL:    req.TikTokURL,
		InstagramURL: req.InstagramURL,
		Caption:      req.Caption,
		Hashtags:     req.Hashtags,
		Notes:        req.Notes,
	})
	if err != nil {
		response.Error(c, err, "failed to create submission")
		return
	}

	h.broadcast(c.Request.Context(), creatorID, "submission_created", subs)
	response.Created(c, gin.H{"submissions": subs})
}

// ReviewRequest is the body for PATCH /submissions/:id/review.
type ReviewRequest struct {
	Action   string `json:"action" binding:"required"`
	Feedback string `json:"feedback"`
}

// Review handles PATCH /submissions/:id/review (platform admin).
func (h *Handler) Review(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid submission id")
		return
	}
	adminID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	sub, err := h.service.Review(c.Request.Context(), id, adminID, req.Action, req.Feedback)
	if err != nil {
		response.Error(c, err, "failed to review submission")
		return
	}

	h.broadcast(c.Request.Context(), sub.CreatorID, "submission_reviewed", sub)
	if h.queue != nil {
		if err := h.queue.EnqueueReviewNotification(c.Request.Context(), queue.ReviewNotificationPayload{
			SubmissionID: sub.ID,
			CreatorID:    sub.CreatorID,
			VideoURL:     sub.VideoURL,
			Status:       string(sub.Status),
			Feedback:     sub.AdminFeedback,
		}); err != nil {
			h.logger.Warn("enqueue review notification", zap.Error(err))
		}
	}
	response.OK(c, sub)
}

// List handles GET /submissions. Creators see their own; admins see all and
// may filter by creator_id and status.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role := c.GetString(middleware.ContextUserRole)

	f := Filter{Status: models.SubmissionStatus(c.Query("status"))}
	if role == string(models.RoleAdmin) {
		if cid := c.Query("creator_id"); cid != "" {
			parsed, err := uuid.Parse(cid)
			if err != nil {
				response.BadRequest(c, "invalid creator_id")
				return
			}
			f.CreatorID = &parsed
		}
	} else {
		f.CreatorID = &userID
	}

	list, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		response.Internal(c, "failed to list submissions")
		return
	}
	response.OK(c, gin.H{"submissions": list})
}

// Stats handles GET /submissions/stats (platform admin, ?agency_id= scope).
func (h *Handler) Stats(c *gin.Context) {
	var agencyID *uuid.UUID
	if a := c.Query("agency_id"); a != "" {
		parsed, err := uuid.Parse(a)
		if err != nil {
			response.BadRequest(c, "invalid agency_id")
			return
		}
		agencyID = &parsed
	}
	stats, err := h.service.GetStats(c.Request.Context(), agencyID)
	if err != nil {
		response.Internal(c, "failed to compute stats")
		return
	}
	response.OK(c, stats)
}

// broadcast pushes an event to the creator's agency room, when they have one.
func (h *Handler) broadcast(ctx context.Context, creatorID uuid.UUID, event string, payload any) {
	if h.hub == nil {
		return
	}
	m, err := h.memberships.GetByUser(ctx, creatorID)
	if err != nil || m == nil {
		return
	}
	h.hub.Publish(realtime.Event{Type: event, AgencyID: m.CorporationID, Payload: payload})
}
