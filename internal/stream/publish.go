package stream

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/skillsenselab/storestream/internal/auth"
	"github.com/skillsenselab/storestream/internal/broadcast"
	apperrors "github.com/skillsenselab/storestream/internal/errors"
	"github.com/skillsenselab/storestream/internal/logging"
	"github.com/skillsenselab/storestream/internal/observability"
	"github.com/skillsenselab/storestream/internal/server"
	"github.com/skillsenselab/storestream/internal/validation"
)

// PublishRequest is the body of POST /api/publish.
type PublishRequest struct {
	Entity      string         `json:"entity" validate:"required,max=64"`
	Action      string         `json:"action" validate:"required,oneof=created updated deleted"`
	Data        map[string]any `json:"data" validate:"required"`
	TriggeredBy *string        `json:"triggeredBy"`
}

// PublishResponse reports the fan-out outcome.
type PublishResponse struct {
	Room      string `json:"room"`
	Delivered int    `json:"delivered"`
}

// Publish handles POST /api/publish. The event is scoped to the
// caller's own room; the response reports how many subscribers
// received it. Partial delivery is not an error.
func (h *Handler) Publish(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		server.RespondWithError(c, apperrors.Unauthorized(""))
		return
	}

	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", "malformed JSON").WithCause(err))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	roomKey := identity.RoomKey()
	_, span := observability.StartSpan(c.Request.Context(), "stream.publish",
		trace.WithAttributes(
			attribute.String("room", roomKey),
			attribute.String("entity", req.Entity),
			attribute.String("action", req.Action),
		),
	)
	defer span.End()

	envelope := broadcast.NewEnvelope(
		req.Entity, req.Action, req.Data,
		identity.ShopID, identity.BranchID, req.TriggeredBy,
	)
	delivered := h.broadcaster.Broadcast(roomKey, envelope)
	span.SetAttributes(attribute.Int("delivered", delivered))

	h.log.Info("event published", map[string]interface{}{
		logging.FieldRoom: roomKey,
		"entity":          req.Entity,
		"action":          req.Action,
		"delivered":       delivered,
	})
	server.RespondOK(c, PublishResponse{Room: roomKey, Delivered: delivered})
}
