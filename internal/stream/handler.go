package stream

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/storestream/internal/auth"
	"github.com/skillsenselab/storestream/internal/broadcast"
	apperrors "github.com/skillsenselab/storestream/internal/errors"
	"github.com/skillsenselab/storestream/internal/logging"
	"github.com/skillsenselab/storestream/internal/observability"
	"github.com/skillsenselab/storestream/internal/server"
)

// defaultKeepAlive is the interval between keepalive comments on idle
// streams. 30s stays under common proxy idle timeouts (60s).
const defaultKeepAlive = 30 * time.Second

// Handler serves the stream, publish, and stats endpoints.
type Handler struct {
	broadcaster *broadcast.Broadcaster
	registry    *broadcast.Registry
	metrics     *observability.StreamMetrics
	keepAlive   time.Duration
	log         *logging.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithStreamMetrics attaches stream open/close metrics.
func WithStreamMetrics(m *observability.StreamMetrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithKeepAliveInterval overrides the keepalive interval.
func WithKeepAliveInterval(d time.Duration) HandlerOption {
	return func(h *Handler) { h.keepAlive = d }
}

// NewHandler creates the stream handler set.
func NewHandler(b *broadcast.Broadcaster, opts ...HandlerOption) *Handler {
	h := &Handler{
		broadcaster: b,
		registry:    b.Registry(),
		keepAlive:   defaultKeepAlive,
		log:         logging.WithComponent("stream"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the endpoints behind the auth middleware.
func (h *Handler) Register(r gin.IRoutes, authMW gin.HandlerFunc) {
	r.GET("/api/stream", authMW, h.Stream)
	r.POST("/api/publish", authMW, h.Publish)
	r.GET("/api/stream/stats", authMW, h.Stats)
}

// Stream handles GET /api/stream. It upgrades the response to a
// server-sent event stream scoped to the caller's room, sends the
// connected acknowledgment, and then blocks pumping keepalives until
// the client disconnects, a write fails, or the server shuts down.
func (h *Handler) Stream(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		server.RespondWithError(c, apperrors.Unauthorized(""))
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		server.RespondWithError(c, apperrors.StreamUnsupported())
		return
	}

	// The server carries no WriteTimeout, but clear any per-request
	// deadline too; the stream must outlive ordinary request limits.
	rc := http.NewResponseController(c.Writer)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.log.Warn("clearing write deadline failed", logging.ErrorFields("stream", err))
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	roomKey := identity.RoomKey()
	sink := newFlushSink(c.Writer, flusher)
	client := h.registry.Register(sink, roomKey)
	defer h.registry.Unregister(client.ID())

	if h.metrics != nil {
		h.metrics.RecordStreamOpen(c.Request.Context())
		defer h.metrics.RecordStreamClose(c.Request.Context())
	}

	h.log.Info("stream opened", map[string]interface{}{
		logging.FieldClientID: client.ID(),
		logging.FieldRoom:     roomKey,
		"subject":             identity.Subject,
	})

	ack := broadcast.ConnectedAck{ClientID: client.IDString(), Room: roomKey}
	if !h.broadcaster.SendToOne(client, broadcast.EventConnected, ack) {
		h.log.Warn("connected ack failed", map[string]interface{}{
			logging.FieldClientID: client.ID(),
			logging.FieldRoom:     roomKey,
		})
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Info("stream closed by client", map[string]interface{}{
				logging.FieldClientID: client.ID(),
				logging.FieldRoom:     roomKey,
				"connected_for":       time.Since(client.ConnectedAt()).Round(time.Second).String(),
			})
			return
		case <-sink.Done():
			// Closed from the registry side: a failed broadcast write,
			// ResetAll, or an explicit unregister.
			h.log.Info("stream closed by server", map[string]interface{}{
				logging.FieldClientID: client.ID(),
				logging.FieldRoom:     roomKey,
			})
			return
		case now := <-ticker.C:
			if err := sink.Write(broadcast.KeepAliveFrame(now.Unix())); err != nil {
				h.registry.Unregister(client.ID())
				return
			}
		}
	}
}
