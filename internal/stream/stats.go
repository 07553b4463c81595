package stream

import (
	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/storestream/internal/auth"
	apperrors "github.com/skillsenselab/storestream/internal/errors"
	"github.com/skillsenselab/storestream/internal/server"
)

// StatsResponse describes the caller's room and global stream counts.
type StatsResponse struct {
	Room         string `json:"room"`
	RoomClients  int    `json:"roomClients"`
	TotalClients int    `json:"totalClients"`
	TotalRooms   int    `json:"totalRooms"`
}

// Stats handles GET /api/stream/stats.
func (h *Handler) Stats(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		server.RespondWithError(c, apperrors.Unauthorized(""))
		return
	}

	roomKey := identity.RoomKey()
	server.RespondOK(c, StatsResponse{
		Room:         roomKey,
		RoomClients:  h.registry.RoomMemberCount(roomKey),
		TotalClients: h.registry.ClientCount(),
		TotalRooms:   h.registry.RoomCount(),
	})
}
