package endpoint

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
)

// StreamStats reports broadcast state. *broadcast.Registry satisfies
// it.
type StreamStats interface {
	ClientCount() int
	RoomCount() int
}

// MetricsResponse is a lightweight runtime snapshot for quick
// inspection; full telemetry goes through the OTLP exporters.
type MetricsResponse struct {
	Goroutines  int    `json:"goroutines"`
	HeapAllocMB uint64 `json:"heapAllocMb"`
	HeapSysMB   uint64 `json:"heapSysMb"`
	NumGC       uint32 `json:"numGc"`
	Clients     int    `json:"clients"`
	Rooms       int    `json:"rooms"`
}

// Metrics returns a handler exposing runtime and stream counters.
func Metrics(stats StreamStats) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		resp := MetricsResponse{
			Goroutines:  runtime.NumGoroutine(),
			HeapAllocMB: m.HeapAlloc / 1024 / 1024,
			HeapSysMB:   m.HeapSys / 1024 / 1024,
			NumGC:       m.NumGC,
		}
		if stats != nil {
			resp.Clients = stats.ClientCount()
			resp.Rooms = stats.RoomCount()
		}
		c.JSON(http.StatusOK, resp)
	}
}
