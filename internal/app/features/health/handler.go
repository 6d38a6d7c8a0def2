// internal/app/features/health/handler.go
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler reports whether the server can reach MongoDB.
type Handler struct {
	Client  *mongo.Client
	Started time.Time
	Log     *zap.Logger
}

func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Started: time.Now(), Log: logger}
}

type status struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET and HEAD /health: 200 with database "connected" when the
// primary answers a ping, otherwise 503 with database "disconnected".
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	st := status{Status: "ok", Database: "connected", Uptime: time.Since(h.Started).Round(time.Second).String()}
	code := http.StatusOK
	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Warn("health: mongo ping failed", zap.Error(err))
		st.Status, st.Database, st.Error = "error", "disconnected", err.Error()
		code = http.StatusServiceUnavailable
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(code)
		return
	}
	respond.JSON(w, code, st)
}
