package sync

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"
)

// HTTP endpoints for triggering and inspecting syncs. Both require an
// authenticated record or superuser; attendance data is not public.

// RegisterRoutes binds the sync endpoints onto the serve event router.
func RegisterRoutes(se *core.ServeEvent) {
	se.Router.POST("/api/custom/sync/run", requireAuth(handleSyncRun))
	se.Router.GET("/api/custom/sync/status", requireAuth(handleSyncStatus))
}

func requireAuth(next func(*core.RequestEvent) error) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if e.Auth == nil {
			return e.JSON(http.StatusUnauthorized, map[string]string{
				"error": "authentication required",
			})
		}
		return next(e)
	}
}

// handleSyncRun kicks off the attendance sync in the background and
// returns immediately.
func handleSyncRun(e *core.RequestEvent) error {
	orch := GetOrchestrator()
	if orch == nil {
		return e.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "sync service not initialized",
		})
	}
	if err := orch.RunSingleSync("attendance"); err != nil {
		return e.JSON(http.StatusConflict, map[string]string{
			"error": err.Error(),
		})
	}
	return e.JSON(http.StatusAccepted, map[string]string{
		"status": "started",
	})
}

func handleSyncStatus(e *core.RequestEvent) error {
	orch := GetOrchestrator()
	if orch == nil {
		return e.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "sync service not initialized",
		})
	}
	return e.JSON(http.StatusOK, map[string]interface{}{
		"services": orch.GetStatus(),
	})
}
