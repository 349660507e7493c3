package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"beckon/internal/middleware"
	"beckon/internal/service"
)

type MeHandler struct {
	lifecycle *service.Lifecycle
}

func NewMeHandler(lifecycle *service.Lifecycle) *MeHandler {
	return &MeHandler{lifecycle: lifecycle}
}

// Me returns the verified caller identity plus their trust standing. Trust
// never gates commands here; clients use it to warn throttled users.
func (h *MeHandler) Me(c *gin.Context) {
	uid := middleware.GetUID(c)
	score, status, err := h.lifecycle.TrustFor(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"uid":         uid,
		"trustScore":  score,
		"trustStatus": status,
	})
}
