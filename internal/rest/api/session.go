package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sergeii/paytv/internal/rest/model"
)

// ViewSession returns the state of the session currently on air
func (a *API) ViewSession(c *gin.Context) {
	info, ok := a.sessions.Current()
	if !ok {
		a.logger.Debug().Msg("Requested session is not running")
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, model.NewSessionFromDomain(info))
}
