package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/sergeii/paytv/internal/rest/api"
)

func NewRouter(a *api.API) *gin.Engine {
	router := gin.Default()
	router.GET("/status", a.Status)
	router.GET("/api/session", a.ViewSession)
	return router
}
