package transport

import (
	"github.com/getAlby/relay.go/controllers"
	"github.com/getAlby/relay.go/lib/service"
	"github.com/labstack/echo/v4"
)

func RegisterRelayEndpoints(svc *service.RelayService, e *echo.Echo, logMw echo.MiddlewareFunc) {
	// websocket connections are long lived, request logging happens per
	// connection inside the controller
	e.GET("/", controllers.NewRelayController(svc).Relay)
	e.GET("/health", controllers.NewHealthController(svc).Check, logMw)
	e.POST("/event", controllers.NewEventController(svc).Publish, logMw)
}
