package controllers

import (
	"net/http"
	"time"

	"github.com/getAlby/relay.go/lib/service"
	"github.com/labstack/echo/v4"
)

type HealthController struct {
	svc *service.RelayService
}

func NewHealthController(svc *service.RelayService) *HealthController {
	return &HealthController{svc: svc}
}

type HealthResponse struct {
	OK            bool  `json:"ok"`
	Time          int64 `json:"time"`
	Events        int   `json:"events"`
	Clients       int   `json:"clients"`
	Subscriptions int   `json:"subscriptions"`
	Listeners     int   `json:"listeners"`
}

func (controller *HealthController) Check(c echo.Context) error {
	stats := controller.svc.Stats()
	return c.JSON(http.StatusOK, &HealthResponse{
		OK:            true,
		Time:          time.Now().Unix(),
		Events:        stats.Events,
		Clients:       stats.Clients,
		Subscriptions: stats.Subscriptions,
		Listeners:     stats.Listeners,
	})
}
