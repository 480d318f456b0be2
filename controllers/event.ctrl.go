package controllers

import (
	"io"
	"net/http"

	"github.com/getAlby/relay.go/lib/requests"
	"github.com/getAlby/relay.go/lib/responses"
	"github.com/getAlby/relay.go/lib/service"
	"github.com/labstack/echo/v4"
)

// EventController lets plain HTTP clients publish without holding a
// websocket open. The answer is the same OK frame a websocket client gets.
type EventController struct {
	svc *service.RelayService
}

func NewEventController(svc *service.RelayService) *EventController {
	return &EventController{svc: svc}
}

func (controller *EventController) Publish(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		c.Logger().Errorf("Failed to read event request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	body := requests.PublishEventRequest{Event: string(raw)}
	if err = c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid event request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	var ack responses.Frame
	err = controller.svc.PublishEvent(c.Request().Context(), []byte(body.Event), func(f responses.Frame) error {
		ack = f
		return nil
	})
	if err != nil {
		return err
	}

	status := http.StatusOK
	if accepted, _ := ack[2].(bool); !accepted {
		status = http.StatusBadRequest
	}
	return c.JSON(status, ack)
}
