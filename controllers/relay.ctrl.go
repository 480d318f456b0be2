package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/getAlby/relay.go/lib/service"
	"github.com/getsentry/sentry-go"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/random"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// RelayController serves the websocket relay protocol on "/".
type RelayController struct {
	svc *service.RelayService
}

type RelayInfo struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Contact       string `json:"contact,omitempty"`
	SupportedNips []int  `json:"supported_nips"`
	Software      string `json:"software"`
}

func NewRelayController(svc *service.RelayService) *RelayController {
	return &RelayController{svc: svc}
}

// Relay upgrades to a websocket and runs the connection until either side
// goes away. Plain HTTP requests get the relay information document.
func (controller *RelayController) Relay(c echo.Context) error {
	if !websocket.IsWebSocketUpgrade(c.Request()) {
		return c.JSON(http.StatusOK, &RelayInfo{
			Name:          controller.svc.Config.RelayName,
			Description:   controller.svc.Config.RelayDescription,
			Contact:       controller.svc.Config.RelayContact,
			SupportedNips: []int{1, 11},
			Software:      "github.com/getAlby/relay.go",
		})
	}

	upgrader := websocket.Upgrader{}
	upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	ws.SetReadLimit(controller.svc.Config.MaxMessageSize)

	client := service.NewClient(random.String(16), controller.svc.Config.SendBufferSize)
	controller.svc.Connect(client)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		controller.writeLoop(ws, client)
	}()
	defer func() {
		controller.svc.Disconnect(client)
		<-writerDone
	}()
	// a panic only takes down this connection
	defer func() {
		if r := recover(); r != nil {
			controller.svc.Logger.Errorf("Client %s: recovered from panic: %v", client.ID, r)
			sentry.CurrentHub().Recover(r)
		}
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				controller.svc.Logger.Debugf("Client %s read error: %v", client.ID, err)
			}
			break
		}
		err = controller.svc.HandleMessage(ctx, client, msg)
		if err != nil {
			controller.svc.Logger.Debugf("Client %s: %v", client.ID, err)
			break
		}
	}
	return nil
}

// writeLoop is the only writer of ws. It drains the client's queue and
// keeps the connection alive with pings.
func (controller *RelayController) writeLoop(ws *websocket.Conn, client *service.Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-client.Done():
			return
		case <-ticker.C:
			err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil {
				controller.svc.Logger.Debugf("Client %s ping failed: %v", client.ID, err)
				client.Close()
				ws.Close()
				return
			}
		case frame := <-client.Outbound():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := ws.WriteJSON(frame)
			if err != nil {
				controller.svc.Logger.Error(err)
				client.Close()
				ws.Close()
				return
			}
		}
	}
}
