// Package gateway serves live sensor readings over a WebSocket. Every
// connected client gets its own channel; a reading is synthesized and
// pushed only in response to a fetch request, never unsolicited.
package gateway

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ecotrack/ecotrack/internal/livedata"
)

const (
	// Path is the websocket endpoint.
	Path = "/ws"

	// fetchType is the client message requesting one reading.
	fetchType = "fetchData"

	// sensorEvent names the push carrying a reading.
	sensorEvent = "sensorData"
)

// Message is a client request on the socket.
type Message struct {
	Type string `json:"type"`
}

// Push is a server event sent to one client.
type Push struct {
	Event string           `json:"event"`
	Data  livedata.Reading `json:"data"`
}

// Register mounts the websocket route on the app.
func Register(app *fiber.App) {
	app.Use(Path, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}

		return fiber.ErrUpgradeRequired
	})

	app.Get(Path, websocket.New(handleConn))
}

// handleConn serves one client until the connection drops. Writes happen
// only from this goroutine, so delivery to one client never blocks another.
func handleConn(conn *websocket.Conn) {
	log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("live data client connected")

	for {
		var msg Message

		if err := conn.ReadJSON(&msg); err != nil {
			log.Debug().Err(err).Msg("live data client disconnected")

			return
		}

		push, ok := respond(msg)
		if !ok {
			continue
		}

		if err := conn.WriteJSON(push); err != nil {
			log.Debug().Err(err).Msg("live data push failed")

			return
		}
	}
}

// respond decides whether a client message warrants a push. Only fetch
// requests do; anything else is ignored.
func respond(msg Message) (Push, bool) {
	if msg.Type != fetchType {
		return Push{}, false
	}

	return Push{Event: sensorEvent, Data: livedata.Generate()}, true
}
