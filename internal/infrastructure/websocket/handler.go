package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"art-auction/internal/domain"
	"art-auction/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// liveConn wraps a gorilla connection. The mutex serializes writes,
// which gorilla requires when the broadcaster and the ping path race.
type liveConn struct {
	conn      *websocket.Conn
	auctionID string
	writeMu   sync.Mutex
}

func (c *liveConn) Send(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

func (c *liveConn) Close() error {
	return c.conn.Close()
}

func (c *liveConn) AuctionID() string {
	return c.auctionID
}

// Handler upgrades GET /ws/auction/:id requests and registers the
// connection for that auction's event stream.
type Handler struct {
	store       domain.Store
	connManager *ConnectionManager
	upgrader    websocket.Upgrader
	log         logger.Logger
}

func NewHandler(store domain.Store, connManager *ConnectionManager, log logger.Logger) *Handler {
	return &Handler{
		store:       store,
		connManager: connManager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *Handler) HandleConnection(c echo.Context) error {
	auctionID := c.Param("id")

	var listing *domain.AuctionListing
	err := h.store.View(c.Request().Context(), func(tx domain.Tx) error {
		var viewErr error
		listing, viewErr = tx.ListingByID(c.Request().Context(), auctionID)
		return viewErr
	})
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "auction not found"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "auction_id", auctionID, "error", err)
		return err
	}

	live := &liveConn{conn: conn, auctionID: auctionID}
	h.connManager.Register(live)

	// Initial snapshot so the client renders without waiting for the
	// first event.
	if snapshot, err := json.Marshal(listing); err == nil {
		live.Send(snapshot)
	}

	go h.readLoop(live)
	return nil
}

// readLoop drains client frames until the peer goes away; inbound
// payloads are ignored, the socket is push-only.
func (h *Handler) readLoop(live *liveConn) {
	defer func() {
		h.connManager.Unregister(live)
		live.Close()
	}()

	for {
		if _, _, err := live.conn.ReadMessage(); err != nil {
			return
		}
	}
}
