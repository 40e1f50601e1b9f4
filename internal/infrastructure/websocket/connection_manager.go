package websocket

import (
	"sync"

	"art-auction/internal/domain"
	"art-auction/pkg/logger"
)

// ConnectionManager tracks the live websocket connections per auction
// and fans auction events out to them.
type ConnectionManager struct {
	connections map[string]map[domain.LiveConnection]struct{} // auctionID -> connections
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[domain.LiveConnection]struct{}),
		log:         log,
	}
}

func (cm *ConnectionManager) Register(conn domain.LiveConnection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	auctionID := conn.AuctionID()
	if cm.connections[auctionID] == nil {
		cm.connections[auctionID] = make(map[domain.LiveConnection]struct{})
	}
	cm.connections[auctionID][conn] = struct{}{}

	cm.log.Debug("Connection registered", "auction_id", auctionID)
}

func (cm *ConnectionManager) Unregister(conn domain.LiveConnection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	auctionID := conn.AuctionID()
	if auctionConns, exists := cm.connections[auctionID]; exists {
		delete(auctionConns, conn)
		if len(auctionConns) == 0 {
			delete(cm.connections, auctionID)
		}
	}

	cm.log.Debug("Connection unregistered", "auction_id", auctionID)
}

func (cm *ConnectionManager) connectionsForAuction(auctionID string) []domain.LiveConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var conns []domain.LiveConnection
	for conn := range cm.connections[auctionID] {
		conns = append(conns, conn)
	}
	return conns
}

// BroadcastToAuction sends message to every connection watching the
// auction. Send failures are logged and skipped so one dead socket never
// blocks the rest.
func (cm *ConnectionManager) BroadcastToAuction(auctionID string, message []byte) error {
	for _, conn := range cm.connectionsForAuction(auctionID) {
		if err := conn.Send(message); err != nil {
			cm.log.Error("Failed to send message", "auction_id", auctionID, "error", err)
		}
	}
	return nil
}
