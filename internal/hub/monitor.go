package hub

import (
	"github.com/MBSciTech/EcoChat/internal/model"
)

// MonitorService provides methods to gather hub statistics
type MonitorService struct {
	hub *Hub
}

// NewMonitorService creates a new monitor service
func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats gathers and returns all hub statistics
func (ms *MonitorService) GetStats() model.MonitorResponse {
	connectionStats := ms.getConnectionStats()
	roomStats := ms.getRoomStats()

	status := "healthy"
	if connectionStats.TotalConnected == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: connectionStats,
		Rooms:       roomStats,
	}
}

func (ms *MonitorService) getConnectionStats() model.ConnectionStats {
	userIDs := ms.hub.registry.OnlineUserIDs()
	return model.ConnectionStats{
		TotalConnected: len(userIDs),
		UserIDs:        userIDs,
	}
}

func (ms *MonitorService) getRoomStats() model.RoomStats {
	stats := model.RoomStats{
		Rooms: make([]model.RoomInfo, 0),
	}

	for _, bucket := range ms.hub.shards {
		bucket.RLock()
		for groupID, room := range bucket.rooms {
			room.mu.RLock()
			stats.Rooms = append(stats.Rooms, model.RoomInfo{
				GroupID:     groupID,
				Subscribers: len(room.subscribers),
				Typing:      len(room.typing),
			})
			room.mu.RUnlock()
			stats.TotalRooms++
		}
		bucket.RUnlock()
	}

	return stats
}
