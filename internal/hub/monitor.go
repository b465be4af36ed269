package hub

import (
	"github.com/arjin21/omerpubgbagimliligi/internal/model"
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
	var (
		stats model.ConnectionStats
		users []model.UserConnInfo
	)

	for _, shard := range ms.hub.shards {
		shard.RLock()
		for userID, conns := range shard.users {
			info := model.UserConnInfo{
				UserID:      userID,
				Connections: len(conns),
			}
			seen := make(map[string]struct{})
			for clientID, c := range conns {
				info.ClientIDs = append(info.ClientIDs, clientID)
				for _, convID := range c.Conversations() {
					if _, dup := seen[convID]; dup {
						continue
					}
					seen[convID] = struct{}{}
					info.Conversations = append(info.Conversations, convID)
				}
			}
			stats.TotalConnected += len(conns)
			stats.TotalUsers++
			users = append(users, info)
		}
		shard.RUnlock()
	}

	status := "healthy"
	if stats.TotalConnected == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: stats,
		Users:       users,
	}
}
