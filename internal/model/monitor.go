package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status      string          `json:"status"` // "healthy", "idle"
	Connections ConnectionStats `json:"connections"`
	Users       []UserConnInfo  `json:"users"`
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalConnected int `json:"totalConnected"` // Total sockets currently connected
	TotalUsers     int `json:"totalUsers"`     // Distinct users with at least one socket
}

// UserConnInfo describes one user's live connections
type UserConnInfo struct {
	UserID        string   `json:"userId"`
	Connections   int      `json:"connections"`
	ClientIDs     []string `json:"clientIds"`
	Conversations []string `json:"conversations"` // conversations joined on any socket
}
