package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status      string          `json:"status"` // "healthy", "idle"
	Connections ConnectionStats `json:"connections"`
	Rooms       RoomStats       `json:"rooms"`
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalConnected int      `json:"totalConnected"`
	UserIDs        []string `json:"userIds"`
}

// RoomStats holds per-room subscriber and typing statistics
type RoomStats struct {
	TotalRooms int        `json:"totalRooms"`
	Rooms      []RoomInfo `json:"roomDetails"`
}

// RoomInfo contains information about a single live room
type RoomInfo struct {
	GroupID     string `json:"groupId"`
	Subscribers int    `json:"subscribers"`
	Typing      int    `json:"typing"`
}
