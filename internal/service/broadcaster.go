package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastRun(runID string, msgType string, payload interface{})
	CloseRun(runID string)
}
