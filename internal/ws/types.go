package ws

const (
	// server - client
	MsgReady = "ready"
	MsgEvent = "event"
	MsgError = "error"
)
