package websocket

const (
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
	MessageTypeNotification  = "notification"
	MessageTypeMessage       = "message"
	MessageTypeListingUpdate = "listing_update"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}
