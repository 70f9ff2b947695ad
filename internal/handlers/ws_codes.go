package handlers

// Custom WebSocket close codes, more specific than the standard set.
const (
	BadSubprotocolError = 3000 // client connected with an unsupported subprotocol
	InvalidRoomError    = 3001 // room code in the WS URL does not exist
	SessionFullError    = 3002 // room already holds the maximum participant count
	BadJoinRequestError = 3003 // missing/invalid name or creator token
)
