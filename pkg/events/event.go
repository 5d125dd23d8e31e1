package events

// Session stream event types. The assistant service stamps one of these
// onto every dto.SessionEventMessage it publishes; websocket clients
// switch on the value to decide what to re-render.
const (
	TypeChangeAdded     = "CHANGE_ADDED"
	TypeMessageAppended = "MESSAGE_APPENDED"
)
