package services

// Broadcaster fans round-state events out to every connected client. Engines
// publish from inside their tick loops, so implementations must never block;
// a slow subscriber is the hub's problem, not the engine's.
type Broadcaster interface {
	Publish(event string, data any)
}

// NopBroadcaster discards events. Used in tests and as a default before the
// websocket hub is attached.
type NopBroadcaster struct{}

func (NopBroadcaster) Publish(string, any) {}
