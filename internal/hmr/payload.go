// Package hmr pushes reload signals to connected browsers over a websocket.
package hmr

const (
	TypeConnected  = "connected"
	TypeFullReload = "full-reload"
)

// Payload is one message on the reload socket, shaped like Vite's HMR
// messages so the browser side can treat both alike.
type Payload struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

// FullReload is the payload that asks every page to reload.
func FullReload() Payload {
	return Payload{Type: TypeFullReload}
}
