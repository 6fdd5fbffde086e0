package ws

import (
	"github.com/san-kum/counterfall/internal/counter"
)

const ProtocolVersion = "1.0"

// Message types.
const (
	TypeFrame = "FRAME"
	TypeError = "ERROR"

	TypePointerDown = "POINTER_DOWN"
	TypePointerMove = "POINTER_MOVE"
	TypePointerUp   = "POINTER_UP"
	TypeExit        = "EXIT"
	TypeReset       = "RESET"
	TypeGeometry    = "GEOMETRY"
)

// FrameMsg is pushed to every client whenever the counter changes and on
// every animation frame of a step transition.
type FrameMsg struct {
	Type            string           `json:"type"`
	ProtocolVersion string           `json:"protocol_version"`
	Tick            uint64           `json:"tick"`
	Step            int              `json:"step"`
	Steps           int              `json:"steps"`
	Title           string           `json:"title,omitempty"`
	Phase           string           `json:"phase"`
	Progress        float64          `json:"progress"`
	Offset          float64          `json:"offset"`
	Geometry        counter.Geometry `json:"geometry"`
	Items           []counter.View   `json:"items"`
}

// CommandMsg is sent by clients. Pointer coordinates are container pixels.
type CommandMsg struct {
	Type      string            `json:"type"`
	ID        string            `json:"id,omitempty"`
	X         float64           `json:"x"`
	Y         float64           `json:"y"`
	Direction int               `json:"direction,omitempty"`
	Geometry  *counter.Geometry `json:"geometry,omitempty"`
}

// ErrorMsg answers a command that could not be applied. Only the sender
// receives it.
type ErrorMsg struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
	Message string `json:"message"`
}
