package progrock

import (
	"context"
	"io"

	"github.com/grindlemire/graft"
	"go.trai.ch/forge/internal/core/ports"
)

// NodeID is the unique identifier for the telemetry adapter node.
const NodeID graft.ID = "adapter.telemetry"

// Factory creates a telemetry recorder for one build session that prints a summary to w.
type Factory func(w io.Writer) ports.Telemetry

// NewWithSummary creates a Recorder whose status updates feed a Summary printed to w.
func NewWithSummary(w io.Writer) ports.Telemetry {
	return NewRecorder(NewSummary(w))
}

func init() {
	graft.Register(graft.Node[Factory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (Factory, error) {
			return NewWithSummary, nil
		},
	})
}
