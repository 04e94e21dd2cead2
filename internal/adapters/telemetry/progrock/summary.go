package progrock

import (
	"fmt"
	"io"
	"sync"

	"github.com/muesli/termenv"
	"github.com/vito/progrock"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/ui/output"
	"go.trai.ch/forge/internal/ui/style"
)

var _ progrock.Writer = (*Summary)(nil)

// TargetStatus is the final state of one recorded target.
type TargetStatus struct {
	Name   string
	Status domain.VertexStatus
	Error  string
}

// Summary is a progrock.Writer that keeps the latest state of every vertex and prints
// one line per target, in the order they started, when closed.
type Summary struct {
	out *termenv.Output

	mu       sync.Mutex
	order    []string
	vertexes map[string]*progrock.Vertex
	closed   bool
}

// NewSummary creates a Summary printing to w.
func NewSummary(w io.Writer) *Summary {
	return &Summary{
		out:      output.New(w),
		vertexes: make(map[string]*progrock.Vertex),
	}
}

// WriteStatus records the vertexes of the update.
func (s *Summary) WriteStatus(update *progrock.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range update.GetVertexes() {
		if _, seen := s.vertexes[v.GetId()]; !seen {
			s.order = append(s.order, v.GetId())
		}
		s.vertexes[v.GetId()] = v
	}
	return nil
}

// Statuses returns the state of every target seen so far, in the order they started.
func (s *Summary) Statuses() []TargetStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]TargetStatus, 0, len(s.order))
	for _, id := range s.order {
		v := s.vertexes[id]
		st := TargetStatus{Name: v.GetName(), Status: domain.VertexStatusRunning}
		switch {
		case v.GetCached():
			st.Status = domain.VertexStatusCached
		case v.GetError() != "":
			st.Status = domain.VertexStatusFailed
			st.Error = v.GetError()
		case v.GetCompleted() != nil:
			st.Status = domain.VertexStatusCompleted
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// Close prints the summary. Later calls do nothing.
func (s *Summary) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	counts := make(map[domain.VertexStatus]int)
	statuses := s.Statuses()
	for _, st := range statuses {
		counts[st.Status]++

		line := st.Status.Symbol() + " " + st.Name
		if st.Error != "" {
			line += ": " + st.Error
		}
		styled := s.out.String(line)
		if color := s.statusColor(st.Status); color != nil {
			styled = styled.Foreground(color)
		}
		if _, err := s.out.WriteString(styled.String() + "\n"); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(s.out, "%d targets: %d built, %d up to date, %d failed\n",
		len(statuses),
		counts[domain.VertexStatusCompleted],
		counts[domain.VertexStatusCached],
		counts[domain.VertexStatusFailed],
	)
	return err
}

func (s *Summary) statusColor(status domain.VertexStatus) termenv.Color {
	switch status {
	case domain.VertexStatusCompleted:
		return s.out.Color(string(style.Green))
	case domain.VertexStatusFailed:
		return s.out.Color(string(style.Red))
	case domain.VertexStatusCached:
		return s.out.Color(string(style.Slate))
	default:
		return nil
	}
}
