package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/treeflow/pkg/graph"
	"github.com/matzehuels/treeflow/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// solveSpinner animates a status line while a graph is solved. It is
// registered as the global solve hooks between Start and Stop, counting
// solved components against the pass's pending total, and forwards every
// event to the hooks registered before it.
type solveSpinner struct {
	w     io.Writer
	label string
	next  observability.SolveHooks

	mu      sync.Mutex
	mode    string
	total   int
	done    int
	failed  int
	current string
	width   int

	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newSolveSpinner(w io.Writer, label string) *solveSpinner {
	return &solveSpinner{
		w:       w,
		label:   label,
		next:    observability.NoopSolveHooks{},
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// status renders the progress text, e.g. "Solving 2/5 · negate".
func (s *solveSpinner) status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.total == 0 {
		return s.label
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d/%d", s.label, s.done, s.total)
	if s.mode == graph.ModeQuick {
		b.WriteString(" (quick)")
	}
	if s.failed > 0 {
		fmt.Fprintf(&b, ", %d failed", s.failed)
	}
	if s.current != "" {
		b.WriteString(" · " + s.current)
	}
	return b.String()
}

func (s *solveSpinner) OnPassStart(ctx context.Context, mode string, pending int) {
	s.mu.Lock()
	s.mode, s.total, s.done, s.failed, s.current = mode, pending, 0, 0, ""
	s.mu.Unlock()
	s.next.OnPassStart(ctx, mode, pending)
}

func (s *solveSpinner) OnPassComplete(ctx context.Context, mode string, solved, failed int, d time.Duration, err error) {
	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
	s.next.OnPassComplete(ctx, mode, solved, failed, d, err)
}

func (s *solveSpinner) OnComponentSolve(ctx context.Context, typ string, solved bool, d time.Duration, err error) {
	s.mu.Lock()
	s.done++
	if !solved {
		s.failed++
	}
	s.current = typ
	s.mu.Unlock()
	s.next.OnComponentSolve(ctx, typ, solved, d, err)
}

// Start installs the spinner as the solve hooks and animates until Stop is
// called or ctx is done.
func (s *solveSpinner) Start(ctx context.Context) {
	s.next = observability.Solve()
	observability.SetSolveHooks(s)

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *solveSpinner) draw(frame string) {
	line := s.status()
	s.mu.Lock()
	defer s.mu.Unlock()
	pad := max(s.width-len(line), 0)
	fmt.Fprintf(s.w, "\r%s %s%s", styleIconSpinner.Render(frame), StyleDim.Render(line), strings.Repeat(" ", pad))
	s.width = len(line)
}

// Stop ends the animation, clears the line and restores the previous
// hooks. It is safe to call more than once.
func (s *solveSpinner) Stop() {
	s.once.Do(func() {
		close(s.stop)
		<-s.stopped
		observability.SetSolveHooks(s.next)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.width > 0 {
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+2))
		}
	})
}
