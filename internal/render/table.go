// Package render draws the live per-client task table on a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/stocklens/stocklens/internal/pipeline"
)

var (
	clientStyle  = lipgloss.NewStyle().Bold(true)
	pendingStyle = lipgloss.NewStyle().Faint(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func statusMark(status pipeline.StageStatus) string {
	switch status {
	case pipeline.StageRunning:
		return runningStyle.Render("▸")
	case pipeline.StageDone:
		return doneStyle.Render("✓")
	case pipeline.StageFailed:
		return failedStyle.Render("✗")
	default:
		return pendingStyle.Render("·")
	}
}

// TaskTable renders every known client's stage progress, redrawing in
// place on each update. It is safe to share between pipeline runs; the
// aggregator goroutines of the pools call Update concurrently with the
// orchestrator.
type TaskTable struct {
	mu        sync.Mutex
	w         io.Writer
	order     []string
	states    map[string]pipeline.TaskState
	lastLines int
}

func NewTaskTable(w io.Writer) *TaskTable {
	return &TaskTable{w: w, states: make(map[string]pipeline.TaskState)}
}

// Update implements pipeline.Observer.
func (t *TaskTable) Update(client string, state pipeline.TaskState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, known := t.states[client]; !known {
		t.order = append(t.order, client)
	}
	t.states[client] = state
	t.redraw()
}

func (t *TaskTable) redraw() {
	var b strings.Builder
	if t.lastLines > 0 {
		// Move the cursor back to the top of the previous frame and
		// clear everything below it.
		fmt.Fprintf(&b, "\x1b[%dA\x1b[J", t.lastLines)
	}

	lines := 0
	for _, client := range t.order {
		state := t.states[client]
		b.WriteString(clientStyle.Render(client))
		b.WriteByte('\n')
		lines++
		for _, stage := range state.Stages {
			b.WriteString("  ")
			b.WriteString(statusMark(stage.Status))
			b.WriteByte(' ')
			b.WriteString(stageLabel(stage))
			b.WriteByte('\n')
			lines++
		}
	}

	t.lastLines = lines
	io.WriteString(t.w, b.String())
}

func stageLabel(stage pipeline.Stage) string {
	label := stage.Name
	if stage.Total > 0 {
		label = fmt.Sprintf("%s %d/%d", stage.Name, stage.Done, stage.Total)
	}
	switch stage.Status {
	case pipeline.StagePending:
		return pendingStyle.Render(label)
	case pipeline.StageFailed:
		return failedStyle.Render(label)
	default:
		return label
	}
}
