package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stocklens/stocklens/internal/pipeline"
)

func TestTaskTableRendersAllClients(t *testing.T) {
	var buf bytes.Buffer
	table := NewTaskTable(&buf)

	table.Update("VINCI", pipeline.TaskState{
		Client: "VINCI",
		Stages: []pipeline.Stage{
			{Name: "Inventory", Status: pipeline.StageDone, Done: 3, Total: 3},
			{Name: "Image fetch", Status: pipeline.StageRunning, Done: 1, Total: 3},
		},
	})
	table.Update("SNCF", pipeline.TaskState{
		Client: "SNCF",
		Stages: []pipeline.Stage{
			{Name: "Inventory", Status: pipeline.StagePending},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "VINCI")
	assert.Contains(t, out, "SNCF")
	assert.Contains(t, out, "Image fetch 1/3")
}

func TestTaskTableRewindsBetweenFrames(t *testing.T) {
	var buf bytes.Buffer
	table := NewTaskTable(&buf)
	state := pipeline.TaskState{
		Client: "VINCI",
		Stages: []pipeline.Stage{{Name: "Inventory", Status: pipeline.StageRunning}},
	}

	table.Update("VINCI", state)
	first := buf.String()
	assert.NotContains(t, first, "\x1b[2A")

	state.Stages[0].Status = pipeline.StageDone
	table.Update("VINCI", state)

	// Second frame starts by moving up over the two lines of the first.
	assert.Contains(t, strings.TrimPrefix(buf.String(), first), "\x1b[2A\x1b[J")
}
