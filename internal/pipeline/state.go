package pipeline

// StageStatus is the lifecycle of one pipeline stage.
type StageStatus string

const (
	StagePending StageStatus = "pending"
	StageRunning StageStatus = "running"
	StageDone    StageStatus = "done"
	StageFailed  StageStatus = "failed"
)

// Stage indices, in execution order.
const (
	stageInventory = iota
	stageImageFetch
	stageImageTransform
	stageHistoryFetch
	stageZeroExit
	stageUtilityRate
	stageObsolescence
	stageCooccurrence
	stagePersist
	stageCount
)

var stageNames = [stageCount]string{
	"Inventory",
	"Image fetch",
	"Image transform",
	"History fetch",
	"Zero-exit list",
	"Utility rate",
	"Obsolescence",
	"Co-occurrence",
	"Persist",
}

// Stage is the progress of one pipeline step. Total is 0 until the stage
// knows its batch size.
type Stage struct {
	Name   string
	Status StageStatus
	Done   int
	Total  int
}

// TaskState is the full progress picture of one client run. Only the
// orchestrator mutates it; observers get defensive copies.
type TaskState struct {
	RunID  string
	Client string
	Stages []Stage
}

func newTaskState(runID, client string) TaskState {
	stages := make([]Stage, stageCount)
	for i, name := range stageNames {
		stages[i] = Stage{Name: name, Status: StagePending}
	}
	return TaskState{RunID: runID, Client: client, Stages: stages}
}

// Clone returns a copy safe to hand to observers.
func (s TaskState) Clone() TaskState {
	out := s
	out.Stages = make([]Stage, len(s.Stages))
	copy(out.Stages, s.Stages)
	return out
}

// Failed reports whether any stage failed.
func (s TaskState) Failed() bool {
	for _, st := range s.Stages {
		if st.Status == StageFailed {
			return true
		}
	}
	return false
}

// Observer is notified after every visible state change of a client run.
type Observer interface {
	Update(client string, state TaskState)
}

type noopObserver struct{}

func (noopObserver) Update(string, TaskState) {}
