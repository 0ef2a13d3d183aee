package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManagedProcess_IsTerminal(t *testing.T) {
	var useCases = []struct {
		status   string
		terminal bool
	}{
		{ProcessStarting, false},
		{ProcessRunning, false},
		{ProcessStopping, false},
		{ProcessStopped, true},
		{ProcessFailed, true},
	}
	for _, useCase := range useCases {
		process := &ManagedProcess{Status: useCase.status}
		assert.Equal(t, useCase.terminal, process.IsTerminal(), useCase.status)
	}
}

func TestManagedProcess_Clone(t *testing.T) {
	endTime := time.Now()
	originalEnd := endTime
	exitCode := 1
	process := &ManagedProcess{
		ID:       "proc-1",
		Command:  []string{"/bin/sh", "-c", "true"},
		Status:   ProcessFailed,
		EndTime:  &endTime,
		Logs:     []LogEntry{{Type: LogStdout, Content: "line"}},
		Metadata: map[string]string{"owner": "ops"},
		ExitCode: &exitCode,
	}

	clone := process.Clone()
	clone.Command[0] = "mutated"
	clone.Logs[0].Content = "mutated"
	clone.Metadata["owner"] = "mutated"
	*clone.EndTime = clone.EndTime.Add(time.Hour)
	*clone.ExitCode = 99

	assert.Equal(t, "/bin/sh", process.Command[0])
	assert.Equal(t, "line", process.Logs[0].Content)
	assert.Equal(t, "ops", process.Metadata["owner"])
	assert.Equal(t, originalEnd, *process.EndTime)
	assert.Equal(t, 1, *process.ExitCode)

	var nilProcess *ManagedProcess
	assert.Nil(t, nilProcess.Clone())
}
