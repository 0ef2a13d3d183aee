package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueEntry_Lifecycle(t *testing.T) {
	entry := &QueueEntry{ID: "entry-1", Status: EntryPending, MaxRetries: 2}
	assert.False(t, entry.IsTerminal())

	entry.Start()
	assert.Equal(t, EntryProcessing, entry.Status)
	require.NotNil(t, entry.StartedAt)

	entry.Requeue("transient failure")
	assert.Equal(t, EntryPending, entry.Status)
	assert.Equal(t, 1, entry.RetryCount)
	assert.Nil(t, entry.StartedAt)
	assert.Equal(t, "transient failure", entry.Error)

	entry.Start()
	entry.Complete("proc-1")
	assert.Equal(t, EntryCompleted, entry.Status)
	assert.Equal(t, "proc-1", entry.ProcessID)
	require.NotNil(t, entry.CompletedAt)
	assert.True(t, entry.IsTerminal())
}

func TestQueueEntry_FailAndCancel(t *testing.T) {
	failed := &QueueEntry{ID: "f", Status: EntryProcessing}
	failed.Fail("boom")
	assert.Equal(t, EntryFailed, failed.Status)
	assert.Equal(t, "boom", failed.Error)
	assert.True(t, failed.IsTerminal())

	cancelled := &QueueEntry{ID: "c", Status: EntryPending}
	cancelled.Cancel()
	assert.Equal(t, EntryCancelled, cancelled.Status)
	assert.True(t, cancelled.IsTerminal())
}

func TestQueueEntry_Clone(t *testing.T) {
	entry := &QueueEntry{
		ID: "entry-1",
		Process: QueuedProcess{
			Script: "/bin/echo",
			Args:   []string{"a"},
			Env:    map[string]string{"K": "v"},
		},
		Status:   EntryProcessing,
		Priority: 7,
	}
	entry.Start()

	clone := entry.Clone()
	clone.Process.Args[0] = "mutated"
	clone.Process.Env["K"] = "mutated"
	*clone.StartedAt = clone.StartedAt.Add(1)
	clone.Status = EntryFailed

	assert.Equal(t, "a", entry.Process.Args[0])
	assert.Equal(t, "v", entry.Process.Env["K"])
	assert.Equal(t, EntryProcessing, entry.Status)
	assert.NotEqual(t, entry.StartedAt, clone.StartedAt)

	var nilEntry *QueueEntry
	assert.Nil(t, nilEntry.Clone())
}

func TestQueuedProcess_Clone(t *testing.T) {
	process := &QueuedProcess{
		Script:   "/bin/echo",
		Args:     []string{"x", "y"},
		Env:      map[string]string{"A": "1"},
		Metadata: map[string]string{"team": "infra"},
		Priority: 3,
	}

	clone := process.Clone()
	clone.Args[1] = "mutated"
	clone.Env["A"] = "mutated"
	clone.Metadata["team"] = "mutated"

	assert.Equal(t, "y", process.Args[1])
	assert.Equal(t, "1", process.Env["A"])
	assert.Equal(t, "infra", process.Metadata["team"])

	var nilProcess *QueuedProcess
	assert.Nil(t, nilProcess.Clone())
}
