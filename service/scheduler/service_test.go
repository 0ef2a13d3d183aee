package scheduler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobq-io/jobq/model"
	"github.com/jobq-io/jobq/model/types"
)

func newProcess(title string, priority int) *model.QueuedProcess {
	return &model.QueuedProcess{
		Script:   "/bin/echo",
		Title:    title,
		Args:     []string{title},
		Priority: priority,
	}
}

func TestService_PriorityOrdering(t *testing.T) {
	svc := New()

	// Admission order A(3), B(9), C(5); dispatch order follows priority.
	idA, err := svc.Admit(newProcess("A", 3))
	require.NoError(t, err)
	idB, err := svc.Admit(newProcess("B", 9))
	require.NoError(t, err)
	idC, err := svc.Admit(newProcess("C", 5))
	require.NoError(t, err)

	first := svc.Next()
	require.NotNil(t, first)
	assert.Equal(t, idB, first.ID)
	assert.Equal(t, "B", first.Process.Title)

	second := svc.Next()
	require.NotNil(t, second)
	assert.Equal(t, idC, second.ID)

	third := svc.Next()
	require.NotNil(t, third)
	assert.Equal(t, idA, third.ID)

	assert.Nil(t, svc.Next())
}

func TestService_FIFOWithinPriority(t *testing.T) {
	svc := New(WithMaxConcurrent(10))

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := svc.Admit(newProcess(fmt.Sprintf("job-%d", i), 5))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	for i := 0; i < 5; i++ {
		entry := svc.Next()
		require.NotNil(t, entry)
		assert.Equal(t, ids[i], entry.ID, "equal priority must dispatch in admission order")
	}
}

func TestService_AdmitValidation(t *testing.T) {
	svc := New()

	var useCases = []struct {
		description string
		process     *model.QueuedProcess
		field       string
	}{
		{
			description: "nil process",
			process:     nil,
		},
		{
			description: "empty script",
			process:     &model.QueuedProcess{Title: "no script", Priority: 5},
			field:       "script",
		},
		{
			description: "blank script",
			process:     &model.QueuedProcess{Script: "   ", Priority: 5},
			field:       "script",
		},
		{
			description: "priority below range",
			process:     &model.QueuedProcess{Script: "/bin/true", Priority: -1},
			field:       "priority",
		},
		{
			description: "priority above range",
			process:     &model.QueuedProcess{Script: "/bin/true", Priority: 11},
			field:       "priority",
		},
	}

	for _, useCase := range useCases {
		_, err := svc.Admit(useCase.process)
		require.Error(t, err, useCase.description)
		var validationErr *types.ValidationError
		require.ErrorAs(t, err, &validationErr, useCase.description)
		assert.Equal(t, useCase.field, validationErr.Field, useCase.description)
	}
}

func TestService_DefaultPriority(t *testing.T) {
	svc := New()
	id, err := svc.Admit(&model.QueuedProcess{Script: "/bin/echo", Title: "unset"})
	require.NoError(t, err)
	entry, err := svc.Entry(id)
	require.NoError(t, err)
	assert.Equal(t, DefaultPriority, entry.Priority)
	assert.Equal(t, DefaultPriority, entry.Process.Priority)
}

func TestService_CapacityLimit(t *testing.T) {
	svc := New(WithMaxQueueSize(2))

	_, err := svc.Admit(newProcess("one", 5))
	require.NoError(t, err)
	_, err = svc.Admit(newProcess("two", 5))
	require.NoError(t, err)

	_, err = svc.Admit(newProcess("three", 5))
	require.Error(t, err)
	var capacityErr *types.CapacityError
	require.ErrorAs(t, err, &capacityErr)
	assert.Equal(t, 2, capacityErr.Limit)

	// Draining one slot re-opens admission.
	entry := svc.Next()
	require.NotNil(t, entry)
	require.NoError(t, svc.Complete(entry.ID, "proc-1"))
	_, err = svc.Admit(newProcess("three", 5))
	assert.NoError(t, err)
}

func TestService_ConcurrencyBackpressure(t *testing.T) {
	svc := New(WithMaxConcurrent(1))

	_, err := svc.Admit(newProcess("first", 5))
	require.NoError(t, err)
	_, err = svc.Admit(newProcess("second", 5))
	require.NoError(t, err)

	first := svc.Next()
	require.NotNil(t, first)

	// The limit is saturated; nil means backpressure, not an empty queue.
	assert.Nil(t, svc.Next())
	assert.Equal(t, 1, svc.Statistics().Pending)

	require.NoError(t, svc.Complete(first.ID, "proc-1"))
	second := svc.Next()
	require.NotNil(t, second)
	assert.Equal(t, "second", second.Process.Title)
}

func TestService_RetryBudget(t *testing.T) {
	svc := New(WithMaxRetries(2))

	id, err := svc.Admit(newProcess("flaky", 5))
	require.NoError(t, err)

	// maxRetries=2 means exactly 3 attempts before the terminal failure.
	attempts := 0
	for {
		entry := svc.Next()
		if entry == nil {
			break
		}
		attempts++
		require.NoError(t, svc.Fail(entry.ID, "boom"))
	}
	assert.Equal(t, 3, attempts)

	entry, err := svc.Entry(id)
	require.NoError(t, err)
	assert.Equal(t, model.EntryFailed, entry.Status)
	assert.Equal(t, 2, entry.RetryCount)
	assert.Equal(t, "boom", entry.Error)
}

func TestService_RetryDisabled(t *testing.T) {
	svc := New(WithMaxRetries(5), WithRetryDisabled())

	id, err := svc.Admit(newProcess("once", 5))
	require.NoError(t, err)

	entry := svc.Next()
	require.NotNil(t, entry)
	require.NoError(t, svc.Fail(entry.ID, "boom"))

	assert.Nil(t, svc.Next())
	failed, err := svc.Entry(id)
	require.NoError(t, err)
	assert.Equal(t, model.EntryFailed, failed.Status)
	assert.Equal(t, 0, failed.RetryCount)
}

func TestService_RequeuePreservesIdentity(t *testing.T) {
	svc := New(WithMaxRetries(1))

	id, err := svc.Admit(newProcess("sticky", 7))
	require.NoError(t, err)

	first := svc.Next()
	require.NotNil(t, first)
	require.NoError(t, svc.Fail(first.ID, "transient"))

	second := svc.Next()
	require.NotNil(t, second)
	assert.Equal(t, id, second.ID)
	assert.Equal(t, 7, second.Priority)
	assert.Equal(t, 1, second.RetryCount)
	assert.Equal(t, first.QueuedAt, second.QueuedAt)
}

func TestService_Cancel(t *testing.T) {
	svc := New()

	pendingID, err := svc.Admit(newProcess("pending", 3))
	require.NoError(t, err)
	processingID, err := svc.Admit(newProcess("processing", 9))
	require.NoError(t, err)

	entry := svc.Next()
	require.NotNil(t, entry)
	require.Equal(t, processingID, entry.ID)

	// Only pending entries are cancellable.
	assert.False(t, svc.Cancel(processingID))
	assert.False(t, svc.Cancel("no-such-entry"))
	assert.True(t, svc.Cancel(pendingID))
	assert.False(t, svc.Cancel(pendingID), "terminal entry cannot be cancelled again")

	cancelled, err := svc.Entry(pendingID)
	require.NoError(t, err)
	assert.Equal(t, model.EntryCancelled, cancelled.Status)
}

func TestService_CompleteLinksProcess(t *testing.T) {
	svc := New()

	id, err := svc.Admit(newProcess("linked", 5))
	require.NoError(t, err)

	entry := svc.Next()
	require.NotNil(t, entry)
	require.NoError(t, svc.Complete(entry.ID, "proc-42"))

	completed, err := svc.Entry(id)
	require.NoError(t, err)
	assert.Equal(t, model.EntryCompleted, completed.Status)
	assert.Equal(t, "proc-42", completed.ProcessID)
	assert.NotNil(t, completed.CompletedAt)

	// Resolving the same entry twice is an error: it left processing.
	err = svc.Complete(id, "proc-42")
	var notFound *types.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestService_AdmitBatch(t *testing.T) {
	svc := New(WithMaxQueueSize(2), WithMaxConcurrent(10))

	result := svc.AdmitBatch([]*model.QueuedProcess{
		newProcess("one", 5),
		newProcess("two", 5),
		newProcess("three", 5),
	})
	assert.Equal(t, 3, result.Total)
	assert.Len(t, result.Succeeded, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "three", result.Failed[0].Title)
	assert.NotEmpty(t, result.BatchID)

	// Members share the generated batch id.
	for _, id := range result.Succeeded {
		entry, err := svc.Entry(id)
		require.NoError(t, err)
		assert.Equal(t, result.BatchID, entry.Process.BatchID)
	}
}

func TestService_CancelBatch(t *testing.T) {
	svc := New()

	result := svc.AdmitBatch([]*model.QueuedProcess{
		newProcess("one", 5),
		newProcess("two", 9),
	})
	require.Len(t, result.Succeeded, 2)

	started := svc.Next()
	require.NotNil(t, started)

	outcome := svc.CancelBatch(result.Succeeded)
	assert.Equal(t, 2, outcome.Total)
	assert.Len(t, outcome.Succeeded, 1)
	require.Len(t, outcome.Failed, 1)
	assert.Equal(t, started.ID, outcome.Failed[0].ID)
}

func TestService_Restore(t *testing.T) {
	source := New(WithMaxConcurrent(10))
	var ids []string
	for i, priority := range []int{2, 8, 8, 4} {
		id, err := source.Admit(newProcess(fmt.Sprintf("job-%d", i), priority))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	entries := source.Entries()

	restored := New(WithMaxConcurrent(10))
	assert.Equal(t, 4, restored.Restore(entries))

	// Identity, priority ordering and FIFO ties all survive the round trip.
	var got []string
	for {
		entry := restored.Next()
		if entry == nil {
			break
		}
		got = append(got, entry.ID)
	}
	assert.Equal(t, []string{ids[1], ids[2], ids[3], ids[0]}, got)
}

func TestService_RestoreSkipsTerminal(t *testing.T) {
	source := New()
	_, err := source.Admit(newProcess("keep", 5))
	require.NoError(t, err)
	doneID, err := source.Admit(newProcess("done", 9))
	require.NoError(t, err)

	entry := source.Next()
	require.NotNil(t, entry)
	require.Equal(t, doneID, entry.ID)
	require.NoError(t, source.Complete(doneID, "proc-1"))

	restored := New()
	assert.Equal(t, 1, restored.Restore(source.Entries()))
	assert.Equal(t, 1, restored.Statistics().Pending)
}

func TestService_RestoreHonoursCapacity(t *testing.T) {
	source := New()
	for i := 0; i < 5; i++ {
		_, err := source.Admit(newProcess(fmt.Sprintf("job-%d", i), 5))
		require.NoError(t, err)
	}

	restored := New(WithMaxQueueSize(3))
	assert.Equal(t, 3, restored.Restore(source.Entries()))
	assert.Equal(t, 3, restored.Statistics().Pending)
}

func TestService_Statistics(t *testing.T) {
	svc := New(WithMaxConcurrent(10), WithRetryDisabled())

	okID, err := svc.Admit(newProcess("ok", 5))
	require.NoError(t, err)
	badID, err := svc.Admit(newProcess("bad", 5))
	require.NoError(t, err)
	cancelID, err := svc.Admit(newProcess("cancel", 2))
	require.NoError(t, err)
	_, err = svc.Admit(newProcess("waiting", 8))
	require.NoError(t, err)

	require.NotNil(t, svc.Next()) // waiting (8)
	require.NotNil(t, svc.Next()) // ok (5)
	require.NoError(t, svc.Complete(okID, "proc-1"))
	require.NotNil(t, svc.Next()) // bad (5)
	require.NoError(t, svc.Fail(badID, "boom"))
	require.True(t, svc.Cancel(cancelID))

	stats := svc.Statistics()
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 1, stats.Processing)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 3, stats.ThroughputPerMin)
}

func TestService_EntriesReturnsCopies(t *testing.T) {
	svc := New()
	id, err := svc.Admit(newProcess("immutable", 5))
	require.NoError(t, err)

	entry, err := svc.Entry(id)
	require.NoError(t, err)
	entry.Status = model.EntryFailed
	entry.Process.Title = "mutated"

	fresh, err := svc.Entry(id)
	require.NoError(t, err)
	assert.Equal(t, model.EntryPending, fresh.Status)
	assert.Equal(t, "immutable", fresh.Process.Title)
}
