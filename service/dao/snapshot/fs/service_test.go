package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/jobq-io/jobq/model"
	"github.com/jobq-io/jobq/service/dao"
	"github.com/jobq-io/jobq/service/dao/snapshot"
)

func newDocument(name string, entryIDs ...string) *snapshot.Document {
	var entries []*model.QueueEntry
	for _, id := range entryIDs {
		entries = append(entries, &model.QueueEntry{
			ID:       id,
			Process:  model.QueuedProcess{Script: "/bin/echo", Title: id},
			Status:   model.EntryPending,
			Priority: 5,
			QueuedAt: time.Now().UTC(),
		})
	}
	return snapshot.New(name, entries)
}

func TestService_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	svc, err := New(t.TempDir())
	require.NoError(t, err)

	saved := newDocument("queue", "entry-1", "entry-2")
	require.NoError(t, svc.Save(ctx, saved))

	loaded, err := svc.Load(ctx, "queue")
	require.NoError(t, err)
	assert.Equal(t, snapshot.CurrentVersion, loaded.Version)
	require.Len(t, loaded.Entries, 2)
	assert.Equal(t, "entry-1", loaded.Entries[0].ID)
	assert.Equal(t, model.EntryPending, loaded.Entries[0].Status)
	assert.Equal(t, 5, loaded.Entries[0].Priority)
}

func TestService_LoadMissing(t *testing.T) {
	svc, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = svc.Load(context.Background(), "absent")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestService_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	svc, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, svc.Save(ctx, newDocument("queue", "old")))
	require.NoError(t, svc.Save(ctx, newDocument("queue", "new-1", "new-2")))

	loaded, err := svc.Load(ctx, "queue")
	require.NoError(t, err)
	require.Len(t, loaded.Entries, 2)
	assert.Equal(t, "new-1", loaded.Entries[0].ID)
}

func TestService_DefaultName(t *testing.T) {
	ctx := context.Background()
	svc, err := New(t.TempDir())
	require.NoError(t, err)

	document := newDocument("", "entry-1")
	require.NoError(t, svc.Save(ctx, document))
	assert.Equal(t, snapshot.DefaultName, document.Name)

	loaded, err := svc.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, snapshot.DefaultName, loaded.Name)
}

func TestService_VersionMismatchIsBestEffort(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	svc, err := New(baseDir)
	require.NoError(t, err)

	stale := newDocument("queue", "entry-1")
	stale.Version = snapshot.CurrentVersion + 1
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, afs.New().Upload(ctx, path.Join(baseDir, "queue.json"), file.DefaultFileOsMode, bytes.NewReader(data)))

	loaded, err := svc.Load(ctx, "queue")
	require.NoError(t, err)
	assert.Len(t, loaded.Entries, 1)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, svc.Save(ctx, newDocument("queue", "entry-1")))
	require.NoError(t, svc.Delete(ctx, "queue"))

	_, err = svc.Load(ctx, "queue")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "queue"), dao.ErrNotFound)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	svc, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, svc.Save(ctx, newDocument("alpha", "entry-1")))
	require.NoError(t, svc.Save(ctx, newDocument("beta", "entry-2")))

	documents, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, documents, 2)
}

func TestService_NilDocument(t *testing.T) {
	svc, err := New(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Save(context.Background(), nil), dao.ErrNilEntity)
}

func TestNew_EmptyBasePath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
