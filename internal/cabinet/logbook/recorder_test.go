package logbook_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcabinet/controller/internal/cabinet/hardware/sim"
	"github.com/smartcabinet/controller/internal/cabinet/inventory"
	"github.com/smartcabinet/controller/internal/cabinet/logbook"
	"github.com/smartcabinet/controller/internal/cabinet/remote"
	"github.com/smartcabinet/controller/internal/cabinet/roster"
	"github.com/smartcabinet/controller/internal/cabinet/store/memory"
	"github.com/smartcabinet/controller/internal/cabinet/types"
	"github.com/smartcabinet/controller/internal/metrics"
)

type fixture struct {
	recorder *logbook.Recorder
	reader   *sim.InventoryReader
	remote   *remote.Fake
	queue    *memory.OfflineQueue
	roster   *roster.Service
}

func newFixture(t *testing.T, items map[string]string, present ...string) *fixture {
	t.Helper()
	ctx := context.Background()

	ros := roster.NewService(memory.NewRosterStore())
	require.NoError(t, ros.Load(ctx))
	for tag, name := range items {
		require.NoError(t, ros.AppendIdentity(ctx, types.TableInventory, tag, name))
	}

	reader := sim.NewInventoryReader(present...)
	fake := remote.NewFake()
	queue := memory.NewOfflineQueue()

	rec := logbook.NewRecorder(
		inventory.NewScanner(reader),
		ros,
		fake,
		queue,
		fake.Probe(),
		log.New(io.Discard, "", 0),
		metrics.New(prometheus.NewRegistry()),
	)
	require.NoError(t, rec.Rebuild(ctx))

	return &fixture{recorder: rec, reader: reader, remote: fake, queue: queue, roster: ros}
}

func TestRecord_DiffLabelsThreeWay(t *testing.T) {
	// Snapshot {A,B,C}, next scan {A,C,D}: B left the cabinet (borrowed),
	// D appeared. D is enrolled inventory, so it's a return.
	f := newFixture(t, map[string]string{
		"A": "Box A", "B": "Box B", "C": "Box C", "D": "Box D",
	}, "A", "B", "C")

	f.reader.SetTags("A", "C", "D")
	f.recorder.Record(context.Background(), "t1", "S1", "Bob")

	b := f.remote.LogRows("Box B")
	require.Len(t, b, 1)
	assert.Equal(t, []string{"Bob", "S1", "borrowed", b[0][3]}, b[0])

	d := f.remote.LogRows("Box D")
	require.Len(t, d, 1)
	assert.Equal(t, "returned", d[0][2])
}

func TestRecord_ForeignTagAppearedIsAdded(t *testing.T) {
	f := newFixture(t, map[string]string{"A": "Box A"}, "A")

	// A never-enrolled tag shows up: logged under the raw tag id.
	f.reader.SetTags("A", "FOREIGN1")
	f.recorder.Record(context.Background(), "t1", "A1", "Jane")

	rows := f.remote.LogRows("FOREIGN1")
	require.Len(t, rows, 1)
	assert.Equal(t, "added", rows[0][2])
}

func TestRecord_ForeignTagVanishedIsIgnored(t *testing.T) {
	f := newFixture(t, map[string]string{"A": "Box A"}, "A", "FOREIGN1")

	f.reader.SetTags("A")
	f.recorder.Record(context.Background(), "t1", "A1", "Jane")

	assert.Empty(t, f.remote.LogRows("FOREIGN1"))
	depth, err := f.queue.Depth(context.Background())
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func TestRecord_NoChangeLogsNothing(t *testing.T) {
	f := newFixture(t, map[string]string{"A": "Box A"}, "A")

	f.recorder.Record(context.Background(), "t1", "S1", "Bob")

	assert.Empty(t, f.remote.LogRows("Box A"))
}

func TestRecord_OfflineQueuesAndMerges(t *testing.T) {
	f := newFixture(t, map[string]string{"A": "Box A"}, "A")
	ctx := context.Background()
	f.remote.SetOnline(false)

	// Transaction 1: A borrowed. Transaction 2: A returned. Both offline —
	// the queue must hold both entries for the item, in order.
	f.reader.SetTags()
	f.recorder.Record(ctx, "t1", "S1", "Bob")

	f.reader.SetTags("A")
	f.recorder.Record(ctx, "t2", "S2", "Eve")

	require.True(t, f.recorder.HasBacklog())

	queued, err := f.queue.DrainAll(ctx)
	require.NoError(t, err)
	rows := queued["Box A"]
	require.Len(t, rows, 2)
	assert.Equal(t, types.ActionBorrowed, rows[0].Action)
	assert.Equal(t, "S1", rows[0].BadgeID)
	assert.Equal(t, types.ActionReturned, rows[1].Action)
	assert.Equal(t, "S2", rows[1].BadgeID)

	// Nothing reached the remote store.
	assert.Empty(t, f.remote.LogRows("Box A"))
}

func TestRecord_SnapshotAdvancesAcrossTransactions(t *testing.T) {
	f := newFixture(t, map[string]string{"A": "Box A", "B": "Box B"}, "A", "B")
	ctx := context.Background()

	f.reader.SetTags("B")
	f.recorder.Record(ctx, "t1", "S1", "Bob")
	require.Len(t, f.remote.LogRows("Box A"), 1)

	// Second transaction with no further movement: snapshot advanced, so
	// nothing new is logged.
	f.recorder.Record(ctx, "t2", "S1", "Bob")
	assert.Len(t, f.remote.LogRows("Box A"), 1)

	// A comes back: exactly one return on top (newest-first).
	f.reader.SetTags("A", "B")
	f.recorder.Record(ctx, "t3", "S1", "Bob")
	rows := f.remote.LogRows("Box A")
	require.Len(t, rows, 2)
	assert.Equal(t, "returned", rows[0][2])
	assert.Equal(t, "borrowed", rows[1][2])
}
