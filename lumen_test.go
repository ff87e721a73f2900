package lumen_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenstore/lumen"
	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/schema"
	"github.com/lumenstore/lumen/subscription"
	"github.com/lumenstore/lumen/value"
)

type track struct {
	ID    int64
	Title string
	Plays int64
}

func (t track) AppendValues(dst []value.Value) []value.Value {
	return append(dst, value.BigInt(t.ID), value.Text(t.Title), value.BigInt(t.Plays))
}

func (t *track) ScanValues(values []value.Value) error {
	r := value.NewReader(values)
	t.ID = r.Int64()
	t.Title = r.Text()
	t.Plays = r.Int64()
	return r.Finish()
}

func (t track) Key() int64 {
	return t.ID
}

const trackSchema = `
tables: {
	tracks: {
		fields: {
			id:    "bigint"
			title: "text"
			plays: "bigint"
		}
	}
}
`

func openTestDB(t *testing.T) *lumen.DB {
	t.Helper()
	sch, err := schema.LoadBytes("schema.cue", []byte(trackSchema))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := lumen.Open(context.Background(), ":memory:", sch, lumen.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func addTrack(t *testing.T, db *lumen.DB, id int64, title string, plays int64) {
	t.Helper()
	stmt := query.InsertInto("tracks").
		Set("id", value.BigInt(id)).
		Set("title", value.Text(title)).
		Set("plays", value.BigInt(plays))
	require.NoError(t, db.Insert(context.Background(), stmt))
}

func selectTracks() *query.SelectStmt {
	return query.Select("tracks", "id", "title", "plays").
		OrderBy("tracks", "plays", query.Asc)
}

func TestFetchOne(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	addTrack(t, db, 1, "alpha", 10)

	row, err := lumen.FetchOne[track](ctx, db, selectTracks())
	require.NoError(t, err)
	assert.Equal(t, track{ID: 1, Title: "alpha", Plays: 10}, row)
}

func TestFetchOneCardinality(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := lumen.FetchOne[track](ctx, db, selectTracks())
	ce, ok := value.AsConversionError(err)
	require.True(t, ok)
	assert.Equal(t, value.ErrCodeWrongNumberOfValues, ce.Code)

	addTrack(t, db, 1, "alpha", 10)
	addTrack(t, db, 2, "beta", 20)
	_, err = lumen.FetchOne[track](ctx, db, selectTracks())
	assert.Error(t, err)
}

func TestFetchFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	addTrack(t, db, 1, "alpha", 20)
	addTrack(t, db, 2, "beta", 10)

	row, err := lumen.FetchFirst[track](ctx, db, selectTracks())
	require.NoError(t, err)
	assert.Equal(t, int64(2), row.ID, "first row in ORDER BY order")

	_, err = lumen.FetchFirst[track](ctx, db, selectTracks().
		Filter(query.Gt("tracks", "plays", value.BigInt(100))))
	assert.Error(t, err)
}

func TestFetchAllAndMany(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		addTrack(t, db, i, "t", i*10)
	}

	all, err := lumen.FetchAll[track](ctx, db, selectTracks())
	require.NoError(t, err)
	assert.Len(t, all, 5)

	many, err := lumen.FetchMany[track](ctx, db, selectTracks(), 3)
	require.NoError(t, err)
	require.Len(t, many, 3)
	assert.Equal(t, int64(1), many[0].ID)
}

func TestFetchValidatesStatement(t *testing.T) {
	db := openTestDB(t)
	_, err := lumen.FetchAll[track](context.Background(), db, query.Select("ghosts", "id"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "select statement invalid")
}

func TestWriteValidation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.Insert(ctx, query.InsertInto("tracks").Set("id", value.Text("wrong")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert statement invalid")

	err = db.Update(ctx, query.Update("ghosts").SetValue("x", value.BigInt(1)))
	require.Error(t, err)

	err = db.Delete(ctx, query.Delete("ghosts"))
	require.Error(t, err)
}

func TestSubscribeAllMaintainsOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	addTrack(t, db, 1, "alpha", 10)
	addTrack(t, db, 3, "gamma", 30)

	sub, err := lumen.SubscribeAll[track](ctx, db, selectTracks())
	require.NoError(t, err)
	defer sub.Close()

	recvNotification(t, sub) // initial snapshot

	// Insert lands between the seeded rows.
	addTrack(t, db, 2, "beta", 20)
	m := recvNotification(t, sub)
	assert.Equal(t, subscription.EventInsert, m.Event.Kind)
	assert.Equal(t, []int64{1, 2, 3}, trackIDs(sub.Snapshot()))

	// Update moves a row to the front.
	err = db.Update(ctx, query.Update("tracks").
		SetValue("plays", value.BigInt(5)).
		Filter(query.Eq("tracks", "id", value.BigInt(3))))
	require.NoError(t, err)
	recvNotification(t, sub)
	assert.Equal(t, []int64{3, 1, 2}, trackIDs(sub.Snapshot()))

	// Delete shrinks the result.
	err = db.Delete(ctx, query.Delete("tracks").
		Filter(query.Eq("tracks", "id", value.BigInt(1))))
	require.NoError(t, err)
	recvNotification(t, sub)
	assert.Equal(t, []int64{3, 2}, trackIDs(sub.Snapshot()))
}

func TestSubscribeAllIgnoresNonMatchingWrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	addTrack(t, db, 1, "alpha", 10)

	stmt := selectTracks().Filter(query.Gte("tracks", "plays", value.BigInt(10)))
	sub, err := lumen.SubscribeAll[track](ctx, db, stmt)
	require.NoError(t, err)
	defer sub.Close()
	recvNotification(t, sub)

	// Below the filter threshold: no notification, no cache change.
	addTrack(t, db, 2, "quiet", 5)
	assert.Equal(t, 0, sub.Pending())
	assert.Equal(t, []int64{1}, trackIDs(sub.Snapshot()))
}

func TestSubscribeManyCapsInitialFetchOnly(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for i := int64(1); i <= 4; i++ {
		addTrack(t, db, i, "t", i*10)
	}

	stmt := selectTracks()
	sub, err := lumen.SubscribeMany[track](ctx, db, stmt, 2)
	require.NoError(t, err)
	defer sub.Close()
	recvNotification(t, sub)

	assert.Equal(t, []int64{1, 2}, trackIDs(sub.Snapshot()))
	// The cap becomes a LIMIT on a copy of the statement: the caller's
	// statement and the subscription identity stay cap-free.
	assert.Equal(t, 0, stmt.Limit)
	assert.Equal(t, subscription.FingerprintForSelect(selectTracks()), sub.Descriptor().Fingerprint())

	// The cap applies at fetch time only; a later insert still lands.
	addTrack(t, db, 5, "late", 5)
	recvNotification(t, sub)
	assert.Equal(t, []int64{5, 1, 2}, trackIDs(sub.Snapshot()))
}

func TestSubscribeOne(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	addTrack(t, db, 1, "alpha", 10)

	stmt := selectTracks().Filter(query.Eq("tracks", "id", value.BigInt(1)))
	sub, err := lumen.SubscribeOne[track](ctx, db, stmt)
	require.NoError(t, err)
	defer sub.Close()
	recvNotification(t, sub)

	err = db.Update(ctx, query.Update("tracks").
		SetValue("plays", value.BigInt(11)).
		Filter(query.Eq("tracks", "id", value.BigInt(1))))
	require.NoError(t, err)
	recvNotification(t, sub)
	assert.Equal(t, int64(11), sub.Snapshot().Plays)

	// Deleting the row keeps the last known value.
	err = db.Delete(ctx, query.Delete("tracks").
		Filter(query.Eq("tracks", "id", value.BigInt(1))))
	require.NoError(t, err)
	assert.Equal(t, 0, sub.Pending())
	assert.Equal(t, int64(11), sub.Snapshot().Plays)
}

func TestSubscribeAllKeyedDeduplicates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	addTrack(t, db, 1, "alpha", 10)

	sub, err := lumen.SubscribeAllKeyed[int64, track](ctx, db, selectTracks())
	require.NoError(t, err)
	defer sub.Close()
	recvNotification(t, sub)

	// Same key again: the cached row is replaced, not duplicated.
	addTrack(t, db, 1, "alpha2", 20)
	recvNotification(t, sub)

	rows := sub.Snapshot().Values()
	require.Len(t, rows, 1)
	assert.Equal(t, "alpha2", rows[0].Title)
}

func TestSubscribeConcatUpdate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	addTrack(t, db, 1, "hi", 10)

	sub, err := lumen.SubscribeAll[track](ctx, db, selectTracks())
	require.NoError(t, err)
	defer sub.Close()
	recvNotification(t, sub)

	err = db.Update(ctx, query.Update("tracks").
		Set("title", query.Cat(query.Ref("title"), query.Lit(value.Text("!")))).
		Filter(query.Eq("tracks", "id", value.BigInt(1))))
	require.NoError(t, err)
	recvNotification(t, sub)

	// The merged cache and a fresh fetch agree.
	assert.Equal(t, "hi!", sub.Snapshot().Values()[0].Title)
	fresh, err := lumen.FetchOne[track](ctx, db, selectTracks())
	require.NoError(t, err)
	assert.Equal(t, "hi!", fresh.Title)
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	addTrack(t, db, 1, "alpha", 10)

	sub, err := lumen.SubscribeAll[track](ctx, db, selectTracks())
	require.NoError(t, err)
	recvNotification(t, sub)

	sub.Close()
	addTrack(t, db, 2, "beta", 20)

	_, err = sub.Recv(ctx)
	assert.ErrorIs(t, err, subscription.ErrClosed)
	assert.Equal(t, 0, db.Registry().Len())
}

func TestDescriptorFingerprintExposed(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	addTrack(t, db, 1, "alpha", 10)

	sub, err := lumen.SubscribeAll[track](ctx, db, selectTracks())
	require.NoError(t, err)
	defer sub.Close()

	fp := sub.Descriptor().Fingerprint()
	assert.Equal(t, subscription.FingerprintForSelect(selectTracks()), fp)
}

func recvNotification(t *testing.T, sub interface {
	Recv(context.Context) (subscription.Metadata, error)
}) subscription.Metadata {
	t.Helper()
	m, err := sub.Recv(context.Background())
	require.NoError(t, err)
	return m
}

func trackIDs(coll subscription.Collection[track]) []int64 {
	rows := coll.Values()
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}
