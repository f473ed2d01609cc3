package roster

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/idilsaglam/cards/internal/feed"
	"github.com/idilsaglam/cards/internal/model"
	"github.com/idilsaglam/cards/internal/settings"
	"github.com/idilsaglam/cards/internal/store/jsonstore"
	"github.com/idilsaglam/cards/internal/store/kv"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// -------------- fakes ----------------

type fakeSource struct {
	mu      sync.Mutex
	results map[string]feed.Result
	calls   []string
	// gate, when set, blocks Fetch for that url until closed
	gate map[string]chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{results: map[string]feed.Result{}, gate: map[string]chan struct{}{}}
}

func (f *fakeSource) Fetch(ctx context.Context, url string) feed.Result {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	g := f.gate[url]
	f.mu.Unlock()
	if g != nil {
		<-g
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[url]
	if !ok {
		return feed.Result{URL: url, Err: &feed.FetchError{Category: feed.CategoryStatus, URL: url, StatusCode: http.StatusNotFound, Status: "404 Not Found"}}
	}
	res.URL = url
	res.Cards = append([]model.Card(nil), res.Cards...)
	return res
}

func (f *fakeSource) serve(url, csv string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[url] = feed.Result{Cards: feed.Normalize(feed.Decode(csv), nil)}
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type env struct {
	kv       *kv.Store
	local    *jsonstore.Store
	cfg      *settings.Settings
	source   *fakeSource
	ctrl     *Controller
	sequence int
}

func newEnv(t *testing.T, feedURL string) *env {
	t.Helper()
	t.Setenv(settings.EnvURL, "")
	e := &env{kv: kv.Open(t.TempDir()), source: newFakeSource()}
	if feedURL != "" {
		require.NoError(t, e.kv.Set(settings.Key, feedURL))
	}
	cfg, err := settings.Load(e.kv)
	require.NoError(t, err)
	e.cfg = cfg
	e.local = jsonstore.New(e.kv, nil)
	e.ctrl = New(e.local, e.source, cfg, WithIDFunc(func() string {
		e.sequence++
		return fmt.Sprintf("id-%d", e.sequence)
	}))
	t.Cleanup(e.ctrl.Close)
	return e
}

var ann = model.Card{Name: "Ann", Title: "CTO", CompanyName: "Acme", Email: "ann@acme.io"}

// -------------- tests ----------------

func TestModeFor(t *testing.T) {
	assert.Equal(t, Local, ModeFor(""))
	assert.Equal(t, Local, ModeFor("   "))
	assert.Equal(t, Remote, ModeFor("https://x"))
}

func TestController_InitiallyLoading(t *testing.T) {
	e := newEnv(t, "")
	snap := e.ctrl.Snapshot()
	assert.True(t, snap.IsLoading)
	assert.Empty(t, snap.Employees)
}

func TestController_LocalLoadSeeds(t *testing.T) {
	e := newEnv(t, "")
	snap := e.ctrl.Load(context.Background())

	assert.False(t, snap.IsLoading)
	assert.False(t, snap.IsSheetMode)
	assert.Empty(t, snap.Error)
	require.Len(t, snap.Employees, 3)
	assert.Equal(t, "Alex Johnson", snap.Employees[0].Name)
	assert.Zero(t, e.source.callCount())

	_, ok, err := e.kv.Get(jsonstore.Key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestController_LocalAddRoundTrip(t *testing.T) {
	e := newEnv(t, "")
	e.ctrl.Load(context.Background())

	id := e.ctrl.Add(ann)
	assert.Equal(t, "id-1", id)

	fresh := jsonstore.New(e.kv, nil).Load()
	require.Len(t, fresh, 4)
	want := ann
	want.ID = id
	assert.Equal(t, want, fresh[3], "appended in insertion order")

	got, ok := e.ctrl.Lookup(id)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestController_AddIgnoresInputID(t *testing.T) {
	e := newEnv(t, "")
	e.ctrl.Load(context.Background())

	in := ann
	in.ID = model.Seed()[0].ID
	id := e.ctrl.Add(in)
	assert.NotEqual(t, in.ID, id)
	assert.Len(t, e.ctrl.Snapshot().Employees, 4)
}

func TestController_LocalUpdateDelete(t *testing.T) {
	e := newEnv(t, "")
	e.ctrl.Load(context.Background())
	seed := model.Seed()

	edited := seed[1]
	edited.Title = "Design Director"
	e.ctrl.Update(edited)

	got, ok := e.ctrl.Lookup(seed[1].ID)
	require.True(t, ok)
	assert.Equal(t, "Design Director", got.Title)

	e.ctrl.Delete(seed[0].ID)
	_, ok = e.ctrl.Lookup(seed[0].ID)
	assert.False(t, ok)

	fresh := jsonstore.New(e.kv, nil).Load()
	want := []model.Card{edited, seed[2]}
	if diff := cmp.Diff(want, fresh); diff != "" {
		t.Errorf("persisted roster mismatch (-want +got):\n%s", diff)
	}
}

func TestController_RestoreKeepsIDAndPosition(t *testing.T) {
	e := newEnv(t, "")
	e.ctrl.Load(context.Background())
	seed := model.Seed()

	e.ctrl.Delete(seed[1].ID)
	require.True(t, e.ctrl.Restore(seed[1], 1))
	assert.False(t, e.ctrl.Restore(seed[1], 1), "already present")

	if diff := cmp.Diff(seed, e.ctrl.Snapshot().Employees); diff != "" {
		t.Errorf("roster mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(seed, jsonstore.New(e.kv, nil).Load()); diff != "" {
		t.Errorf("persisted roster mismatch (-want +got):\n%s", diff)
	}

	// out of range index appends
	e.ctrl.Delete(seed[0].ID)
	require.True(t, e.ctrl.Restore(seed[0], 99))
	got := e.ctrl.Snapshot().Employees
	require.Len(t, got, 3)
	assert.Equal(t, seed[0].ID, got[2].ID)
}

func TestController_RestoreIgnoredInRemoteMode(t *testing.T) {
	const url = "https://sheet.example/pub.csv"
	e := newEnv(t, url)
	e.source.serve(url, "id,name\n1,Ann")
	e.ctrl.Load(context.Background())

	assert.False(t, e.ctrl.Restore(model.Card{ID: "9", Name: "Zed"}, 0))
	assert.Len(t, e.ctrl.Snapshot().Employees, 1)
}

func TestController_UnknownIDsLeaveRosterUnchanged(t *testing.T) {
	e := newEnv(t, "")
	before := e.ctrl.Load(context.Background()).Employees

	e.ctrl.Update(model.Card{ID: "nope", Name: "Ghost"})
	e.ctrl.Delete("nope")

	assert.Equal(t, before, e.ctrl.Snapshot().Employees)
}

func TestController_RemoteLoad(t *testing.T) {
	const url = "https://sheet.example/pub.csv"
	e := newEnv(t, url)
	e.source.serve(url, "id,name\n1,Ann\n2,Bob")

	snap := e.ctrl.Load(context.Background())
	assert.True(t, snap.IsSheetMode)
	assert.Equal(t, url, snap.SheetURL)
	assert.False(t, snap.IsLoading)
	assert.Empty(t, snap.Error)
	want := []model.Card{{ID: "1", Name: "Ann"}, {ID: "2", Name: "Bob"}}
	assert.Equal(t, want, snap.Employees)

	got, ok := e.ctrl.Lookup("2")
	assert.True(t, ok)
	assert.Equal(t, "Bob", got.Name)
}

func TestController_RemoteMutationsAreNoOps(t *testing.T) {
	const url = "https://sheet.example/pub.csv"
	e := newEnv(t, url)
	e.source.serve(url, "id,name\n1,Ann\n2,Bob")
	before := e.ctrl.Load(context.Background())

	var id string
	assert.NotPanics(t, func() {
		id = e.ctrl.Add(ann)
		e.ctrl.Update(model.Card{ID: "1", Name: "Changed"})
		e.ctrl.Delete("2")
	})
	assert.Empty(t, id)
	assert.Equal(t, before.Employees, e.ctrl.Snapshot().Employees)

	_, ok, err := e.kv.Get(jsonstore.Key)
	require.NoError(t, err)
	assert.False(t, ok, "remote mode never writes the local store")
}

func TestController_RemoteFailureFallsBackToLocal(t *testing.T) {
	const url = "https://sheet.example/missing.csv"
	e := newEnv(t, "")
	e.ctrl.Load(context.Background())
	e.ctrl.Add(ann)
	localNow := jsonstore.New(e.kv, nil).Load()

	snap := e.ctrl.SetFeedURL(context.Background(), url)
	assert.True(t, snap.IsSheetMode)
	assert.False(t, snap.IsLoading)
	assert.Equal(t, feed.Message, snap.Error)
	assert.Equal(t, localNow, snap.Employees)
}

func TestController_EmptyFeedDoesNotFallBack(t *testing.T) {
	const url = "https://sheet.example/empty.csv"
	e := newEnv(t, url)
	e.source.serve(url, "id,name")

	snap := e.ctrl.Load(context.Background())
	assert.Empty(t, snap.Error)
	assert.Empty(t, snap.Employees)

	_, ok, err := e.kv.Get(jsonstore.Key)
	require.NoError(t, err)
	assert.False(t, ok, "local store untouched")
}

func TestController_SyncTwiceIsIdempotent(t *testing.T) {
	const url = "https://sheet.example/pub.csv"
	e := newEnv(t, url)
	e.source.serve(url, "name,email,title\nAnn,ann@x.io,CTO\nBob,bob@x.io,CEO")

	first := e.ctrl.Sync(context.Background())
	second := e.ctrl.Sync(context.Background())
	assert.Equal(t, first.Employees, second.Employees)
	assert.Equal(t, 2, e.source.callCount())
}

func TestController_SyncReplacesWholeRoster(t *testing.T) {
	const url = "https://sheet.example/pub.csv"
	e := newEnv(t, url)
	e.source.serve(url, "id,name\n1,Ann\n2,Bob")
	e.ctrl.Sync(context.Background())

	e.source.serve(url, "id,name\n3,Cy")
	snap := e.ctrl.Sync(context.Background())
	assert.Equal(t, []model.Card{{ID: "3", Name: "Cy"}}, snap.Employees)
}

func TestController_SyncIsNoOpLocally(t *testing.T) {
	e := newEnv(t, "")
	before := e.ctrl.Load(context.Background())
	after := e.ctrl.Sync(context.Background())
	assert.Equal(t, before, after)
	assert.Zero(t, e.source.callCount())
}

func TestController_SwitchBackToLocal(t *testing.T) {
	const url = "https://sheet.example/pub.csv"
	e := newEnv(t, url)
	e.source.serve(url, "id,name\n1,Ann")
	e.ctrl.Load(context.Background())

	snap := e.ctrl.SetFeedURL(context.Background(), "")
	assert.False(t, snap.IsSheetMode)
	assert.Len(t, snap.Employees, 3)
	assert.Equal(t, "", e.cfg.FeedURL())

	again, err := settings.Load(e.kv)
	require.NoError(t, err)
	assert.Equal(t, "", again.FeedURL(), "mode choice survives restarts")
}

func TestController_StaleResponseIsDropped(t *testing.T) {
	const (
		slow = "https://sheet.example/slow.csv"
		fast = "https://sheet.example/fast.csv"
	)
	e := newEnv(t, slow)
	e.source.serve(slow, "id,name\nS,Slow")
	e.source.serve(fast, "id,name\nF,Fast")
	gate := make(chan struct{})
	e.source.gate[slow] = gate

	done := make(chan Snapshot)
	go func() { done <- e.ctrl.Load(context.Background()) }()

	// wait until the slow fetch is in flight
	require.Eventually(t, func() bool { return e.source.callCount() == 1 }, timeout, tick)
	assert.True(t, e.ctrl.Snapshot().IsLoading)

	newer := e.ctrl.SetFeedURL(context.Background(), fast)
	assert.Equal(t, []model.Card{{ID: "F", Name: "Fast"}}, newer.Employees)

	close(gate)
	<-done

	snap := e.ctrl.Snapshot()
	assert.Equal(t, fast, snap.SheetURL)
	assert.Equal(t, []model.Card{{ID: "F", Name: "Fast"}}, snap.Employees)
	assert.False(t, snap.IsLoading)
}

func TestController_StaleResponseDroppedAfterSwitchToLocal(t *testing.T) {
	const slow = "https://sheet.example/slow.csv"
	e := newEnv(t, slow)
	e.source.serve(slow, "id,name\nS,Slow")
	gate := make(chan struct{})
	e.source.gate[slow] = gate

	done := make(chan struct{})
	go func() {
		e.ctrl.Load(context.Background())
		close(done)
	}()
	require.Eventually(t, func() bool { return e.source.callCount() == 1 }, timeout, tick)

	e.ctrl.SetFeedURL(context.Background(), "")
	close(gate)
	<-done

	snap := e.ctrl.Snapshot()
	assert.False(t, snap.IsSheetMode)
	assert.Len(t, snap.Employees, 3)
}

func TestController_Watch(t *testing.T) {
	e := newEnv(t, "")
	var got []Snapshot
	stop := e.ctrl.Watch(func(s Snapshot) { got = append(got, s) })

	e.ctrl.Load(context.Background())
	e.ctrl.Add(ann)
	stop()
	e.ctrl.Delete("id-1")

	require.Len(t, got, 2)
	assert.Len(t, got[0].Employees, 3)
	assert.Len(t, got[1].Employees, 4)
}

func TestController_SnapshotIsACopy(t *testing.T) {
	e := newEnv(t, "")
	snap := e.ctrl.Load(context.Background())
	snap.Employees[0].Name = "mutated"

	got, ok := e.ctrl.Lookup(model.Seed()[0].ID)
	require.True(t, ok)
	assert.Equal(t, "Alex Johnson", got.Name)
}
