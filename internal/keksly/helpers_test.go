package keksly_test

import (
	"context"
	"reflect"
	"testing"

	"keksly-go/internal/keksly"
	"keksly-go/internal/testutil"
)

// shopConfig has one required service and two optional ones.
func shopConfig() *keksly.Config {
	cfg := keksly.DefaultConfig()
	cfg.Services = []keksly.ServiceDefinition{
		{ID: "essential", Name: "Essential", Required: true, Category: []string{"security_storage"}},
		{ID: "stats", Name: "Statistics", Category: []string{keksly.FlagAnalyticsStorage}},
		{ID: "ads", Name: "Advertising", Category: []string{keksly.FlagAdStorage, keksly.FlagAdUserData, keksly.FlagAdPersonalization}},
	}
	return cfg
}

type engineFixture struct {
	store    *testutil.MapStore
	cs       *keksly.ConsentStore
	queue    *keksly.DataLayer
	gate     *testutil.FakeGate
	logger   *testutil.RecordingLogger
	recorder *testutil.RecordingRecorder
	engine   *keksly.Engine
}

func newEngineFixture(t *testing.T, cfg *keksly.Config, store *testutil.MapStore) *engineFixture {
	t.Helper()
	if store == nil {
		store = testutil.NewMapStore()
	}
	f := &engineFixture{
		store:    store,
		queue:    keksly.NewDataLayer(),
		gate:     testutil.NewFakeGate(),
		logger:   &testutil.RecordingLogger{},
		recorder: &testutil.RecordingRecorder{},
	}
	f.cs = keksly.NewConsentStore(store, f.logger, f.recorder)
	applier := keksly.NewApplier(cfg, f.queue, f.gate, f.logger, f.recorder)
	f.engine = keksly.NewEngine(cfg, f.cs, applier, testutil.FixedClock(), f.logger, f.recorder)
	return f
}

// seed writes raw persisted values before the engine loads.
func seed(store *testutil.MapStore, values map[string]string) {
	for k, v := range values {
		store.Values[k] = v
	}
}

func assertState(t *testing.T, got, want keksly.ConsentState) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("state = %v, want %v", got, want)
	}
}

type widgetFixture struct {
	store     *testutil.MapStore
	queue     *keksly.DataLayer
	gate      *testutil.FakeGate
	presenter *testutil.RecordingPresenter
	reloader  *testutil.RecordingReloader
	recorder  *testutil.RecordingRecorder
	ids       *testutil.StubIDGenerator
}

func newWidgetFixture(gatedServices ...string) *widgetFixture {
	return &widgetFixture{
		store:     testutil.NewMapStore(),
		gate:      testutil.NewFakeGate(gatedServices...),
		presenter: &testutil.RecordingPresenter{},
		reloader:  &testutil.RecordingReloader{},
		recorder:  &testutil.RecordingRecorder{},
		ids:       testutil.NewStubIDGenerator(),
	}
}

func (f *widgetFixture) boot(t *testing.T, cfg *keksly.Config, dnt bool) *keksly.Widget {
	t.Helper()
	f.queue = keksly.NewDataLayer()
	w, err := keksly.Boot(context.Background(), keksly.Deps{
		Resolver:   keksly.NewResolver(cfg, nil, nil, nil, nil),
		Store:      f.store,
		Queue:      f.queue,
		Gate:       f.gate,
		Presenter:  f.presenter,
		Reloader:   f.reloader,
		Recorder:   f.recorder,
		Clock:      testutil.FixedClock(),
		IDGen:      f.ids,
		DoNotTrack: dnt,
	})
	if err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	return w
}
