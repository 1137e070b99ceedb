package learner

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/metrics"
	"github.com/rushteam/shoprec/store"
)

func testCatalog() core.Catalog {
	return core.Catalog{
		{ID: 1, Category: "x", Price: 10, Rating: core.Rating{Rate: 4.5, Count: 10}},
		{ID: 2, Category: "x", Price: 20, Rating: core.Rating{Rate: 4.0, Count: 20}},
		{ID: 3, Category: "y", Price: 30, Rating: core.Rating{Rate: 3.0, Count: 30}},
	}
}

// sessionLog 生成 n 条同一会话内的行为，依次浏览 1,2,3,1,2,3...
func sessionLog(n int) []core.Interaction {
	log := make([]core.Interaction, n)
	for i := range log {
		log[i] = core.Interaction{ProductID: int64(i%3 + 1), Timestamp: int64(i) * 1000, Kind: core.KindView}
	}
	return log
}

func newTestLearner(t *testing.T, s core.Store, opts ...Option) *Learner {
	t.Helper()
	var buf bytes.Buffer
	opts = append([]Option{WithSeed(11), WithLogger(logging.NewTestLogger(&buf))}, opts...)
	return New(s, opts...)
}

func mustInit(t *testing.T, l *Learner, catalog core.Catalog) {
	t.Helper()
	if err := l.Initialize(context.Background(), catalog); err != nil {
		t.Fatalf("Initialize error = %v", err)
	}
	if l.State() != StateReady {
		t.Fatalf("state = %s, want ready", l.State())
	}
}

func TestInitialize_Fresh(t *testing.T) {
	l := newTestLearner(t, store.NewMemoryStore())
	if l.State() != StateUninitialized {
		t.Fatalf("initial state = %s", l.State())
	}
	mustInit(t, l, testCatalog())

	st := l.Status()
	if st.InputDim != 3+4 || st.OutputDim != 3 {
		t.Errorf("model dims = %d→%d, want 7→3", st.InputDim, st.OutputDim)
	}

	// 已就绪时再次初始化是空操作
	if err := l.Initialize(context.Background(), testCatalog()); err != nil {
		t.Errorf("second Initialize error = %v", err)
	}
}

func TestInitialize_EmptyCatalog(t *testing.T) {
	l := newTestLearner(t, store.NewMemoryStore())
	if err := l.Initialize(context.Background(), nil); err != nil {
		t.Fatalf("Initialize(empty) error = %v, want nil", err)
	}
	if l.State() != StateUninitialized {
		t.Errorf("state = %s, want uninitialized", l.State())
	}
	if l.Status().LastError == "" {
		t.Error("LastError should record the construction failure")
	}

	// 可以重试
	mustInit(t, l, testCatalog())
}

func TestTrain_NotReady(t *testing.T) {
	l := newTestLearner(t, store.NewMemoryStore())
	if _, err := l.Train(context.Background(), testCatalog(), sessionLog(10)); !errors.Is(err, ErrLearnerNotReady) {
		t.Errorf("Train before init error = %v, want ErrLearnerNotReady", err)
	}
	if l.State() != StateUninitialized {
		t.Errorf("state = %s, want uninitialized", l.State())
	}
}

func TestTrain_Outcomes(t *testing.T) {
	ctx := context.Background()
	catalog := testCatalog()

	separate := make([]core.Interaction, 5)
	for i := range separate {
		separate[i] = core.Interaction{ProductID: int64(i%3 + 1), Timestamp: int64(i) * 2 * 60 * 60 * 1000, Kind: core.KindClick}
	}
	stale := []core.Interaction{
		{ProductID: 1, Timestamp: 0, Kind: core.KindView},
		{ProductID: 99, Timestamp: 1, Kind: core.KindView},
		{ProductID: 98, Timestamp: 2, Kind: core.KindView},
		{ProductID: 97, Timestamp: 3, Kind: core.KindView},
		{ProductID: 96, Timestamp: 4, Kind: core.KindView},
	}

	tests := []struct {
		name  string
		log   []core.Interaction
		want  TrainOutcome
		pairs int
	}{
		{name: "below threshold", log: sessionLog(4), want: TrainSkipped},
		{name: "one interaction per session", log: separate, want: TrainNoPairs},
		{name: "stale products only", log: stale, want: TrainNoPairs},
		{name: "single session", log: sessionLog(6), want: TrainCompleted, pairs: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLearner(t, store.NewMemoryStore())
			mustInit(t, l, catalog)

			before := testutil.ToFloat64(metrics.TrainingRuns.WithLabelValues(string(tt.want)))
			report, err := l.Train(ctx, catalog, tt.log)
			if err != nil {
				t.Fatalf("Train error = %v", err)
			}
			if report.Outcome != tt.want {
				t.Errorf("Outcome = %s, want %s (err=%v)", report.Outcome, tt.want, report.Err)
			}
			if report.Pairs != tt.pairs {
				t.Errorf("Pairs = %d, want %d", report.Pairs, tt.pairs)
			}
			if l.State() != StateReady {
				t.Errorf("state after train = %s, want ready", l.State())
			}
			after := testutil.ToFloat64(metrics.TrainingRuns.WithLabelValues(string(tt.want)))
			if after-before != 1 {
				t.Errorf("training_runs{%s} delta = %v, want 1", tt.want, after-before)
			}
		})
	}
}

func TestTrain_SavesAndReloads(t *testing.T) {
	ctx := context.Background()
	catalog := testCatalog()
	mem := store.NewMemoryStore()
	defer mem.Close()

	l := newTestLearner(t, mem)
	mustInit(t, l, catalog)

	report, err := l.Train(ctx, catalog, sessionLog(8))
	if err != nil {
		t.Fatalf("Train error = %v", err)
	}
	if report.Outcome != TrainCompleted || !report.Saved {
		t.Fatalf("report = %+v, want completed and saved", report)
	}
	if len(report.History.Loss) != DefaultEpochs {
		t.Errorf("epochs = %d, want %d", len(report.History.Loss), DefaultEpochs)
	}
	st := l.Status()
	if st.ModelVersion != 1 || st.TrainedSamples != 7 || st.LastTrainedAt.IsZero() {
		t.Errorf("status = %+v", st)
	}
	if _, err := mem.Get(ctx, DefaultSlot); err != nil {
		t.Fatalf("model not persisted: %v", err)
	}

	// 新进程：从同一个 Store 加载，预测结果一致
	restarted := newTestLearner(t, mem)
	mustInit(t, restarted, catalog)

	for _, p := range catalog {
		want, err := l.PredictNext(catalog, p)
		if err != nil {
			t.Fatalf("PredictNext error = %v", err)
		}
		got, err := restarted.PredictNext(catalog, p)
		if err != nil {
			t.Fatalf("PredictNext after reload error = %v", err)
		}
		for i := range want {
			if want[i] != got[i] {
				t.Fatalf("product %d: reloaded prediction %v differs from %v", p.ID, got, want)
			}
		}
	}
}

func TestLoad_NotFoundAndCorrupt(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()
	l := newTestLearner(t, mem)

	if _, err := l.Load(ctx, 3); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Load(empty) error = %v, want ErrModelNotFound", err)
	}

	for _, raw := range []string{"{broken", `{"version":1,"layers":[null]}`} {
		_ = mem.Set(ctx, DefaultSlot, []byte(raw))
		_, err := l.Load(ctx, 3)
		if !errors.Is(err, ErrModelNotFound) {
			t.Errorf("Load(%s) error = %v, want ErrModelNotFound", raw, err)
		}
		if errors.Is(err, ErrModelShapeMismatch) {
			t.Errorf("Load(%s): corrupt blob must not be reported as shape mismatch", raw)
		}
	}

	// 损坏的数据不影响初始化
	mustInit(t, l, testCatalog())
}

func TestInitialize_ShapeMismatch(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()

	old := newTestLearner(t, mem)
	mustInit(t, old, testCatalog())
	if err := old.Save(ctx); err != nil {
		t.Fatalf("Save error = %v", err)
	}

	bigger := append(testCatalog(), core.Product{ID: 4, Category: "z", Price: 5, Rating: core.Rating{Rate: 2}})

	if _, err := old.Load(ctx, len(bigger)); !errors.Is(err, ErrModelShapeMismatch) {
		t.Fatalf("Load error = %v, want ErrModelShapeMismatch", err)
	}

	t.Run("discard by default", func(t *testing.T) {
		l := newTestLearner(t, mem)
		mustInit(t, l, bigger)
		if st := l.Status(); st.OutputDim != 4 || st.InputDim != 8 {
			t.Errorf("dims = %d→%d, want 8→4", st.InputDim, st.OutputDim)
		}
	})

	t.Run("surface when not discarding", func(t *testing.T) {
		l := newTestLearner(t, mem, WithDiscardIncompatible(false))
		err := l.Initialize(ctx, bigger)
		if !errors.Is(err, ErrModelShapeMismatch) {
			t.Fatalf("Initialize error = %v, want ErrModelShapeMismatch", err)
		}
		if l.State() != StateUninitialized {
			t.Errorf("state = %s, want uninitialized", l.State())
		}
	})
}

// blockingStore 让 Get 阻塞到 release 被关闭，用来观察 Initializing 状态。
type blockingStore struct {
	core.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingStore) Get(ctx context.Context, key string) ([]byte, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.Store.Get(ctx, key)
}

func TestBusyCallsAreDropped(t *testing.T) {
	ctx := context.Background()
	bs := &blockingStore{
		Store:   store.NewMemoryStore(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	l := newTestLearner(t, bs)

	done := make(chan error, 1)
	go func() { done <- l.Initialize(ctx, testCatalog()) }()
	<-bs.entered

	if l.State() != StateInitializing {
		t.Fatalf("state = %s, want initializing", l.State())
	}
	if err := l.Initialize(ctx, testCatalog()); !errors.Is(err, ErrLearnerBusy) {
		t.Errorf("concurrent Initialize error = %v, want ErrLearnerBusy", err)
	}
	if _, err := l.Train(ctx, testCatalog(), sessionLog(10)); !errors.Is(err, ErrLearnerBusy) {
		t.Errorf("Train during init error = %v, want ErrLearnerBusy", err)
	}

	close(bs.release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Initialize error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Initialize did not finish")
	}
	if l.State() != StateReady {
		t.Errorf("state = %s, want ready", l.State())
	}
}

// failingStore 写入总是失败。
type failingStore struct{ core.Store }

func (failingStore) Set(context.Context, string, []byte, ...int) error {
	return errors.New("disk full")
}

func TestTrain_SaveFailureIsReported(t *testing.T) {
	l := newTestLearner(t, failingStore{Store: store.NewMemoryStore()})
	mustInit(t, l, testCatalog())

	report, err := l.Train(context.Background(), testCatalog(), sessionLog(6))
	if err != nil {
		t.Fatalf("Train error = %v, save failures must not be returned", err)
	}
	if report.Outcome != TrainCompleted || report.Saved || report.SaveErr == nil {
		t.Errorf("report = %+v, want completed, not saved, with SaveErr", report)
	}
	if l.State() != StateReady {
		t.Errorf("state = %s, want ready", l.State())
	}
	if l.Status().LastError == "" {
		t.Error("LastError should record the save failure")
	}
}

func TestTrain_CancelledContext(t *testing.T) {
	l := newTestLearner(t, store.NewMemoryStore())
	mustInit(t, l, testCatalog())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := l.Train(ctx, testCatalog(), sessionLog(6))
	if err != nil {
		t.Fatalf("Train error = %v", err)
	}
	if report.Outcome != TrainFailed || !errors.Is(report.Err, context.Canceled) {
		t.Errorf("report = %+v, want failed with context.Canceled", report)
	}
	if l.State() != StateReady {
		t.Errorf("state = %s, want ready", l.State())
	}
}

func TestPredictNext(t *testing.T) {
	l := newTestLearner(t, store.NewMemoryStore())
	if _, err := l.PredictNext(testCatalog(), testCatalog()[0]); !errors.Is(err, ErrLearnerNotReady) {
		t.Errorf("PredictNext before init error = %v", err)
	}
	mustInit(t, l, testCatalog())

	probs, err := l.PredictNext(testCatalog(), testCatalog()[0])
	if err != nil {
		t.Fatalf("PredictNext error = %v", err)
	}
	if len(probs) != 3 {
		t.Errorf("len(probs) = %d, want 3", len(probs))
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(testCatalog())
	if a != Fingerprint(testCatalog()) {
		t.Error("fingerprint must be deterministic")
	}
	reordered := testCatalog()
	reordered[0], reordered[1] = reordered[1], reordered[0]
	if a == Fingerprint(reordered) {
		t.Error("fingerprint should depend on catalog order")
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateUninitialized: "uninitialized",
		StateInitializing:  "initializing",
		StateReady:         "ready",
		StateTraining:      "training",
		State(42):          "unknown",
	} {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
