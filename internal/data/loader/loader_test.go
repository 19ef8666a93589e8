package loader

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sawpanic/setuplab/internal/data/store"
	"github.com/sawpanic/setuplab/internal/domain/setup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memStore struct {
	mu      sync.Mutex
	objects map[string]string
	fail    map[string]error
	got     []string
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	m.got = append(m.got, key)
	err := m.fail[key]
	data, ok := m.objects[key]
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.ErrNotFound
	}
	return []byte(data), nil
}

func (m *memStore) List(ctx context.Context, pattern string) ([]string, error) {
	return []string{"alpha/setups.csv", "beta/setups.csv"}, nil
}

// blockingStore fails one key and blocks every other Get until cancelled
type blockingStore struct {
	failKey string
}

func (b *blockingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == b.failKey {
		return nil, errors.New("connection reset")
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingStore) List(ctx context.Context, pattern string) ([]string, error) {
	return nil, nil
}

func scenarioStore() *memStore {
	return &memStore{objects: map[string]string{
		"alpha/setups.csv":  "rank,tickOffset,stop,limit,tradeDurationMinutes,rewardToRiskRatio\n1,2,5,10,30,2.5\n2,-1,6,12,2000,1\n",
		"alpha/summary.csv": "rank,netProfit\n1,100\n",
	}}
}

func TestLoader_Load(t *testing.T) {
	ms := scenarioStore()
	l := New(ms)

	batch, err := l.Load(context.Background(), "alpha")
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.Equal(t, setup.SideBuyStop, batch[0].EntrySide())
	assert.Equal(t, setup.SideBuyLimit, batch[1].EntrySide())
	assert.Equal(t, 100.0, batch[0].Stat("netProfit"))
	assert.ElementsMatch(t, []string{"alpha/setups.csv", "alpha/summary.csv"}, ms.got)
}

func TestLoader_MissingTableFails(t *testing.T) {
	ms := scenarioStore()
	delete(ms.objects, "alpha/summary.csv")

	batch, err := New(ms).Load(context.Background(), "alpha")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Nil(t, batch, "no partial result")
}

func TestLoader_FailureCancelsSibling(t *testing.T) {
	l := New(&blockingStore{failKey: "alpha/summary.csv"})

	_, err := l.Load(context.Background(), "alpha")
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")
}

func TestLoader_RejectNonFinite(t *testing.T) {
	ms := scenarioStore()
	ms.objects["alpha/setups.csv"] = "rank,tickOffset,stop\n1,2,NaN\n"

	_, err := New(ms).Load(context.Background(), "alpha")
	assert.ErrorIs(t, err, setup.ErrNonFinite)

	l := New(ms)
	l.RejectNonFinite = false
	batch, err := l.Load(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Len(t, batch, 1)
}

func TestLoader_InvalidScenario(t *testing.T) {
	l := New(scenarioStore())
	for _, name := range []string{"", "..", "a/b", `a\b`} {
		_, err := l.Load(context.Background(), name)
		assert.ErrorIs(t, err, ErrInvalidScenario, "name %q", name)
	}
}

func TestLoader_Scenarios(t *testing.T) {
	names, err := New(scenarioStore()).Scenarios(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)
}

func TestScenarioOf(t *testing.T) {
	name, ok := ScenarioOf("alpha/setups.csv")
	assert.True(t, ok)
	assert.Equal(t, "alpha", name)

	name, ok = ScenarioOf("beta/summary.csv")
	assert.True(t, ok)
	assert.Equal(t, "beta", name)

	for _, key := range []string{"setups.csv", "alpha/notes.txt", "a/b/setups.csv"} {
		_, ok := ScenarioOf(key)
		assert.False(t, ok, key)
	}
}

func TestLoader_SummaryTextNeverReachesStats(t *testing.T) {
	ms := scenarioStore()
	ms.objects["alpha/summary.csv"] = "rank,netProfit,comment\n1,NaN,manual review\n"

	batch, err := New(ms).Load(context.Background(), "alpha")
	require.NoError(t, err)
	require.Len(t, batch, 2)

	for _, s := range batch {
		require.NoError(t, s.Validate())
	}
	assert.NotContains(t, batch[0].Stats, "comment")
	assert.NotContains(t, batch[0].Stats, "netProfit")
	assert.Equal(t, 0.0, batch[1].Stats["netProfit"], "unmatched summary row")
	assert.Equal(t, 0.0, batch[1].Stats["comment"], "unmatched summary row")
}
