package usecase_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nr_scanner/internal/feature/scan/domain/entity"
	"nr_scanner/internal/feature/scan/domain/signal"
	"nr_scanner/internal/feature/scan/usecase"
	"nr_scanner/internal/platform/clock"
)

// blockingRunner は release が閉じられるかキャンセルされるまでブロックする Runner です。
type blockingRunner struct {
	started chan string
	release chan struct{}
	err     error
	running int32
	maxSeen int32
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{started: make(chan string, 10), release: make(chan struct{})}
}

func (b *blockingRunner) RunScan(ctx context.Context, id string, p usecase.ScanParams, progress usecase.ProgressFunc) (*entity.ScanReport, error) {
	n := atomic.AddInt32(&b.running, 1)
	defer atomic.AddInt32(&b.running, -1)
	for {
		seen := atomic.LoadInt32(&b.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&b.maxSeen, seen, n) {
			break
		}
	}
	b.started <- id
	if progress != nil {
		progress(usecase.Progress{Done: 1, Total: 2, Symbol: "BTC"})
	}
	select {
	case <-b.release:
		if b.err != nil {
			return nil, b.err
		}
		return &entity.ScanReport{ID: id}, nil
	case <-ctx.Done():
		return &entity.ScanReport{ID: id, Canceled: true}, nil
	}
}

func validParams() usecase.ScanParams {
	return usecase.ScanParams{TopN: 5, Windows: signal.AllWindows}
}

func waitStarted(t *testing.T, b *blockingRunner) string {
	t.Helper()
	select {
	case id := <-b.started:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not start")
		return ""
	}
}

// TestRegistry_SubmitAndGet は実際のスキャンを投入し、完了後のスナップショットをテストします。
func TestRegistry_SubmitAndGet(t *testing.T) {
	t.Parallel()
	spot := &mockProvider{name: "spot", instruments: []string{"BTCUSDT"}, candles: map[string][]entity.Candle{"BTCUSDT": narrowing(20)}}
	uc := newScan(&mockRanking{markets: []entity.MarketRecord{market("BTC", "bitcoin", 1, 1)}}, []usecase.CandleProvider{spot}, nil)
	reg := usecase.NewRegistry(uc, clock.NewFake(scanNow), 0)

	job, err := reg.Submit(usecase.ScanParams{TopN: 1, Windows: signal.AllWindows})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, usecase.StatusQueued, job.Status)
	assert.Equal(t, entity.Daily, job.Params.Granularity, "params are normalized on submit")

	reg.Wait()
	got, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, usecase.StatusDone, got.Status)
	require.NotNil(t, got.Report)
	assert.Equal(t, job.ID, got.Report.ID)
	assert.Len(t, got.Report.Results, 1)
	assert.Equal(t, usecase.Progress{Done: 1, Total: 1, Symbol: "BTC", Scanned: 1, Hits: 1}, got.Progress)
	assert.Len(t, reg.List(), 1)
}

// TestRegistry_Errors は不正な入力と存在しないIDをテストします。
func TestRegistry_Errors(t *testing.T) {
	t.Parallel()
	reg := usecase.NewRegistry(newBlockingRunner(), nil, 0)

	_, err := reg.Submit(usecase.ScanParams{})
	assert.ErrorIs(t, err, usecase.ErrInvalidParams)
	assert.Empty(t, reg.List())

	_, err = reg.Get("missing")
	assert.ErrorIs(t, err, usecase.ErrScanNotFound)
	assert.ErrorIs(t, reg.Cancel("missing"), usecase.ErrScanNotFound)
}

// TestRegistry_FailedScan はスキャン全体のエラーが failed 状態になることをテストします。
func TestRegistry_FailedScan(t *testing.T) {
	t.Parallel()
	runner := newBlockingRunner()
	runner.err = errUpstream
	reg := usecase.NewRegistry(runner, nil, 0)

	job, err := reg.Submit(validParams())
	require.NoError(t, err)
	waitStarted(t, runner)
	close(runner.release)
	reg.Wait()

	got, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, usecase.StatusFailed, got.Status)
	assert.Equal(t, errUpstream.Error(), got.Error)
	assert.ErrorIs(t, reg.Cancel(job.ID), usecase.ErrScanFinished)
}

// TestRegistry_CancelAndQueue は同時実行が1つに制限され、キャンセルできることをテストします。
func TestRegistry_CancelAndQueue(t *testing.T) {
	t.Parallel()
	runner := newBlockingRunner()
	reg := usecase.NewRegistry(runner, nil, 0)

	first, err := reg.Submit(validParams())
	require.NoError(t, err)
	assert.Equal(t, first.ID, waitStarted(t, runner))

	second, err := reg.Submit(validParams())
	require.NoError(t, err)
	third, err := reg.Submit(validParams())
	require.NoError(t, err)

	got, err := reg.Get(second.ID)
	require.NoError(t, err)
	assert.Equal(t, usecase.StatusQueued, got.Status)

	// 待機中のジョブは実行されずにキャンセルされる
	require.NoError(t, reg.Cancel(third.ID))
	// 実行中のジョブは処理中のシンボルの後で止まる
	require.NoError(t, reg.Cancel(first.ID))

	assert.Equal(t, second.ID, waitStarted(t, runner))
	close(runner.release)
	reg.Wait()

	for id, expected := range map[string]usecase.Status{
		first.ID:  usecase.StatusCanceled,
		second.ID: usecase.StatusDone,
		third.ID:  usecase.StatusCanceled,
	} {
		got, err := reg.Get(id)
		require.NoError(t, err)
		assert.Equal(t, expected, got.Status, id)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.maxSeen))
	assert.Empty(t, runner.started, "the canceled queued job never ran")
}

// TestRegistry_Eviction は上限を超えた古い完了済みジョブが破棄されることをテストします。
func TestRegistry_Eviction(t *testing.T) {
	t.Parallel()
	runner := newBlockingRunner()
	close(runner.release)
	reg := usecase.NewRegistry(runner, nil, 2)

	var ids []string
	for i := 0; i < 3; i++ {
		job, err := reg.Submit(validParams())
		require.NoError(t, err)
		<-runner.started
		reg.Wait()
		ids = append(ids, job.ID)
	}

	_, err := reg.Get(ids[0])
	assert.ErrorIs(t, err, usecase.ErrScanNotFound)
	assert.Len(t, reg.List(), 2)
}
