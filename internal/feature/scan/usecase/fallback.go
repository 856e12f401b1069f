package usecase

import (
	"context"
	"errors"
	"fmt"

	"nr_scanner/internal/feature/scan/domain"
	"nr_scanner/internal/feature/scan/domain/entity"
)

// stepState is the state of one provider in the fallback chain.
type stepState int

const (
	stepNotTried stepState = iota
	stepFailed
	stepSucceeded
)

type chainStep struct {
	pi      ProviderInstrument
	state   stepState
	attempt entity.ProviderAttempt
	err     error
}

// FallbackChain はプロバイダを優先順に試し、十分な確定足を返した最初のものを採用します。
// 一度成功したら以降のプロバイダは試しません。
type FallbackChain struct {
	minCandles int
	limit      int
}

// NewFallbackChain は FallbackChain を生成します。
func NewFallbackChain(minCandles, limit int) *FallbackChain {
	d := DefaultSettings()
	if minCandles <= 0 {
		minCandles = d.MinCandles
	}
	if limit <= 0 {
		limit = d.KlineLimit
	}
	return &FallbackChain{minCandles: minCandles, limit: limit}
}

// Run は1シンボル分のチェーンを実行します。試行したプロバイダごとの結果を attempts に返します。
// 成功しなかった場合のエラーは、取得エラーがあればそれを、なければスキップ理由の番兵エラーを包んだものです。
func (f *FallbackChain) Run(ctx context.Context, entry UniverseEntry, g entity.Granularity) (entity.CandleSeries, []entity.ProviderAttempt, error) {
	steps := make([]chainStep, len(entry.Instruments))
	for i, pi := range entry.Instruments {
		steps[i] = chainStep{pi: pi}
	}

	var series entity.CandleSeries
	for i := range steps {
		st := &steps[i]
		s, err := f.try(ctx, st, g)
		if err == nil {
			series = s
			break
		}
	}

	attempts := make([]entity.ProviderAttempt, 0, len(steps))
	var lastErr, skipErr error
	for _, st := range steps {
		switch st.state {
		case stepNotTried:
			continue
		case stepSucceeded:
			attempts = append(attempts, st.attempt)
			return series, attempts, nil
		case stepFailed:
			attempts = append(attempts, st.attempt)
			if st.attempt.Outcome == entity.OutcomeError {
				lastErr = st.err
			} else {
				skipErr = moreSpecific(skipErr, st.err)
			}
		}
	}
	if lastErr != nil {
		return entity.CandleSeries{}, attempts, lastErr
	}
	if skipErr == nil {
		skipErr = domain.ErrNoInstrument
	}
	return entity.CandleSeries{}, attempts, skipErr
}

// try transitions st from notTried to failed or succeeded.
func (f *FallbackChain) try(ctx context.Context, st *chainStep, g entity.Granularity) (entity.CandleSeries, error) {
	name := st.pi.Provider.Name()
	st.attempt = entity.ProviderAttempt{Provider: name, Instrument: st.pi.Instrument}

	fail := func(outcome entity.Outcome, err error) (entity.CandleSeries, error) {
		st.state = stepFailed
		st.err = err
		st.attempt.Outcome = outcome
		st.attempt.Reason = err.Error()
		return entity.CandleSeries{}, err
	}

	if st.pi.ListErr != nil {
		return fail(entity.OutcomeError, fmt.Errorf("%s instrument list unavailable: %w", name, st.pi.ListErr))
	}
	if st.pi.Instrument == "" {
		return fail(entity.OutcomeSkipped, fmt.Errorf("%s: %w", name, domain.ErrNoInstrument))
	}

	s, err := st.pi.Provider.FetchClosedCandles(ctx, st.pi.Instrument, g, f.limit)
	switch {
	case errors.Is(err, domain.ErrUnsupportedGranularity):
		return fail(entity.OutcomeSkipped, err)
	case err != nil:
		return fail(entity.OutcomeError, fmt.Errorf("%s %s: %w", name, st.pi.Instrument, err))
	case len(s.Candles) < f.minCandles:
		return fail(entity.OutcomeSkipped, fmt.Errorf("%s %s: %w (%d < %d closed candles)",
			name, st.pi.Instrument, domain.ErrInsufficientData, len(s.Candles), f.minCandles))
	}

	st.state = stepSucceeded
	st.attempt.Outcome = entity.OutcomeSuccess
	return s, nil
}

// moreSpecific keeps the skip reason that is most informative:
// insufficient data, then unsupported granularity, then no instrument.
func moreSpecific(cur, next error) error {
	rank := func(err error) int {
		switch {
		case err == nil:
			return 0
		case errors.Is(err, domain.ErrInsufficientData):
			return 3
		case errors.Is(err, domain.ErrUnsupportedGranularity):
			return 2
		default:
			return 1
		}
	}
	if rank(next) > rank(cur) {
		return next
	}
	return cur
}
