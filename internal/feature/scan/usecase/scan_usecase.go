package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"nr_scanner/internal/feature/scan/domain"
	"nr_scanner/internal/feature/scan/domain/entity"
	"nr_scanner/internal/feature/scan/domain/signal"
	"nr_scanner/internal/platform/clock"
	"nr_scanner/internal/shared/redact"
)

// Progress is reported after every symbol.
type Progress struct {
	Done    int
	Total   int
	Symbol  string
	Scanned int
	Hits    int
}

// ProgressFunc receives scan progress. It may be nil.
type ProgressFunc func(Progress)

// ScanUsecase はユニバース解決、フォールバック取得、NR判定、ブレイクアウト追跡を順に実行します。
// シンボルは1つずつ処理し、キャンセルはシンボルの境界でのみ確認します。
type ScanUsecase struct {
	ranking   RankingSource
	exchanges []CandleProvider // 取引所の足（exchange close）
	utc       []CandleProvider // UTC日足に集約するソース
	resolver  *UniverseResolver
	chain     *FallbackChain
	settings  Settings
	secrets   []string
	clock     clock.Clock
	newID     func() string
}

// NewScanUsecase は新しい ScanUsecase を作成します。
func NewScanUsecase(
	ranking RankingSource,
	exchanges, utc []CandleProvider,
	symbolMap SymbolMapRepository,
	settings Settings,
	secrets []string,
	clk clock.Clock,
) *ScanUsecase {
	settings = settings.withDefaults()
	if clk == nil {
		clk = clock.Real{}
	}
	return &ScanUsecase{
		ranking:   ranking,
		exchanges: exchanges,
		utc:       utc,
		resolver:  NewUniverseResolver(ranking, symbolMap, settings),
		chain:     NewFallbackChain(settings.MinCandles, settings.KlineLimit),
		settings:  settings,
		secrets:   secrets,
		clock:     clk,
		newID:     uuid.NewString,
	}
}

// Providers はクローズモードに応じたプロバイダの優先順を返します。
func (s *ScanUsecase) Providers(mode CloseMode) []CandleProvider {
	out := make([]CandleProvider, 0, len(s.exchanges)+len(s.utc))
	if mode == CloseUTC {
		out = append(out, s.utc...)
		return append(out, s.exchanges...)
	}
	out = append(out, s.exchanges...)
	return append(out, s.utc...)
}

// Preflight は必須の認証情報を検証します。失敗した場合スキャンは開始しません。
func (s *ScanUsecase) Preflight(mode CloseMode) error {
	checks := []any{s.ranking}
	for _, p := range s.Providers(mode) {
		checks = append(checks, p)
	}
	for _, c := range checks {
		if cc, ok := c.(CredentialChecker); ok {
			if err := cc.CheckCredentials(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run はスキャンを実行します。設定エラーとユニバース解決の失敗のみがエラーとして返り、
// シンボル単位の失敗はレポートの Skipped / Errors に蓄積されます。
// ctx がキャンセルされた場合、処理中のシンボルを完了してから Canceled=true のレポートを返します。
func (s *ScanUsecase) Run(ctx context.Context, p ScanParams, progress ProgressFunc) (*entity.ScanReport, error) {
	return s.RunScan(ctx, s.newID(), p, progress)
}

// RunScan は指定したIDでスキャンを実行します。
func (s *ScanUsecase) RunScan(ctx context.Context, id string, p ScanParams, progress ProgressFunc) (*entity.ScanReport, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Preflight(p.CloseMode); err != nil {
		return nil, err
	}

	report := &entity.ScanReport{
		ID:          id,
		Granularity: p.Granularity,
		StartedAt:   s.clock.Now(),
		Counters:    entity.ScanCounters{SkippedByReason: map[string]int{}},
	}

	// 進行中の上流呼び出しは中断しない
	work := context.WithoutCancel(ctx)

	providers := s.Providers(p.CloseMode)
	uni, err := s.resolver.Resolve(work, p, providers)
	if err != nil {
		return nil, s.redactErr(err)
	}

	report.Missing = uni.Missing
	report.Unresolved = uni.Unresolved
	for _, sk := range uni.Skipped {
		s.addSkipped(report, sk)
	}
	report.Counters.Universe = len(uni.Entries) + len(uni.Skipped) + len(uni.Unresolved)
	report.Counters.Unresolved = len(uni.Unresolved)

	slog.Info("scan started",
		"scan_id", report.ID,
		"mode", p.Mode,
		"granularity", p.Granularity,
		"close_mode", p.CloseMode,
		"symbols", len(uni.Entries),
		"unresolved", len(uni.Unresolved),
	)

	for i, entry := range uni.Entries {
		if ctx.Err() != nil {
			report.Canceled = true
			slog.Info("scan canceled", "scan_id", report.ID, "done", i, "total", len(uni.Entries))
			break
		}
		s.evaluate(work, report, p, entry)
		if progress != nil {
			progress(Progress{
				Done:    i + 1,
				Total:   len(uni.Entries),
				Symbol:  entry.Request.Symbol,
				Scanned: report.Counters.Scanned,
				Hits:    len(report.Results),
			})
		}
	}

	sort.SliceStable(report.Results, func(i, j int) bool {
		return report.Results[i].MarketCap > report.Results[j].MarketCap
	})
	report.Counters.Hits = len(report.Results)
	report.Counters.Errors = len(report.Errors)
	report.FinishedAt = s.clock.Now()

	slog.Info("scan finished",
		"scan_id", report.ID,
		"scanned", report.Counters.Scanned,
		"hits", report.Counters.Hits,
		"skipped", report.Counters.Skipped,
		"errors", report.Counters.Errors,
		"unresolved", report.Counters.Unresolved,
		"canceled", report.Canceled,
	)
	return report, nil
}

// evaluate は1シンボルを処理します。失敗してもスキャンは続行します。
func (s *ScanUsecase) evaluate(ctx context.Context, report *entity.ScanReport, p ScanParams, entry UniverseEntry) {
	req := entry.Request

	series, attempts, err := s.chain.Run(ctx, entry, p.Granularity)
	s.redactAttempts(attempts)
	if err != nil {
		if reason := SkipReason(err); reason != "" {
			s.addSkipped(report, entity.SkippedSymbol{Symbol: req.Symbol, Reason: reason, Attempts: attempts})
			return
		}
		msg := s.errorMessage(req, err)
		slog.Error("failed to scan symbol", "symbol", req.Symbol, "error", msg)
		report.Errors = append(report.Errors, entity.SymbolError{Symbol: req.Symbol, Message: msg})
		return
	}
	report.Counters.Scanned++

	if res, ok := s.detect(req, series, p); ok {
		res.Attempts = attempts
		report.Results = append(report.Results, res)
	}
}

// detect は NR フラグとブレイクアウト状態を計算し、ヒットした場合に結果を返します。
func (s *ScanUsecase) detect(req entity.SymbolRequest, series entity.CandleSeries, p ScanParams) (entity.ScanResult, bool) {
	candles := series.Candles
	history := signal.History(candles)
	flags := history[len(history)-1]
	bo := signal.TrackBreakout(candles, history)
	last := candles[len(candles)-1]
	inRange := bo.InRange(last.Close, s.settings.InRangeTolerance)

	hit := flags.HitAny(p.Windows) || (p.IncludeInRange && inRange)
	if !hit {
		return entity.ScanResult{}, false
	}

	res := entity.ScanResult{
		Symbol:      req.Symbol,
		Name:        req.Name,
		CanonicalID: req.CanonicalID,
		NR4:         flags.NR4,
		NR7:         flags.NR7,
		NR10:        flags.NR10,
		Provider:    series.Provider,
		Instrument:  series.Instrument,
		Granularity: series.Granularity,
		LastClosed:  last.Time,
		LastRange:   last.Range(),
		HasSetup:    bo.HasSetup,
		SetupHigh:   bo.SetupHigh,
		SetupLow:    bo.SetupLow,
		Direction:   string(bo.Direction),
		Tag:         bo.Tag,
		UpCount:     bo.UpCount,
		DownCount:   bo.DownCount,
		InRange:     inRange,
		MarketCap:   req.MarketCap,
		Price:       req.Price,
		Volume24h:   req.Volume24h,
	}
	if bo.HasSetup {
		res.SetupTime = bo.SetupTime
	}
	return res, true
}

// SkipReason はスキップとして扱うエラーの理由を返します。エラーとして扱う場合は空文字です。
func SkipReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		return ReasonInsufficientData
	case errors.Is(err, domain.ErrUnsupportedGranularity):
		return ReasonUnsupported
	case errors.Is(err, domain.ErrNoInstrument):
		return ReasonNoInstrument
	}
	return ""
}

func (s *ScanUsecase) addSkipped(report *entity.ScanReport, sk entity.SkippedSymbol) {
	report.Skipped = append(report.Skipped, sk)
	report.Counters.Skipped++
	report.Counters.SkippedByReason[sk.Reason]++
}

func (s *ScanUsecase) errorMessage(req entity.SymbolRequest, err error) string {
	id := req.CanonicalID
	if id == "" {
		id = "-"
	}
	msg := fmt.Sprintf("%s (%s) -> %v", req.Symbol, id, err)
	return redact.Truncate(redact.Secrets(msg, s.secrets...), s.settings.ErrorMessageLimit)
}

func (s *ScanUsecase) redactAttempts(attempts []entity.ProviderAttempt) {
	for i := range attempts {
		attempts[i].Reason = redact.Secrets(attempts[i].Reason, s.secrets...)
	}
}

func (s *ScanUsecase) redactErr(err error) error {
	msg := redact.Secrets(err.Error(), s.secrets...)
	if msg == err.Error() {
		return err
	}
	return errors.New(msg)
}
