package usecase

// Settings はスキャンのヒューリスティックな閾値です。すべて設定で変更できます。
type Settings struct {
	QuotePreference   []string `yaml:"quote_preference"`    // クォートの優先順
	MinCandles        int      `yaml:"min_candles"`         // 判定に必要な確定足の最小本数
	KlineLimit        int      `yaml:"kline_limit"`         // 1回の取得本数
	StableSymbols     []string `yaml:"stable_symbols"`      // ステーブルコインとみなすティッカー
	StableTolerance   float64  `yaml:"stable_tolerance"`    // 価格が 1.0±tol ならステーブルとみなす
	InRangeTolerance  float64  `yaml:"in_range_tolerance"`  // in-range 判定の許容幅（比率）
	ErrorMessageLimit int      `yaml:"error_message_limit"` // エラー詳細の最大文字数
	ListRankingN      int      `yaml:"list_ranking_n"`      // list モードで top_n 未指定時に参照するランキングの深さ
	VsCurrency        string   `yaml:"-"`                   // ランキングの価格通貨
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		QuotePreference: []string{"USDT", "USDC", "FDUSD", "USD", "BTC", "ETH"},
		MinCandles:      12,
		KlineLimit:      200,
		StableSymbols: []string{
			"USDT", "USDC", "DAI", "TUSD", "FDUSD", "USDE", "USDD", "USDP", "BUSD", "EURC",
			"USD1", "RLUSD", "PYUSD", "GUSD", "FRAX", "LUSD", "USTC", "U", "USDS",
		},
		StableTolerance:   0.02,
		InRangeTolerance:  0,
		ErrorMessageLimit: 170,
		ListRankingN:      150,
		VsCurrency:        "usd",
	}
}

// withDefaults fills zero values from DefaultSettings.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if len(s.QuotePreference) == 0 {
		s.QuotePreference = d.QuotePreference
	}
	if s.MinCandles <= 0 {
		s.MinCandles = d.MinCandles
	}
	if s.KlineLimit <= 0 {
		s.KlineLimit = d.KlineLimit
	}
	if s.StableSymbols == nil {
		s.StableSymbols = d.StableSymbols
	}
	if s.ErrorMessageLimit <= 0 {
		s.ErrorMessageLimit = d.ErrorMessageLimit
	}
	if s.ListRankingN <= 0 {
		s.ListRankingN = d.ListRankingN
	}
	if s.VsCurrency == "" {
		s.VsCurrency = d.VsCurrency
	}
	return s
}
