package cache

import (
	"time"

	"nr_scanner/internal/feature/scan/domain/entity"
)

// TimeUntilNextClose は次の足が確定する（期間境界に達する）までの期間を返します。
// ローソク足のキャッシュはこの時点まで有効です。
func TimeUntilNextClose(g entity.Granularity, now time.Time) time.Duration {
	return g.PeriodEnd(g.PeriodStart(now)).Sub(now)
}
