// Package scheduler は定期スキャンを cron 式で登録します。
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Submitter queues one scan.
type Submitter func() (string, error)

// New は UTC で評価される cron スケジューラを作成し、spec ごとに submit を登録します。
// 開始は呼び出し側が Start で行います。
func New(spec string, submit Submitter) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	_, err := c.AddFunc(spec, func() {
		id, err := submit()
		if err != nil {
			slog.Error("scheduled scan failed to submit", "error", err)
			return
		}
		slog.Info("scheduled scan submitted", "scan_id", id)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid scan schedule %q: %w", spec, err)
	}
	return c, nil
}
