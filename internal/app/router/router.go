// Package router はHTTPルーティングを定義します。
package router

import (
	"github.com/gin-gonic/gin"

	scanhandler "nr_scanner/internal/feature/scan/transport/handler"
)

// NewRouter はスキャンAPIとヘルスチェックのルートを登録します。
func NewRouter(scan *scanhandler.ScanHandler, health gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// 導通確認用
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)

	scans := r.Group("/scans")
	{
		scans.POST("", scan.Create)
		scans.GET("", scan.List)
		scans.GET("/:id", scan.Get)
		scans.GET("/:id/csv", scan.CSV)
		scans.DELETE("/:id", scan.Cancel)
	}
	return r
}
