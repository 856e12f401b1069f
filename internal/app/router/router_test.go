package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	scanhandler "nr_scanner/internal/feature/scan/transport/handler"
	"nr_scanner/internal/feature/scan/usecase"
	"nr_scanner/internal/platform/http/handler"
)

func TestNewRouter_Routes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := usecase.NewRegistry(nil, nil, 0)
	r := NewRouter(scanhandler.NewScanHandler(reg), handler.NewHealth(nil))

	tests := []struct {
		method         string
		path           string
		expectedStatus int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodHead, "/healthz", http.StatusOK},
		{http.MethodGet, "/scans", http.StatusOK},
		{http.MethodGet, "/scans/unknown", http.StatusNotFound},
		{http.MethodGet, "/scans/unknown/csv", http.StatusNotFound},
		{http.MethodDelete, "/scans/unknown", http.StatusNotFound},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
