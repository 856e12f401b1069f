package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	scanadapters "nr_scanner/internal/feature/scan/adapters"
)

// TestDialector はドライバ名ごとにダイアレクタが選択されることを検証します。
func TestDialector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{"sqlite default path", Config{Driver: "sqlite"}, "sqlite", false},
		{"postgres", Config{Driver: "postgres", DSN: "host=localhost user=nr dbname=nr"}, "postgres", false},
		{"postgres without dsn", Config{Driver: "postgres"}, "", true},
		{"unknown driver", Config{Driver: "mysql"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d, err := Dialector(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, d.Name())
		})
	}
}

// TestConnectWithRetry_SuccessOnFirstTry は初回接続成功時にリトライせずDBを返すことを検証します。
func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attempts := 0
	db, err := ConnectWithRetry(5*time.Second, func() (*gorm.DB, error) {
		attempts++
		return mockDB, nil
	})

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 1, attempts)
}

// TestConnectWithRetry_RetriesOnFailure は接続失敗時にリトライして最終的に成功することを検証します。
func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	// retryInterval を書き換えるため並列実行しない
	orig := retryInterval
	retryInterval = 10 * time.Millisecond
	t.Cleanup(func() { retryInterval = orig })

	mockDB := &gorm.DB{}
	attempts := 0
	db, err := ConnectWithRetry(5*time.Second, func() (*gorm.DB, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return mockDB, nil
	})

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 3, attempts)
}

// TestConnectWithRetry_TimeoutAfterRetries はタイムアウト後にエラーが返されることを検証します。
func TestConnectWithRetry_TimeoutAfterRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := ConnectWithRetry(50*time.Millisecond, func() (*gorm.DB, error) {
		attempts++
		return nil, errors.New("connection refused")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.GreaterOrEqual(t, attempts, 1)
}

// TestOpenDB_SQLiteMigrates はSQLiteファイルに接続しテーブルを作成することを検証します。
func TestOpenDB_SQLiteMigrates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nr.db")
	db, err := OpenDB(Config{Driver: "sqlite", DSN: path, Migrate: true, Timeout: time.Second})
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&scanadapters.SymbolMapModel{}))
}

// TestConfig_Enabled はドライバ未設定時に永続化が無効になることを検証します。
func TestConfig_Enabled(t *testing.T) {
	t.Parallel()
	assert.True(t, Config{Driver: "postgres"}.Enabled())
	assert.False(t, Config{}.Enabled())
}
