// Package adapters はscanフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nr_scanner/internal/feature/scan/domain/entity"
	"nr_scanner/internal/feature/scan/usecase"
)

// symbolMapGorm はSymbolMapRepositoryのGORM実装です（SQLite/Postgres）。
type symbolMapGorm struct {
	db *gorm.DB
}

var _ usecase.SymbolMapRepository = (*symbolMapGorm)(nil)

// NewSymbolMapRepository は指定されたDB接続でリポジトリを生成します。
func NewSymbolMapRepository(db *gorm.DB) *symbolMapGorm {
	return &symbolMapGorm{db: db}
}

// SymbolMapModel はティッカーと正規IDの対応を保持するテーブルです。
type SymbolMapModel struct {
	ID          uint      `gorm:"primaryKey"`
	Symbol      string    `gorm:"size:32;not null;uniqueIndex"`
	CanonicalID string    `gorm:"size:128;not null"`
	Name        string    `gorm:"size:255;not null;default:''"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (SymbolMapModel) TableName() string {
	return "symbol_maps"
}

// FindBySymbols は指定ティッカーの対応を返します。キーは大文字のティッカーです。
func (r *symbolMapGorm) FindBySymbols(ctx context.Context, symbols []string) (map[string]entity.SymbolMapping, error) {
	out := make(map[string]entity.SymbolMapping, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	upper := make([]string, 0, len(symbols))
	for _, s := range symbols {
		upper = append(upper, strings.ToUpper(s))
	}

	var rows []SymbolMapModel
	if err := r.db.WithContext(ctx).
		Where("symbol IN ?", upper).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, m := range rows {
		out[m.Symbol] = entity.SymbolMapping{Symbol: m.Symbol, CanonicalID: m.CanonicalID, Name: m.Name}
	}
	return out, nil
}

// UpsertBatch はティッカー単位で対応を挿入または更新します。
func (r *symbolMapGorm) UpsertBatch(ctx context.Context, mappings []entity.SymbolMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	seen := make(map[string]int, len(mappings))
	ms := make([]SymbolMapModel, 0, len(mappings))
	for _, e := range mappings {
		if e.Symbol == "" || e.CanonicalID == "" {
			continue
		}
		sym := strings.ToUpper(e.Symbol)
		m := SymbolMapModel{Symbol: sym, CanonicalID: e.CanonicalID, Name: e.Name}
		// 同一バッチ内の重複は後勝ち
		if i, ok := seen[sym]; ok {
			ms[i] = m
			continue
		}
		seen[sym] = len(ms)
		ms = append(ms, m)
	}
	if len(ms) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"canonical_id", "name", "updated_at"}),
	}).Create(&ms).Error
}
