package database

import (
	"context"
	"time"
)

// Repository answers the read-side history queries the HTTP API exposes.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// TickHistory returns ticks for symbol within [since, now), oldest first.
func (r *Repository) TickHistory(ctx context.Context, symbol string, since time.Time, limit int) ([]TickRecord, error) {
	var out []TickRecord
	q := r.db.Gorm.WithContext(ctx).
		Where("symbol = ? AND timestamp >= ?", symbol, since).
		Order("timestamp ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, WrapDBError("TickHistory", err)
	}
	return out, nil
}

// ForeignFlowHistory returns foreign-flow records for symbol within [since, now).
func (r *Repository) ForeignFlowHistory(ctx context.Context, symbol string, since time.Time, limit int) ([]ForeignFlowRecord, error) {
	var out []ForeignFlowRecord
	q := r.db.Gorm.WithContext(ctx).
		Where("symbol = ? AND timestamp >= ?", symbol, since).
		Order("timestamp ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, WrapDBError("ForeignFlowHistory", err)
	}
	return out, nil
}

// IndexHistory returns index snapshots for indexName within [since, now).
func (r *Repository) IndexHistory(ctx context.Context, indexName string, since time.Time, limit int) ([]IndexSnapshotRecord, error) {
	var out []IndexSnapshotRecord
	q := r.db.Gorm.WithContext(ctx).
		Where("index_name = ? AND timestamp >= ?", indexName, since).
		Order("timestamp ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, WrapDBError("IndexHistory", err)
	}
	return out, nil
}

// DerivativesHistory returns basis observations for contract within [since, now).
func (r *Repository) DerivativesHistory(ctx context.Context, contract string, since time.Time, limit int) ([]DerivativeRecord, error) {
	var out []DerivativeRecord
	q := r.db.Gorm.WithContext(ctx).
		Where("contract = ? AND timestamp >= ?", contract, since).
		Order("timestamp ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, WrapDBError("DerivativesHistory", err)
	}
	return out, nil
}
