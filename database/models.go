package database

import "time"

// TickRecord is one persisted classified trade.
type TickRecord struct {
	Symbol    string    `gorm:"column:symbol;index"`
	Timestamp time.Time `gorm:"column:timestamp;index"`
	Price     float64   `gorm:"column:price"`
	Volume    int64     `gorm:"column:volume"`
	Side      string    `gorm:"column:side"`
	Bid       float64   `gorm:"column:bid"`
	Ask       float64   `gorm:"column:ask"`
}

func (TickRecord) TableName() string { return "tick_data" }

// ForeignFlowRecord is one persisted foreign-flow observation.
type ForeignFlowRecord struct {
	Symbol    string    `gorm:"column:symbol;index"`
	Timestamp time.Time `gorm:"column:timestamp;index"`
	BuyVol    int64     `gorm:"column:buy_vol"`
	SellVol   int64     `gorm:"column:sell_vol"`
	NetVol    int64     `gorm:"column:net_vol"`
	BuyValue  float64   `gorm:"column:buy_value"`
	SellValue float64   `gorm:"column:sell_value"`
}

func (ForeignFlowRecord) TableName() string { return "foreign_flow" }

// IndexSnapshotRecord is one persisted index snapshot.
type IndexSnapshotRecord struct {
	IndexName string    `gorm:"column:index_name;index"`
	Timestamp time.Time `gorm:"column:timestamp;index"`
	Value     float64   `gorm:"column:value"`
	ChangePct float64   `gorm:"column:change_pct"`
	Volume    int64     `gorm:"column:volume"`
}

func (IndexSnapshotRecord) TableName() string { return "index_snapshots" }

// DerivativeRecord is one persisted futures basis observation.
type DerivativeRecord struct {
	Contract     string    `gorm:"column:contract;index"`
	Timestamp    time.Time `gorm:"column:timestamp;index"`
	Price        float64   `gorm:"column:price"`
	Basis        float64   `gorm:"column:basis"`
	OpenInterest int64     `gorm:"column:open_interest"`
}

func (DerivativeRecord) TableName() string { return "derivatives" }

// AllModels lists every model AutoMigrate should create/update.
func AllModels() []any {
	return []any{
		&TickRecord{},
		&ForeignFlowRecord{},
		&IndexSnapshotRecord{},
		&DerivativeRecord{},
	}
}
