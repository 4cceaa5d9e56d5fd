// Package events holds the typed upstream market events and the derived
// records the core produces from them. The upstream event structs map 1:1
// to a field set described by the broker's own schema after normalization;
// the derived records are this service's own shapes.
package events

import "time"

// TradingSession tags the auction phase a trade occurred in.
type TradingSession string

const (
	SessionATO TradingSession = "ATO"
	SessionATC TradingSession = "ATC"
	SessionLO  TradingSession = "LO"
	SessionRaw TradingSession = ""
)

// Trade is a single per-trade print on Channel X.
type Trade struct {
	Symbol         string
	Exchange       string
	LastPrice      float64
	LastVol        int64 // per-trade, NOT cumulative
	TotalVol       int64
	TotalVal       float64
	Change         float64
	RatioChange    float64
	TradingSession TradingSession
}

// Quote is a top-of-book snapshot on Channel X.
type Quote struct {
	Symbol    string
	Exchange  string
	Ceiling   float64
	Floor     float64
	RefPrice  float64
	Open      float64
	High      float64
	Low       float64
	BidPrice1 float64
	BidVol1   int64
	AskPrice1 float64
	AskVol1   int64
	BidPrice2 float64
	BidVol2   int64
	AskPrice2 float64
	AskVol2   int64
	BidPrice3 float64
	BidVol3   int64
	AskPrice3 float64
	AskVol3   int64
}

// Foreign is the cumulative-since-open foreign flow on Channel R.
type Foreign struct {
	Symbol       string
	FBuyVol      int64
	FSellVol     int64
	FBuyVal      float64
	FSellVal     float64
	TotalRoom    int64
	CurrentRoom  int64
}

// Index is a Channel MI index snapshot.
type Index struct {
	IndexID          string
	IndexValue       float64
	PriorIndexValue  float64
	Change           float64
	RatioChange      float64
	TotalQtty        int64
	TotalVal         float64
	Advances         int
	Declines         int
	NoChanges        int
}

// Bar is a Channel B OHLC bar.
type Bar struct {
	Symbol string
	Time   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// TradeType is the classifier's verdict for a single trade.
type TradeType string

const (
	MuaChuDong TradeType = "mua_chu_dong" // active buy
	BanChuDong TradeType = "ban_chu_dong" // active sell
	Neutral    TradeType = "neutral"
)

// ClassifiedTrade is a Trade enriched with the classifier's verdict, ready
// for persistence and for session aggregation.
type ClassifiedTrade struct {
	Symbol         string
	Price          float64
	Volume         int64 // per-trade
	Value          float64
	TradeType      TradeType
	BidPrice       float64
	AskPrice       float64
	Timestamp      time.Time
	TradingSession TradingSession
}

// SessionBreakdown is the mua/ban/neutral volume split for one auction phase.
type SessionBreakdown struct {
	MuaVol     int64 `json:"mua_vol"`
	BanVol     int64 `json:"ban_vol"`
	NeutralVol int64 `json:"neutral_vol"`
	TotalVol   int64 `json:"total_vol"`
}

// SessionStats is the running per-symbol active buy/sell tally.
type SessionStats struct {
	Symbol      string    `json:"symbol"`
	MuaVol      int64     `json:"mua_chu_dong_volume"`
	MuaVal      float64   `json:"mua_chu_dong_value"`
	BanVol      int64     `json:"ban_chu_dong_volume"`
	BanVal      float64   `json:"ban_chu_dong_value"`
	NeutralVol  int64     `json:"neutral_volume"`
	TotalVol    int64     `json:"total_volume"`
	LastUpdated time.Time `json:"last_updated"`

	ATO        SessionBreakdown `json:"ato"`
	Continuous SessionBreakdown `json:"continuous"`
	ATC        SessionBreakdown `json:"atc"`
}

// ForeignState is the per-symbol foreign-flow state with rolling speed and
// acceleration.
type ForeignState struct {
	Symbol           string    `json:"symbol"`
	BuyVolume        int64     `json:"buy_volume"`
	SellVolume       int64     `json:"sell_volume"`
	NetVolume        int64     `json:"net_volume"`
	BuyValue         float64   `json:"buy_value"`
	SellValue        float64   `json:"sell_value"`
	NetValue         float64   `json:"net_value"`
	TotalRoom        int64     `json:"total_room"`
	CurrentRoom      int64     `json:"current_room"`
	BuySpeedPerMin   float64   `json:"buy_speed_per_min"`
	SellSpeedPerMin  float64   `json:"sell_speed_per_min"`
	BuyAcceleration  float64   `json:"buy_acceleration"`
	SellAcceleration float64   `json:"sell_acceleration"`
	LastUpdated      time.Time `json:"last_updated"`
}

// ForeignSummary aggregates ForeignState across symbols.
type ForeignSummary struct {
	TotalBuyValue  float64        `json:"total_buy_value"`
	TotalSellValue float64        `json:"total_sell_value"`
	TotalNetValue  float64        `json:"total_net_value"`
	TopBuy         []ForeignState `json:"top_buy"`
	TopSell        []ForeignState `json:"top_sell"`
}

// IndexData is the latest snapshot plus intraday sparkline for one index.
type IndexData struct {
	IndexID     string          `json:"index_id"`
	Value       float64         `json:"value"`
	PriorValue  float64         `json:"prior_value"`
	Change      float64         `json:"change"`
	RatioChange float64         `json:"ratio_change"`
	TotalVolume int64           `json:"total_volume"`
	Advances    int             `json:"advances"`
	Declines    int             `json:"declines"`
	NoChanges   int             `json:"no_changes"`
	Intraday    []IntradayPoint `json:"intraday"`
	LastUpdated time.Time       `json:"last_updated"`
}

// AdvanceRatio is advances / (advances+declines), or 0 when both are zero.
func (d IndexData) AdvanceRatio() float64 {
	total := d.Advances + d.Declines
	if total == 0 {
		return 0
	}
	return float64(d.Advances) / float64(total)
}

// IntradayPoint is one sparkline sample.
type IntradayPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// BasisPoint is a futures-spot basis observation.
type BasisPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	FuturesSymbol string    `json:"futures_symbol"`
	FuturesPrice  float64   `json:"futures_price"`
	SpotValue     float64   `json:"spot_value"`
	Basis         float64   `json:"basis"`
	BasisPct      float64   `json:"basis_pct"`
	IsPremium     bool      `json:"is_premium"`
}

// DerivativesData is the current state of the active futures contract.
type DerivativesData struct {
	FuturesSymbol string      `json:"futures_symbol"`
	Price         float64     `json:"price"`
	Volume        int64       `json:"volume"`
	Change        float64     `json:"change"`
	ChangePct     float64     `json:"change_pct"`
	CurrentBasis  *BasisPoint `json:"current_basis"`
	IsPremium     bool        `json:"is_premium"`
}

// AlertType discriminates the four anomaly signal kinds.
type AlertType string

const (
	AlertVolumeSpike         AlertType = "VOLUME_SPIKE"
	AlertPriceBreakout       AlertType = "PRICE_BREAKOUT"
	AlertForeignAcceleration AlertType = "FOREIGN_ACCELERATION"
	AlertBasisDivergence     AlertType = "BASIS_DIVERGENCE"
)

// AlertSeverity is the urgency tag attached to an alert.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// Alert is a single anomaly signal, ready for dedup, ring storage and
// broadcast.
type Alert struct {
	AlertType AlertType      `json:"alert_type"`
	Severity  AlertSeverity  `json:"severity"`
	Symbol    string         `json:"symbol"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

// MarketSnapshot is the full payload broadcast on the "market" channel.
type MarketSnapshot struct {
	Quotes         map[string]SessionStats    `json:"quotes"`
	Prices         map[string]PriceRef        `json:"prices"`
	Indices        map[string]IndexData       `json:"indices"`
	ForeignSummary ForeignSummary             `json:"foreign_summary"`
	Derivatives    *DerivativesData           `json:"derivatives"`
}

// PriceRef is the last-seen price triple cached for quick lookups in a
// market snapshot.
type PriceRef struct {
	LastPrice   float64 `json:"last_price"`
	Change      float64 `json:"change"`
	RatioChange float64 `json:"ratio_change"`
}
