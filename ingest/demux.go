// Package ingest turns raw upstream frames into typed events-package
// values and dispatches them onto the core's channel. It never blocks the
// caller on application work and never panics across the goroutine
// boundary it is normally called from.
package ingest

import (
	"encoding/json"
	"log"
	"strconv"

	"vnmarket-stream/events"
)

// fieldMap is the exhaustive PascalCase → snake_case translation table the
// upstream broker's field names must go through before a typed event can
// be built. Only mapped fields pass through; everything else is dropped.
var fieldMap = map[string]string{
	"Symbol":          "symbol",
	"StockSymbol":     "symbol",
	"Exchange":        "exchange",
	"LastPrice":       "last_price",
	"LastVol":         "last_vol",
	"TotalVol":        "total_vol",
	"TotalVal":        "total_val",
	"Change":          "change",
	"RatioChange":     "ratio_change",
	"TradingSession":  "trading_session",
	"Ceiling":         "ceiling",
	"Floor":           "floor",
	"RefPrice":        "ref_price",
	"Open":            "open",
	"High":            "high",
	"Low":             "low",
	"BidPrice1":       "bid_price_1",
	"BidVol1":         "bid_vol_1",
	"AskPrice1":       "ask_price_1",
	"AskVol1":         "ask_vol_1",
	"BidPrice2":       "bid_price_2",
	"BidVol2":         "bid_vol_2",
	"AskPrice2":       "ask_price_2",
	"AskVol2":         "ask_vol_2",
	"BidPrice3":       "bid_price_3",
	"BidVol3":         "bid_vol_3",
	"AskPrice3":       "ask_price_3",
	"AskVol3":         "ask_vol_3",
	"FBuyVol":         "f_buy_vol",
	"FSellVol":        "f_sell_vol",
	"FBuyVal":         "f_buy_val",
	"FSellVal":        "f_sell_val",
	"TotalRoom":       "total_room",
	"CurrentRoom":     "current_room",
	"IndexId":         "index_id",
	"IndexValue":      "index_value",
	"PriorIndexValue": "prior_index_value",
	"TotalQtty":       "total_qtty",
	"Advances":        "advances",
	"Declines":        "declines",
	"NoChanges":       "no_changes",
	"Time":            "time",
	"Volume":          "volume",
	"Close":           "close",
}

// NormalizeFields maps upstream PascalCase keys to the canonical snake_case
// schema. Unmapped keys are dropped.
func NormalizeFields(content map[string]any) map[string]any {
	out := make(map[string]any, len(content))
	for k, v := range content {
		if snake, ok := fieldMap[k]; ok {
			out[snake] = v
		}
	}
	return out
}

// ExtractContent unwraps the "Content"/"content" envelope if present,
// tolerating a flat payload.
func ExtractContent(raw []byte) (map[string]any, bool) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Printf("ingest: failed to parse frame as JSON: %v", err)
		return nil, false
	}
	if c, ok := doc["Content"].(map[string]any); ok {
		return c, true
	}
	if c, ok := doc["content"].(map[string]any); ok {
		return c, true
	}
	return doc, true
}

// Parsed is one typed event produced by ParseMessage, tagged with its RType
// so the caller can route it without a type switch at every call site.
type Parsed struct {
	RType string
	Trade *events.Trade
	Quote *events.Quote
	Foreign *events.Foreign
	Index *events.Index
	Bar   *events.Bar
}

// ParseMessage demuxes a raw frame into zero, one, or (for a combined "X"
// record) two typed events. Unknown RType or malformed payload: logged at
// debug level (here: a plain log line, since the pack carries no leveled
// logger) and dropped — never an error returned to the caller.
func ParseMessage(raw []byte) []Parsed {
	content, ok := ExtractContent(raw)
	if !ok {
		return nil
	}
	rtype, _ := content["RType"].(string)

	switch rtype {
	case "Trade":
		t, ok := parseTrade(NormalizeFields(content))
		if !ok {
			return nil
		}
		return []Parsed{{RType: "Trade", Trade: t}}
	case "Quote":
		q, ok := parseQuote(NormalizeFields(content))
		if !ok {
			return nil
		}
		return []Parsed{{RType: "Quote", Quote: q}}
	case "X":
		// Combined trade+quote record: yields both from the same payload.
		fields := NormalizeFields(content)
		var out []Parsed
		if t, ok := parseTrade(fields); ok {
			out = append(out, Parsed{RType: "Trade", Trade: t})
		}
		if q, ok := parseQuote(fields); ok {
			out = append(out, Parsed{RType: "Quote", Quote: q})
		}
		return out
	case "R":
		f, ok := parseForeign(NormalizeFields(content))
		if !ok {
			return nil
		}
		return []Parsed{{RType: "R", Foreign: f}}
	case "MI":
		idx, ok := parseIndex(NormalizeFields(content))
		if !ok {
			return nil
		}
		return []Parsed{{RType: "MI", Index: idx}}
	case "B":
		b, ok := parseBar(NormalizeFields(content))
		if !ok {
			return nil
		}
		return []Parsed{{RType: "B", Bar: b}}
	default:
		log.Printf("ingest: unknown RType %q, dropping frame", rtype)
		return nil
	}
}

func str(m map[string]any, k string) string {
	v, _ := m[k].(string)
	return v
}

func num(m map[string]any, k string) float64 {
	switch v := m[k].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

func intOf(m map[string]any, k string) int64 {
	return int64(num(m, k))
}

func parseTrade(m map[string]any) (*events.Trade, bool) {
	symbol := str(m, "symbol")
	if symbol == "" {
		return nil, false
	}
	return &events.Trade{
		Symbol:         symbol,
		Exchange:       str(m, "exchange"),
		LastPrice:      num(m, "last_price"),
		LastVol:        intOf(m, "last_vol"),
		TotalVol:       intOf(m, "total_vol"),
		TotalVal:       num(m, "total_val"),
		Change:         num(m, "change"),
		RatioChange:    num(m, "ratio_change"),
		TradingSession: events.TradingSession(str(m, "trading_session")),
	}, true
}

func parseQuote(m map[string]any) (*events.Quote, bool) {
	symbol := str(m, "symbol")
	if symbol == "" {
		return nil, false
	}
	return &events.Quote{
		Symbol:    symbol,
		Exchange:  str(m, "exchange"),
		Ceiling:   num(m, "ceiling"),
		Floor:     num(m, "floor"),
		RefPrice:  num(m, "ref_price"),
		Open:      num(m, "open"),
		High:      num(m, "high"),
		Low:       num(m, "low"),
		BidPrice1: num(m, "bid_price_1"),
		BidVol1:   intOf(m, "bid_vol_1"),
		AskPrice1: num(m, "ask_price_1"),
		AskVol1:   intOf(m, "ask_vol_1"),
		BidPrice2: num(m, "bid_price_2"),
		BidVol2:   intOf(m, "bid_vol_2"),
		AskPrice2: num(m, "ask_price_2"),
		AskVol2:   intOf(m, "ask_vol_2"),
		BidPrice3: num(m, "bid_price_3"),
		BidVol3:   intOf(m, "bid_vol_3"),
		AskPrice3: num(m, "ask_price_3"),
		AskVol3:   intOf(m, "ask_vol_3"),
	}, true
}

func parseForeign(m map[string]any) (*events.Foreign, bool) {
	symbol := str(m, "symbol")
	if symbol == "" {
		return nil, false
	}
	return &events.Foreign{
		Symbol:      symbol,
		FBuyVol:     intOf(m, "f_buy_vol"),
		FSellVol:    intOf(m, "f_sell_vol"),
		FBuyVal:     num(m, "f_buy_val"),
		FSellVal:    num(m, "f_sell_val"),
		TotalRoom:   intOf(m, "total_room"),
		CurrentRoom: intOf(m, "current_room"),
	}, true
}

func parseIndex(m map[string]any) (*events.Index, bool) {
	indexID := str(m, "index_id")
	if indexID == "" {
		return nil, false
	}
	return &events.Index{
		IndexID:         indexID,
		IndexValue:      num(m, "index_value"),
		PriorIndexValue: num(m, "prior_index_value"),
		Change:          num(m, "change"),
		RatioChange:     num(m, "ratio_change"),
		TotalQtty:       intOf(m, "total_qtty"),
		TotalVal:        num(m, "total_val"),
		Advances:        int(intOf(m, "advances")),
		Declines:        int(intOf(m, "declines")),
		NoChanges:       int(intOf(m, "no_changes")),
	}, true
}

func parseBar(m map[string]any) (*events.Bar, bool) {
	symbol := str(m, "symbol")
	if symbol == "" {
		return nil, false
	}
	return &events.Bar{
		Symbol: symbol,
		Time:   str(m, "time"),
		Open:   num(m, "open"),
		High:   num(m, "high"),
		Low:    num(m, "low"),
		Close:  num(m, "close"),
		Volume: intOf(m, "volume"),
	}, true
}
