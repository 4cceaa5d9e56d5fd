package ingest

import "testing"

func TestParseMessageTrade(t *testing.T) {
	raw := []byte(`{"Content":{"RType":"Trade","Symbol":"VNM","LastPrice":85.5,"LastVol":100,"TotalVol":50000,"Change":0.5,"RatioChange":0.59}}`)
	parsed := ParseMessage(raw)
	if len(parsed) != 1 {
		t.Fatalf("expected 1 parsed event, got %d", len(parsed))
	}
	if parsed[0].RType != "Trade" || parsed[0].Trade == nil {
		t.Fatalf("expected a Trade event, got %+v", parsed[0])
	}
	if parsed[0].Trade.Symbol != "VNM" || parsed[0].Trade.LastPrice != 85.5 {
		t.Errorf("unexpected trade fields: %+v", parsed[0].Trade)
	}
}

func TestParseMessageCombinedXYieldsTradeAndQuote(t *testing.T) {
	raw := []byte(`{"Content":{"RType":"X","Symbol":"VNM","LastPrice":85.5,"BidPrice1":85.0,"AskPrice1":85.5}}`)
	parsed := ParseMessage(raw)
	if len(parsed) != 2 {
		t.Fatalf("expected a trade and a quote from a combined X record, got %d events", len(parsed))
	}
	var sawTrade, sawQuote bool
	for _, p := range parsed {
		switch p.RType {
		case "Trade":
			sawTrade = true
		case "Quote":
			sawQuote = true
		}
	}
	if !sawTrade || !sawQuote {
		t.Errorf("expected both Trade and Quote, got %+v", parsed)
	}
}

func TestParseMessageForeign(t *testing.T) {
	raw := []byte(`{"Content":{"RType":"R","Symbol":"VNM","FBuyVol":1000,"FSellVol":500,"FBuyVal":80000000,"FSellVal":40000000}}`)
	parsed := ParseMessage(raw)
	if len(parsed) != 1 || parsed[0].Foreign == nil {
		t.Fatalf("expected 1 Foreign event, got %+v", parsed)
	}
	if parsed[0].Foreign.FBuyVol != 1000 {
		t.Errorf("expected FBuyVol 1000, got %d", parsed[0].Foreign.FBuyVol)
	}
}

func TestParseMessageIndex(t *testing.T) {
	raw := []byte(`{"Content":{"RType":"MI","IndexId":"VN30","IndexValue":1250.5,"Advances":20,"Declines":8}}`)
	parsed := ParseMessage(raw)
	if len(parsed) != 1 || parsed[0].Index == nil {
		t.Fatalf("expected 1 Index event, got %+v", parsed)
	}
	if parsed[0].Index.IndexID != "VN30" {
		t.Errorf("expected index id VN30, got %s", parsed[0].Index.IndexID)
	}
}

func TestParseMessageUnknownRTypeDropped(t *testing.T) {
	raw := []byte(`{"Content":{"RType":"UNKNOWN","Symbol":"VNM"}}`)
	if parsed := ParseMessage(raw); parsed != nil {
		t.Errorf("expected an unknown RType to be dropped, got %+v", parsed)
	}
}

func TestParseMessageMissingSymbolDropped(t *testing.T) {
	raw := []byte(`{"Content":{"RType":"Trade","LastPrice":85.5}}`)
	if parsed := ParseMessage(raw); parsed != nil {
		t.Errorf("expected a trade record without a symbol to be dropped, got %+v", parsed)
	}
}

func TestParseMessageMalformedJSON(t *testing.T) {
	if parsed := ParseMessage([]byte("not json")); parsed != nil {
		t.Errorf("expected malformed JSON to be dropped, got %+v", parsed)
	}
}

func TestExtractContentFlatPayload(t *testing.T) {
	content, ok := ExtractContent([]byte(`{"RType":"Trade","Symbol":"VNM"}`))
	if !ok {
		t.Fatal("expected a flat payload without a Content envelope to still parse")
	}
	if content["RType"] != "Trade" {
		t.Errorf("unexpected content: %+v", content)
	}
}

func TestNormalizeFieldsDropsUnmappedKeys(t *testing.T) {
	out := NormalizeFields(map[string]any{"Symbol": "VNM", "SomeUnknownField": 1})
	if _, ok := out["some_unknown_field"]; ok {
		t.Error("expected an unmapped key to be dropped")
	}
	if out["symbol"] != "VNM" {
		t.Errorf("expected Symbol to map to symbol, got %+v", out)
	}
}
