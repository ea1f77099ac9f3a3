package bip329

import (
	"testing"
)

func TestLabelsSetReplacesInPlace(t *testing.T) {
	var l Labels
	if l.Set(AddressRecord{Address: "bc1qa", Label: String("one")}) {
		t.Error("first Set should not report a replace")
	}
	l.Set(TxRecord{Txid: exampleTxid, Label: String("tx")})
	if !l.Set(AddressRecord{Address: "bc1qa", Label: String("two")}) {
		t.Error("second Set should report a replace")
	}
	if l.Len() != 2 {
		t.Fatalf("len = %d, want 2", l.Len())
	}
	rec, ok := l.Get(AddrRef("bc1qa"))
	if !ok {
		t.Fatal("record missing")
	}
	if text, _ := rec.Text(); text != "two" {
		t.Errorf("text = %q, want two", text)
	}
	if first := l.Records()[0]; first.Ref() != AddrRef("bc1qa") {
		t.Errorf("replaced record moved: first = %v", first.Ref())
	}
}

func TestLabelsRefEqualityIncludesType(t *testing.T) {
	l := NewLabels(InputRecord{Outpoint: exampleTxid + ":0", Label: String("in")})
	if _, ok := l.Get(OutputRef(exampleTxid + ":0")); ok {
		t.Error("output ref must not match an input record with the same value")
	}
	if _, ok := l.Get(InputRef(exampleTxid + ":0")); !ok {
		t.Error("input ref should match")
	}
}

func TestLabelsDrain(t *testing.T) {
	l := NewLabels(AddressRecord{Address: "a"}, AddressRecord{Address: "b"})
	recs := l.Drain()
	if len(recs) != 2 {
		t.Errorf("drained %d records, want 2", len(recs))
	}
	if !l.IsEmpty() {
		t.Error("collection should be empty after Drain")
	}
	if _, ok := l.Get(AddrRef("a")); ok {
		t.Error("index should be cleared after Drain")
	}
	l.Set(AddressRecord{Address: "c"})
	if l.Len() != 1 {
		t.Errorf("len after reuse = %d, want 1", l.Len())
	}
}

func TestLabelsNilReceiver(t *testing.T) {
	var l *Labels
	if !l.IsEmpty() || l.Len() != 0 {
		t.Error("nil collection should be empty")
	}
	if _, ok := l.Get(TxRef(exampleTxid)); ok {
		t.Error("nil collection has no records")
	}
	for range l.All() {
		t.Error("nil collection should not yield")
	}
}

func TestLabelsAllStopsEarly(t *testing.T) {
	l := NewLabels(AddressRecord{Address: "a"}, AddressRecord{Address: "b"}, AddressRecord{Address: "c"})
	n := 0
	for range l.All() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("iterated %d, want 2", n)
	}
}

func TestCountByType(t *testing.T) {
	l := NewLabels(
		AddressRecord{Address: "a"},
		AddressRecord{Address: "b"},
		TxRecord{Txid: exampleTxid},
	)
	counts := l.CountByType()
	if counts[TypeAddr] != 2 || counts[TypeTx] != 1 || counts[TypeXpub] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("output:" + exampleTxid + ":1")
	if err != nil {
		t.Fatalf("ParseRef: %v", err)
	}
	if ref != OutputRef(exampleTxid+":1") {
		t.Errorf("ref = %+v", ref)
	}
	if ref.String() != "output:"+exampleTxid+":1" {
		t.Errorf("String() = %q", ref.String())
	}

	for _, bad := range []string{"", "tx", "tx:", "utxo:abc"} {
		if _, err := ParseRef(bad); err == nil {
			t.Errorf("ParseRef(%q) should fail", bad)
		}
	}
}

func TestNewRecordCoversEveryType(t *testing.T) {
	for _, typ := range Types {
		ref := Ref{Type: typ, Value: "v"}
		rec, err := NewRecord(ref, "text")
		if err != nil {
			t.Fatalf("NewRecord(%s): %v", typ, err)
		}
		if rec.Ref() != ref {
			t.Errorf("NewRecord(%s).Ref() = %+v", typ, rec.Ref())
		}
		if text, ok := rec.Text(); !ok || text != "text" {
			t.Errorf("NewRecord(%s).Text() = %q, %v", typ, text, ok)
		}
		if _, err := toLine(rec); err != nil {
			t.Errorf("toLine(%s): %v", typ, err)
		}
	}
	if _, err := NewRecord(Ref{Type: "utxo", Value: "v"}, "x"); err == nil {
		t.Error("unknown type should fail")
	}
}

func TestOutputSpendableDefault(t *testing.T) {
	if !(OutputRecord{}).IsSpendable() {
		t.Error("absent spendable should default to true")
	}
	if (OutputRecord{Spendable: Bool(false)}).IsSpendable() {
		t.Error("explicit false should be honoured")
	}
}

func TestValidate(t *testing.T) {
	valid := []Record{
		TxRecord{Txid: exampleTxid, Label: String("ok")},
		AddressRecord{Address: "bc1qok"},
		PubkeyRecord{Pubkey: "02abcdef"},
		InputRecord{Outpoint: exampleTxid + ":0"},
		OutputRecord{Outpoint: exampleTxid + ":12"},
		XpubRecord{Xpub: "xpub123"},
	}
	for _, rec := range valid {
		if err := rec.Validate(); err != nil {
			t.Errorf("%s: unexpected error %v", rec.Ref(), err)
		}
	}

	invalid := []Record{
		TxRecord{Txid: "zz"},
		TxRecord{Txid: exampleTxid, Origin: String("")},
		AddressRecord{},
		PubkeyRecord{Pubkey: "not-hex"},
		InputRecord{Outpoint: exampleTxid},
		OutputRecord{Outpoint: "x:1"},
		XpubRecord{},
	}
	for _, rec := range invalid {
		if err := rec.Validate(); err == nil {
			t.Errorf("%#v: expected validation error", rec)
		}
	}
}
