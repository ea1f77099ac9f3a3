// Package bip329 implements the BIP-329 wallet label export format: one JSON
// object per line, each attaching a label to a transaction, address, public
// key, input, output or extended public key.
package bip329

import (
	"fmt"
	"strings"
)

// Type is the entity kind a label is attached to.
type Type string

// Label types defined by BIP-329.
const (
	TypeTx     Type = "tx"
	TypeAddr   Type = "addr"
	TypePubkey Type = "pubkey"
	TypeInput  Type = "input"
	TypeOutput Type = "output"
	TypeXpub   Type = "xpub"
)

// Types lists every supported label type in export order.
var Types = []Type{TypeTx, TypeAddr, TypePubkey, TypeInput, TypeOutput, TypeXpub}

// Valid reports whether t is a known label type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Ref identifies the entity a label belongs to. Two refs are equal when both
// the type and the value match, so Ref can be used directly as a map key.
type Ref struct {
	Type  Type
	Value string
}

func TxRef(txid string) Ref         { return Ref{Type: TypeTx, Value: txid} }
func AddrRef(address string) Ref    { return Ref{Type: TypeAddr, Value: address} }
func PubkeyRef(pubkey string) Ref   { return Ref{Type: TypePubkey, Value: pubkey} }
func InputRef(outpoint string) Ref  { return Ref{Type: TypeInput, Value: outpoint} }
func OutputRef(outpoint string) Ref { return Ref{Type: TypeOutput, Value: outpoint} }
func XpubRef(xpub string) Ref       { return Ref{Type: TypeXpub, Value: xpub} }

// String renders the ref as "<type>:<value>".
func (r Ref) String() string {
	return string(r.Type) + ":" + r.Value
}

// ParseRef parses the "<type>:<value>" form produced by Ref.String. Only the
// first colon separates the type, so outpoint values keep their ":<vout>".
func ParseRef(s string) (Ref, error) {
	typ, value, ok := strings.Cut(s, ":")
	if !ok || value == "" {
		return Ref{}, fmt.Errorf("bip329: malformed ref %q, want <type>:<value>", s)
	}
	t := Type(typ)
	if !t.Valid() {
		return Ref{}, fmt.Errorf("bip329: unknown label type %q", typ)
	}
	return Ref{Type: t, Value: value}, nil
}

// Record is a single label. The concrete types below are the only
// implementations; switch on them to handle each kind.
type Record interface {
	// Ref returns the entity reference, the record's unique key.
	Ref() Ref
	// Text returns the label text and whether one is set.
	Text() (string, bool)
	// Validate checks the reference format and label length.
	Validate() error

	isRecord()
}

// TxRecord labels a transaction.
type TxRecord struct {
	Txid   string
	Label  *string
	Origin *string // key origin of the wallet that created the label
}

// AddressRecord labels an address.
type AddressRecord struct {
	Address string
	Label   *string
}

// PubkeyRecord labels a public key.
type PubkeyRecord struct {
	Pubkey string
	Label  *string
}

// InputRecord labels a transaction input, referenced by "<txid>:<vin>".
type InputRecord struct {
	Outpoint string
	Label    *string
}

// OutputRecord labels a transaction output, referenced by "<txid>:<vout>".
// A nil Spendable means the output is spendable.
type OutputRecord struct {
	Outpoint  string
	Label     *string
	Spendable *bool
}

// XpubRecord labels an extended public key.
type XpubRecord struct {
	Xpub  string
	Label *string
}

func (r TxRecord) Ref() Ref      { return TxRef(r.Txid) }
func (r AddressRecord) Ref() Ref { return AddrRef(r.Address) }
func (r PubkeyRecord) Ref() Ref  { return PubkeyRef(r.Pubkey) }
func (r InputRecord) Ref() Ref   { return InputRef(r.Outpoint) }
func (r OutputRecord) Ref() Ref  { return OutputRef(r.Outpoint) }
func (r XpubRecord) Ref() Ref    { return XpubRef(r.Xpub) }

func (r TxRecord) Text() (string, bool)      { return deref(r.Label) }
func (r AddressRecord) Text() (string, bool) { return deref(r.Label) }
func (r PubkeyRecord) Text() (string, bool)  { return deref(r.Label) }
func (r InputRecord) Text() (string, bool)   { return deref(r.Label) }
func (r OutputRecord) Text() (string, bool)  { return deref(r.Label) }
func (r XpubRecord) Text() (string, bool)    { return deref(r.Label) }

func (TxRecord) isRecord()      {}
func (AddressRecord) isRecord() {}
func (PubkeyRecord) isRecord()  {}
func (InputRecord) isRecord()   {}
func (OutputRecord) isRecord()  {}
func (XpubRecord) isRecord()    {}

// IsSpendable reports the output's spendable flag, defaulting to true.
func (r OutputRecord) IsSpendable() bool {
	return r.Spendable == nil || *r.Spendable
}

// NewRecord builds the record variant matching ref.Type with the given text.
// Variant-specific metadata (origin, spendable) is left unset.
func NewRecord(ref Ref, text string) (Record, error) {
	label := &text
	switch ref.Type {
	case TypeTx:
		return TxRecord{Txid: ref.Value, Label: label}, nil
	case TypeAddr:
		return AddressRecord{Address: ref.Value, Label: label}, nil
	case TypePubkey:
		return PubkeyRecord{Pubkey: ref.Value, Label: label}, nil
	case TypeInput:
		return InputRecord{Outpoint: ref.Value, Label: label}, nil
	case TypeOutput:
		return OutputRecord{Outpoint: ref.Value, Label: label}, nil
	case TypeXpub:
		return XpubRecord{Xpub: ref.Value, Label: label}, nil
	default:
		return nil, fmt.Errorf("bip329: unknown label type %q", ref.Type)
	}
}

// String returns a pointer to s, for filling optional record fields.
func String(s string) *string { return &s }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}
