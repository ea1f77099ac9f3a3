package labelservice

import (
	"errors"
	"fmt"

	"github.com/starford/labelvault/internal/apperr"
	"github.com/starford/labelvault/internal/bip329"
)

var (
	errOriginNotTx        = errors.New("origin is only valid for tx labels")
	errSpendableNotOutput = errors.New("spendable is only valid for output labels")
)

// BuildRecord assembles and validates the record for ref from in. Errors
// wrap apperr.ErrInvalidLabel.
func BuildRecord(ref bip329.Ref, in LabelInput) (bip329.Record, error) {
	if in.Origin != nil && ref.Type != bip329.TypeTx {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidLabel, errOriginNotTx)
	}
	if in.Spendable != nil && ref.Type != bip329.TypeOutput {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidLabel, errSpendableNotOutput)
	}

	var rec bip329.Record
	switch ref.Type {
	case bip329.TypeTx:
		rec = bip329.TxRecord{Txid: ref.Value, Label: in.Label, Origin: in.Origin}
	case bip329.TypeAddr:
		rec = bip329.AddressRecord{Address: ref.Value, Label: in.Label}
	case bip329.TypePubkey:
		rec = bip329.PubkeyRecord{Pubkey: ref.Value, Label: in.Label}
	case bip329.TypeInput:
		rec = bip329.InputRecord{Outpoint: ref.Value, Label: in.Label}
	case bip329.TypeOutput:
		rec = bip329.OutputRecord{Outpoint: ref.Value, Label: in.Label, Spendable: in.Spendable}
	case bip329.TypeXpub:
		rec = bip329.XpubRecord{Xpub: ref.Value, Label: in.Label}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", apperr.ErrInvalidLabel, ref.Type)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidLabel, err)
	}
	return rec, nil
}

func viewOf(rec bip329.Record) LabelView {
	ref := rec.Ref()
	v := LabelView{Type: ref.Type, Ref: ref.Value}
	if text, ok := rec.Text(); ok {
		v.Label = &text
	}
	switch r := rec.(type) {
	case bip329.TxRecord:
		v.Origin = r.Origin
	case bip329.OutputRecord:
		v.Spendable = r.Spendable
	}
	return v
}
