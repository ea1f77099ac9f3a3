package bip329

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxLabelLength is the label length BIP-329 asks importers to accept.
const MaxLabelLength = 255

var (
	txidRe     = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
	outpointRe = regexp.MustCompile(`^[0-9a-fA-F]{64}:[0-9]+$`)
	hexRe      = regexp.MustCompile(`^[0-9a-fA-F]+$`)

	labelRules = []validation.Rule{validation.RuneLength(0, MaxLabelLength)}
)

// Validate implements Record.
func (r TxRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Txid, validation.Required, validation.Match(txidRe).Error("must be a 64 character hex txid")),
		validation.Field(&r.Label, labelRules...),
		validation.Field(&r.Origin, validation.NilOrNotEmpty),
	)
}

// Validate implements Record.
func (r AddressRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Address, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Label, labelRules...),
	)
}

// Validate implements Record.
func (r PubkeyRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Pubkey, validation.Required, validation.Match(hexRe).Error("must be hex encoded")),
		validation.Field(&r.Label, labelRules...),
	)
}

// Validate implements Record.
func (r InputRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Outpoint, validation.Required, validation.Match(outpointRe).Error("must be <txid>:<index>")),
		validation.Field(&r.Label, labelRules...),
	)
}

// Validate implements Record.
func (r OutputRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Outpoint, validation.Required, validation.Match(outpointRe).Error("must be <txid>:<index>")),
		validation.Field(&r.Label, labelRules...),
	)
}

// Validate implements Record.
func (r XpubRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Xpub, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Label, labelRules...),
	)
}
