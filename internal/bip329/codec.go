package bip329

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// maxLineSize bounds a single JSONL line.
const maxLineSize = 1 << 20

// Codec reads and writes a whole label file.
type Codec interface {
	// DecodeFile reads every record in the file at path. A missing file is
	// reported with an error matching fs.ErrNotExist.
	DecodeFile(path string) (*Labels, error)
	// EncodeFile writes labels to path, replacing any content.
	EncodeFile(labels *Labels, path string) error
}

// FileCodec is the Codec backed by the local file system.
type FileCodec struct{}

var _ Codec = FileCodec{}

// DecodeFile implements Codec.
func (FileCodec) DecodeFile(path string) (*Labels, error) {
	return DecodeFile(path)
}

// EncodeFile implements Codec.
func (FileCodec) EncodeFile(labels *Labels, path string) error {
	return EncodeFile(labels, path)
}

// ParseError reports a malformed line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bip329: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// line is the on-disk shape of one record.
type line struct {
	Type      Type    `json:"type"`
	Ref       string  `json:"ref"`
	Label     *string `json:"label,omitempty"`
	Origin    *string `json:"origin,omitempty"`
	Spendable *bool   `json:"spendable,omitempty"`
}

// DecodeFile opens path and decodes it.
func DecodeFile(path string) (*Labels, error) {
	// #nosec G304 - path is the wallet label file chosen by the operator
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bip329: open %s: %w", path, err)
	}
	defer f.Close()

	labels, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("bip329: decode %s: %w", path, err)
	}
	return labels, nil
}

// Decode reads JSONL records from r. Blank lines are skipped. Records are
// appended verbatim, so duplicate refs in the input are preserved. Only the
// line structure and the type are checked: refs stay opaque and labels keep
// their full length, so anything Encode wrote decodes again. Callers that
// ingest foreign data use Labels.Validate.
func Decode(r io.Reader) (*Labels, error) {
	labels := &Labels{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, &ParseError{Line: lineNum, Err: err}
		}
		rec, err := l.record()
		if err != nil {
			return nil, &ParseError{Line: lineNum, Err: err}
		}
		labels.Append(rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("bip329: read: %w", err)
	}
	return labels, nil
}

// EncodeFile writes labels to path, truncating it, and syncs before close.
func EncodeFile(labels *Labels, path string) error {
	// #nosec G304 - path is the wallet label file chosen by the operator
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("bip329: create %s: %w", path, err)
	}
	if err := Encode(f, labels); err != nil {
		_ = f.Close()
		return fmt.Errorf("bip329: encode %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("bip329: fsync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("bip329: close %s: %w", path, err)
	}
	return nil
}

// Encode writes one JSON object per record to w.
func Encode(w io.Writer, labels *Labels) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for rec := range labels.All() {
		l, err := toLine(rec)
		if err != nil {
			return err
		}
		if err := enc.Encode(l); err != nil {
			return fmt.Errorf("bip329: encode %s: %w", rec.Ref(), err)
		}
	}
	return bw.Flush()
}

func (l line) record() (Record, error) {
	switch l.Type {
	case TypeTx:
		return TxRecord{Txid: l.Ref, Label: l.Label, Origin: l.Origin}, nil
	case TypeAddr:
		return AddressRecord{Address: l.Ref, Label: l.Label}, nil
	case TypePubkey:
		return PubkeyRecord{Pubkey: l.Ref, Label: l.Label}, nil
	case TypeInput:
		return InputRecord{Outpoint: l.Ref, Label: l.Label}, nil
	case TypeOutput:
		return OutputRecord{Outpoint: l.Ref, Label: l.Label, Spendable: l.Spendable}, nil
	case TypeXpub:
		return XpubRecord{Xpub: l.Ref, Label: l.Label}, nil
	case "":
		return nil, fmt.Errorf("missing type")
	default:
		return nil, fmt.Errorf("unknown label type %q", l.Type)
	}
}

func toLine(rec Record) (line, error) {
	switch r := rec.(type) {
	case TxRecord:
		return line{Type: TypeTx, Ref: r.Txid, Label: r.Label, Origin: r.Origin}, nil
	case AddressRecord:
		return line{Type: TypeAddr, Ref: r.Address, Label: r.Label}, nil
	case PubkeyRecord:
		return line{Type: TypePubkey, Ref: r.Pubkey, Label: r.Label}, nil
	case InputRecord:
		return line{Type: TypeInput, Ref: r.Outpoint, Label: r.Label}, nil
	case OutputRecord:
		return line{Type: TypeOutput, Ref: r.Outpoint, Label: r.Label, Spendable: r.Spendable}, nil
	case XpubRecord:
		return line{Type: TypeXpub, Ref: r.Xpub, Label: r.Label}, nil
	default:
		return line{}, fmt.Errorf("bip329: unsupported record %T", rec)
	}
}
