package mcpserver

// LabelFormatContract describes the BIP-329 records this server accepts.
const LabelFormatContract = `# BIP-329 Label Format

Labels are stored one JSON object per line in ` + "`" + `labels.jsonl` + "`" + ` (UTF-8, trailing newline).

## Fields

| field       | required | applies to | meaning |
|-------------|----------|------------|---------|
| ` + "`" + `type` + "`" + `      | yes      | all        | one of tx, addr, pubkey, input, output, xpub |
| ` + "`" + `ref` + "`" + `       | yes      | all        | what the label refers to, see below |
| ` + "`" + `label` + "`" + `     | no       | all        | free text, at most 255 characters |
| ` + "`" + `origin` + "`" + `    | no       | tx         | key origin descriptor, e.g. ` + "`" + `wpkh([d34db33f/84'/0'/0'])` + "`" + ` |
| ` + "`" + `spendable` + "`" + ` | no       | output     | false freezes the coin; absent means spendable |

## References

- ` + "`" + `tx` + "`" + `: 64 hex character transaction id.
- ` + "`" + `addr` + "`" + `: address string.
- ` + "`" + `pubkey` + "`" + `: hex encoded public key.
- ` + "`" + `input` + "`" + ` / ` + "`" + `output` + "`" + `: outpoint ` + "`" + `<txid>:<vout>` + "`" + `.
- ` + "`" + `xpub` + "`" + `: extended public key.

## Rules

1. One record per (type, ref). Setting or importing a record with an existing
   (type, ref) replaces the old record entirely.
2. The same ref string under two types is two different records.
3. Fields not listed for a type are rejected.
4. Imports are applied in order; when a ref repeats, the last line wins.

## Example

` + "```" + `jsonl
{"type":"tx","ref":"f91d0a8a78462bc59398f2c5d7a84fcff491c26ba54c4833478b202796c8aafd","label":"Transaction","origin":"wpkh([d34db33f/84'/0'/0'])"}
{"type":"addr","ref":"bc1q34aq5drpuwy3wgl9lhup9892qp6svr8ldzyy7c","label":"Address"}
{"type":"output","ref":"f91d0a8a78462bc59398f2c5d7a84fcff491c26ba54c4833478b202796c8aafd:1","label":"Output","spendable":false}
` + "```" + `
`
