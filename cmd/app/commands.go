package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/labelvault/internal/bip329"
	"github.com/starford/labelvault/internal/labelservice"
	"github.com/starford/labelvault/internal/labelstore"
)

// openStore loads the label store for one-shot commands. Logs go to stderr
// so stdout stays clean for JSONL output.
func openStore(cmd *cli.Command) (*labelstore.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Wallet.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	return labelstore.Open(cfg.Wallet.DataDir, labelstore.WithLogger(logger))
}

func refArg(cmd *cli.Command) (bip329.Ref, error) {
	if cmd.NArg() < 1 {
		return bip329.Ref{}, fmt.Errorf("missing <type:ref> argument")
	}
	return bip329.ParseRef(cmd.Args().First())
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print the label record for a reference",
		ArgsUsage: "<type:ref>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			ref, err := refArg(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			rec, ok := store.ByRef(ref)
			if !ok {
				return fmt.Errorf("no label for %s", ref)
			}
			return bip329.Encode(cmd.Root().Writer, bip329.NewLabels(rec))
		},
	}
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Create or replace the label for a reference and save",
		ArgsUsage: "<type:ref> [label]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "origin", Usage: "Key origin descriptor (tx only)"},
			&cli.BoolFlag{Name: "spendable", Usage: "Mark the output spendable; use --spendable=false to freeze (output only)"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			ref, err := refArg(cmd)
			if err != nil {
				return err
			}
			var in labelservice.LabelInput
			if cmd.NArg() > 1 {
				text := cmd.Args().Get(1)
				in.Label = &text
			}
			if cmd.IsSet("origin") {
				origin := cmd.String("origin")
				in.Origin = &origin
			}
			if cmd.IsSet("spendable") {
				spendable := cmd.Bool("spendable")
				in.Spendable = &spendable
			}
			rec, err := labelservice.BuildRecord(ref, in)
			if err != nil {
				return err
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			store.SetLabel(rec)
			return store.Save()
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print labels as BIP-329 JSONL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Only print records of this type"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			typ := bip329.Type(cmd.String("type"))
			if typ != "" && !typ.Valid() {
				return fmt.Errorf("unknown type %q", typ)
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			out := &bip329.Labels{}
			for rec := range store.All().All() {
				if typ == "" || rec.Ref().Type == typ {
					out.Append(rec)
				}
			}
			return bip329.Encode(cmd.Root().Writer, out)
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Merge a BIP-329 JSONL file into the wallet labels and save",
		ArgsUsage: "<file.jsonl>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() < 1 {
				return fmt.Errorf("missing <file.jsonl> argument")
			}
			incoming, err := bip329.DecodeFile(cmd.Args().First())
			if err != nil {
				return err
			}
			if err := incoming.Validate(); err != nil {
				return err
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			n := store.Import(incoming)
			if err := store.Save(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.Root().Writer, "imported %d labels (%d total)\n", n, store.All().Len())
			return err
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write the wallet labels to a file, or stdout when no file is given",
		ArgsUsage: "[file.jsonl]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			if cmd.NArg() == 0 {
				return bip329.Encode(cmd.Root().Writer, store.All())
			}
			return bip329.EncodeFile(store.All(), cmd.Args().First())
		},
	}
}

func doctorCommand() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Report temporary label files left by interrupted saves",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "clean", Usage: "Remove the temporary files. Do not run while a server is saving"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			return doctor(cmd.Root().Writer, store, cmd.Bool("clean"))
		},
	}
}

func doctor(w io.Writer, store *labelstore.Store, clean bool) error {
	temps, err := labelstore.OrphanedTemps(store.Provider())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "label file: %s (%d labels)\n", store.Path(), store.All().Len())
	if len(temps) == 0 {
		fmt.Fprintln(w, "no temporary files")
		return nil
	}
	for _, name := range temps {
		fmt.Fprintf(w, "temporary file: %s\n", name)
	}
	if !clean {
		fmt.Fprintln(w, "run with --clean to remove them")
		return nil
	}
	n, err := labelstore.RemoveOrphanedTemps(store.Provider())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "removed %d temporary files\n", n)
	return nil
}
