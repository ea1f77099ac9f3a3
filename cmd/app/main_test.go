package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/labelvault/internal/labelstore"
)

const txid = "f91d0a8a78462bc59398f2c5d7a84fcff491c26ba54c4833478b202796c8aafd"

// runCLI runs the command line against dir and returns stdout.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out
	cmd.ErrWriter = &out
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("app:\n  log_level: error\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	argv := append([]string{"labelvault", "--config", configPath, "--data-dir", dir}, args...)
	err := cmd.Run(context.Background(), argv)
	return out.String(), err
}

func TestSetGetList(t *testing.T) {
	dir := t.TempDir()

	if _, err := runCLI(t, dir, "set", "--origin", "wpkh([d34db33f/84'/0'/0'])", "tx:"+txid, "Rent"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := runCLI(t, dir, "set", "--spendable=false", "output:"+txid+":1", "frozen"); err != nil {
		t.Fatalf("set output: %v", err)
	}

	out, err := runCLI(t, dir, "get", "tx:"+txid)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := `{"type":"tx","ref":"` + txid + `","label":"Rent","origin":"wpkh([d34db33f/84'/0'/0'])"}` + "\n"
	if out != want {
		t.Errorf("get = %q, want %q", out, want)
	}

	out, err = runCLI(t, dir, "list", "--type", "output")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, `"spendable":false`) || strings.Contains(out, `"type":"tx"`) {
		t.Errorf("list = %q", out)
	}
}

func TestSet_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	if _, err := runCLI(t, dir, "set", "--spendable", "addr:bc1q", "x"); err == nil {
		t.Error("spendable on addr should fail")
	}
	if _, err := os.Stat(filepath.Join(dir, labelstore.FileName)); !os.IsNotExist(err) {
		t.Error("rejected set wrote the label file")
	}
}

func TestGet_Missing(t *testing.T) {
	if _, err := runCLI(t, t.TempDir(), "get", "addr:bc1qnope"); err == nil {
		t.Error("expected error for missing label")
	}
}

func TestSet_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wallet")

	if _, err := runCLI(t, dir, "set", "tx:"+txid, "Rent"); err != nil {
		t.Fatalf("set on a fresh data dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, labelstore.FileName)); err != nil {
		t.Fatalf("label file not written: %v", err)
	}
	out, err := runCLI(t, dir, "get", "tx:"+txid)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(out, `"label":"Rent"`) {
		t.Errorf("get = %q", out)
	}
}

func TestImport_RejectsInvalidRecord(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(t.TempDir(), "in.jsonl")
	if err := os.WriteFile(in, []byte(`{"type":"tx","ref":"tx-1"}`+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, dir, "import", in); err == nil {
		t.Fatal("import of an invalid txid should fail")
	}
	if _, err := os.Stat(filepath.Join(dir, labelstore.FileName)); !os.IsNotExist(err) {
		t.Errorf("label file written despite rejected import: %v", err)
	}
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(t.TempDir(), "in.jsonl")
	content := `{"type":"addr","ref":"bc1qa","label":"a"}` + "\n" + `{"type":"addr","ref":"bc1qa","label":"b"}` + "\n"
	if err := os.WriteFile(in, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, dir, "import", in)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if out != "imported 2 labels (1 total)\n" {
		t.Errorf("import = %q", out)
	}

	exported := filepath.Join(t.TempDir(), "out.jsonl")
	if _, err := runCLI(t, dir, "export", exported); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, _ := os.ReadFile(exported)
	if string(data) != `{"type":"addr","ref":"bc1qa","label":"b"}`+"\n" {
		t.Errorf("exported = %q", data)
	}
}

func TestDoctor(t *testing.T) {
	dir := t.TempDir()
	temp := filepath.Join(dir, ".labels.jsonl.tmp.1700000000000")
	if err := os.WriteFile(temp, []byte("partial"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, dir, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if !strings.Contains(out, ".labels.jsonl.tmp.1700000000000") {
		t.Errorf("doctor = %q", out)
	}
	if _, err := os.Stat(temp); err != nil {
		t.Error("doctor without --clean removed the file")
	}

	out, err = runCLI(t, dir, "doctor", "--clean")
	if err != nil {
		t.Fatalf("doctor --clean: %v", err)
	}
	if !strings.Contains(out, "removed 1 temporary files") {
		t.Errorf("doctor --clean = %q", out)
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Error("temp file still present")
	}
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	cmd := newCommand()
	var out bytes.Buffer
	cmd.Writer = &out
	cmd.ErrWriter = &out
	err := cmd.Run(context.Background(), []string{"labelvault", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "list"})
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("err = %v, want config error", err)
	}
}
