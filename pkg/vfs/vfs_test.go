package vfs_test

import (
	"bytes"
	"github.com/brickingsoft/asyncio/pkg/vfs"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestMemFile(t *testing.T) {
	data := []byte("hello world")
	f := vfs.NewMemFile("mem", data)
	if f.Size() != int64(len(data)) {
		t.Fatal("size", f.Size())
	}
	p := make([]byte, 5)
	n, err := f.Read(p)
	if err != nil || n != 5 || string(p) != "hello" {
		t.Fatal(n, err, string(p))
	}
	if f.Tell() != 5 || f.IsEnd() {
		t.Fatal("tell", f.Tell())
	}
	rest, err := io.ReadAll(f)
	if err != nil || string(rest) != " world" {
		t.Fatal(string(rest), err)
	}
	if !f.IsEnd() {
		t.Fatal("should be at end")
	}
	if n, err = f.Read(p); n != 0 || err != io.EOF {
		t.Fatal(n, err)
	}
}

func TestMemFile_Refs(t *testing.T) {
	f := vfs.NewMemFile("mem", []byte("x"))
	f.Grab()
	_ = f.Drop()
	if f.Closed() {
		t.Fatal("closed too early")
	}
	_ = f.Drop()
	if !f.Closed() {
		t.Fatal("last drop should close")
	}
	if _, err := f.Read(make([]byte, 1)); !vfs.IsClosed(err) {
		t.Fatal("expected closed, got", err)
	}
}

func TestOpen(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 1000)
	name := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(name, data, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := vfs.Open(name, vfs.Sequential(), vfs.Unbuffered())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Drop()
	if f.Size() != int64(len(data)) {
		t.Fatal("size", f.Size())
	}
	if f.AlignReqs() < 1 {
		t.Fatal("unbuffered file must report alignment", f.AlignReqs())
	}
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("content mismatch")
	}
	if !f.IsEnd() || f.Tell() != int64(len(data)) {
		t.Fatal("end", f.Tell())
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := vfs.Open(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error")
	}
	t.Log(err)
}
