package textutil_test

import (
	"testing"

	"golang.org/x/text/encoding/japanese"

	"musica/internal/textutil"
)

func TestDecodeShiftJIS(t *testing.T) {
	raw, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte("1 彩葉「こんにちは」"))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	got, err := textutil.Decode(raw, "shift_jis")
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got != "1 彩葉「こんにちは」" {
		t.Fatalf("unexpected decode result %q", got)
	}
}

func TestDecodeUTF8DropsBOM(t *testing.T) {
	got, err := textutil.Decode([]byte("\xEF\xBB\xBF#bg"), "utf-8")
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got != "#bg" {
		t.Fatalf("expected BOM stripped, got %q", got)
	}
}

func TestDecodeRejectsUnknownEncoding(t *testing.T) {
	if _, err := textutil.Decode([]byte("x"), "ebcdic"); err == nil {
		t.Fatal("expected error for unknown encoding")
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"op_01.sc":     "op_01.sc",
		"a/b:c":        "a-b-c",
		"  what?  ":    "what",
		"第一章":          "第一章",
		"..":           "unnamed",
		"":             "",
		"<x>|\"y\"":    "xy",
	}
	for in, want := range tests {
		if got := textutil.SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
	if got := textutil.StoreFileName(""); got != "unnamed.db" {
		t.Fatalf("unexpected store file name %q", got)
	}
}

func TestMemoryDSNEscapesName(t *testing.T) {
	if got := textutil.MemoryDSN("op_01.sc"); got != "file:op_01.sc?mode=memory&cache=shared" {
		t.Fatalf("unexpected DSN %q", got)
	}
	if got := textutil.MemoryDSN("a b?c"); got != "file:a%20b%3Fc?mode=memory&cache=shared" {
		t.Fatalf("unexpected escaped DSN %q", got)
	}
}
