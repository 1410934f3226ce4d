package util

import (
	"strings"
	"testing"
)

func TestTruncateBytesKeepsRunes(t *testing.T) {
	out, did := TruncateBytes("héllo", 2)
	if !did {
		t.Fatalf("expected truncation")
	}
	if out != "h" {
		t.Fatalf("expected cut before multi-byte rune, got %q", out)
	}
	if out, did := TruncateBytes("short", 10); did || out != "short" {
		t.Fatalf("unexpected truncation of short input")
	}
}

func TestPreviewLimitsLines(t *testing.T) {
	out := Preview("a\nb\nc\nd", 2, 100)
	if out != "a\nb\n..." {
		t.Fatalf("unexpected preview %q", out)
	}
	if Preview("  ", 2, 10) != "" {
		t.Fatalf("expected empty preview for blank text")
	}
	if got := Preview(strings.Repeat("x", 50), 5, 10); got != strings.Repeat("x", 10)+"\n..." {
		t.Fatalf("unexpected byte-capped preview %q", got)
	}
}
