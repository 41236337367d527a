package core

import "testing"

func TestValidateAttachment(t *testing.T) {
	cases := []struct {
		name string
		file string
		size int64
		ok   bool
	}{
		{"pdf", "slip.pdf", 1024, true},
		{"jpg", "slip.jpg", 1024, true},
		{"jpeg upper", "SLIP.JPEG", 1024, true},
		{"png", "receipt.png", MaxAttachmentSize, true},
		{"too large", "slip.pdf", MaxAttachmentSize + 1, false},
		{"empty", "slip.pdf", 0, false},
		{"bad type", "macro.xlsm", 1024, false},
		{"no extension", "slip", 1024, false},
	}
	for _, tc := range cases {
		err := ValidateAttachment(tc.file, tc.size)
		if tc.ok && err != nil {
			t.Fatalf("%s: expected ok, got %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestAttachmentContentType(t *testing.T) {
	if got := AttachmentContentType("a.PDF"); got != "application/pdf" {
		t.Fatalf("pdf -> %q", got)
	}
	if got := AttachmentContentType("a.jpg"); got != "image/jpeg" {
		t.Fatalf("jpg -> %q", got)
	}
	if got := AttachmentContentType("a.bin"); got != "application/octet-stream" {
		t.Fatalf("fallback -> %q", got)
	}
}
