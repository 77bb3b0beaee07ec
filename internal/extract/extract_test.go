package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dmarti/chatbridge/internal/domain/chatModel"
)

func TestDetectKind(t *testing.T) {
	cases := []struct {
		path string
		want chatModel.FileKind
	}{
		{"report.pdf", chatModel.PDF},
		{"REPORT.PDF", chatModel.PDF},
		{"notes.docx", chatModel.DOCX},
		{"notes.odt", chatModel.DOCX},
		{"notes.rtf", chatModel.DOCX},
		{"readme.txt", chatModel.TXT},
		{"readme.md", chatModel.TXT},
		{"/tmp/nested/dir/file.pdf", chatModel.PDF},
		{"archive.zip", chatModel.ERR},
		{"noextension", chatModel.ERR},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			if got := DetectKind(tc.path); got != tc.want {
				t.Errorf("DetectKind(%q) = %s, want %s", tc.path, got, tc.want)
			}
		})
	}
}

func TestText_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	content := "hello extraction"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	got, err := Text(path, chatModel.TXT)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if got != content {
		t.Errorf("Text = %q, want %q", got, content)
	}
}

func TestText_UnsupportedKind(t *testing.T) {
	if _, err := Text("whatever.zip", chatModel.ERR); err == nil {
		t.Error("Expected error for unsupported kind")
	}
}
