package view

import (
	"testing"

	"classroom/internal/model"
)

func TestPlaceholderImageIsDeterministic(t *testing.T) {
	a := NewCard(model.Course{ID: "0123456789abcdef", Title: "A"})
	b := NewCard(model.Course{ID: "0123456789abcdef", Title: "B"})
	if a.Image != b.Image {
		t.Fatalf("expected same placeholder, got %q and %q", a.Image, b.Image)
	}
	if a.Image != "https://picsum.photos/seed/01234567/800/450" {
		t.Fatalf("unexpected placeholder %q", a.Image)
	}
	if got := PlaceholderImage("", CardImageSize); got != "https://picsum.photos/seed/default/800/450" {
		t.Fatalf("unexpected default placeholder %q", got)
	}
	if got := NewCard(model.Course{ID: "x", ImageURL: "data:image/png;base64,AA=="}).Image; got != "data:image/png;base64,AA==" {
		t.Fatalf("expected stored image to win, got %q", got)
	}
}

func TestImageForRejectsUnsafeSources(t *testing.T) {
	tests := []struct {
		stored   string
		expected string
	}{
		{"https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"http://cdn.example.com/a.png", "http://cdn.example.com/a.png"},
		{"data:image/png;base64,AA==", "data:image/png;base64,AA=="},
		{"/static/a.png", "/static/a.png"},
		{"a.png", "a.png"},
		{"javascript:alert(1)", "https://picsum.photos/seed/x/800/450"},
		{"data:text/html;base64,PGI+", "https://picsum.photos/seed/x/800/450"},
		{"", "https://picsum.photos/seed/x/800/450"},
	}
	for _, test := range tests {
		got := ImageFor(model.Course{ID: "x", ImageURL: test.stored}, CardImageSize)
		if string(got) != test.expected {
			t.Errorf("ImageFor(%q) = %q, expected %q", test.stored, got, test.expected)
		}
	}
}

func TestFileIcon(t *testing.T) {
	tests := []struct {
		mime     string
		expected IconKind
	}{
		{"video/mp4", IconVideo},
		{"image/png", IconImage},
		{"application/pdf", IconDocument},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", IconDocument},
		{"text/plain", IconFile},
		{"", IconFile},
	}
	for _, test := range tests {
		if got := FileIcon(test.mime); got != test.expected {
			t.Errorf("FileIcon(%q) = %q, expected %q", test.mime, got, test.expected)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "Unknown size"},
		{512, "512 B"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, test := range tests {
		if got := FormatSize(test.bytes); got != test.expected {
			t.Errorf("FormatSize(%d) = %q, expected %q", test.bytes, got, test.expected)
		}
	}
}

func TestGridTexts(t *testing.T) {
	if CountText(1) != "1 course available" || CountText(0) != "0 courses available" || CountText(3) != "3 courses available" {
		t.Fatal("unexpected count text")
	}
	if EmptyText(true) == EmptyText(false) {
		t.Fatal("expected admin and visitor empty texts to differ")
	}
}
