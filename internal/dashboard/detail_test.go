package dashboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"classroom/internal/model"
)

func staticUpload(name, contentType string, data []byte, delay time.Duration) Upload {
	return Upload{
		Name: name,
		Type: contentType,
		Open: func() (io.ReadCloser, error) {
			time.Sleep(delay)
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func TestEncodeUploadsKeepsSelectionOrder(t *testing.T) {
	uploads := []Upload{
		staticUpload("slow.txt", "text/plain", []byte("slow"), 30*time.Millisecond),
		staticUpload("mid.txt", "text/plain", []byte("mid"), 10*time.Millisecond),
		staticUpload("fast.txt", "text/plain", []byte("fast"), 0),
	}
	files, err := EncodeUploads(context.Background(), uploads, 0)
	if err != nil {
		t.Fatalf("EncodeUploads returned error: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "slow.txt,mid.txt,fast.txt" {
		t.Fatalf("expected selection order, got %v", names)
	}
	if files[0].Size != 4 || files[0].Data != "data:text/plain;base64,c2xvdw==" {
		t.Fatalf("unexpected encoding %+v", files[0])
	}
}

func TestEncodeUploadsSniffsMissingType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	files, err := EncodeUploads(context.Background(), []Upload{staticUpload("pic", "", png, 0)}, 0)
	if err != nil {
		t.Fatalf("EncodeUploads returned error: %v", err)
	}
	if files[0].Type != "image/png" {
		t.Fatalf("expected sniffed image/png, got %q", files[0].Type)
	}
	if !strings.HasPrefix(files[0].Data, "data:image/png;base64,") {
		t.Fatalf("unexpected data URI prefix %q", files[0].Data[:30])
	}
}

func TestEncodeUploadsLimit(t *testing.T) {
	_, err := EncodeUploads(context.Background(), []Upload{staticUpload("big", "text/plain", []byte("12345"), 0)}, 4)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestDecodeDataURI(t *testing.T) {
	tests := []struct {
		uri         string
		contentType string
		data        string
		err         bool
	}{
		{"data:text/plain;base64,aGk=", "text/plain", "hi", false},
		{"data:,hello%20world", "text/plain", "hello world", false},
		{"data:application/pdf;name=a.pdf;base64,JVBERg==", "application/pdf", "%PDF", false},
		{"https://example.com/a.png", "", "", true},
		{"data:text/plain;base64", "", "", true},
		{"data:text/plain;base64,***", "", "", true},
	}
	for _, test := range tests {
		contentType, data, err := DecodeDataURI(test.uri)
		if test.err {
			if err == nil {
				t.Errorf("DecodeDataURI(%q): expected error", test.uri)
			}
			continue
		}
		if err != nil {
			t.Errorf("DecodeDataURI(%q) returned error: %v", test.uri, err)
			continue
		}
		if contentType != test.contentType || string(data) != test.data {
			t.Errorf("DecodeDataURI(%q) = %q, %q", test.uri, contentType, data)
		}
	}
}

func TestDraftEdits(t *testing.T) {
	d := NewDraft(model.Course{ID: "a", ContentDescription: "text"})
	d.SetContent("text")
	if d.Dirty {
		t.Fatal("unchanged text must not dirty the draft")
	}
	d.AppendFiles(model.FileAttachment{Name: "1"}, model.FileAttachment{Name: "2"}, model.FileAttachment{Name: "3"})
	if !d.Dirty || len(d.Files) != 3 {
		t.Fatalf("expected three files and dirty, got %+v", d)
	}
	if err := d.RemoveFile(1); err != nil {
		t.Fatalf("RemoveFile returned error: %v", err)
	}
	if d.Files[0].Name != "1" || d.Files[1].Name != "3" {
		t.Fatalf("expected splice by position, got %+v", d.Files)
	}
	if err := d.RemoveFile(5); !errors.Is(err, ErrFileIndex) {
		t.Fatalf("expected ErrFileIndex, got %v", err)
	}

	patch := d.Patch()
	if patch.Title != nil || patch.ImageURL != nil {
		t.Fatal("save patch must only carry content and files")
	}
	if *patch.ContentDescription != "text" || len(*patch.Files) != 2 {
		t.Fatalf("unexpected patch %+v", patch)
	}
}
