package util

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want Status
	}{
		{"lost literal", "Perdi meu PET", StatusLost},
		{"found literal", "Encontrei um PET", StatusFound},
		{"empty falls back to lost", "", StatusLost},
		{"unknown falls back to lost", "Roubaram meu PET", StatusLost},
	}
	for _, testCase := range testCases {
		if got := ParseStatus(testCase.in); got != testCase.want {
			t.Errorf("%s: ParseStatus(%q) = %q, want %q", testCase.name, testCase.in, got, testCase.want)
		}
	}
}

func TestSecureFilename(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"rex.jpg", "rex.jpg"},
		{"../../etc/passwd", "passwd"},
		{"c:\\fotos\\meu pet.png", "meu_pet.png"},
		{"foto do caramelo!.jpeg", "foto_do_caramelo_.jpeg"},
		{"...", "file"},
		{"", "file"},
	}
	for _, testCase := range testCases {
		if got := SecureFilename(testCase.in); got != testCase.want {
			t.Errorf("SecureFilename(%q) = %q, want %q", testCase.in, got, testCase.want)
		}
	}
}

func TestUniqueFilename(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC)
	got := UniqueFilename("rex.jpg", now)
	want := "20250601123045123456_rex.jpg"
	if got != want {
		t.Errorf("UniqueFilename = %q, want %q", got, want)
	}
	if OriginalKey(got) != "uploads/imagens_pet/"+want {
		t.Errorf("OriginalKey = %q", OriginalKey(got))
	}
	if ThumbnailKey(got) != "uploads/thumbnails_pet/thumb_"+want {
		t.Errorf("ThumbnailKey = %q", ThumbnailKey(got))
	}
}

func TestAllowedExtension(t *testing.T) {
	testCases := []struct {
		in   string
		want bool
	}{
		{"rex.jpg", true},
		{"rex.JPEG", true},
		{"rex.png", true},
		{"rex.gif", false},
		{"rex", false},
		{"rex.jpg.exe", false},
	}
	for _, testCase := range testCases {
		if got := AllowedExtension(testCase.in); got != testCase.want {
			t.Errorf("AllowedExtension(%q) = %v, want %v", testCase.in, got, testCase.want)
		}
	}
}
