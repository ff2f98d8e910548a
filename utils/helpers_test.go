package utils

import (
	"encoding/hex"
	"testing"
)

func TestIsValidFileExtension(t *testing.T) {
	allowed := []string{"jpg", "jpeg", "png", "webp", "mp4", "mov"}

	tests := []struct {
		name     string
		filename string
		expValid bool
	}{
		{
			name:     "image",
			filename: "selfie.jpg",
			expValid: true,
		},
		{
			name:     "uppercase extension",
			filename: "board.PNG",
			expValid: true,
		},
		{
			name:     "video",
			filename: "market.mp4",
			expValid: true,
		},
		{
			name:     "multiple dots",
			filename: "stall.front.jpeg",
			expValid: true,
		},
		{
			name:     "disallowed type",
			filename: "report.pdf",
			expValid: false,
		},
		{
			name:     "no extension",
			filename: "noext",
			expValid: false,
		},
		{
			name:     "empty filename",
			filename: "",
			expValid: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidFileExtension(tc.filename, allowed); got != tc.expValid {
				t.Fatalf("IsValidFileExtension(%q) = %v, expected %v", tc.filename, got, tc.expValid)
			}
		})
	}
}

func TestGenerateRandomString(t *testing.T) {
	token, err := GenerateRandomString(64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected length 64, got %d", len(token))
	}
	if _, err := hex.DecodeString(token); err != nil {
		t.Fatalf("expected hex output, got %q", token)
	}

	other, err := GenerateRandomString(64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == other {
		t.Fatalf("two tokens came out identical")
	}
}
