package config

import "testing"

func TestAllowedFileTypes(t *testing.T) {
	tests := []struct {
		name  string
		value string
		exp   []string
	}{
		{
			name:  "default list",
			value: "jpg,jpeg,png,webp,mp4,mov",
			exp:   []string{"jpg", "jpeg", "png", "webp", "mp4", "mov"},
		},
		{
			name:  "whitespace and empty entries",
			value: " jpg, png ,,mp4 ",
			exp:   []string{"jpg", "png", "mp4"},
		},
		{
			name:  "empty value",
			value: "",
			exp:   []string{},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := Config{AllowedExtensions: tc.value}
			got := c.AllowedFileTypes()
			if len(got) != len(tc.exp) {
				t.Fatalf("expected %v, got %v", tc.exp, got)
			}
			for i := range got {
				if got[i] != tc.exp[i] {
					t.Fatalf("expected %v, got %v", tc.exp, got)
				}
			}
		})
	}
}
