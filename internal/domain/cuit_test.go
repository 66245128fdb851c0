package domain

import (
	"errors"
	"testing"
)

func TestNormalizeCUIT(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "bare digits", in: "20123456789", want: "20123456789"},
		{name: "dashed", in: "20-12345678-9", want: "20123456789"},
		{name: "dots and spaces", in: " 20.12345678.9 ", want: "20123456789"},
		{name: "too short", in: "2012345678", wantErr: true},
		{name: "too long", in: "201234567890", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "letters only", in: "abcdefghijk", wantErr: true},
		{name: "digits mixed with letters still count", in: "20a12345678b9", want: "20123456789"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeCUIT(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidCUIT) {
					t.Fatalf("expected ErrInvalidCUIT, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
