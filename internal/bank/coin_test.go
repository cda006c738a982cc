package bank

import (
	"errors"
	"testing"
)

func TestParseCoinType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    CoinType
		wantErr bool
	}{
		{in: "coin", want: Coin},
		{in: " GOLD ", want: Gold},
		{in: "Silver", want: Silver},
		{in: "copper", want: Copper},
		{in: "platinum", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseCoinType(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCoinType) {
					t.Fatalf("want ErrUnknownCoinType, got %v", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Fatalf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCoinType_UnmarshalText(t *testing.T) {
	t.Parallel()

	var ct CoinType

	err := ct.UnmarshalText([]byte("Copper"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ct != Copper {
		t.Fatalf("want copper, got %q", ct)
	}

	err = ct.UnmarshalText([]byte("ruby"))
	if err == nil {
		t.Fatal("expected error for unknown coin type")
	}
}
