package player

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "already e164", raw: "+5511999990000", want: "+5511999990000"},
		{name: "separators", raw: "+55 (11) 99999-0000", want: "+5511999990000"},
		{name: "missing plus", raw: "6281234567890", want: "+6281234567890"},
		{name: "leading zero", raw: "0812345", wantErr: true},
		{name: "shortest accepted", raw: "12", want: "+12"},
		{name: "too long", raw: "+1234567890123456", wantErr: true},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "letters only", raw: "call me", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhone(tc.raw)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidPhone) {
					t.Fatalf("expected ErrInvalidPhone, got %v (%q)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestContactValidate(t *testing.T) {
	if err := (Contact{Name: "", Phone: "+5511999990000"}).Validate(); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	if err := (Contact{Name: "Ana", Phone: "11999"}).Validate(); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
	if err := (Contact{Name: "Ana", Phone: "+5511999990000"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDisplayNameAndDigits(t *testing.T) {
	nick := "Zé"
	p := Player{Name: "José", Nickname: &nick, Phone: "+5511999990000"}
	if p.DisplayName() != "Zé" {
		t.Fatalf("expected nickname, got %s", p.DisplayName())
	}
	if Digits(p.Phone) != "5511999990000" {
		t.Fatalf("unexpected digits %s", Digits(p.Phone))
	}
}
