package parse

import "testing"

func TestCPF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{name: "formatted", text: "meu cpf é 123.456.789-00", want: "12345678900", ok: true},
		{name: "bare digits", text: "12345678900 e nasci em 1990", want: "12345678900", ok: true},
		{name: "partial punctuation", text: "123456.789-00", want: "12345678900", ok: true},
		{name: "missing", text: "não vou informar", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := CPF(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("CPF(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBirthdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{name: "slash separated", text: "nasci em 15/03/1990", want: "15/03/1990", ok: true},
		{name: "dash separated", text: "15-03-1990", want: "15/03/1990", ok: true},
		{name: "missing", text: "não lembro", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Birthdate(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("Birthdate(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizeBirthdate(t *testing.T) {
	t.Parallel()

	if got := NormalizeBirthdate(" 15-03-1990 "); got != "15/03/1990" {
		t.Fatalf("NormalizeBirthdate = %q, want %q", got, "15/03/1990")
	}
}
