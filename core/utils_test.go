package core

import (
	"strings"
	"testing"
)

func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		lower bool
		want  string
	}{
		{name: "empty", s: "", want: ""},
		{name: "spaces only", s: "  \t ", want: ""},
		{name: "trimmed", s: "  Jo Gomes ", want: "Jo Gomes"},
		{name: "lowered", s: " Jo@Test.CD ", lower: true, want: "jo@test.cd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanString(tt.s, tt.lower); got != tt.want {
				t.Errorf("CleanString() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestRandomPassword(t *testing.T) {
	pwd, err := RandomPassword(16)
	if err != nil {
		t.Fatalf("RandomPassword(): %v", err)
	}
	if len(pwd) != 16 {
		t.Errorf("len = %d; want 16", len(pwd))
	}
	for _, c := range pwd {
		if !strings.ContainsRune(passwordCharset, c) {
			t.Errorf("character %q not in charset", c)
		}
	}

	// two consecutive credentials must differ
	pwd2, err := RandomPassword(16)
	if err != nil {
		t.Fatalf("RandomPassword(): %v", err)
	}
	if pwd == pwd2 {
		t.Error("two generated credentials are identical")
	}
}
