package engine

import (
	"strings"
	"testing"
)

func TestNewAlphabet(t *testing.T) {
	tests := []struct {
		name    string
		chars   string
		want    string
		wantErr bool
	}{
		{name: "normalizes case", chars: "ASDF", want: "asdf"},
		{name: "dedupes", chars: "aabbc", want: "abc"},
		{name: "rejects digits", chars: "ab1", wantErr: true},
		{name: "rejects single letter", chars: "a", wantErr: true},
		{name: "rejects empty", chars: "", wantErr: true},
		{name: "default alphabet", chars: DefaultAlphabet, want: DefaultAlphabet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAlphabet(tt.chars)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewAlphabet(%q) expected error, got %q", tt.chars, a.String())
				}
				return
			}
			if err != nil {
				t.Fatalf("NewAlphabet(%q) unexpected error: %v", tt.chars, err)
			}
			if a.String() != tt.want {
				t.Errorf("NewAlphabet(%q) = %q, want %q", tt.chars, a.String(), tt.want)
			}
		})
	}
}

func TestLabelLength(t *testing.T) {
	a := MustAlphabet("abcd") // size 4
	tests := []struct {
		n    int
		want int
	}{
		{1, 1},
		{4, 1},
		{5, 2},
		{16, 2},
		{17, 3},
		{64, 3},
	}
	for _, tt := range tests {
		if got := a.LabelLength(tt.n); got != tt.want {
			t.Errorf("LabelLength(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestAssignLabels(t *testing.T) {
	a := MustAlphabet("ab")

	labels := a.AssignLabels(5)
	if len(labels) != 5 {
		t.Fatalf("got %d labels, want 5", len(labels))
	}
	// Size 2 alphabet, 5 targets: every label is 3 characters.
	for _, l := range labels {
		if len(l) != 3 {
			t.Errorf("label %q has length %d, want 3", l, len(l))
		}
	}
	want := []string{"aaa", "aab", "aba", "abb", "baa"}
	for i, l := range labels {
		if l != want[i] {
			t.Errorf("labels[%d] = %q, want %q", i, l, want[i])
		}
	}
}

func TestAssignLabelsUniqueAndPrefixFree(t *testing.T) {
	a := MustAlphabet(DefaultAlphabet)
	for _, n := range []int{1, 26, 27, 200, 1000} {
		labels := a.AssignLabels(n)
		seen := make(map[string]bool, n)
		for _, l := range labels {
			if seen[l] {
				t.Fatalf("n=%d: duplicate label %q", n, l)
			}
			seen[l] = true
		}
		// Equal length implies prefix-freedom; verify directly anyway on
		// a sample pair ordering.
		for i := 1; i < len(labels); i++ {
			if len(labels[i]) != len(labels[0]) {
				t.Fatalf("n=%d: mixed lengths %q vs %q", n, labels[0], labels[i])
			}
			if strings.HasPrefix(labels[i], labels[0]) && labels[i] != labels[0] {
				t.Fatalf("n=%d: %q is a prefix of %q", n, labels[0], labels[i])
			}
		}
	}
}

func TestAssignLabelsZero(t *testing.T) {
	if got := MustAlphabet("ab").AssignLabels(0); got != nil {
		t.Errorf("AssignLabels(0) = %v, want nil", got)
	}
}
