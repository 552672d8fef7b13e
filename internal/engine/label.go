package engine

import (
	"fmt"
	"strings"
)

// DefaultAlphabet is the default hint alphabet: home-row first, letters
// only. Digits and visually ambiguous pairs (0/O, 1/l) never appear.
const DefaultAlphabet = "asdfghjklqwertyuiopzxcvbnm"

// Alphabet is a validated label character set.
type Alphabet struct {
	letters []rune
}

// NewAlphabet validates and normalizes a character set: lowercase,
// duplicates removed, at least two letters.
func NewAlphabet(chars string) (Alphabet, error) {
	seen := make(map[rune]bool)
	var letters []rune
	for _, r := range strings.ToLower(chars) {
		if r < 'a' || r > 'z' {
			return Alphabet{}, fmt.Errorf("alphabet must contain only letters, got %q", r)
		}
		if !seen[r] {
			seen[r] = true
			letters = append(letters, r)
		}
	}
	if len(letters) < 2 {
		return Alphabet{}, fmt.Errorf("alphabet needs at least 2 distinct letters, got %d", len(letters))
	}
	return Alphabet{letters: letters}, nil
}

// MustAlphabet is NewAlphabet for compile-time-constant sets.
func MustAlphabet(chars string) Alphabet {
	a, err := NewAlphabet(chars)
	if err != nil {
		panic(err)
	}
	return a
}

// Size returns the number of letters.
func (a Alphabet) Size() int { return len(a.letters) }

// String returns the normalized letter sequence.
func (a Alphabet) String() string { return string(a.letters) }

// LabelLength returns the fixed code length for n labels:
// max(1, ceil(log_A n)).
func (a Alphabet) LabelLength(n int) int {
	length := 1
	capacity := a.Size()
	for capacity < n {
		capacity *= a.Size()
		length++
	}
	return length
}

// AssignLabels produces n unique labels of equal length in counting
// order. Equal length makes the set prefix-free by construction, which
// keeps incremental matching unambiguous without a commit keystroke.
func (a Alphabet) AssignLabels(n int) []string {
	if n <= 0 {
		return nil
	}
	length := a.LabelLength(n)
	labels := make([]string, n)
	buf := make([]rune, length)
	for i := 0; i < n; i++ {
		v := i
		for pos := length - 1; pos >= 0; pos-- {
			buf[pos] = a.letters[v%a.Size()]
			v /= a.Size()
		}
		labels[i] = string(buf)
	}
	return labels
}
