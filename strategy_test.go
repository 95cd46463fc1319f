package lockbench

import (
	"errors"
	"testing"
)

// TestParseStrategy verifies the numeric selector mapping.
func TestParseStrategy(t *testing.T) {
	cases := []struct {
		selector int
		want     Strategy
	}{
		{1, SafeSingle},
		{2, Deadlock},
		{3, ScopedDual},
		{4, OrderedDual},
	}

	for _, c := range cases {
		got, err := ParseStrategy(c.selector)
		if err != nil {
			t.Errorf("ParseStrategy(%d) failed: %v", c.selector, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseStrategy(%d) = %v, want %v", c.selector, got, c.want)
		}
	}
}

// TestParseStrategy_OutOfRange verifies selectors outside 1..4 are rejected.
func TestParseStrategy_OutOfRange(t *testing.T) {
	for _, selector := range []int{-1, 0, 5, 42} {
		_, err := ParseStrategy(selector)
		if err == nil {
			t.Errorf("ParseStrategy(%d) accepted an unknown selector", selector)
			continue
		}
		if !errors.Is(err, ErrUnknownStrategy) {
			t.Errorf("ParseStrategy(%d) error = %v, want ErrUnknownStrategy", selector, err)
		}
	}
}

// TestStrategy_String verifies the display names.
func TestStrategy_String(t *testing.T) {
	cases := []struct {
		s    Strategy
		want string
	}{
		{SafeSingle, "safe-single"},
		{Deadlock, "deadlock"},
		{ScopedDual, "scoped-dual"},
		{OrderedDual, "ordered-dual"},
		{Strategy(9), "strategy(9)"},
	}

	for _, c := range cases {
		if got := c.s.String(); got != c.want {
			t.Errorf("String(%d) = %q, want %q", int(c.s), got, c.want)
		}
	}
}

// TestStrategy_Terminates verifies only the negative control hangs.
func TestStrategy_Terminates(t *testing.T) {
	for _, s := range []Strategy{SafeSingle, ScopedDual, OrderedDual} {
		if !s.Terminates() {
			t.Errorf("%s should terminate", s)
		}
	}
	if Deadlock.Terminates() {
		t.Error("deadlock should not terminate")
	}
}
