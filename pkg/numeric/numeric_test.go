package numeric

import "testing"

func TestAssignWidthUnsignedTruncates(t *testing.T) {
	v := FromInt64(300, Type{Width: 32, Sign: Unsigned})
	got := AssignWidth(v, Type{Width: 8, Sign: Unsigned})
	if got.Int64() != 44 { // 300 mod 256
		t.Errorf("got %d, want 44", got.Int64())
	}
}

func TestAssignWidthSignedWraps(t *testing.T) {
	v := FromInt64(200, Type{Width: 32, Sign: Unsigned})
	got := AssignWidth(v, Type{Width: 8, Sign: Signed})
	if got.Int64() != -56 { // 200 - 256
		t.Errorf("got %d, want -56", got.Int64())
	}
}

func TestAssignWidthZeroWidthIsNoTruncate(t *testing.T) {
	v := FromInt64(12345, Type{})
	got := AssignWidth(v, Type{})
	if got.Int64() != 12345 {
		t.Errorf("got %d, want 12345", got.Int64())
	}
}

func TestIsOne(t *testing.T) {
	if !One().IsOne() {
		t.Error("One() should be IsOne")
	}
	if Zero().IsOne() {
		t.Error("Zero() should not be IsOne")
	}
	if (Value{}).IsOne() {
		t.Error("zero-value Value should not be IsOne")
	}
}

func TestEqual(t *testing.T) {
	a := FromInt64(5, Type{Width: 8})
	b := FromInt64(5, Type{Width: 16})
	if !Equal(a, b) {
		t.Error("values with equal ints but different types should be Equal")
	}
	c := FromInt64(6, Type{Width: 8})
	if Equal(a, c) {
		t.Error("5 and 6 should not be Equal")
	}
}

func TestSign(t *testing.T) {
	if FromInt64(-5, Type{}).Sign() != -1 {
		t.Error("expected negative sign")
	}
	if FromInt64(5, Type{}).Sign() != 1 {
		t.Error("expected positive sign")
	}
	if FromInt64(0, Type{}).Sign() != 0 {
		t.Error("expected zero sign")
	}
}

func TestTypeString(t *testing.T) {
	s := Type{Width: 8, Sign: Unsigned}.String()
	if s != "ubit8" {
		t.Errorf("got %q, want %q", s, "ubit8")
	}
	s = Type{Width: 16, Sign: Signed}.String()
	if s != "sbit16" {
		t.Errorf("got %q, want %q", s, "sbit16")
	}
}
