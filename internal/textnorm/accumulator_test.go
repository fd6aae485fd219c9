package textnorm

import "testing"

func TestTrimLeadingBlankLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no prefix", in: "Hello", want: "Hello"},
		{name: "single newline", in: "\nHello", want: "Hello"},
		{name: "multiple blank lines", in: "\n \n\t\nHello", want: "Hello"},
		{name: "crlf blank lines", in: " \r\n\r\nHello", want: "Hello"},
		{name: "preserve first-line indentation", in: "  Hello", want: "  Hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimLeadingBlankLines(tt.in)
			if got != tt.want {
				t.Fatalf("TrimLeadingBlankLines() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextAccumulatorReturnsWholeValue(t *testing.T) {
	acc := NewTextAccumulator()
	deltas := []string{"\n", " \n", "Hello", " world", ""}
	want := []struct {
		value   string
		changed bool
	}{
		{"", false},
		{"", false},
		{"Hello", true},
		{"Hello world", true},
		{"Hello world", false},
	}

	for i, delta := range deltas {
		value, changed := acc.Push(delta)
		if value != want[i].value || changed != want[i].changed {
			t.Fatalf("delta %d => (%q, %v), want (%q, %v)", i, value, changed, want[i].value, want[i].changed)
		}
	}
}

func TestCodeAccumulatorKeepsLeadingNewlines(t *testing.T) {
	acc := NewCodeAccumulator()
	acc.Push("\n")
	value, changed := acc.Push("print(1)")
	if !changed || value != "\nprint(1)" {
		t.Fatalf("unexpected value %q (changed=%v)", value, changed)
	}
}

func TestAccumulatorReset(t *testing.T) {
	acc := NewTextAccumulator()
	acc.Push("first turn")
	acc.Reset()
	if acc.Len() != 0 {
		t.Fatalf("expected empty accumulator, got %q", acc.String())
	}
	value, _ := acc.Push("\nsecond")
	if value != "second" {
		t.Fatalf("expected leading trim after reset, got %q", value)
	}
}
