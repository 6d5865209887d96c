package sanitize

import "testing"

func TestLine(t *testing.T) {
	cases := map[string]string{
		"  Grundschule   am\tPark ": "Grundschule am Park",
		"<b>Klasse 3a</b>":          "Klasse 3a",
		"&lt;script&gt;x":           "x",
		"Tom &amp; Jerry":           "Tom & Jerry",
	}
	for in, want := range cases {
		if got := Line(in); got != want {
			t.Errorf("Line(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTextKeepsLineBreaks(t *testing.T) {
	got := Text("Strophe 1\nRefrain <i>2x</i>")
	if got != "Strophe 1\nRefrain 2x" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("expected nil for nil input")
	}
	blank := "  <br> "
	if TextPtr(&blank) != nil {
		t.Fatal("expected nil for blank input")
	}
	v := "Notiz"
	if got := TextPtr(&v); got == nil || *got != "Notiz" {
		t.Fatalf("unexpected %v", got)
	}
}
