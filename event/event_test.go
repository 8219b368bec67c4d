package event

import (
	"errors"
	"testing"
)

func TestKind_String(t *testing.T) {
	t.Parallel()

	tests := map[Kind]string{
		KindArray:     "array",
		KindEndObject: "endObject",
		KindDataError: "dataError",
		Kind(0):       "kind(0)",
		Kind(200):     "kind(200)",
	}

	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}

	if len(Kinds) != int(KindDataError) {
		t.Errorf("Kinds has %d entries, want %d", len(Kinds), KindDataError)
	}
}

func TestKind_IsValue(t *testing.T) {
	t.Parallel()

	values := map[Kind]bool{
		KindString: true, KindNumber: true, KindLiteral: true, KindEndArray: true, KindEndObject: true,
	}
	for _, kind := range Kinds {
		if got := kind.IsValue(); got != values[kind] {
			t.Errorf("%s.IsValue() = %t, want %t", kind, got, values[kind])
		}
	}
}

func TestEvent_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event Event
		want  string
	}{
		{Object(), "object"},
		{Property("a"), `property("a")`},
		{String(`foo\n`), `string("foo\\n")`},
		{Number(1), "number(1)"},
		{Number(-0.5), "number(-0.5)"},
		{Literal(nil), "literal(null)"},
		{Literal(true), "literal(true)"},
		{EndArray(), "endArray"},
		{DataError(errors.New("Circular reference.")), "dataError(Circular reference.)"},
		{End(), "end"},
	}

	for _, tt := range tests {
		if got := tt.event.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "foo bar", want: "foo bar"},
		{name: "quotes and controls", in: "foo\nbar\t\"baz\"", want: `foo\nbar\t\"baz\"`},
		{name: "backslash", in: `a\b`, want: `a\\b`},
		{name: "short escapes", in: "\b\f\r", want: `\b\f\r`},
		{name: "other control", in: "\x00\x1f", want: `\u0000\u001f`},
		{name: "unicode untouched", in: "façade ☃ <&>", want: "façade ☃ <&>"},
		{name: "invalid utf8", in: "a\xffb", want: "a\ufffdb"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Escape(tt.in); got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if got := string(AppendEscaped([]byte("x"), tt.in)); got != "x"+tt.want {
				t.Errorf("AppendEscaped(%q) = %q, want %q", tt.in, got, "x"+tt.want)
			}
		})
	}
}

func TestUnescape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "qux", want: "qux"},
		{name: "round trip", in: `foo\nbar\t\"baz\"`, want: "foo\nbar\t\"baz\""},
		{name: "solidus", in: `a\/b`, want: "a/b"},
		{name: "unicode", in: `\u0041\u00e9`, want: "A\u00e9"},
		{name: "surrogate pair", in: `\ud83d\ude00`, want: "\U0001F600"},
		{name: "lone surrogate", in: `\ud83dx`, wantErr: true},
		{name: "trailing backslash", in: `abc\`, wantErr: true},
		{name: "unknown escape", in: `\q`, wantErr: true},
		{name: "short unicode", in: `\u12`, wantErr: true},
		{name: "bad hex", in: `\u12zz`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Unescape(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEscape) {
					t.Fatalf("Unescape(%q) error = %v, want ErrInvalidEscape", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unescape(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Unescape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "plain", "tab\tnew\nline", `"quoted" \ slash`, "\x01\x02", "日本語"} {
		got, err := Unescape(Escape(s))
		if err != nil {
			t.Fatalf("Unescape(Escape(%q)) error = %v", s, err)
		}
		if got != s {
			t.Errorf("Unescape(Escape(%q)) = %q", s, got)
		}
	}
}
