package labelnorm

import "testing"

func TestKeyStripsDiacritics(t *testing.T) {
	if Key("Educación Pública") != "educacion publica" {
		t.Errorf("Key should strip accents, got %q", Key("Educación Pública"))
	}

	if Key("Ministère de l'Économie") != "ministere de l economie" {
		t.Errorf("unexpected key %q", Key("Ministère de l'Économie"))
	}
}

func TestKeyCollapsesNoise(t *testing.T) {
	cases := map[string]string{
		"  Agency   Y  ":  "agency y",
		"AGENCY-Y":        "agency y",
		"Agency (Y)":      "agency y",
		"":                "",
		"   ":             "",
		"Dept. of Health": "dept of health",
	}

	for in, want := range cases {
		if got := Key(in); got != want {
			t.Errorf("Key(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKeyEquivalence(t *testing.T) {
	// Labels authored differently in the three artifacts must collide.
	a := Key("Ministerio de Educación")
	b := Key("MINISTERIO DE EDUCACION ")
	if a != b {
		t.Errorf("keys should match: %q vs %q", a, b)
	}
}

func TestCleanQuotesAndWhitespace(t *testing.T) {
	if Clean(` "Ministry  of   Health" `) != "Ministry of Health" {
		t.Errorf("unexpected clean: %q", Clean(` "Ministry  of   Health" `))
	}

	if Clean("'Foo'") != "Foo" {
		t.Errorf("single quotes should be stripped, got %q", Clean("'Foo'"))
	}
}

func TestKeyMapFirstOccurrenceWins(t *testing.T) {
	m := KeyMap([]string{"Alpha", "Beta", "ALPHA"})

	if m["alpha"] != 0 {
		t.Errorf("duplicate key should resolve to first occurrence, got %d", m["alpha"])
	}
	if m["beta"] != 1 {
		t.Errorf("expected beta at 1, got %d", m["beta"])
	}
}
