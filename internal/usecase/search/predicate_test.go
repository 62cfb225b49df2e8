package search

import "testing"

func TestAndOfNothingMatchesEverything(t *testing.T) {
	if !And().Match(Document{Content: "x"}) {
		t.Fatalf("пустой And — тождественно истинный предикат")
	}
}

func TestCombinatorsCompose(t *testing.T) {
	p := And(Contains("tall"), Or(Contains("doctor"), Contains("engineer")))
	if !p.Match(Document{Content: "tall doctor"}) {
		t.Fatalf("ожидали совпадение")
	}
	if p.Match(Document{Content: "tall teacher"}) {
		t.Fatalf("Or не удовлетворён")
	}
	if p.Match(Document{Content: "short doctor"}) {
		t.Fatalf("And не удовлетворён")
	}
}

func TestNewDocumentStripsMarkupAndFoldsCase(t *testing.T) {
	d := NewDocument("User@Example.COM", "<p>Fair <strong>Bride</strong></p>")
	if d.Email != "user@example.com" {
		t.Fatalf("email должен быть в нижнем регистре: %q", d.Email)
	}
	if d.Content != "fair bride" {
		t.Fatalf("текст без разметки и в нижнем регистре: %q", d.Content)
	}
}
