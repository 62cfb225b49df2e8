package search

import (
	"testing"

	"matri-board/internal/domain"
)

func testSynonyms() domain.SynonymIndex {
	return domain.SynonymIndex{
		"fair": {"fair", "gori", "светлая"},
		"gori": {"fair", "gori", "светлая"},
	}
}

func testCatalog() domain.FilterCatalog {
	return domain.FilterCatalog{
		1: {SectionID: 10, Value: "doctor"},
		2: {SectionID: 10, Value: "engineer"},
		3: {SectionID: 20, Value: "delhi"},
		4: {SectionID: 20, Value: "mumbai"},
	}
}

func doc(content string) Document {
	return NewDocument("user@example.com", content)
}

func TestQueryTermsAreConjunctive(t *testing.T) {
	p := Build("fair tall", nil, testSynonyms(), nil)

	if !p.Match(doc("gori and tall bride")) {
		t.Fatalf("синоним gori плюс tall должны совпасть")
	}
	if p.Match(doc("gori bride")) {
		t.Fatalf("без tall совпадения быть не должно")
	}
	if p.Match(doc("fair and short")) {
		t.Fatalf("без tall совпадения быть не должно")
	}
	if !p.Match(doc("fair tall groom")) {
		t.Fatalf("буквальные слова тоже должны совпасть")
	}
}

func TestSynonymExpansionKeepsOriginalTerm(t *testing.T) {
	// Группа не содержит само слово — оно всё равно должно искаться.
	idx := domain.SynonymIndex{"slim": {"худая", "стройная"}}
	p := Build("slim", nil, idx, nil)
	if !p.Match(doc("slim bride")) {
		t.Fatalf("исходное слово не должно выпадать при расширении")
	}
	if !p.Match(doc("стройная невеста")) {
		t.Fatalf("слова группы должны совпадать")
	}
}

func TestTermWithoutGroupMatchesLiterally(t *testing.T) {
	p := Build("qualified", nil, testSynonyms(), nil)
	if !p.Match(doc("well qualified groom")) {
		t.Fatalf("слово без группы ищется буквально")
	}
	if p.Match(doc("nothing relevant")) {
		t.Fatalf("лишнего совпадения быть не должно")
	}
}

func TestMatchAgainstEmailField(t *testing.T) {
	p := Build("sharma", nil, nil, nil)
	d := NewDocument("a.sharma@example.com", "no family name here")
	if !p.Match(d) {
		t.Fatalf("вхождение в email должно засчитываться")
	}
}

func TestCaseFoldingOnBothSides(t *testing.T) {
	p := Build("TALL", nil, nil, nil)
	if !p.Match(NewDocument("", "<p>Tall Groom</p>")) {
		t.Fatalf("поиск без учёта регистра и разметки")
	}
}

func TestFilterOptionsOrWithinSectionAndAcrossSections(t *testing.T) {
	// Одна секция, два варианта: достаточно любого.
	p := Build("", []int64{1, 2}, nil, testCatalog())
	if !p.Match(doc("doctor from pune")) {
		t.Fatalf("достаточно одного варианта секции")
	}
	if !p.Match(doc("software engineer")) {
		t.Fatalf("достаточно одного варианта секции")
	}
	if p.Match(doc("teacher from pune")) {
		t.Fatalf("ни один вариант секции не найден")
	}

	// Две секции: нужно по одному из каждой.
	p = Build("", []int64{1, 3}, nil, testCatalog())
	if !p.Match(doc("doctor settled in delhi")) {
		t.Fatalf("по варианту из каждой секции должно совпасть")
	}
	if p.Match(doc("doctor from mumbai")) {
		t.Fatalf("вторая секция не удовлетворена")
	}
	if p.Match(doc("delhi based teacher")) {
		t.Fatalf("первая секция не удовлетворена")
	}
}

func TestUnknownOptionIDsAreDropped(t *testing.T) {
	valid := Build("", []int64{1}, nil, testCatalog())
	mixed := Build("", []int64{1, 999, -5}, nil, testCatalog())

	for _, content := range []string{"doctor here", "engineer here", "nothing"} {
		if valid.Match(doc(content)) != mixed.Match(doc(content)) {
			t.Fatalf("невалидные id должны игнорироваться: расхождение на %q", content)
		}
	}
}

func TestOnlyInvalidOptionIDsMeanNoConstraint(t *testing.T) {
	p := Build("", []int64{999}, nil, testCatalog())
	if !p.Match(doc("совершенно любой текст")) {
		t.Fatalf("пустая после отбрасывания группа не должна ничего ограничивать")
	}
}

func TestBlankQueryAddsNoConstraint(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		p := Build(q, nil, testSynonyms(), testCatalog())
		if !p.Match(doc("anything at all")) {
			t.Fatalf("пустой запрос %q должен пропускать всё", q)
		}
	}
}

func TestQueryAndFiltersCombineWithAnd(t *testing.T) {
	p := Build("tall", []int64{1}, testSynonyms(), testCatalog())
	if !p.Match(doc("tall doctor")) {
		t.Fatalf("запрос и фильтр вместе должны совпасть")
	}
	if p.Match(doc("tall teacher")) {
		t.Fatalf("фильтр не удовлетворён")
	}
	if p.Match(doc("short doctor")) {
		t.Fatalf("запрос не удовлетворён")
	}
}

func TestSpecialCharactersAreLiteral(t *testing.T) {
	catalog := domain.FilterCatalog{7: {SectionID: 1, Value: "c++ (senior)"}}
	p := Build("", []int64{7}, nil, catalog)
	if !p.Match(doc("developer c++ (senior) level")) {
		t.Fatalf("спецсимволы должны сопоставляться буквально")
	}
	if p.Match(doc("developer c senior level")) {
		t.Fatalf("значение не регулярное выражение")
	}

	p = Build("a+b", nil, nil, nil)
	if !p.Match(doc("formula a+b here")) {
		t.Fatalf("термин с плюсом ищется буквально")
	}
	if p.Match(doc("aab")) {
		t.Fatalf("плюс не квантификатор")
	}
}

func TestSubstringNotWholeWordMatch(t *testing.T) {
	p := Build("eng", nil, nil, nil)
	if !p.Match(doc("software engineer")) {
		t.Fatalf("вхождение подстроки достаточно, целое слово не требуется")
	}
}
