// Package search строит композитные предикаты поиска по объявлениям:
// текстовый запрос с расширением синонимами и выбранные варианты
// фильтра сворачиваются в один булев матчер.
package search

import (
	"strings"

	"matri-board/internal/markup"
)

// Document подготовленное представление объявления для сопоставления.
// Поля уже без разметки и в нижнем регистре.
type Document struct {
	Email   string
	Content string
}

// NewDocument готовит документ: вырезает разметку из текста и приводит
// оба поля к нижнему регистру.
func NewDocument(email, content string) Document {
	return Document{
		Email:   strings.ToLower(email),
		Content: strings.ToLower(markup.Strip(content)),
	}
}

// Predicate булев матчер по документу.
type Predicate interface {
	Match(doc Document) bool
}

type matchAll struct{}

func (matchAll) Match(Document) bool { return true }

// MatchAll возвращает предикат, пропускающий любой документ.
func MatchAll() Predicate { return matchAll{} }

type contains struct {
	term string
}

func (p contains) Match(d Document) bool {
	return strings.Contains(d.Content, p.term) || strings.Contains(d.Email, p.term)
}

// Contains сопоставляет литеральное вхождение подстроки без учёта
// регистра в текст или email. Спецсимволы шаблонов значения не имеют.
func Contains(term string) Predicate {
	return contains{term: strings.ToLower(term)}
}

type and []Predicate

func (p and) Match(d Document) bool {
	for _, sub := range p {
		if !sub.Match(d) {
			return false
		}
	}
	return true
}

// And требует выполнения всех предикатов. Пустой список пропускает всё.
func And(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return MatchAll()
	case 1:
		return preds[0]
	}
	return and(preds)
}

type or []Predicate

func (p or) Match(d Document) bool {
	for _, sub := range p {
		if sub.Match(d) {
			return true
		}
	}
	return false
}

// Or требует выполнения хотя бы одного предиката. Пустые группы
// вызывающая сторона обязана опускать, а не передавать сюда.
func Or(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return MatchAll()
	case 1:
		return preds[0]
	}
	return or(preds)
}
