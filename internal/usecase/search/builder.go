package search

import (
	"sort"
	"strings"

	"matri-board/internal/domain"
)

// Build собирает предикат из текстового запроса и выбранных вариантов
// фильтра. Запрос конъюнктивен по словам пользователя и дизъюнктивен
// по синонимам каждого слова; варианты фильтра дизъюнктивны внутри
// секции и конъюнктивны между секциями. Пустой запрос и неизвестные
// id вариантов ограничений не добавляют.
func Build(query string, optionIDs []int64, synonyms domain.SynonymIndex, catalog domain.FilterCatalog) Predicate {
	var parts []Predicate

	for _, term := range strings.Fields(strings.ToLower(query)) {
		words := expandTerm(term, synonyms)
		ors := make([]Predicate, 0, len(words))
		for _, w := range words {
			ors = append(ors, Contains(w))
		}
		parts = append(parts, Or(ors...))
	}

	if len(optionIDs) > 0 {
		sections := make(map[int64][]string)
		for _, id := range optionIDs {
			ref, ok := catalog[id]
			if !ok {
				continue
			}
			sections[ref.SectionID] = append(sections[ref.SectionID], ref.Value)
		}
		ids := make([]int64, 0, len(sections))
		for id := range sections {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			values := sections[id]
			ors := make([]Predicate, 0, len(values))
			for _, v := range values {
				ors = append(ors, Contains(v))
			}
			parts = append(parts, Or(ors...))
		}
	}

	return And(parts...)
}

// expandTerm возвращает слово вместе со всеми словами его группы
// синонимов. Исходное слово никогда не выпадает из набора.
func expandTerm(term string, synonyms domain.SynonymIndex) []string {
	group, ok := synonyms[term]
	if !ok {
		return []string{term}
	}
	out := make([]string, 0, len(group)+1)
	out = append(out, term)
	seen := map[string]bool{term: true}
	for _, w := range group {
		w = strings.ToLower(w)
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
