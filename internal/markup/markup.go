// Package markup работает с лёгкой разметкой текста объявлений:
// вырезает теги для подсчёта видимой длины и поиска, и приводит
// пользовательский ввод к белому списку инлайновых тегов.
package markup

import (
	"strings"
	"unicode/utf8"
)

// allowedTags белый список тегов, которые разрешено сохранять
// в тексте объявления. Атрибуты всегда отбрасываются.
var allowedTags = map[string]bool{
	"p":      true,
	"br":     true,
	"strong": true,
	"em":     true,
	"u":      true,
	"ol":     true,
	"ul":     true,
	"li":     true,
}

// Strip удаляет все завершённые теги и обрезает пробелы по краям.
// Незакрытая угловая скобка остаётся в тексте как есть.
func Strip(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '<' {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := strings.IndexByte(s[i:], '>')
		if end < 0 {
			b.WriteString(s[i:])
			break
		}
		i += end + 1
	}
	return strings.TrimSpace(b.String())
}

// VisibleLength возвращает число видимых символов текста без разметки.
func VisibleLength(s string) int {
	return utf8.RuneCountInString(Strip(s))
}

// Sanitize оставляет только теги из белого списка, отбрасывая их
// атрибуты. Содержимое запрещённых тегов сохраняется, сами теги
// удаляются.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '<' {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := strings.IndexByte(s[i:], '>')
		if end < 0 {
			b.WriteString(s[i:])
			break
		}
		inner := s[i+1 : i+end]
		i += end + 1

		closing := strings.HasPrefix(inner, "/")
		name := strings.TrimPrefix(inner, "/")
		name = strings.TrimSuffix(name, "/")
		if idx := strings.IndexAny(name, " \t\n\r"); idx >= 0 {
			name = name[:idx]
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if !allowedTags[name] {
			continue
		}
		if closing {
			b.WriteString("</" + name + ">")
		} else {
			b.WriteString("<" + name + ">")
		}
	}
	return b.String()
}
