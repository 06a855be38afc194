// Package i18n переводит ключи сообщений в локализованные строки.
package i18n

import (
	"golang.org/x/text/language"
)

var catalogs = map[string]map[string]string{
	"ru": ru,
	"en": en,
}

// Translator выбирает язык по заголовку Accept-Language и возвращает перевод ключа
type Translator struct {
	langs   []string
	matcher language.Matcher
}

// New создаёт переводчик с языком по умолчанию defaultLang ("en" или "ru").
// Неизвестный язык заменяется на "en".
func New(defaultLang string) *Translator {
	if _, ok := catalogs[defaultLang]; !ok {
		defaultLang = "en"
	}

	// matcher возвращает первый тег, если совпадений нет
	langs := []string{defaultLang}
	for code := range catalogs {
		if code != defaultLang {
			langs = append(langs, code)
		}
	}

	tags := make([]language.Tag, len(langs))
	for i, code := range langs {
		tags[i] = language.Make(code)
	}

	return &Translator{
		langs:   langs,
		matcher: language.NewMatcher(tags),
	}
}

// T возвращает перевод ключа для значения Accept-Language.
// Неизвестный ключ возвращается как есть.
func (t *Translator) T(acceptLanguage, key string) string {
	if msg, ok := catalogs[t.Lang(acceptLanguage)][key]; ok {
		return msg
	}
	if msg, ok := catalogs[t.langs[0]][key]; ok {
		return msg
	}
	return key
}

// Lang возвращает код языка, выбранного для Accept-Language
func (t *Translator) Lang(acceptLanguage string) string {
	if acceptLanguage == "" {
		return t.langs[0]
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.langs[0]
	}
	_, idx, confidence := t.matcher.Match(tags...)
	if confidence == language.No {
		return t.langs[0]
	}
	return t.langs[idx]
}
