package i18n

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	// LangParam is the query parameter used to switch language
	LangParam = "lang"
	// LangCookieName stores the language preference for 30 days
	LangCookieName = "language"
	langCookieAge  = 30 * 24 * time.Hour
)

var (
	Chinese = language.MustParse("zh-CN")
	English = language.MustParse("en-US")
)

var supportedTags = []language.Tag{Chinese, English}

var tagMatcher = language.NewMatcher(supportedTags)

func Default() language.Tag {
	return Chinese
}

func Supported() []language.Tag {
	tags := make([]language.Tag, len(supportedTags))
	copy(tags, supportedTags)
	return tags
}

// Resolve picks the page language: ?lang= first, then the value kept in the
// session, then the cookie, then Accept-Language. The bool reports that the
// choice came from ?lang= and should be persisted.
func Resolve(r *http.Request, sessionLang string) (language.Tag, bool) {
	if r == nil {
		return Default(), false
	}
	if tag, ok := Parse(r.URL.Query().Get(LangParam)); ok {
		return tag, true
	}
	if tag, ok := Parse(sessionLang); ok {
		return tag, false
	}
	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := Parse(cookie.Value); ok {
			return tag, false
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, index, confidence := tagMatcher.Match(tags...)
			if confidence != language.No {
				return supportedTags[index], false
			}
		}
	}
	return Default(), false
}

// Parse accepts only the exact supported tags, zh-CN and en-US
func Parse(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.Tag{}, false
	}
	parsed, err := language.Parse(value)
	if err != nil {
		return language.Tag{}, false
	}
	for _, tag := range supportedTags {
		if tag.String() == parsed.String() {
			return tag, true
		}
	}
	return language.Tag{}, false
}

func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int(langCookieAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// T returns the text for key, falling back to the default language and then
// to the key itself
func T(tag language.Tag, key Key) string {
	if text, ok := tables[tag][key]; ok {
		return text
	}
	if text, ok := tables[Default()][key]; ok {
		return text
	}
	return string(key)
}

// Translator binds T to one language, for templates
type Translator struct {
	Tag language.Tag
}

func (tr Translator) T(key Key) string {
	return T(tr.Tag, key)
}

func (tr Translator) Lang() string {
	return tr.Tag.String()
}

func (tr Translator) IsChinese() bool {
	return tr.Tag == Chinese
}
