package web

import (
	"net/url"

	"meetgate/auth"
	"meetgate/i18n"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const translatorKey = "translator"

// Language resolves the page language once per request. An explicit ?lang=
// choice is kept in a cookie and in the session.
func Language(guard *auth.Guard, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := guard.Load(c)
		tag, explicit := i18n.Resolve(c.Request, session.Language())
		if explicit {
			i18n.SetLanguageCookie(c.Writer, tag)
			if session.Initialize() {
				if err := session.SetLanguage(tag.String()); err != nil {
					log.Warn("language choice not saved in session", zap.Error(err))
				}
			}
		}
		c.Set(translatorKey, i18n.Translator{Tag: tag})
		c.Next()
	}
}

func translator(c *gin.Context) i18n.Translator {
	if v, ok := c.Get(translatorKey); ok {
		if tr, ok := v.(i18n.Translator); ok {
			return tr
		}
	}
	return i18n.Translator{Tag: i18n.Default()}
}

// pageData carries what every template needs: the translator and the link
// to the other language
func pageData(c *gin.Context, extra gin.H) gin.H {
	tr := translator(c)
	other, label := i18n.Chinese, "中文"
	if tr.IsChinese() {
		other, label = i18n.English, "English"
	}
	q := url.Values{}
	for k, v := range c.Request.URL.Query() {
		if k != "error" {
			q[k] = v
		}
	}
	q.Set(i18n.LangParam, other.String())

	data := gin.H{
		"tr":           tr,
		"switch_url":   c.Request.URL.Path + "?" + q.Encode(),
		"switch_label": label,
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}
