package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const displayTimeLayout = "2006-01-02 15:04:05"

var templateFuncs = template.FuncMap{
	// fmtTime renders an optional timestamp in server local time
	"fmtTime": func(v interface{}) string {
		switch t := v.(type) {
		case time.Time:
			if !t.IsZero() {
				return t.Local().Format(displayTimeLayout)
			}
		case *time.Time:
			if t != nil && !t.IsZero() {
				return t.Local().Format(displayTimeLayout)
			}
		}
		return ""
	},
}

// Templates parses the embedded page templates, for gin's SetHTMLTemplate
func Templates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.tmpl")
}
