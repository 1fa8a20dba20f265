// Package views embeds the HTML templates.
package views

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.tmpl
var files embed.FS

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
	"datetime": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return "never"
		}
		return t.Format("Jan 2, 2006 15:04")
	},
	"media": func(root, name string) string { return root + name },
}

// Load parses every template; names are the file base names ("login.tmpl").
func Load() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(files, "templates/*.tmpl")
}
