package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// renderer handles template rendering.
type renderer struct {
	tmpl   *template.Template
	config *Config
}

func newRenderer(cfg *Config) *renderer {
	tmpl := template.Must(template.New("").
		Funcs(templateFuncs()).
		Parse(baseTemplate))
	for name, text := range pageTemplates {
		tmpl = template.Must(tmpl.New(name).Parse(text))
	}
	return &renderer{tmpl: tmpl, config: cfg}
}

// PageData contains common data for all pages.
type PageData struct {
	Title       string
	BasePath    string
	CurrentPath string
	Data        any
}

func (r *renderer) render(w http.ResponseWriter, req *http.Request, name string, data any) error {
	pageData := PageData{
		Title:       name,
		BasePath:    r.config.BasePath,
		CurrentPath: req.URL.Path,
		Data:        data,
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, pageData); err != nil {
		return fmt.Errorf("render template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write(buf.Bytes())
	return err
}

// Template helper functions

var markdownSanitizer = bluemonday.UGCPolicy()

// markdown converts markdown text to sanitized HTML.
func markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(markdownSanitizer.SanitizeBytes(buf.Bytes()))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func truncateText(n int, v any) string {
	s := fmt.Sprint(v)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func roleColor(role string) string {
	switch role {
	case "user":
		return "#2563eb"
	case "assistant":
		return "#16a34a"
	case "system":
		return "#9333ea"
	case "tool":
		return "#ca8a04"
	default:
		return "#6b7280"
	}
}

func jsonEncode(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatTime":    formatTime,
		"formatTimeAgo": formatTimeAgo,
		"truncate":      truncateText,
		"roleColor":     roleColor,
		"json":          jsonEncode,
		"markdown":      markdown,
	}
}

const baseTemplate = `{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>CompactPG</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f9fafb; color: #111827; }
nav { background: #111827; color: #f9fafb; padding: 0.75rem 1.5rem; }
nav a { color: #f9fafb; text-decoration: none; margin-right: 1.5rem; }
main { max-width: 64rem; margin: 1.5rem auto; padding: 0 1rem; }
table { width: 100%; border-collapse: collapse; background: #fff; }
th, td { text-align: left; padding: 0.5rem 0.75rem; border-bottom: 1px solid #e5e7eb; }
.msg { background: #fff; border: 1px solid #e5e7eb; border-radius: 0.5rem; padding: 0.75rem 1rem; margin-bottom: 0.75rem; }
.role { font-weight: 600; font-size: 0.8rem; text-transform: uppercase; }
.meta { color: #6b7280; font-size: 0.8rem; }
pre { background: #f3f4f6; padding: 0.5rem; overflow-x: auto; }
</style>
</head>
<body>
<nav><a href="{{.BasePath}}/sessions">Sessions</a></nav>
<main>{{end}}
{{define "foot"}}</main></body></html>{{end}}`

var pageTemplates = map[string]string{
	"sessions": `{{template "head" .}}
<h1>Sessions</h1>
<table>
<tr><th>ID</th><th>Channel</th><th>State</th><th>Messages</th><th>Updated</th></tr>
{{range .Data.Sessions}}
<tr>
<td><a href="{{$.BasePath}}/sessions/{{.ID}}">{{truncate 24 .ID}}</a></td>
<td>{{.ChannelType}}</td>
<td>{{.State}}</td>
<td>{{len .Messages}}</td>
<td title="{{formatTime .UpdatedAt}}">{{formatTimeAgo .UpdatedAt}}</td>
</tr>
{{end}}
</table>
{{template "foot" .}}`,

	"session_detail": `{{template "head" .}}
<h1>Session {{truncate 24 .Data.Session.ID}}</h1>
<p class="meta">
{{len .Data.Session.Messages}} messages &middot; state {{.Data.Session.State}} &middot;
<a href="{{.BasePath}}/sessions/{{.Data.Session.ID}}/compactions">compaction history</a>
</p>
{{range .Data.Session.Messages}}
<div class="msg">
<span class="role" style="color: {{roleColor (printf "%s" .Role)}}">{{.Role}}</span>
<span class="meta">{{formatTime .Timestamp}}</span>
<div>{{markdown .Content}}</div>
{{if .Metadata}}<pre class="meta">{{json .Metadata}}</pre>{{end}}
</div>
{{end}}
{{template "foot" .}}`,

	"compaction_history": `{{template "head" .}}
<h1>Compactions for {{truncate 24 .Data.SessionID}}</h1>
<table>
<tr><th>When</th><th>Reason</th><th>Removed</th><th>Kept</th><th>Summary</th><th>Fallback</th><th>Duration</th></tr>
{{range .Data.Events}}
<tr>
<td title="{{formatTime .CreatedAt}}">{{formatTimeAgo .CreatedAt}}</td>
<td>{{.Reason}}</td>
<td>{{.MessagesRemoved}}</td>
<td>{{.MessagesKept}}</td>
<td>{{if .UsedSummary}}{{.SummaryLength}} chars{{else}}-{{end}}</td>
<td>{{if .FallbackUsed}}yes{{else}}no{{end}}</td>
<td>{{.DurationMS}}ms</td>
</tr>
{{end}}
</table>
{{template "foot" .}}`,
}
