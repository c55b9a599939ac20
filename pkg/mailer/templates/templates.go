package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// ResetPassword is the template sent when a reset token is issued.
const ResetPassword = "reset_password"

// EmailData holds the fields the templates read.
type EmailData struct {
	Email       string `json:"Email"`
	AppName     string `json:"AppName"`
	CompanyName string `json:"CompanyName"`
	ResetURL    string `json:"ResetURL"`
	IP          string `json:"IP"`
	UserAgent   string `json:"UserAgent"`
	Time        string `json:"Time"`
}

type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithResetURL(url string) Option { return func(d *EmailData) { d.ResetURL = url } }
func WithCompany(name string) Option { return func(d *EmailData) { d.CompanyName = name } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format("02 January 2006, 15:04 MST") }
}

// NewEmailData builds the data for a message to email sent by appName.
func NewEmailData(appName, email string, opts ...Option) EmailData {
	d := EmailData{Email: email, AppName: appName}
	for _, o := range opts {
		o(&d)
	}
	return d
}

// ToMap converts EmailData to the map carried by an email job.
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// {{ .Value | default "Fallback" }}
func defaultFn(fallback, value any) any {
	switch v := value.(type) {
	case nil:
		return fallback
	case string:
		if strings.TrimSpace(v) == "" {
			return fallback
		}
	}
	return value
}

var funcs = map[string]any{
	"default": defaultFn,
	"upper":   strings.ToUpper,
}

func renderFile(filename string, isHTML bool, data any) (string, error) {
	var (
		buf bytes.Buffer
		err error
	)
	if isHTML {
		tpl, e := htmpl.New(filename).Funcs(htmpl.FuncMap(funcs)).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse html %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	} else {
		tpl, e := texttpl.New(filename).Funcs(texttpl.FuncMap(funcs)).ParseFS(FS, filename)
		if e != nil {
			return "", fmt.Errorf("parse text %q: %w", filename, e)
		}
		err = tpl.Execute(&buf, data)
	}
	if err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}

// Render renders <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl.
func Render(name string, data any) (subject, text, html string, err error) {
	if subject, err = renderFile(name+".subject.tmpl", false, data); err != nil {
		return "", "", "", err
	}
	if text, err = renderFile(name+".text.tmpl", false, data); err != nil {
		return "", "", "", err
	}
	if html, err = renderFile(name+".html.tmpl", true, data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
