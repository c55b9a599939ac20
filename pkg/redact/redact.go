// Package redact masks personally identifiable values in log output.
package redact

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// Redaction replaces masked values.
	Redaction = "***"
	// Separator terminates a field=value pair in a log message.
	Separator = ";"
)

// PIIFields are the user table columns that must never be logged in clear.
var PIIFields = []string{"email", "hashed_password", "session_id", "reset_token", "password"}

// FilterDatum returns message with the value of every field=value pair
// (value ending at separator) replaced by redaction.
func FilterDatum(fields []string, redaction, message, separator string) string {
	for _, f := range fields {
		message = fieldPattern(f, separator).ReplaceAllLiteralString(message, f+"="+redaction+separator)
	}
	return message
}

func fieldPattern(field, separator string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(field) + "=.*?" + regexp.QuoteMeta(separator))
}

// Formatter decorates a logrus.Formatter, masking listed fields both inside
// the message (field=value; form) and in structured entry data.
type Formatter struct {
	Next     logrus.Formatter
	fields   []string
	keys     map[string]struct{}
	patterns []*regexp.Regexp
}

func NewFormatter(next logrus.Formatter, fields []string) *Formatter {
	f := &Formatter{Next: next, fields: fields, keys: make(map[string]struct{}, len(fields))}
	for _, name := range fields {
		f.keys[strings.ToLower(name)] = struct{}{}
		f.patterns = append(f.patterns, fieldPattern(name, Separator))
	}
	return f
}

func (f *Formatter) Format(e *logrus.Entry) ([]byte, error) {
	// entries are shared with other hooks; mask a copy
	masked := e.Dup()
	masked.Level = e.Level
	masked.Message = e.Message
	masked.Caller = e.Caller
	for i, p := range f.patterns {
		masked.Message = p.ReplaceAllLiteralString(masked.Message, f.fields[i]+"="+Redaction+Separator)
	}
	for k := range masked.Data {
		if _, ok := f.keys[strings.ToLower(k)]; ok {
			masked.Data[k] = Redaction
		}
	}
	return f.Next.Format(masked)
}
