package redact

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterDatum(t *testing.T) {
	tests := []struct {
		name      string
		fields    []string
		redaction string
		message   string
		separator string
		want      string
	}{
		{
			name:      "semicolon separated",
			fields:    []string{"password", "date_of_birth"},
			redaction: "xxx",
			message:   "name=egg;email=eggmin@eggsample.com;password=eggcellent;date_of_birth=12/12/1986;",
			separator: ";",
			want:      "name=egg;email=eggmin@eggsample.com;password=xxx;date_of_birth=xxx;",
		},
		{
			name:      "regex metacharacters in separator",
			fields:    []string{"email"},
			redaction: "***",
			message:   "email=a@b.c|id=7|",
			separator: "|",
			want:      "email=***|id=7|",
		},
		{
			name:      "unterminated value is left alone",
			fields:    []string{"email"},
			redaction: "***",
			message:   "id=1;email=a@b.c",
			separator: ";",
			want:      "id=1;email=a@b.c",
		},
		{
			name:      "no fields",
			fields:    nil,
			redaction: "***",
			message:   "email=a@b.c;",
			separator: ";",
			want:      "email=a@b.c;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterDatum(tt.fields, tt.redaction, tt.message, tt.separator))
		})
	}
}

func TestFormatter_MasksMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(NewFormatter(&logrus.JSONFormatter{}, PIIFields))

	entry := logger.WithFields(logrus.Fields{"session_id": "abc-123", "user_id": 42})
	entry.Info("email=bob@example.com; reset_token=t-1; last_login=today;")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.NotContains(t, out, "bob@example.com")
	assert.NotContains(t, out, "abc-123")
	assert.NotContains(t, out, "t-1")
	assert.Contains(t, out, "last_login=today;")
	assert.Contains(t, out, `"user_id":42`)

	// the original entry keeps its data for other hooks
	assert.Equal(t, "abc-123", entry.Data["session_id"])
}
