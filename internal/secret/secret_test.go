package secret

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_NeverRendersPlainText(t *testing.T) {
	s := New("hunter2")

	renders := []string{
		s.String(),
		fmt.Sprint(s),
		fmt.Sprintf("%v", s),
		fmt.Sprintf("%+v", s),
		fmt.Sprintf("%#v", s),
		fmt.Sprintf("%s", s),
		fmt.Sprintf("%q", s),
		fmt.Sprintf("%v", struct{ P Value }{s}),
		fmt.Sprintf("%+v", struct{ P Value }{s}),
	}
	for _, r := range renders {
		assert.NotContains(t, r, "hunter2")
	}

	b, err := json.Marshal(struct {
		Password Value `json:"password"`
	}{s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"password":"***"}`, string(b))

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("config", "password", s)
	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), Redacted)
}

func TestValue_RevealAndZero(t *testing.T) {
	assert.Equal(t, "hunter2", New("hunter2").Reveal())
	assert.True(t, New("").IsZero())
	assert.Equal(t, "", New("").String())
}
