package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/mealtime-backend/pkg/errors"
	"github.com/angelmondragon/mealtime-backend/pkg/types"
)

type periodBody struct {
	Start types.Date `json:"start_date" validate:"required"`
	Name  string     `json:"name" validate:"omitempty,max=5"`
}

func decode(body string) (periodBody, error) {
	var dest periodBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSONBody(req, &dest)
	return dest, err
}

func TestDecodeJSONBody(t *testing.T) {
	got, err := decode(`{"start_date":"2026-10-05","name":"week"}`)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC), got.Start.Time)
}

func TestDecodeJSONBodyFieldErrors(t *testing.T) {
	_, err := decode(`{"name":"toolongname"}`)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["start_date"])
	assert.Equal(t, "must be at most 5 characters", details["name"])
}

func TestDecodeJSONBodyRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"bad date":      `{"start_date":"10/05/2026"}`,
		"unknown field": `{"start_date":"2026-10-05","extra":1}`,
		"two objects":   `{"start_date":"2026-10-05"}{"start_date":"2026-10-06"}`,
		"too large":     `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decode(body)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "error: %v", err)
		})
	}
}

func TestTrimText(t *testing.T) {
	assert.Equal(t, "Week", TrimText("  Week  ", 10))
	assert.Equal(t, "Café", TrimText("Café crème", 4))
	assert.Equal(t, "abc", TrimText("abc", 0))
}

func TestQueryParsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?days=14&start=2026-10-05&bad=x&with=not-a-uuid", nil)

	days, err := ParseQueryInt(req, "days", 30, 1, 365)
	require.NoError(t, err)
	assert.Equal(t, 14, days)

	days, err = ParseQueryInt(req, "missing", 30, 1, 365)
	require.NoError(t, err)
	assert.Equal(t, 30, days)

	_, err = ParseQueryInt(req, "bad", 30, 1, 365)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	start, err := ParseQueryDate(req, "start")
	require.NoError(t, err)
	assert.Equal(t, 5, start.Day())

	_, err = ParseQueryDate(req, "end")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseQueryUUID(req, "with")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
