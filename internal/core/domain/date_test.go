package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stashsync/internal/core/domain"
)

func TestDate_Parse(t *testing.T) {
	d, err := domain.ParseDate("2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 31, d.Day())
	assert.Equal(t, "2026-03-31", d.String())
	assert.Equal(t, "2026-03", d.MonthKey())

	_, err = domain.ParseDate("31/03/2026")
	assert.ErrorContains(t, err, domain.ErrInvalidDate.Error())
}

func TestDate_Months(t *testing.T) {
	jan := domain.MustParseDate("2026-01-31")

	assert.Equal(t, domain.MustParseDate("2026-03-03"), jan.AddMonths(1), "overflowing days roll into the next month")
	assert.Equal(t, domain.MustParseDate("2025-11-30"), domain.MustParseDate("2026-01-30").AddMonths(-2))
	assert.Equal(t, 13, jan.MonthsUntil(domain.MustParseDate("2027-02-01")))
	assert.Equal(t, -1, jan.MonthsUntil(domain.MustParseDate("2025-12-31")))
	assert.True(t, jan.Before(domain.MustParseDate("2026-02-01")))
	assert.True(t, jan.After(domain.MustParseDate("2026-01-30")))
}

func TestDate_DateOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	at := time.Date(2026, 1, 31, 20, 0, 0, 0, time.UTC).In(loc)

	assert.Equal(t, "2026-02-01", domain.DateOf(at).String())
}

func TestDate_JSON(t *testing.T) {
	type doc struct {
		Due domain.Date `json:"due"`
	}

	data, err := json.Marshal(doc{Due: domain.MustParseDate("2026-07-04")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2026-07-04"}`, string(data))

	var back doc
	require.NoError(t, json.Unmarshal([]byte(`{"due":""}`), &back))
	assert.True(t, back.Due.IsZero())
	assert.Empty(t, back.Due.String())

	err = json.Unmarshal([]byte(`{"due":"July"}`), &back)
	assert.ErrorContains(t, err, domain.ErrInvalidDate.Error())
}
