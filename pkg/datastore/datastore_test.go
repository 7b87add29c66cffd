package datastore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("active_visitors"))
	assert.True(t, ValidIdentifier("_x1"))
	assert.False(t, ValidIdentifier(""))
	assert.False(t, ValidIdentifier("Workers"))
	assert.False(t, ValidIdentifier("workers; drop table visits"))
	assert.False(t, ValidIdentifier("1abc"))
}

func TestCheckIdentifiers(t *testing.T) {
	require.NoError(t, CheckIdentifiers("visits", Query{
		Columns: []string{"visitor_id"},
		Filters: []Condition{Gte("created_at", time.Now())},
		Order:   []Order{Asc("created_at")},
	}))

	err := CheckIdentifiers("visits", Query{Order: []Order{Desc("created_at desc")}})
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))

	err = CheckIdentifiers("bad table", Query{})
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))
}

func TestRecord_Columns(t *testing.T) {
	r := Record{"visitor_id": "v", "created_at": 1, "page_url": "/"}
	assert.Equal(t, []string{"created_at", "page_url", "visitor_id"}, r.Columns())
}

func TestRecord_Decoders(t *testing.T) {
	ts := time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)
	r := Record{
		"name":        "Ahmed",
		"raw":         []byte("bytes"),
		"nothing":     nil,
		"verified":    true,
		"verified_s":  "false",
		"created_at":  ts,
		"created_s":   "2024-03-10T12:30:00+00:00",
		"created_pg":  "2024-03-10 12:30:00.123456",
		"count_f":     float64(42),
		"count_i":     int64(7),
		"count_s":     "9",
		"wrong_type":  3.5,
		"bad_time":    "yesterday",
	}

	s, err := r.String("name")
	require.NoError(t, err)
	assert.Equal(t, "Ahmed", s)

	s, err = r.String("raw")
	require.NoError(t, err)
	assert.Equal(t, "bytes", s)

	s, err = r.String("missing")
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = r.String("wrong_type")
	assert.Error(t, err)

	ns, err := r.NullableString("nothing")
	require.NoError(t, err)
	assert.Nil(t, ns)
	ns, err = r.NullableString("name")
	require.NoError(t, err)
	require.NotNil(t, ns)
	assert.Equal(t, "Ahmed", *ns)

	b, err := r.Bool("verified")
	require.NoError(t, err)
	assert.True(t, b)
	b, err = r.Bool("verified_s")
	require.NoError(t, err)
	assert.False(t, b)

	got, err := r.Time("created_at")
	require.NoError(t, err)
	assert.True(t, ts.Equal(got))
	got, err = r.Time("created_s")
	require.NoError(t, err)
	assert.True(t, ts.Equal(got))
	got, err = r.Time("created_pg")
	require.NoError(t, err)
	assert.Equal(t, 123456000, got.Nanosecond())
	_, err = r.Time("bad_time")
	assert.Error(t, err)

	n, err := r.Int64("count_f")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	n, err = r.Int64("count_i")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	n, err = r.Int64("count_s")
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
}
