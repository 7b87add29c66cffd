package csvexport

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_QuotesAndRoundTrip(t *testing.T) {
	records := []Record{{
		{Key: "a", Value: "x,y"},
		{Key: "b", Value: `He said "hi"`},
	}}

	out := Encode(records)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "a,b", lines[0])
	assert.Equal(t, `"x,y","He said ""hi"""`, lines[1])

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"x,y", `He said "hi"`}, rows[1])
}

func TestEncode_EmptyInputIsSentinel(t *testing.T) {
	assert.Equal(t, NoDataSentinel, Encode(nil))
	assert.Equal(t, NoDataSentinel, Encode([]Record{}))
	assert.NotContains(t, Encode(nil), ",")
}

func TestEncode_HeaderOrderAndMissingKeys(t *testing.T) {
	records := []Record{
		{{Key: "id", Value: 1}, {Key: "name", Value: "Ahmed"}, {Key: "phone_other", Value: nil}},
		{{Key: "name", Value: "Mona"}, {Key: "id", Value: 2}},
	}
	out := Encode(records)
	assert.Equal(t, "id,name,phone_other\n1,Ahmed,\"\"\n2,Mona,\"\"", out)
}

func TestEncode_MultilineRoundTrip(t *testing.T) {
	records := []Record{
		{{Key: "name", Value: "line1\nline2"}, {Key: "job", Value: "سباك"}, {Key: "verified", Value: true}},
		{{Key: "name", Value: ""}, {Key: "job", Value: "نجار, وحداد"}, {Key: "verified", Value: false}},
	}
	out := Encode(records)
	assert.Equal(t, out, Encode(records), "encoding must be deterministic")

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"name", "job", "verified"},
		{"line1\nline2", "سباك", "true"},
		{"", "نجار, وحداد", "false"},
	}, rows)
}

func TestEscapeField(t *testing.T) {
	s := "ptr"
	var nilStr *string
	ts := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, `""`},
		{"empty", "", `""`},
		{"plain", "Cairo", "Cairo"},
		{"comma", "a,b", `"a,b"`},
		{"quote", `5" pipe`, `"5"" pipe"`},
		{"newline", "a\nb", "\"a\nb\""},
		{"string pointer", &s, "ptr"},
		{"nil string pointer", nilStr, `""`},
		{"int", 42, "42"},
		{"bool", true, "true"},
		{"time", ts, "2024-03-10T12:00:00Z"},
		{"zero time", time.Time{}, `""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeField(tt.in))
		})
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "workers_2024-03-10_09-05-07.csv", Filename(now))
}
