package aggregate

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clicks(spec ...string) []Click {
	base := at("2024-03-10T12:00:00Z")
	out := make([]Click, 0, len(spec))
	for i, id := range spec {
		out = append(out, Click{
			ID:          fmt.Sprintf("c%d", i),
			WorkerID:    id,
			WorkerName:  "name-" + id,
			WorkerPhone: "phone-" + id,
			CreatedAt:   base.Add(-time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestTopContacts_StableTieBreak(t *testing.T) {
	// A:5, B:5, C:3 with A first
	input := clicks("A", "B", "C", "A", "B", "C", "A", "B", "C", "A", "B", "A", "B")

	got := TopContacts(input, 0)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{got[0].WorkerID, got[1].WorkerID, got[2].WorkerID})
	assert.Equal(t, []int{5, 5, 3}, []int{got[0].Count, got[1].Count, got[2].Count})

	// same counts, B appears first
	got = TopContacts(clicks("B", "A", "A", "B", "C"), 0)
	assert.Equal(t, "B", got[0].WorkerID)
	assert.Equal(t, "A", got[1].WorkerID)
}

func TestTopContacts_CarriesFirstRowAndJobSentinel(t *testing.T) {
	input := []Click{
		{WorkerID: "w1", WorkerName: "Ahmed", WorkerPhone: "01012345678", Job: "سباك"},
		{WorkerID: "w2", WorkerName: "Mona", WorkerPhone: "01112345678"},
		{WorkerID: "w1", WorkerName: "Ahmed (old)", WorkerPhone: "01000000000", Job: "نجار"},
		{WorkerID: "", WorkerName: "Unknown", WorkerPhone: "01200000000"},
		{WorkerID: "", WorkerName: "Unknown 2", WorkerPhone: "01200000001"},
	}

	want := []TopContact{
		{WorkerID: "w1", Name: "Ahmed", Phone: "01012345678", Job: "سباك", Count: 2},
		{WorkerID: "", Name: "Unknown", Phone: "01200000000", Job: JobUnavailable, Count: 2},
		{WorkerID: "w2", Name: "Mona", Phone: "01112345678", Job: JobUnavailable, Count: 1},
	}
	if diff := cmp.Diff(want, TopContacts(input, 10)); diff != "" {
		t.Errorf("TopContacts() mismatch (-want +got):\n%s", diff)
	}
}

func TestTopContacts_TruncatesToLimit(t *testing.T) {
	var ids []string
	for i := 0; i < 15; i++ {
		id := fmt.Sprintf("w%02d", i)
		for j := 0; j <= i; j++ {
			ids = append(ids, id)
		}
	}
	got := TopContacts(clicks(ids...), 0)
	require.Len(t, got, DefaultTopContacts)
	assert.Equal(t, "w14", got[0].WorkerID)
	assert.Equal(t, 15, got[0].Count)
	assert.Equal(t, "w05", got[9].WorkerID)

	assert.Len(t, TopContacts(clicks(ids...), 3), 3)
}

func TestTopContacts_Empty(t *testing.T) {
	got := TopContacts(nil, 0)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRecentContacts(t *testing.T) {
	var ids []string
	for i := 0; i < 25; i++ {
		ids = append(ids, fmt.Sprintf("w%d", i))
	}
	input := clicks(ids...)
	// shuffle the input order; output must still be newest first
	input[0], input[24] = input[24], input[0]

	got := RecentContacts(input, 0)
	require.Len(t, got, DefaultRecentContacts)
	assert.Equal(t, "w0", got[0].WorkerID)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt))
	}
	// input untouched
	assert.Equal(t, "w24", input[0].WorkerID)

	assert.Len(t, RecentContacts(input, 5), 5)
	assert.Empty(t, RecentContacts(nil, 0))
}
