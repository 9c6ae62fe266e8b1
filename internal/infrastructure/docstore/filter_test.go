package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Matches(t *testing.T) {
	doc := Document{
		"_id":          "d1",
		"name":         "Chess Club",
		"location":     "Room 7",
		"price":        7.0,
		"availability": 12.0,
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter matches all", Filter{}, true},
		{"substring match", Filter{}.Contains("name", "chess"), true},
		{"substring is case-insensitive", Filter{}.Contains("name", "CHESS"), true},
		{"substring no match", Filter{}.Contains("name", "football"), false},
		{"substring on missing field", Filter{}.Contains("organizer", "x"), false},
		{"substring on numeric field", Filter{}.Contains("price", "7"), false},
		{"numeric equality", Filter{}.Equals("price", 7), true},
		{"numeric inequality", Filter{}.Equals("price", 8), false},
		{"numeric on text field", Filter{}.Equals("name", 7), false},
		{"numeric on missing field", Filter{}.Equals("rating", 7), false},
		{"disjunction, one clause hits", Filter{}.Contains("name", "nope").Equals("availability", 12), true},
		{"disjunction, no clause hits", Filter{}.Contains("name", "nope").Equals("availability", 13), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(doc))
		})
	}
}

func TestFilter_MatchesIntegerValues(t *testing.T) {
	// Seeded documents may carry int availability before a round trip
	// through JSON turns it into float64.
	doc := Document{"availability": 7}

	assert.True(t, Filter{}.Equals("availability", 7.0).Matches(doc))
	assert.False(t, Filter{}.Equals("availability", 6.0).Matches(doc))
}
