package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		make     string
		model    string
		from     string
		to       string
		expected []string
		wantErr  bool
	}{
		{
			name:     "multi year range",
			make:     "Honda",
			model:    "Civic",
			from:     "2018",
			to:       "2020",
			expected: []string{"Honda-Civic-2018", "Honda-Civic-2019", "Honda-Civic-2020"},
		},
		{
			name:     "single year",
			make:     "Toyota",
			model:    "Corolla",
			from:     "2024",
			to:       "2024",
			expected: []string{"Toyota-Corolla-2024"},
		},
		{
			name:    "inverted range",
			make:    "Honda",
			model:   "Civic",
			from:    "2020",
			to:      "2018",
			wantErr: true,
		},
		{
			name:    "non numeric start",
			make:    "Honda",
			model:   "Civic",
			from:    "twenty",
			to:      "2020",
			wantErr: true,
		},
		{
			name:    "non numeric end",
			make:    "Honda",
			model:   "Civic",
			from:    "2018",
			to:      "202x",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.make, tt.model, tt.from, tt.to)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRange)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGenerate_CountAndOrder(t *testing.T) {
	got, err := Generate("Ford", "F-150", "2001", "2010")
	require.NoError(t, err)

	assert.Len(t, got, 10)

	seen := make(map[string]bool, len(got))
	for i, tag := range got {
		assert.False(t, seen[tag], "tag %q duplicated", tag)
		seen[tag] = true

		if i > 0 {
			assert.Less(t, got[i-1], tag, "year tags must ascend")
		}
	}
}

func TestGenerateWithBase(t *testing.T) {
	got, err := GenerateWithBase("Honda", "Civic", "2018", "2020")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Honda-Civic-2018",
		"Honda-Civic-2019",
		"Honda-Civic-2020",
		"Honda",
		"Civic",
	}, got)
}

func TestSplitRange(t *testing.T) {
	from, to := SplitRange("2020-2025")
	assert.Equal(t, "2020", from)
	assert.Equal(t, "2025", to)

	from, to = SplitRange("2024")
	assert.Equal(t, "2024", from)
	assert.Equal(t, "2024", to)
}

func TestIsManaged(t *testing.T) {
	tests := []struct {
		tag     string
		managed bool
	}{
		{"Toyota", true},
		{"Corolla", true},
		{"2019", true},
		{"1899", false},
		{"2101", false},
		{"2020-2025", true},
		{"Toyota-Corolla-2019", true},
		{"Honda-Civic-2019", false},
		{"Red", false},
		{"heavy-duty", false},
		{"Toyota-Corolla-19", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.managed, IsManaged(tt.tag, "Toyota", "Corolla"))
		})
	}
}
