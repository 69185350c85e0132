package domain_test

import (
	"testing"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWord_ValidateRange(t *testing.T) {
	tests := []struct {
		name  string
		word  domain.Word
		valid bool
	}{
		{"Epsilon", domain.Epsilon, true},
		{"Largest Symbol", domain.Word{0, domain.MaxAlphabetSize - 1}, true},
		{"Negative", domain.Word{-1}, false},
		{"Past Alphabet Bound", domain.Word{domain.MaxAlphabetSize}, false},
		{"Huge", domain.Word{2000000000}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.word.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidWord)
			}
		})
	}

	assert.NoError(t, domain.ValidateAlphabetSize(0))
	assert.NoError(t, domain.ValidateAlphabetSize(domain.MaxAlphabetSize))
	assert.ErrorIs(t, domain.ValidateAlphabetSize(domain.MaxAlphabetSize+1), domain.ErrInvalidAlphabet)
	assert.ErrorIs(t, domain.ValidateAlphabetSize(-1), domain.ErrInvalidAlphabet)
}

func TestWord_AppendDoesNotAlias(t *testing.T) {
	base := make(domain.Word, 2, 8)
	base[0], base[1] = 0, 1

	a := base.Append(0)
	b := base.Append(1)

	assert.Equal(t, domain.Word{0, 1, 0}, a)
	assert.Equal(t, domain.Word{0, 1, 1}, b)
}

func TestWord_StringAndParse(t *testing.T) {
	tests := []struct {
		word domain.Word
		text string
	}{
		{domain.Word{}, "ε"},
		{domain.Word{3}, "3"},
		{domain.Word{0, 1, 12}, "0.1.12"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.text, tt.word.String())
			parsed, err := domain.ParseWord(tt.text)
			require.NoError(t, err)
			assert.True(t, parsed.Equal(tt.word))
		})
	}

	_, err := domain.ParseWord("0.-1")
	assert.ErrorIs(t, err, domain.ErrInvalidWord)
	_, err = domain.ParseWord("a.b")
	assert.ErrorIs(t, err, domain.ErrInvalidWord)
}

func TestWord_KeyIsInjective(t *testing.T) {
	words := []domain.Word{{}, {0}, {0, 0}, {1}, {0, 1}, {1, 0}, {256}}
	seen := map[string]domain.Word{}
	for _, w := range words {
		k := w.Key()
		_, dup := seen[k]
		assert.False(t, dup, "duplicate key for %v", w)
		seen[k] = w
	}
}

func TestWord_Less(t *testing.T) {
	assert.True(t, domain.Word{1}.Less(domain.Word{0, 0}))
	assert.True(t, domain.Word{0, 0}.Less(domain.Word{0, 1}))
	assert.False(t, domain.Word{0, 1}.Less(domain.Word{0, 1}))
	assert.Equal(t, domain.Symbol(-1), domain.Epsilon.MaxSymbol())
	assert.Equal(t, domain.Symbol(4), domain.Word{1, 4, 2}.MaxSymbol())
}
