package technique

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogHasTwentyOrderedTechniques(t *testing.T) {
	c := Default()
	require.Equal(t, 20, c.Len())

	for i, tech := range c.All() {
		assert.Equal(t, i+1, tech.Ordinal)
		assert.NotEmpty(t, tech.Name)
		assert.NotEmpty(t, tech.Prompts, "technique %s has no prompts", tech.Key)
	}
}

func TestResolve(t *testing.T) {
	c := Default()

	tests := []struct {
		name       string
		identifier string
		want       Key
		wantOK     bool
	}{
		{name: "ordinal", identifier: "6", want: SixHats, wantOK: true},
		{name: "last ordinal", identifier: "20", want: QuestionStorming, wantOK: true},
		{name: "canonical name", identifier: "five_whys", want: FiveWhys, wantOK: true},
		{name: "case insensitive name", identifier: "SCAMPER", want: Scamper, wantOK: true},
		{name: "alias", identifier: "yes_and", want: YesAndBuilding, wantOK: true},
		{name: "surrounding spaces", identifier: "  8 ", want: YesAndBuilding, wantOK: true},
		{name: "out of range", identifier: "99", wantOK: false},
		{name: "zero", identifier: "0", wantOK: false},
		{name: "leading zero is not literal", identifier: "06", wantOK: false},
		{name: "unknown name", identifier: "telepathy", wantOK: false},
		{name: "empty", identifier: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Resolve(tt.identifier)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got.Key)
			}
		})
	}
}

func TestOrdinalAndKeyAgree(t *testing.T) {
	c := Default()
	for _, tech := range c.All() {
		byOrdinal, ok := c.Resolve(strconv.Itoa(tech.Ordinal))
		require.True(t, ok)
		byKey, ok := c.Get(tech.Key)
		require.True(t, ok)
		assert.Equal(t, byOrdinal.Key, byKey.Key)
	}
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	data := []byte(`
- key: a
  name: A
  prompts: [one]
- key: b
  aliases: [a]
  name: B
  prompts: [two]
`)
	_, err := NewCatalog(data)
	assert.Error(t, err)
}

func TestNewCatalogRequiresPrompts(t *testing.T) {
	_, err := NewCatalog([]byte("- key: a\n  name: A\n"))
	assert.Error(t, err)
}

func TestPrompt(t *testing.T) {
	tech, ok := Default().Get(FiveWhys)
	require.True(t, ok)

	p, ok := tech.Prompt(1)
	assert.True(t, ok)
	assert.Contains(t, p, "{idea}")

	_, ok = tech.Prompt(0)
	assert.False(t, ok)
	_, ok = tech.Prompt(len(tech.Prompts) + 1)
	assert.False(t, ok)
}

func TestMenuAndGuidance(t *testing.T) {
	c := Default()
	assert.Contains(t, c.Menu(), "1) What If Scenarios")
	assert.Contains(t, c.Menu(), "20) Question Storming")
	assert.Contains(t, c.Guidance(), "numbers (1-20)")
	assert.Contains(t, c.Guidance(), "question_storming")
}
