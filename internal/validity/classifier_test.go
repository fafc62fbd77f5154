package validity

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type corpusCase struct {
	Title   string `yaml:"title"`
	Company string `yaml:"company"`
	Link    string `yaml:"link"`
	Valid   bool   `yaml:"valid"`
	Check   string `yaml:"check"`
}

func loadCorpus(t *testing.T) []corpusCase {
	t.Helper()
	data, err := os.ReadFile("testdata/corpus.yaml")
	require.NoError(t, err)
	var cases []corpusCase
	require.NoError(t, yaml.Unmarshal(data, &cases))
	require.NotEmpty(t, cases)
	return cases
}

func TestDefaultRulesAgainstCorpus(t *testing.T) {
	c := Default()
	for _, tc := range loadCorpus(t) {
		got := c.Explain(tc.Title, tc.Company, tc.Link)
		assert.Equal(t, tc.Valid, got.Valid, "%q / %q / %q", tc.Title, tc.Company, tc.Link)
		assert.Equal(t, tc.Check, got.Check, "%q / %q / %q", tc.Title, tc.Company, tc.Link)
	}
}

func TestIsValidJob(t *testing.T) {
	assert.True(t, IsValidJob("Senior Backend Engineer", "Acme Inc", "https://acme.com/jobs/1234"))
	assert.False(t, IsValidJob("Full", "Acme", "https://acme.com/jobs/1"))
	assert.False(t, IsValidJob("Senior Backend Engineer", "Acme", "https://x.com/jobs"))
}

func TestDefaultRulesVersioned(t *testing.T) {
	assert.Positive(t, Default().Version())
}

func TestNewRejectsBadPattern(t *testing.T) {
	_, err := New(Rules{TitleBlocklist: []string{"("}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title_blocklist")
}

func TestCustomRules(t *testing.T) {
	rules, err := ParseRules([]byte(`
version: 1
min_title_length: 4
min_fallback_words: 1
min_fallback_title_length: 1
job_keywords: [wizard]
title_blocklist: ['^nope']
`))
	require.NoError(t, err)
	c, err := New(rules)
	require.NoError(t, err)

	assert.True(t, c.IsValidJob("Data Wizard", "Acme", "https://acme.com/x"))
	assert.Equal(t, CheckTitleBlocklist, c.Explain("nope nope", "Acme", "https://acme.com/x").Check)
}

func TestClassifierConcurrentUse(t *testing.T) {
	c := Default()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.True(t, c.IsValidJob("Staff Platform Engineer", "Acme", "https://acme.com/jobs/9"))
			}
		}()
	}
	wg.Wait()
}
