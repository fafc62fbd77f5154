// Package validity decides whether an extracted (title, company, link) triple is a real job posting.
package validity

import (
	_ "embed"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Check names reported by Explain, in evaluation order.
const (
	CheckTitleBlocklist = "title_blocklist"
	CheckTitleLength    = "title_length"
	CheckTitleWords     = "title_words"
	CheckCompany        = "company"
	CheckLinkFormat     = "link_format"
	CheckLinkBlocklist  = "link_blocklist"
	CheckJobKeywords    = "job_keywords"
)

// Rules is the versioned pattern set the classifier evaluates.
type Rules struct {
	Version                int      `yaml:"version"`
	MinTitleLength         int      `yaml:"min_title_length"`
	MinSingleWordLength    int      `yaml:"min_single_word_length"`
	MinFallbackWords       int      `yaml:"min_fallback_words"`
	MinFallbackTitleLength int      `yaml:"min_fallback_title_length"`
	TitleBlocklist         []string `yaml:"title_blocklist"`
	TruncatedTitles        []string `yaml:"truncated_titles"`
	CompanyBlocklist       []string `yaml:"company_blocklist"`
	LinkBlocklist          []string `yaml:"link_blocklist"`
	JobPathAllow           string   `yaml:"job_path_allow"`
	JobKeywords            []string `yaml:"job_keywords"`
	MarketingPatterns      []string `yaml:"marketing_patterns"`
}

// ParseRules decodes a YAML rule set.
func ParseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("decode validity rules: %w", err)
	}
	return r, nil
}

// Verdict is the outcome of a classification
type Verdict struct {
	Valid bool
	// Check names the first failing check; empty when Valid.
	Check string
}

// Classifier evaluates the ordered validity checks. It is safe for concurrent use.
type Classifier struct {
	rules     Rules
	title     []*regexp.Regexp
	company   []*regexp.Regexp
	link      []*regexp.Regexp
	marketing []*regexp.Regexp
	jobPath   *regexp.Regexp
	truncated map[string]bool
	digits    *regexp.Regexp

	mu       sync.Mutex
	keywords *ahocorasick.Matcher
}

// New compiles a rule set.
func New(rules Rules) (*Classifier, error) {
	c := &Classifier{
		rules:     rules,
		truncated: make(map[string]bool, len(rules.TruncatedTitles)),
		digits:    regexp.MustCompile(`^[\d\s.,\-]+$`),
	}

	var err error
	if c.title, err = compileAll(rules.TitleBlocklist); err != nil {
		return nil, fmt.Errorf("title_blocklist: %w", err)
	}
	if c.company, err = compileAll(rules.CompanyBlocklist); err != nil {
		return nil, fmt.Errorf("company_blocklist: %w", err)
	}
	if c.link, err = compileAll(rules.LinkBlocklist); err != nil {
		return nil, fmt.Errorf("link_blocklist: %w", err)
	}
	if c.marketing, err = compileAll(rules.MarketingPatterns); err != nil {
		return nil, fmt.Errorf("marketing_patterns: %w", err)
	}
	if rules.JobPathAllow != "" {
		if c.jobPath, err = regexp.Compile("(?i)" + rules.JobPathAllow); err != nil {
			return nil, fmt.Errorf("job_path_allow: %w", err)
		}
	}
	for _, t := range rules.TruncatedTitles {
		c.truncated[strings.ToLower(t)] = true
	}

	keywords := make([]string, 0, len(rules.JobKeywords))
	for _, k := range rules.JobKeywords {
		keywords = append(keywords, strings.ToLower(k))
	}
	c.keywords = ahocorasick.NewStringMatcher(keywords)

	return c, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Version reports the rule set version
func (c *Classifier) Version() int {
	return c.rules.Version
}

// IsValidJob reports whether the triple describes a real posting.
func (c *Classifier) IsValidJob(title, company, link string) bool {
	return c.Explain(title, company, link).Valid
}

// Explain runs the checks in order and stops at the first failure.
func (c *Classifier) Explain(title, company, link string) Verdict {
	title = strings.TrimSpace(title)
	titleLower := strings.ToLower(title)

	if matchesAny(c.title, titleLower) {
		return reject(CheckTitleBlocklist)
	}

	if utf8.RuneCountInString(title) < c.rules.MinTitleLength || c.digits.MatchString(title) {
		return reject(CheckTitleLength)
	}

	words := strings.Fields(title)
	if len(words) < 2 || c.truncated[titleLower] ||
		(len(words) == 1 && utf8.RuneCountInString(words[0]) < c.rules.MinSingleWordLength) {
		return reject(CheckTitleWords)
	}

	companyLower := strings.ToLower(strings.TrimSpace(company))
	if utf8.RuneCountInString(companyLower) < 2 || companyLower == "unknown" || matchesAny(c.company, companyLower) {
		return reject(CheckCompany)
	}

	link = strings.TrimSpace(link)
	if !validLink(link) {
		return reject(CheckLinkFormat)
	}
	if matchesAny(c.link, link) && (c.jobPath == nil || !c.jobPath.MatchString(link)) {
		return reject(CheckLinkBlocklist)
	}

	if !c.hasJobKeyword(titleLower) {
		if len(words) < c.rules.MinFallbackWords ||
			utf8.RuneCountInString(title) < c.rules.MinFallbackTitleLength ||
			matchesAny(c.marketing, titleLower) {
			return reject(CheckJobKeywords)
		}
	}

	return Verdict{Valid: true}
}

func (c *Classifier) hasJobKeyword(titleLower string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keywords.Contains([]byte(titleLower))
}

func validLink(link string) bool {
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return false
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return len(u.Hostname()) >= 3
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func reject(check string) Verdict {
	return Verdict{Check: check}
}

var (
	defaultOnce       sync.Once
	defaultClassifier *Classifier
)

// Default returns the classifier built from the embedded rule set.
func Default() *Classifier {
	defaultOnce.Do(func() {
		rules, err := ParseRules(defaultRules)
		if err != nil {
			panic(err)
		}
		c, err := New(rules)
		if err != nil {
			panic(err)
		}
		defaultClassifier = c
	})
	return defaultClassifier
}

// IsValidJob runs the default classifier.
func IsValidJob(title, company, link string) bool {
	return Default().IsValidJob(title, company, link)
}
