package parse

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleSeparators = []*regexp.Regexp{
		regexp.MustCompile(`^(.+?)\s+[-–—|]\s+(.+)$`),
		regexp.MustCompile(`^(.+?):\s+(.+)$`),
		regexp.MustCompile(`(?i)^(.+?)\s+at\s+(.+)$`),
	}
	jobWord       = regexp.MustCompile(`(?i)\b(engineer|developer|manager|designer|analyst)s?\b`)
	companiesPath = regexp.MustCompile(`(?i)/compan(?:y|ies)/([^/?#]+)`)
)

// Aggregators and job boards whose host names never identify the hiring company.
var genericHosts = []string{
	"ycombinator.com",
	"workatastartup.com",
	"workinstartups.com",
	"wellfound.com",
	"angel.co",
	"startup.jobs",
	"ashbyhq.com",
	"greenhouse.io",
	"lever.co",
	"linkedin.com",
	"getro.com",
	"consider.com",
}

// Applicant tracking hosts where the first subdomain label is the company.
var atsHosts = []string{"ashbyhq.com", "greenhouse.io", "lever.co", "workable.com", "breezy.hr", "recruitee.com", "teamtailor.com"}

// Applicant tracking hosts where the first path segment is the company.
var atsOrgPathHosts = []string{"jobs.ashbyhq.com", "jobs.lever.co", "boards.greenhouse.io", "job-boards.greenhouse.io", "apply.workable.com"}

// Host labels that never name a company.
var nonCompanyLabels = map[string]bool{
	"www": true, "jobs": true, "careers": true, "talent": true, "account": true,
	"app": true, "boards": true, "job-boards": true, "apply": true, "portfoliojobs": true,
}

// ExtractCompanyName derives a company name from text like "Senior Engineer - Acme",
// falling back to the link's host or path. When nothing applies the trimmed text is returned.
func ExtractCompanyName(text, link string) string {
	text = Normalize(text)

	for _, re := range titleSeparators {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if name, ok := pickCompanySide(strings.TrimSpace(m[1]), strings.TrimSpace(m[2])); ok {
			return name
		}
	}

	if name := companyFromLink(link); name != "" {
		return name
	}
	return text
}

func pickCompanySide(left, right string) (string, bool) {
	leftJob, rightJob := jobWord.MatchString(left), jobWord.MatchString(right)
	switch {
	case leftJob && !rightJob:
		return right, len(right) >= 2
	case !leftJob && rightJob:
		return left, len(left) >= 2
	case !leftJob && !rightJob:
		if len(left) <= len(right) && len(left) > 2 {
			return left, true
		}
		if len(right) > 2 {
			return right, true
		}
	}
	return "", false
}

func companyFromLink(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	labels := strings.Split(host, ".")

	for _, ats := range atsOrgPathHosts {
		if host == ats {
			if seg := firstPathSegment(u.Path); seg != "" {
				return titleSlug(seg)
			}
		}
	}

	if len(labels) >= 3 && !nonCompanyLabels[labels[0]] {
		rest := strings.Join(labels[1:], ".")
		for _, ats := range atsHosts {
			if rest == ats {
				return titleSlug(labels[0])
			}
		}
	}

	if m := companiesPath.FindStringSubmatch(u.Path); m != nil {
		if slug, err := url.PathUnescape(m[1]); err == nil && slug != "" {
			return titleSlug(slug)
		}
	}

	if isGenericHost(host) {
		return ""
	}

	for len(labels) > 2 && nonCompanyLabels[labels[0]] {
		labels = labels[1:]
	}
	if len(labels) < 2 {
		return ""
	}
	name := labels[len(labels)-2]
	if len(name) < 2 || nonCompanyLabels[name] {
		return ""
	}
	return titleSlug(name)
}

func isGenericHost(host string) bool {
	if strings.HasPrefix(host, "portfoliojobs.") || strings.Contains(host, ".portfoliojobs.") {
		return true
	}
	for _, g := range genericHosts {
		if host == g || strings.HasSuffix(host, "."+g) {
			return true
		}
	}
	return false
}

func firstPathSegment(p string) string {
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}

// titleSlug turns "acme-corp" into "Acme Corp".
func titleSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || r == '+' || r == ' '
	})
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
