package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startup-roles/backend/internal/domain"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Senior Backend Engineer", Normalize("  Senior\n\tBackend   Engineer  "))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize(" \n\t "))
}

func TestCleanTitle(t *testing.T) {
	tests := map[string]string{
		"Software Engineer. Privacy Notice and Terms": "Software Engineer",
		"Product Designer 12 opportunities":           "Product Designer",
		"Staff Engineer ›":                            "Staff Engineer",
		"Data Analyst":                                "Data Analyst",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanTitle(in), in)
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Acme", FirstLine("\n  Acme \nFintech"))
	assert.Equal(t, "", FirstLine(""))
}

func TestParseSalary(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		min, max int
		currency string
		display  string
	}{
		{"grouped with code and period", "USD 265,000 - 340,000 / year", 265000, 340000, "USD", "USD 265,000 - 340,000 / year"},
		{"suffixed with symbols", "$120K - $175K", 120000, 175000, "USD", "$120K - $175K"},
		{"millions", "$1.2M - $1.5M", 1200000, 1500000, "USD", "$1.2M - $1.5M"},
		{"pound symbol", "£60k – £80k", 60000, 80000, "GBP", "£60k – £80k"},
		{"code beats symbol", "$90K - $110K CAD", 90000, 110000, "CAD", "$90K - $110K CAD"},
		{"embedded in text", "San Francisco • $150,000 – $190,000 • 0.1% equity", 150000, 190000, "USD", "$150,000 – $190,000"},
		{"rupee", "₹1,200,000 - ₹1,800,000", 1200000, 1800000, "INR", "₹1,200,000 - ₹1,800,000"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseSalary(tc.in)
			require.NotNil(t, got.Min)
			require.NotNil(t, got.Max)
			assert.Equal(t, tc.min, *got.Min)
			assert.Equal(t, tc.max, *got.Max)
			assert.Equal(t, tc.currency, got.Currency)
			assert.Equal(t, tc.display, got.DisplayText)
		})
	}
}

func TestParseSalaryRejectsUnmarked(t *testing.T) {
	for _, in := range []string{"", "Competitive", "2 - 3 years experience", "120 - 150", "Series A"} {
		got := ParseSalary(in)
		assert.Nil(t, got.Min, in)
		assert.Nil(t, got.Max, in)
		assert.Empty(t, got.Currency, in)
		assert.Equal(t, NotSpecified, got.DisplayText, in)
	}
}

func TestParseEquity(t *testing.T) {
	require.NotNil(t, ParseEquity("$100K - $120K + Equity"))
	assert.True(t, *ParseEquity("0.5% equity"))
	assert.Nil(t, ParseEquity("$100K - $120K"))
}

func TestParsePostingDateAt(t *testing.T) {
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.AddDate(0, 0, -2), ParsePostingDateAt("Posted 2 days ago", now))
	assert.Equal(t, now.Add(-5*time.Hour), ParsePostingDateAt("Posted 5 hours ago", now))
	assert.Equal(t, now.AddDate(0, 0, -1), ParsePostingDateAt("Posted less than 1 day ago", now))
	assert.Equal(t, now.AddDate(0, 0, -14), ParsePostingDateAt("posted 2 weeks ago", now))
	assert.Equal(t, now.AddDate(0, 0, -30), ParsePostingDateAt("Posted 1 month ago", now))
	assert.Equal(t, now.Add(-3*time.Hour), ParsePostingDateAt("(about 3 hours ago)", now))
	assert.Equal(t, now, ParsePostingDateAt("Just now", now))
	assert.Equal(t, now, ParsePostingDateAt("", now))
}

func TestExtractRoleLevel(t *testing.T) {
	tests := []struct {
		title, desc string
		want        domain.RoleLevel
	}{
		{"Senior Backend Engineer", "", domain.RoleLevelSenior},
		{"Sr. Data Scientist", "", domain.RoleLevelSenior},
		{"Staff Engineer", "", domain.RoleLevelSenior},
		{"Solutions Architect", "", domain.RoleLevelSenior},
		{"Junior Developer", "", domain.RoleLevelEntry},
		{"Software Engineering Intern", "", domain.RoleLevelEntry},
		{"Graduate Analyst", "", domain.RoleLevelEntry},
		{"Software Engineer", "", domain.RoleLevelMid},
		{"Software Engineer", "You will lead the payments team", domain.RoleLevelSenior},
		{"Lead Junior Mentor", "", domain.RoleLevelSenior},
		{"Staffing Coordinator", "", domain.RoleLevelMid},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ExtractRoleLevel(tc.title, tc.desc), tc.title)
	}
}

func TestExtractCompanyName(t *testing.T) {
	tests := []struct {
		text, link, want string
	}{
		{"Senior Engineer - Acme", "https://acme.com/jobs/1", "Acme"},
		{"Acme - Senior Engineer", "", "Acme"},
		{"Backend Engineer at Globex", "", "Globex"},
		{"Initech: Product Designer", "", "Initech"},
		{"Senior Engineer", "https://perplexity.ashbyhq.com/jobs/1", "Perplexity"},
		{"Senior Engineer", "https://jobs.ashbyhq.com/linear/abc-123", "Linear"},
		{"Senior Engineer", "https://www.ycombinator.com/companies/acme-corp/jobs/9", "Acme Corp"},
		{"Senior Engineer", "https://careers.hooli.com/positions/7", "Hooli"},
		{"Senior Engineer", "https://www.workatastartup.com/jobs/44", "Senior Engineer"},
		{"Senior Engineer", "https://wellfound.com/jobs/55", "Senior Engineer"},
		{"  Senior Engineer  ", "not a url", "Senior Engineer"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ExtractCompanyName(tc.text, tc.link), tc.text+" "+tc.link)
	}
}

func TestInferWorkMode(t *testing.T) {
	assert.Equal(t, domain.WorkModeRemote, InferWorkMode(""))
	assert.Equal(t, domain.WorkModeRemote, InferWorkMode("Remote (US)"))
	assert.Equal(t, domain.WorkModeHybrid, InferWorkMode("New York, NY (Hybrid)"))
	assert.Equal(t, domain.WorkModeOnsite, InferWorkMode("Berlin"))
	assert.Equal(t, domain.WorkModeHybrid, InferWorkModeOr("Berlin", domain.WorkModeHybrid))
	assert.Equal(t, domain.WorkModeRemote, InferWorkModeOr("Remote", domain.WorkModeHybrid))
}
