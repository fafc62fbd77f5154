package parse

import (
	"regexp"

	"github.com/startup-roles/backend/internal/domain"
)

var (
	seniorWords = regexp.MustCompile(`(?i)\b(senior|sr|lead|principal|staff|architect)\b`)
	entryWords  = regexp.MustCompile(`(?i)\b(junior|jr|entry|intern|internship|graduate)\b`)
)

// ExtractRoleLevel buckets a role by the seniority words in its title and description.
// Senior words win over entry words.
func ExtractRoleLevel(title, description string) domain.RoleLevel {
	text := title + " " + description
	switch {
	case seniorWords.MatchString(text):
		return domain.RoleLevelSenior
	case entryWords.MatchString(text):
		return domain.RoleLevelEntry
	default:
		return domain.RoleLevelMid
	}
}
