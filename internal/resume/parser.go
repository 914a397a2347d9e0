package resume

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"savvynote/pkg/domain"
)

// ErrNotPDF rejects resume uploads that are not PDF documents.
var ErrNotPDF = errors.New("resume must be a PDF document")

// IsPDF sniffs the PDF magic bytes.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// ExtractText pulls the plain text out of a PDF resume.
func ExtractText(data []byte) (string, error) {
	if !IsPDF(data) {
		return "", ErrNotPDF
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

var (
	monthPattern = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[a-z]*\.?\s+\d{4}`
	dateRangeRe  = regexp.MustCompile(`(?i)(` + monthPattern + `|\d{4})\s*(?:-|–|—|to)\s*(` + monthPattern + `|\d{4}|Present|Current)`)
	roleLineRe   = regexp.MustCompile(`^(.{2,75}?)\s*(?:\bat\b|@|[,|])\s*(.{2,75}?)$`)
)

// ParseExperiences scans extracted resume text for work history entries. A
// line with a date range starts an entry; the nearest preceding non-empty
// line supplies the role and company.
func ParseExperiences(text string) []domain.Experience {
	lines := strings.Split(text, "\n")
	var out []domain.Experience
	for i, line := range lines {
		match := dateRangeRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		exp := domain.Experience{
			StartDate: strings.TrimSpace(match[1]),
			EndDate:   strings.TrimSpace(match[2]),
		}
		for j := i - 1; j >= 0 && j >= i-2; j-- {
			heading := strings.TrimSpace(lines[j])
			if heading == "" || dateRangeRe.MatchString(heading) {
				continue
			}
			if role := roleLineRe.FindStringSubmatch(heading); role != nil {
				exp.JobTitle = strings.TrimSpace(role[1])
				exp.CompanyName = strings.TrimSpace(role[2])
			} else {
				exp.JobTitle = heading
			}
			break
		}
		// The remainder of the date line often carries a one-line summary.
		if idx := dateRangeRe.FindStringIndex(line); idx != nil {
			if rest := strings.TrimSpace(line[idx[1]:]); rest != "" {
				exp.Description = strings.TrimLeft(rest, " -–—:")
			}
		}
		out = append(out, exp)
	}
	return out
}
