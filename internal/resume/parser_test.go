package resume

import (
	"errors"
	"testing"
)

func TestIsPDF(t *testing.T) {
	if !IsPDF([]byte("%PDF-1.7 rest")) {
		t.Fatalf("expected PDF magic to match")
	}
	if IsPDF([]byte("PK\x03\x04 docx bytes")) {
		t.Fatalf("zip container is not a pdf")
	}
}

func TestExtractTextRejectsNonPDF(t *testing.T) {
	if _, err := ExtractText([]byte("plain text resume")); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got: %v", err)
	}
}

func TestParseExperiences(t *testing.T) {
	text := `Jane Doe
Experience

Lead Guitarist at The Night Owls
Jan 2020 - Mar 2022 - toured the west coast

Session Musician, Blue Note Studio
2018 - 2019

Education
Berklee College of Music
2014 - 2018`

	got := ParseExperiences(text)
	if len(got) != 3 {
		t.Fatalf("expected 3 dated entries, got %d: %+v", len(got), got)
	}

	first := got[0]
	if first.JobTitle != "Lead Guitarist" || first.CompanyName != "The Night Owls" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.StartDate != "Jan 2020" || first.EndDate != "Mar 2022" {
		t.Fatalf("unexpected dates: %+v", first)
	}
	if first.Description != "toured the west coast" {
		t.Fatalf("unexpected description: %q", first.Description)
	}

	second := got[1]
	if second.JobTitle != "Session Musician" || second.CompanyName != "Blue Note Studio" {
		t.Fatalf("unexpected second entry: %+v", second)
	}
	if second.StartDate != "2018" || second.EndDate != "2019" {
		t.Fatalf("unexpected second dates: %+v", second)
	}
}

func TestParseExperiencesEmptyText(t *testing.T) {
	if got := ParseExperiences("no dates here"); len(got) != 0 {
		t.Fatalf("expected nothing, got %+v", got)
	}
}
