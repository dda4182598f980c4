package resume

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)

func validDraft() Record {
	return Record{
		Person: Person{
			Name:          "  Jane Doe ",
			Phone:         "5551234",
			BirthDate:     time.Date(1990, time.March, 5, 0, 0, 0, 0, time.UTC),
			MaritalStatus: Single,
			GuardianName:  "John Doe",
		},
		Highest: Twelfth,
		Education: []EducationEntry{
			{Level: Twelfth, Institution: "CBSE", Year: 2008, Specialization: "Science"},
			{Level: Tenth, Institution: "CBSE", Year: 2006},
		},
	}
}

func requireValidation(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr
}

func TestCollect_Valid(t *testing.T) {
	rec, err := Collect(validDraft(), testNow)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", rec.Person.Name)
	require.Len(t, rec.Education, 2)
	assert.Equal(t, Tenth, rec.Education[0].Level)
	assert.Equal(t, Twelfth, rec.Education[1].Level)
	assert.Empty(t, rec.Employment)
}

func TestCollect_RequiredPersonFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Record)
		field  string
	}{
		{"empty name", func(r *Record) { r.Person.Name = "  " }, ""},
		{"empty phone", func(r *Record) { r.Person.Phone = "" }, ""},
		{"empty guardian", func(r *Record) { r.Person.GuardianName = "" }, "guardian_name"},
		{"missing birth date", func(r *Record) { r.Person.BirthDate = time.Time{} }, "birth_date"},
		{"future birth date", func(r *Record) { r.Person.BirthDate = testNow.AddDate(0, 0, 1) }, "birth_date"},
		{"bad marital status", func(r *Record) { r.Person.MaritalStatus = "Divorced" }, "marital_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(&draft)
			_, err := Collect(draft, testNow)
			verr := requireValidation(t, err)
			assert.Equal(t, tt.field, verr.Field)
			assert.NotEmpty(t, verr.Reason)
		})
	}
}

func TestCollect_SpouseIffMarried(t *testing.T) {
	married := validDraft()
	married.Person.MaritalStatus = Married
	_, err := Collect(married, testNow)
	verr := requireValidation(t, err)
	assert.Equal(t, "spouse_name", verr.Field)

	married.Person.SpouseName = "Sam Doe"
	rec, err := Collect(married, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Sam Doe", rec.Person.SpouseName)

	single := validDraft()
	single.Person.SpouseName = "Leftover From Earlier"
	rec, err = Collect(single, testNow)
	require.NoError(t, err)
	assert.Empty(t, rec.Person.SpouseName)
}

func TestCollect_EducationRules(t *testing.T) {
	t.Run("missing level below highest", func(t *testing.T) {
		draft := validDraft()
		draft.Highest = Diploma
		_, err := Collect(draft, testNow)
		verr := requireValidation(t, err)
		assert.Equal(t, "education.diploma", verr.Field)
	})

	t.Run("blank institution", func(t *testing.T) {
		draft := validDraft()
		draft.Education[1].Institution = " "
		_, err := Collect(draft, testNow)
		verr := requireValidation(t, err)
		assert.Equal(t, "education.10th", verr.Field)
	})

	t.Run("year out of range", func(t *testing.T) {
		for _, year := range []int{1979, testNow.Year() + 1} {
			draft := validDraft()
			draft.Education[0].Year = year
			_, err := Collect(draft, testNow)
			verr := requireValidation(t, err)
			assert.Equal(t, "education.12th", verr.Field)
		}
	})

	t.Run("levels above highest are dropped", func(t *testing.T) {
		draft := validDraft()
		draft.Highest = Tenth
		rec, err := Collect(draft, testNow)
		require.NoError(t, err)
		require.Len(t, rec.Education, 1)
		assert.Equal(t, Tenth, rec.Education[0].Level)
	})

	t.Run("no highest qualification", func(t *testing.T) {
		draft := validDraft()
		draft.Highest = 0
		_, err := Collect(draft, testNow)
		verr := requireValidation(t, err)
		assert.Equal(t, "highest_qualification", verr.Field)
	})
}

func TestCollect_EmploymentFiltering(t *testing.T) {
	start := time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, time.May, 1, 0, 0, 0, 0, time.UTC)

	draft := validDraft()
	draft.Employment = []EmploymentEntry{
		{Company: "Acme", Position: "Engineer", Start: start, End: end},
		{Company: "NoTitle Inc", Start: start, End: end},
		{Position: "Orphan", Start: start, End: end},
		{Company: "Globex", Position: "Lead", Start: start, End: end, Responsibilities: " ship it "},
	}

	rec, err := Collect(draft, testNow)
	require.NoError(t, err)
	require.Len(t, rec.Employment, 2)
	assert.Equal(t, "Acme", rec.Employment[0].Company)
	assert.Equal(t, "Globex", rec.Employment[1].Company)
	assert.Equal(t, "ship it", rec.Employment[1].Responsibilities)

	draft.Employment[0].End = start.AddDate(0, -1, 0)
	_, err = Collect(draft, testNow)
	verr := requireValidation(t, err)
	assert.Equal(t, "employment[0]", verr.Field)

	draft.Employment = make([]EmploymentEntry, MaxEmployers+1)
	_, err = Collect(draft, testNow)
	requireValidation(t, err)
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name, phone, want string
	}{
		{"Jane Doe", "5551234", "Jane-Doe-5551234.pdf"},
		{"Ābhinesh Śekar", "5551234", "Ābhinesh-Śekar-5551234.pdf"},
		{"A/B Doe", "555/1234", "A-B-Doe-555-1234.pdf"},
		{`..\Jane "JJ" Doe`, "5551234", "..-Jane--JJ--Doe-5551234.pdf"},
	}
	for _, tt := range tests {
		rec := Record{Person: Person{Name: tt.name, Phone: tt.phone}}
		got := rec.Filename()
		assert.Equal(t, tt.want, got)
		assert.NotContains(t, got, "/")
	}
}

func TestQualification(t *testing.T) {
	for _, q := range AscendingQualifications() {
		parsed, err := ParseQualification(q.Code())
		require.NoError(t, err)
		assert.Equal(t, q, parsed)

		parsed, err = ParseQualification(q.Label())
		require.NoError(t, err)
		assert.Equal(t, q, parsed)
	}

	_, err := ParseQualification("PhD")
	assert.Error(t, err)

	desc := DescendingQualifications()
	for i := 1; i < len(desc); i++ {
		assert.Greater(t, desc[i-1], desc[i])
	}

	var entry EducationEntry
	require.NoError(t, json.Unmarshal([]byte(`{"level":"UG (Bachelor's)","institution":"IIT","year":2012}`), &entry))
	assert.Equal(t, Bachelors, entry.Level)
}

func TestParseMaritalStatus(t *testing.T) {
	s, err := ParseMaritalStatus(" married ")
	require.NoError(t, err)
	assert.Equal(t, Married, s)

	_, err = ParseMaritalStatus("unknown")
	assert.Error(t, err)
}
