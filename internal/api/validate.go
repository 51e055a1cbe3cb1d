package api

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

var (
	birthTimePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

const maxAgeYears = 150

// fieldErrors accumulates local validation failures in the same shape the
// backend uses, so callers handle both alike.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Fields: f}
}

// ValidatePassword enforces the account password rules.
func ValidatePassword(pw string) error {
	f := fieldErrors{}
	checkPassword(f, pw)
	return f.err()
}

func checkPassword(f fieldErrors, pw string) {
	switch {
	case len(pw) < 8:
		f.add("password", "Password must be at least 8 characters")
	case !strings.ContainsFunc(pw, unicode.IsUpper):
		f.add("password", "Password must contain at least one uppercase letter")
	case !strings.ContainsFunc(pw, unicode.IsLower):
		f.add("password", "Password must contain at least one lowercase letter")
	case !strings.ContainsFunc(pw, unicode.IsDigit):
		f.add("password", "Password must contain at least one number")
	}
}

// ValidateEmail checks the basic address shape.
func ValidateEmail(email string) error {
	f := fieldErrors{}
	if !emailPattern.MatchString(email) {
		f.add("email", "Invalid email address")
	}
	return f.err()
}

// ValidateBirthDate accepts YYYY-MM-DD dates not after now and not more
// than 150 years before it.
func ValidateBirthDate(value string, now time.Time) error {
	f := fieldErrors{}
	checkBirthDate(f, value, now)
	return f.err()
}

// ValidateBirthTime accepts 24-hour HH:MM times.
func ValidateBirthTime(value string) error {
	f := fieldErrors{}
	checkBirthTime(f, value)
	return f.err()
}

func checkBirthDate(f fieldErrors, value string, now time.Time) {
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		f.add("birth_date", "Invalid date format")
		return
	}
	if d.After(now) {
		f.add("birth_date", "Birth date cannot be in the future")
		return
	}
	earliest := time.Date(now.Year()-maxAgeYears, time.January, 1, 0, 0, 0, 0, time.UTC)
	if d.Before(earliest) {
		f.add("birth_date", "Invalid birth date")
	}
}

func checkBirthTime(f fieldErrors, value string) {
	if !birthTimePattern.MatchString(value) {
		f.add("birth_time", "Invalid time format (HH:MM)")
	}
}

func checkGender(f fieldErrors, value string) {
	switch value {
	case "M", "F", "O":
	default:
		f.add("gender", "Gender must be M, F or O")
	}
}

// Validate checks a full profile payload before it is sent.
func (p ProfileInput) Validate(now time.Time) error {
	f := fieldErrors{}
	if strings.TrimSpace(p.Name) == "" {
		f.add("name", "This field is required")
	}
	if strings.TrimSpace(p.BirthLocation) == "" {
		f.add("birth_location", "This field is required")
	}
	checkBirthDate(f, p.BirthDate, now)
	checkBirthTime(f, p.BirthTime)
	checkGender(f, p.Gender)
	return f.err()
}

// Validate checks only the fields present in the patch.
func (p ProfilePatch) Validate(now time.Time) error {
	f := fieldErrors{}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		f.add("name", "This field is required")
	}
	if p.BirthDate != nil {
		checkBirthDate(f, *p.BirthDate, now)
	}
	if p.BirthTime != nil {
		checkBirthTime(f, *p.BirthTime)
	}
	if p.Gender != nil {
		checkGender(f, *p.Gender)
	}
	return f.err()
}

// Validate checks a registration before it is sent.
func (r Registration) Validate() error {
	f := fieldErrors{}
	if strings.TrimSpace(r.Username) == "" {
		f.add("username", "This field is required")
	}
	if !emailPattern.MatchString(r.Email) {
		f.add("email", "Invalid email address")
	}
	checkPassword(f, r.Password)
	if r.Password2 != "" && r.Password2 != r.Password {
		f.add("password2", "Passwords do not match")
	}
	return f.err()
}
