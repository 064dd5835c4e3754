package model

import (
	"fmt"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	nameMinLen  = 2
	nameMaxLen  = 100
	emailMaxLen = 150
	passMinLen  = 6
	ageMin      = 0
	ageMax      = 150
)

// Validate checks a creation request with every field required. All
// violations are collected so the caller sees every problem at once.
func (r CreateUserRequest) Validate() []string {
	var errs []string
	errs = appendNameErrors(errs, r.Name)
	errs = appendEmailErrors(errs, r.Email)
	if len(r.Password) < passMinLen {
		errs = append(errs, fmt.Sprintf("password must have at least %d characters", passMinLen))
	}
	errs = appendAgeErrors(errs, r.Age)
	return errs
}

// Validate checks a partial update request. Only supplied fields are
// validated; a request with no fields at all is not a validation error
// here (the service rejects it separately).
func (r UpdateUserRequest) Validate() []string {
	var errs []string
	if r.Name != nil {
		errs = appendNameErrors(errs, *r.Name)
	}
	if r.Email != nil {
		errs = appendEmailErrors(errs, *r.Email)
	}
	if r.Password != nil && len(*r.Password) < passMinLen {
		errs = append(errs, fmt.Sprintf("password must have at least %d characters", passMinLen))
	}
	// A null age clears the column, so only a concrete value is range
	// checked.
	errs = appendAgeErrors(errs, r.Age.Ptr())
	return errs
}

func appendNameErrors(errs []string, name string) []string {
	if len(strings.TrimSpace(name)) < nameMinLen {
		errs = append(errs, fmt.Sprintf("name must have at least %d characters", nameMinLen))
	}
	if len(name) > nameMaxLen {
		errs = append(errs, fmt.Sprintf("name must have at most %d characters", nameMaxLen))
	}
	return errs
}

func appendEmailErrors(errs []string, email string) []string {
	if !emailPattern.MatchString(email) {
		errs = append(errs, "email must have a valid format")
	}
	if len(email) > emailMaxLen {
		errs = append(errs, fmt.Sprintf("email must have at most %d characters", emailMaxLen))
	}
	return errs
}

func appendAgeErrors(errs []string, age *int64) []string {
	if age != nil && (*age < ageMin || *age > ageMax) {
		errs = append(errs, fmt.Sprintf("age must be between %d and %d", ageMin, ageMax))
	}
	return errs
}
