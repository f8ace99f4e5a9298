package validate

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// RequireBounded trims and ensures length bounds.
func RequireBounded(name, s string, min, max int) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < min || utf8.RuneCountInString(s) > max {
		return "", errors.New(name + " must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max) + " characters")
	}
	return s, nil
}

// PublicationYear enforces the catalog rule: positive and not in the future.
func PublicationYear(year int) error {
	if year <= 0 {
		return errors.New("publication_year must be positive")
	}
	if year > time.Now().UTC().Year() {
		return errors.New("publication_year cannot be in the future")
	}
	return nil
}

// ClampLimitOffset parses and clamps paging.
func ClampLimitOffset(limitRaw, offsetRaw string, def, max int) (int, int) {
	limit := def
	if v, err := strconv.Atoi(strings.TrimSpace(limitRaw)); err == nil && v >= 1 && v <= max {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(strings.TrimSpace(offsetRaw)); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// ParseSort returns (column, direction) restricted to the allowed set.
// Unknown sort keys fall back to def; direction is "asc" unless order=desc.
func ParseSort(sortRaw, orderRaw, def string, allowed map[string]string) (string, string) {
	col, ok := allowed[strings.ToLower(strings.TrimSpace(sortRaw))]
	if !ok {
		col = allowed[def]
	}
	dir := "ASC"
	if strings.EqualFold(strings.TrimSpace(orderRaw), "desc") {
		dir = "DESC"
	}
	return col, dir
}

// ParseYear parses an optional year filter; 0 means unset.
func ParseYear(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	y, err := strconv.Atoi(raw)
	if err != nil || y <= 0 {
		return 0, errors.New("year must be a positive integer")
	}
	return y, nil
}
