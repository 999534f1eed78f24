package services

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"open-factcheck/internal/models"
)

const (
	MinClaimTextLength = 10
	MaxClaimTextLength = 5000
	MinCommentLength   = 1
	MaxCommentLength   = 1000
	MaxTags            = 20
	MaxTagLength       = 50
	MaxSources         = 50
	MaxScore           = 100
)

// fieldErrors collects field-level validation problems
type fieldErrors map[string]string

func (f fieldErrors) add(field, format string, args ...interface{}) {
	if _, exists := f[field]; !exists {
		f[field] = fmt.Sprintf(format, args...)
	}
}

// validURL accepts absolute http(s) URLs with a host
func validURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

func validateClaimText(text string, errs fieldErrors) {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	switch {
	case n < MinClaimTextLength:
		errs.add("text", "must be at least %d characters", MinClaimTextLength)
	case n > MaxClaimTextLength:
		errs.add("text", "must be at most %d characters", MaxClaimTextLength)
	}
}

func validateCommentText(text string, errs fieldErrors) {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < MinCommentLength || n > MaxCommentLength {
		errs.add("text", "must be between %d and %d characters", MinCommentLength, MaxCommentLength)
	}
}

// normalizeTags lower-cases, trims and de-duplicates tags, preserving order
func normalizeTags(tags []string, errs fieldErrors) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > MaxTagLength {
			errs.add("tags", "each tag must be at most %d characters", MaxTagLength)
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) > MaxTags {
		errs.add("tags", "at most %d tags allowed", MaxTags)
	}
	return out
}

func validateSources(sources []models.Source, errs fieldErrors) {
	if len(sources) > MaxSources {
		errs.add("sources", "at most %d sources allowed", MaxSources)
		return
	}
	for i, src := range sources {
		prefix := fmt.Sprintf("sources[%d]", i)
		if strings.TrimSpace(src.Name) == "" {
			errs.add(prefix+".name", "is required")
		}
		if src.URL != "" && !validURL(src.URL) {
			errs.add(prefix+".url", "must be a valid http(s) URL")
		}
		if src.Credibility != nil && (*src.Credibility < 0 || *src.Credibility > MaxScore) {
			errs.add(prefix+".credibility", "must be between 0 and %d", MaxScore)
		}
		if !src.Type.Valid() {
			errs.add(prefix+".type", "must be one of official, media, academic, expert, social_media")
		}
	}
}
