package logquery

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nicktill/tinyrec/pkg/logring"
)

var (
	// ErrAmbiguousFilter is returned when a filter sets both contains and pattern
	ErrAmbiguousFilter = errors.New("filter must set only one of contains or pattern")

	// ErrEmptyFilter is returned when a filter sets neither contains nor pattern
	ErrEmptyFilter = errors.New("filter must set contains or pattern")

	// ErrInvalidPattern is returned when the pattern does not compile
	ErrInvalidPattern = errors.New("invalid pattern")
)

// FilterKind identifies how a Filter matches text
type FilterKind string

const (
	FilterContains FilterKind = "contains" // case-insensitive substring
	FilterPattern  FilterKind = "pattern"  // RE2 regular expression
)

// SupportedFilters lists the filter kinds Page accepts
var SupportedFilters = []FilterKind{FilterContains, FilterPattern}

// FilterRequest is the caller-facing filter description. Exactly one of
// Contains and Pattern must be set.
type FilterRequest struct {
	AnalyzeLimit int     `json:"analyzeLimit"`
	Contains     *string `json:"contains,omitempty"`
	Pattern      *string `json:"pattern,omitempty"`
}

// Filter is a compiled FilterRequest. It counts every message it inspects
// and stops once AnalyzeLimit messages have been seen.
type Filter struct {
	Kind     FilterKind
	limit    int
	analyzed int
	needle   string
	re       *regexp.Regexp
}

// NewFilter compiles req
func NewFilter(req FilterRequest) (*Filter, error) {
	switch {
	case req.Contains != nil && req.Pattern != nil:
		return nil, ErrAmbiguousFilter
	case req.Contains != nil:
		return &Filter{
			Kind:   FilterContains,
			limit:  req.AnalyzeLimit,
			needle: strings.ToLower(*req.Contains),
		}, nil
	case req.Pattern != nil:
		re, err := regexp.Compile(*req.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		return &Filter{Kind: FilterPattern, limit: req.AnalyzeLimit, re: re}, nil
	default:
		return nil, ErrEmptyFilter
	}
}

// Match inspects one message
func (f *Filter) Match(m logring.Message) bool {
	f.analyzed++
	switch f.Kind {
	case FilterContains:
		return strings.Contains(strings.ToLower(m.Text), f.needle)
	case FilterPattern:
		return f.re.MatchString(m.Text)
	}
	return false
}

// Stopped reports whether the analyze budget is used up
func (f *Filter) Stopped() bool {
	return f.analyzed >= f.limit
}
