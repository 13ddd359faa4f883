// Package job defines the driver-agnostic representation of a receipt.
package job

import (
	"errors"
	"fmt"

	"order-printer/pkg/driver"
)

// DefaultGap fills justified lines when no gap symbol is given.
const DefaultGap = '.'

// MaxFeedLines bounds a single feed.
const MaxFeedLines = 255

// ErrInvalidJob is returned when a job breaks its structural rules.
var ErrInvalidJob = errors.New("invalid print job")

// Kind labels the role of a section in the receipt
type Kind string

const (
	KindHeader  Kind = "header"
	KindContent Kind = "content"
	KindFooter  Kind = "footer"
)

// Section is a run of items printed under one set of format directives.
// Directives are applied before the items and hold until changed.
type Section struct {
	Kind   Kind          `json:"kind"`
	Align  *driver.Align `json:"align,omitempty"`
	Size   *driver.Size  `json:"size,omitempty"`
	Style  *driver.Style `json:"style,omitempty"`
	Smooth *bool         `json:"smooth,omitempty"`
	Items  []Content     `json:"items"`
}

// Emphasized reports whether the section sets a transient format that must
// be reset once its items are printed.
func (s Section) Emphasized() bool {
	return s.Size != nil || s.Style != nil || s.Smooth != nil
}

// PrintJob is an ordered list of sections, top of the receipt first.
type PrintJob struct {
	Sections []Section `json:"sections"`
}

// Validate checks the structural rules of a job: at most one cut, placed as
// the final item, and directives within the ranges a printer accepts.
func (j *PrintJob) Validate() error {
	if j == nil {
		return fmt.Errorf("%w: nil job", ErrInvalidJob)
	}

	lastSection, lastItem := -1, -1
	for si, s := range j.Sections {
		if len(s.Items) > 0 {
			lastSection, lastItem = si, len(s.Items)-1
		}
	}

	cuts := 0
	for si, s := range j.Sections {
		if s.Align != nil && !s.Align.Valid() {
			return fmt.Errorf("%w: section %d: unknown alignment %q", ErrInvalidJob, si, *s.Align)
		}
		if s.Size != nil {
			if err := s.Size.Validate(); err != nil {
				return fmt.Errorf("%w: section %d: %w", ErrInvalidJob, si, err)
			}
		}
		for ii, item := range s.Items {
			switch c := item.(type) {
			case Cut:
				cuts++
				if cuts > 1 {
					return fmt.Errorf("%w: more than one cut", ErrInvalidJob)
				}
				if si != lastSection || ii != lastItem {
					return fmt.Errorf("%w: cut must be the last item", ErrInvalidJob)
				}
			case Feed:
				if c.Lines < 1 || c.Lines > MaxFeedLines {
					return fmt.Errorf("%w: section %d: feed of %d lines", ErrInvalidJob, si, c.Lines)
				}
			case nil:
				return fmt.Errorf("%w: section %d: nil item", ErrInvalidJob, si)
			}
		}
	}
	return nil
}

// HasCut reports whether the job ends with a cut.
func (j *PrintJob) HasCut() bool {
	for si := len(j.Sections) - 1; si >= 0; si-- {
		items := j.Sections[si].Items
		if len(items) == 0 {
			continue
		}
		_, ok := items[len(items)-1].(Cut)
		return ok
	}
	return false
}

// Section returns the first section of the given kind.
func (j *PrintJob) Section(kind Kind) (Section, bool) {
	for _, s := range j.Sections {
		if s.Kind == kind {
			return s, true
		}
	}
	return Section{}, false
}
