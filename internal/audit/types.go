package audit

import (
	"strings"
	"time"
	"unicode"
)

const (
	outcomePassStringConstant      = "pass"
	outcomeFailStringConstant      = "fail"
	outcomeManualStringConstant    = "manual"
	categoryKeySeparatorConstant   = "_"
	categoryTitleSeparatorConstant = " "
)

// Outcome is the tri-state result of a single check.
type Outcome int

// Outcomes produced by audit checks. The zero value requires a human comparison.
const (
	OutcomeManualCheckRequired Outcome = iota
	OutcomePass
	OutcomeFail
)

// String returns a lower-case identifier for the outcome.
func (outcome Outcome) String() string {
	switch outcome {
	case OutcomePass:
		return outcomePassStringConstant
	case OutcomeFail:
		return outcomeFailStringConstant
	case OutcomeManualCheckRequired:
		return outcomeManualStringConstant
	default:
		return outcomeManualStringConstant
	}
}

// TestResult records one check: the ground truth, the value observed by the harness, and the outcome.
type TestResult struct {
	Name        string
	Expected    string
	Actual      string
	Outcome     Outcome
	Description string
}

// Category groups the results of one audit domain in execution order.
type Category struct {
	Key     string
	Results []TestResult
}

// Title renders the key for headings, e.g. "system_info" becomes "System Info".
func (category Category) Title() string {
	words := strings.Split(category.Key, categoryKeySeparatorConstant)
	for wordIndex, word := range words {
		words[wordIndex] = titleCaseWord(word)
	}
	return strings.Join(words, categoryTitleSeparatorConstant)
}

// Result looks up a result by name.
func (category Category) Result(name string) (TestResult, bool) {
	for _, result := range category.Results {
		if result.Name == name {
			return result, true
		}
	}
	return TestResult{}, false
}

// LaunchResult records the application build and liveness check.
type LaunchResult struct {
	Outcome Outcome
	Detail  string
	Skipped bool
}

// ChecklistEntry is one manual verification step.
type ChecklistEntry struct {
	Category     string
	Test         string
	Instructions string
}

// Report is everything serialized at the end of a run.
type Report struct {
	GeneratedAt time.Time
	Launch      LaunchResult
	Categories  []Category
	Checklist   []ChecklistEntry
}

// Category looks up a category by key.
func (report Report) Category(key string) (Category, bool) {
	for _, category := range report.Categories {
		if category.Key == key {
			return category, true
		}
	}
	return Category{}, false
}

// OutcomeCounts tallies the outcomes of every automated category result.
func (report Report) OutcomeCounts() (passed int, failed int, manual int) {
	for _, category := range report.Categories {
		for _, result := range category.Results {
			switch result.Outcome {
			case OutcomePass:
				passed++
			case OutcomeFail:
				failed++
			case OutcomeManualCheckRequired:
				manual++
			}
		}
	}
	return passed, failed, manual
}

// Clock abstracts time-dependent functionality for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard library.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

func titleCaseWord(word string) string {
	runes := []rune(strings.ToLower(word))
	for runeIndex, character := range runes {
		if unicode.IsLetter(character) {
			runes[runeIndex] = unicode.ToUpper(character)
			break
		}
	}
	return string(runes)
}
