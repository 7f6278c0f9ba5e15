// Package security scans document content for credentials before a
// sync pushes it to the shared remote workspace.
package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/matthewsinclair/arca-notionex/internal/document"
	"github.com/matthewsinclair/arca-notionex/internal/validation"
)

// SensitivePattern describes one kind of credential to look for.
type SensitivePattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
	Severity    string // "error" blocks the push, "warning" is reported only
}

// Detector scans text for credentials with a configurable pattern set.
type Detector struct {
	patterns []SensitivePattern
}

// DefaultPatterns returns the built-in credential patterns. Tokens that
// identify themselves by shape are errors; key and value assignments
// that merely look credential-like are warnings, since documents
// routinely show example configuration.
func DefaultPatterns() []SensitivePattern {
	return []SensitivePattern{
		{
			Name:        "Integration Token",
			Pattern:     regexp.MustCompile(`\b(secret|ntn)_[a-zA-Z0-9]{32,}\b`),
			Description: "Workspace integration token detected",
			Severity:    "error",
		},
		{
			Name:        "AWS Access Key",
			Pattern:     regexp.MustCompile(`\bAKIA[A-Z0-9]{16}\b`),
			Description: "AWS access key id detected",
			Severity:    "error",
		},
		{
			Name:        "AWS Secret Key",
			Pattern:     regexp.MustCompile(`(?i)aws[_-]?secret[_-]?(access[_-]?)?key\s*[:=]\s*['"]?[a-zA-Z0-9/+]{40}['"]?`),
			Description: "AWS secret key detected",
			Severity:    "error",
		},
		{
			Name:        "GitHub Token",
			Pattern:     regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`),
			Description: "GitHub access token detected",
			Severity:    "error",
		},
		{
			Name:        "Slack Token",
			Pattern:     regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`),
			Description: "Slack token detected",
			Severity:    "error",
		},
		{
			Name:        "Private Key",
			Pattern:     regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|DSA\s+|OPENSSH\s+|PGP\s+)?PRIVATE\s+KEY`),
			Description: "Private key material detected",
			Severity:    "error",
		},
		{
			Name:        "Connection String",
			Pattern:     regexp.MustCompile(`(?i)\b(postgres|postgresql|mysql|mongodb(\+srv)?|redis|amqp)://[^:/\s]+:[^@\s]+@`),
			Description: "Connection string with embedded credentials detected",
			Severity:    "error",
		},
		{
			Name:        "API Key",
			Pattern:     regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['"]?[a-zA-Z0-9_\-]{16,}['"]?`),
			Description: "API key assignment detected",
			Severity:    "warning",
		},
		{
			Name:        "Token",
			Pattern:     regexp.MustCompile(`(?i)(access[_-]?token|auth[_-]?token|token)\s*[:=]\s*['"]?[a-zA-Z0-9_\-.]{16,}['"]?`),
			Description: "Token assignment detected",
			Severity:    "warning",
		},
		{
			Name:        "Password",
			Pattern:     regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*['"]?[^\s'"]{8,}['"]?`),
			Description: "Password assignment detected",
			Severity:    "warning",
		},
		{
			Name:        "Generic Secret",
			Pattern:     regexp.MustCompile(`(?i)secret([_-]?key)?\s*[:=]\s*['"]?[a-zA-Z0-9_\-]{16,}['"]?`),
			Description: "Secret assignment detected",
			Severity:    "warning",
		},
		{
			Name:        "Bearer Token",
			Pattern:     regexp.MustCompile(`(?i)\bbearer\s+[a-zA-Z0-9_\-.=]{20,}`),
			Description: "Bearer token detected",
			Severity:    "warning",
		},
		{
			Name:        "JWT",
			Pattern:     regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`),
			Description: "JSON web token detected",
			Severity:    "warning",
		},
	}
}

// NewDetector creates a detector with the given patterns, falling back
// to DefaultPatterns when none are given.
func NewDetector(patterns []SensitivePattern) *Detector {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	return &Detector{patterns: patterns}
}

// NewDetectorDefault creates a detector with the default patterns.
func NewDetectorDefault() *Detector {
	return NewDetector(nil)
}

// Detection is a single finding. Content holds the line with the
// matched span masked, so findings are safe to log.
type Detection struct {
	Pattern     string
	Line        int
	Column      int
	Content     string
	Severity    string
	Description string
}

// ScanContent scans one content string. Error-severity findings land in
// the result's errors, the rest in its warnings. Line numbers are
// 1-based.
func (d *Detector) ScanContent(content string) *validation.Result {
	result := &validation.Result{Valid: true}
	if content == "" {
		return result
	}

	for lineNum, line := range strings.Split(content, "\n") {
		if isFalsePositive(line) {
			continue
		}
		for _, pattern := range d.patterns {
			loc := pattern.Pattern.FindStringIndex(line)
			if loc == nil {
				continue
			}
			detection := Detection{
				Pattern:     pattern.Name,
				Line:        lineNum + 1,
				Column:      loc[0] + 1,
				Content:     redactLine(line, loc),
				Severity:    pattern.Severity,
				Description: pattern.Description,
			}

			msg := fmt.Sprintf("%s at line %d: %s", pattern.Description, detection.Line, detection.Content)
			if pattern.Severity == "error" {
				result.AddError(&validation.Error{
					Field:   "content",
					Message: msg,
				})
			} else {
				result.AddWarning(msg)
			}
		}
	}
	return result
}

// ScanDocuments runs the default patterns over each document body and
// keys findings by document path.
func ScanDocuments(docs []*document.Document) *validation.Result {
	detector := NewDetectorDefault()
	combined := &validation.Result{Valid: true}

	for _, doc := range docs {
		res := detector.ScanContent(doc.Body)
		for _, w := range res.Warnings {
			combined.AddWarning(fmt.Sprintf("%s: %s", doc.Path, w))
		}
		for _, e := range res.Errors {
			var verr *validation.Error
			if errors.As(e, &verr) {
				combined.AddError(&validation.Error{
					Field:   doc.Path,
					Message: verr.Message,
					Err:     verr.Err,
				})
				continue
			}
			combined.AddError(e)
		}
	}
	return combined
}

// ScanContent scans content with the default patterns.
func ScanContent(content string) *validation.Result {
	return NewDetectorDefault().ScanContent(content)
}

// placeholderMarkers flag lines whose value is a documented stand-in
// rather than a live credential. AWS's documentation keys, for example,
// all carry the EXAMPLE suffix.
var placeholderMarkers = []string{
	"your_", "your-", "<your", "placeholder", "example", "changeme",
	"change-me", "change_me", "redacted", "dummy", "sample", "xxxx", "****",
}

func isFalsePositive(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// redactLine masks the matched span and trims the line to a loggable
// length.
func redactLine(line string, loc []int) string {
	masked := line[:loc[0]] + "****" + line[loc[1]:]
	return truncateLine(strings.TrimSpace(masked), 80)
}

func truncateLine(line string, maxLen int) string {
	if len(line) <= maxLen {
		return line
	}
	return line[:maxLen-3] + "..."
}
