// Package audit implements the governance reports run against a GitHub
// organization: two-factor auth, team maintainers, repository admins,
// owners, collaborator access and the member roster export.
package audit

import (
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kurihiro0119/github-org-audit/internal/collector"
	"github.com/kurihiro0119/github-org-audit/internal/domain"
)

const (
	// Repository listing fetches a fixed number of pages regardless of how
	// many repositories the organization has, capping the check at 400.
	RepoPageCount = 4
	RepoPageSize  = 100

	// Member export walks page numbers up to a fixed ceiling, one member per
	// page, even after the list is exhausted.
	MemberPageLimit = 500
	MemberPageSize  = 1

	// CheckMark is rendered for a granted permission
	CheckMark = "X"
)

// Options configures an Auditor
type Options struct {
	Org         string
	Bots        domain.BotSet
	Out         io.Writer
	Logger      *zap.Logger
	Concurrency int
}

// Auditor runs audit reports against one organization and prints them
type Auditor struct {
	collector   collector.Collector
	org         string
	bots        domain.BotSet
	out         io.Writer
	logger      *zap.Logger
	concurrency int
}

// NewAuditor creates a new Auditor
func NewAuditor(c collector.Collector, opts Options) *Auditor {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Auditor{
		collector:   c,
		org:         opts.Org,
		bots:        opts.Bots,
		out:         opts.Out,
		logger:      opts.Logger,
		concurrency: opts.Concurrency,
	}
}

// DisplayOrg returns the organization name as shown in report headings
func (a *Auditor) DisplayOrg() string {
	first, size := utf8.DecodeRuneInString(a.org)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(first)) + a.org[size:]
}

// sanitize keeps report text valid UTF-8
func sanitize(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}
