package domain

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// DefaultBots lists the automation accounts of the docker organization.
var DefaultBots = []string{
	"docker-codecov-bot",
	"docker-jenkins",
	"dockerjiraadmin",
	"GordonTheTurtle",
	"highland-tooling",
	"orca-eng",
	"dci-bot",
	"docker-autobuild",
	"docker-ci-scanner",
	"docker-metrics",
	"docker-tools-bot",
	"docker-tools-robot",
	"dtr-buildkite",
	"sf-release-bot",
	"psftwbot",
}

// BotSet is an immutable set of automation logins excluded from
// human-facing reports. Lookups ignore case, like GitHub logins.
type BotSet struct {
	logins sets.String
}

// NewBotSet builds a BotSet from the given logins
func NewBotSet(logins ...[]string) BotSet {
	s := sets.NewString()
	for _, list := range logins {
		for _, login := range list {
			s.Insert(strings.ToLower(login))
		}
	}
	return BotSet{logins: s}
}

// Contains reports whether login belongs to a known bot
func (b BotSet) Contains(login string) bool {
	return b.logins.Has(strings.ToLower(login))
}

// Len returns the number of bots in the set
func (b BotSet) Len() int {
	return b.logins.Len()
}
