package core

import "strings"

// Environment is the deployment stage the service runs in.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether e is the production stage.
func (e Environment) IsProduction() bool {
	return e == Production
}

// ParseEnvironment maps an ENVIRONMENT value onto a known stage. Matching is
// case-insensitive; anything unrecognised is treated as Development.
func ParseEnvironment(v string) Environment {
	switch env := Environment(strings.ToLower(strings.TrimSpace(v))); env {
	case Production, Staging, Testing:
		return env
	case "prod":
		return Production
	default:
		return Development
	}
}
