package core

import "strings"

// Environment is the deployment tier named by APP_ENV.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

var environmentAliases = map[string]Environment{
	"production":  Production,
	"prod":        Production,
	"staging":     Staging,
	"stage":       Staging,
	"testing":     Testing,
	"test":        Testing,
	"development": Development,
	"dev":         Development,
}

func (e Environment) String() string { return string(e) }

func (e Environment) IsProduction() bool { return e == Production }

// ParseEnvironment is case-insensitive and accepts short aliases. Anything
// unrecognised, including an empty value, is Development.
func ParseEnvironment(v string) Environment {
	if env, ok := environmentAliases[strings.ToLower(strings.TrimSpace(v))]; ok {
		return env
	}
	return Development
}
