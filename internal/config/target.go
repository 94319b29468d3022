package config

import "strings"

// targets lists the language versions the bundler can lower output to.
var targets = map[string]struct{}{
	"es2015": {},
	"es2016": {},
	"es2017": {},
	"es2018": {},
	"es2019": {},
	"es2020": {},
	"es2021": {},
	"es2022": {},
	"esnext": {},
}

// NormalizedTarget returns the lower cased target name.
func (c *Config) NormalizedTarget() string {
	return strings.ToLower(strings.TrimSpace(c.Target))
}
