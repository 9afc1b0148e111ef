package config

import (
	"fmt"
	"slices"

	"github.com/roach88/yggdrasil/internal/collect"
	"github.com/roach88/yggdrasil/internal/distribution"
)

// Profile builds the named profile from its built-in definition and the
// configured overrides. Disabled profiles can still be built, for manual
// runs.
func (c *Config) Profile(name string) (distribution.Profile, error) {
	for _, pc := range c.Profiles {
		if pc.Name == name {
			return c.build(pc)
		}
	}
	return distribution.Profile{}, &Error{Code: ErrCodeUnknownProfile, Field: "profiles", Message: fmt.Sprintf("profile %q is not configured", name)}
}

// EnabledProfiles builds every enabled profile, in configuration order.
func (c *Config) EnabledProfiles() ([]distribution.Profile, error) {
	var out []distribution.Profile
	for _, pc := range c.Profiles {
		if !pc.Enabled {
			continue
		}
		p, err := c.build(pc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ProfileNames returns the configured profile names, in configuration
// order.
func (c *Config) ProfileNames() []string {
	names := make([]string, len(c.Profiles))
	for i, pc := range c.Profiles {
		names[i] = pc.Name
	}
	return names
}

func (c *Config) build(pc ProfileConfig) (distribution.Profile, error) {
	p, ok := collect.Profile(pc.Name)
	if !ok {
		return distribution.Profile{}, &Error{
			Code:    ErrCodeUnknownProfile,
			Field:   "profiles",
			Message: fmt.Sprintf("no collector chain for profile %q (known: %v)", pc.Name, collect.Names()),
		}
	}
	if pc.Target != "" {
		p.Target = pc.Target
	}
	p.ValidateDecisionsRelease = pc.ValidateDecisionsRelease
	p.ValidateDocumentsRelease = pc.ValidateDocumentsRelease
	p.PruneHiddenReferences = pc.PruneHiddenReferences
	p.Denylist = slices.Clone(c.Denylist)
	p.CopyStrategy = c.copyStrategy(pc)
	if err := p.Validate(); err != nil {
		return distribution.Profile{}, &Error{Code: ErrCodeInvalid, Field: "profiles", Message: "invalid profile " + pc.Name, Err: err}
	}
	return p, nil
}

// copyStrategy defaults to bulk when queries bypass the authorization
// layer.
func (c *Config) copyStrategy(pc ProfileConfig) distribution.CopyStrategy {
	if pc.CopyStrategy != "" {
		return distribution.CopyStrategy(pc.CopyStrategy)
	}
	if c.SPARQL.UseDirectQueries {
		return distribution.CopyBulk
	}
	return distribution.CopyDelta
}
