package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ProfileRegistry maps routing profile names to the Azure deployment
// that has been configured (out-of-band, on the Azure side) with that
// profile. Keeping the mapping in a file lets one invocation switch
// profiles with --profile instead of editing environment variables.
type ProfileRegistry struct {
	Deployments map[string]string `yaml:"deployments"`
}

// LoadProfiles reads an optional profiles.yaml. A missing file is not
// an error; it simply means every profile uses the configured default
// deployment.
func LoadProfiles(path string) (*ProfileRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ProfileRegistry{}, nil
		}
		return nil, eris.Wrapf(err, "config: read %s", path)
	}

	var reg ProfileRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, eris.Wrapf(err, "config: parse %s", path)
	}
	return &reg, nil
}

// Deployment returns the deployment bound to the given profile, or the
// fallback when the profile has no explicit mapping.
func (r *ProfileRegistry) Deployment(profile, fallback string) string {
	if r == nil || r.Deployments == nil {
		return fallback
	}
	if d, ok := r.Deployments[profile]; ok && d != "" {
		return d
	}
	return fallback
}
