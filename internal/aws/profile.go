package aws

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/ini.v1"
)

const (
	// DefaultProfile is used when neither flags nor env name a profile.
	DefaultProfile = "default"
	// DefaultRegion is used when no region is configured anywhere.
	DefaultRegion = "us-east-1"
)

// Profile represents a named AWS profile from the shared files.
type Profile struct {
	Name          string
	Region        string
	RoleARN       string
	SourceProfile string
	HasKeys       bool
}

// ProfileManager discovers profiles from ~/.aws/credentials and ~/.aws/config.
type ProfileManager struct {
	profiles map[string]*Profile
	mx       sync.RWMutex
}

// NewProfileManager loads profiles from dir, defaulting to ~/.aws.
// Missing files yield an empty manager, not an error.
func NewProfileManager(dir string) (*ProfileManager, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home dir: %w", err)
		}
		dir = filepath.Join(home, ".aws")
	}
	m := ProfileManager{profiles: make(map[string]*Profile)}

	if err := m.load(filepath.Join(dir, "credentials"), credentialsSection); err != nil {
		return nil, err
	}
	if err := m.load(filepath.Join(dir, "config"), configSection); err != nil {
		return nil, err
	}

	return &m, nil
}

func credentialsSection(name string) (string, bool) {
	return name, name != ini.DefaultSection
}

func configSection(name string) (string, bool) {
	switch {
	case name == ini.DefaultSection:
		return "", false
	case name == DefaultProfile:
		return DefaultProfile, true
	case strings.HasPrefix(name, "profile "):
		return strings.TrimPrefix(name, "profile "), true
	default:
		return "", false
	}
}

func (m *ProfileManager) load(path string, nameFn func(string) (string, bool)) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	f, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	for _, section := range f.Sections() {
		name, ok := nameFn(section.Name())
		if !ok {
			continue
		}
		p, ok := m.profiles[name]
		if !ok {
			p = &Profile{Name: name}
			m.profiles[name] = p
		}
		if section.HasKey("aws_access_key_id") {
			p.HasKeys = true
		}
		if k := section.Key("region").String(); k != "" {
			p.Region = k
		}
		if k := section.Key("role_arn").String(); k != "" && p.RoleARN == "" {
			p.RoleARN = k
		}
		if k := section.Key("source_profile").String(); k != "" && p.SourceProfile == "" {
			p.SourceProfile = k
		}
	}

	return nil
}

// ProfileNames returns all known profile names, sorted.
func (m *ProfileManager) ProfileNames() []string {
	m.mx.RLock()
	defer m.mx.RUnlock()

	nn := make([]string, 0, len(m.profiles))
	for n := range m.profiles {
		nn = append(nn, n)
	}
	sort.Strings(nn)

	return nn
}

// GetProfile retrieves a copy of a profile by name.
func (m *ProfileManager) GetProfile(name string) (*Profile, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()

	p, ok := m.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProfile, name)
	}
	cp := *p

	return &cp, nil
}

// Resolve picks the effective profile and region.
// Flags win over AWS_PROFILE/AWS_REGION, which win over the profile's region.
func (m *ProfileManager) Resolve(profile, region string) (string, string, error) {
	if profile == "" {
		profile = os.Getenv("AWS_PROFILE")
	}
	if profile == "" {
		profile = DefaultProfile
	}
	p, err := m.GetProfile(profile)
	if err != nil {
		return "", "", err
	}
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = p.Region
	}
	if region == "" {
		region = DefaultRegion
	}

	return profile, region, nil
}
