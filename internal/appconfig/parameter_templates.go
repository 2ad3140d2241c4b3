// internal/appconfig/parameter_templates.go
package appconfig

import (
	"strings"
)

// ProfileName identifies a parameter preset/profile.
type ProfileName string

const (
	ProfileStory    ProfileName = "story"
	ProfileFocused  ProfileName = "focused"
	ProfileCreative ProfileName = "creative"
)

// ParamsForProfile selects a parameter profile by name.
// Behavior:
//   - empty string => Story (default)
//   - unknown string => Story (default)
func ParamsForProfile(name string) Parameters {
	n := normalizeProfileName(name)

	switch ProfileName(n) {
	case ProfileFocused:
		return DefaultFocusedParams()
	case ProfileCreative:
		return DefaultCreativeParams()
	case ProfileStory:
		fallthrough
	default:
		return DefaultStoryParams()
	}
}

// DefaultStoryParams matches the generator's original slider defaults.
func DefaultStoryParams() Parameters {
	return Parameters{
		MaxLength:   ptrInt(500),
		Temperature: ptrFloat(0.7),
		TopK:        ptrInt(50),
		TopP:        ptrFloat(0.9),
	}
}

// DefaultFocusedParams keeps continuations on topic and reproducible.
func DefaultFocusedParams() Parameters {
	return Parameters{
		MaxLength:   ptrInt(300),
		Temperature: ptrFloat(0.3),
		TopK:        ptrInt(20),
		TopP:        ptrFloat(0.8),
		Seed:        ptrInt64(42), // deterministic (remove for variety)
	}
}

// DefaultCreativeParams trades coherence for variety. Temperature stays
// within (0,1] because the dispatcher rejects anything hotter.
func DefaultCreativeParams() Parameters {
	return Parameters{
		MaxLength:   ptrInt(800),
		Temperature: ptrFloat(1.0),
		TopK:        ptrInt(100),
		TopP:        ptrFloat(0.95),
	}
}

// ApplyParameterTemplate merges the configured template under any explicit
// generation parameters.
func ApplyParameterTemplate(config *Config) error {
	template := ParamsForProfile(config.Generation.ParameterTemplate)
	config.Generation.Parameters = MergeParams(template, config.Generation.Parameters)
	return nil
}

// MergeParams overlays every set field of override onto base.
func MergeParams(base Parameters, override Parameters) Parameters {
	if override.MaxLength != nil {
		base.MaxLength = override.MaxLength
	}
	if override.Temperature != nil {
		base.Temperature = override.Temperature
	}
	if override.TopK != nil {
		base.TopK = override.TopK
	}
	if override.TopP != nil {
		base.TopP = override.TopP
	}
	if override.Seed != nil {
		base.Seed = override.Seed
	}
	return base
}

func normalizeProfileName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	// allow a few friendly aliases
	switch s {
	case "", "default", "stories", "generic":
		return string(ProfileStory)
	case "focus", "precise", "deterministic":
		return string(ProfileFocused)
	case "creative_writing", "creative-writing", "writer":
		return string(ProfileCreative)
	default:
		return s
	}
}

// Pointer helpers (keeps structs clean + preserves unset vs explicitly set).
func ptrInt(v int) *int           { return &v }
func ptrInt64(v int64) *int64     { return &v }
func ptrFloat(v float64) *float64 { return &v }
