// internal/message/templates.go
package message

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template tiers, most to least specific. A tier is applicable when the
// optional fields it needs are present on the recipient.
const (
	TierServiceAndDate = "service_and_date"
	TierDateOnly       = "date_only"
	TierServiceOnly    = "service_only"
	TierBase           = "base"
)

// Pack is a set of template variants per tier. Placeholders: {name},
// {business}, {service}, {date}.
type Pack struct {
	ServiceAndDate []string `yaml:"service_and_date"`
	DateOnly       []string `yaml:"date_only"`
	ServiceOnly    []string `yaml:"service_only"`
	Base           []string `yaml:"base"`
}

func (p *Pack) tier(name string) []string {
	switch name {
	case TierServiceAndDate:
		return p.ServiceAndDate
	case TierDateOnly:
		return p.DateOnly
	case TierServiceOnly:
		return p.ServiceOnly
	default:
		return p.Base
	}
}

// DefaultPack returns the built-in templates.
func DefaultPack() *Pack {
	return &Pack{
		ServiceAndDate: []string{
			"Hi {name}! We hope your {service} at {business} on {date} went great. Would you share your experience?",
			"{name}, thank you for choosing {business} for your {service} on {date}. We'd love your feedback!",
		},
		DateOnly: []string{
			"Hi {name}! Thanks for visiting {business} on {date}. We'd love to hear what you think!",
			"Hey {name}! How was your visit to {business} on {date}? A quick review would mean a lot.",
		},
		ServiceOnly: []string{
			"Hi {name}! We hope you loved your {service} at {business}. Mind sharing a quick review?",
			"Hey {name}! Thanks for choosing {business} for your {service}. How did we do?",
		},
		Base: []string{
			"Hi {name}! We hope you loved your visit to {business}. Mind sharing a quick review?",
			"Hey {name}! Thanks for visiting {business}. We'd appreciate your feedback!",
		},
	}
}

// LoadPack reads a YAML template pack from disk. Tiers left empty in the
// file fall back to the built-in variants.
func LoadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template pack: %w", err)
	}
	pack := &Pack{}
	if err := yaml.Unmarshal(data, pack); err != nil {
		return nil, fmt.Errorf("parse template pack: %w", err)
	}
	defaults := DefaultPack()
	if len(pack.Base) == 0 {
		pack.Base = defaults.Base
	}
	if len(pack.ServiceOnly) == 0 {
		pack.ServiceOnly = defaults.ServiceOnly
	}
	if len(pack.DateOnly) == 0 {
		pack.DateOnly = defaults.DateOnly
	}
	if len(pack.ServiceAndDate) == 0 {
		pack.ServiceAndDate = defaults.ServiceAndDate
	}
	return pack, nil
}

// RenderTemplate substitutes {placeholder} tokens with their values.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}
