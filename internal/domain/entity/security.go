// Package entity defines the core domain entities and validation logic for the tracker.
// It contains the fundamental business objects such as Security, NewsItem and
// RevenueFact, along with their validation rules and domain-specific errors.
package entity

import "fmt"

// Security represents a tracked, exchange-listed equity.
// It is immutable for the duration of a run and sourced from configuration;
// the configuration order of securities defines the report order.
type Security struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Industry string `yaml:"industry,omitempty"`
}

// Validate checks that the security carries the minimum identifying fields.
func (s *Security) Validate() error {
	if s.Code == "" {
		return &ValidationError{Field: "code", Message: "security code cannot be empty"}
	}
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("security %s has no display name", s.Code)}
	}
	return nil
}
