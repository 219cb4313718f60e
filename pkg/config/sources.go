package config

import (
	"fmt"
	"os"
	"strings"
)

// DefaultSourcesFile is read when no sources are given on the command line.
const DefaultSourcesFile = "tumblr_names.txt"

// ParseSources splits raw text into source names. Names may be separated by
// commas, spaces, tabs, carriage returns or newlines; empty names are dropped.
func ParseSources(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', ' ', '\t', '\r', '\n':
			return true
		}
		return false
	})

	sources := make([]string, 0, len(fields))
	for _, f := range fields {
		if name := strings.TrimSpace(f); name != "" {
			sources = append(sources, name)
		}
	}
	return sources
}

// LoadSourcesFile reads source names from a file.
func LoadSourcesFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	return ParseSources(string(data)), nil
}
