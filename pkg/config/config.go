package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Config holds the parsed sections of a configuration file.
type Config struct {
	sections map[string]*Section
	order    []string // Maintains section order
}

// New creates a new empty Config.
func New() *Config {
	return &Config{sections: make(map[string]*Section)}
}

// Load reads a configuration file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: unable to open %s: %w", path, err)
	}
	defer f.Close()
	return parse(f, path)
}

// LoadString parses a configuration from a string.
func LoadString(data string) (*Config, error) {
	return parse(strings.NewReader(data), "<string>")
}

func parse(r io.Reader, name string) (*Config, error) {
	c := New()
	var currentSection string
	var currentOptions map[string]string

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}

		// Section header
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if currentSection != "" {
				c.addSection(currentSection, currentOptions)
			}
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			if currentSection == "" {
				return nil, fmt.Errorf("config: empty section header at line %d in %s", lineNum, name)
			}
			currentOptions = make(map[string]string)
			continue
		}

		if currentSection == "" {
			return nil, fmt.Errorf("config: option outside of a section at line %d in %s", lineNum, name)
		}

		// Parse key: value or key = value
		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			kv = strings.SplitN(line, "=", 2)
		}
		if len(kv) != 2 {
			return nil, fmt.Errorf("config: malformed line %d in %s: %q", lineNum, name, line)
		}

		key := strings.TrimSpace(kv[0])
		if key == "" {
			return nil, fmt.Errorf("config: empty option name at line %d in %s", lineNum, name)
		}
		currentOptions[key] = strings.TrimSpace(kv[1])
	}

	if currentSection != "" {
		c.addSection(currentSection, currentOptions)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: error reading %s: %w", name, err)
	}
	return c, nil
}

// addSection adds a section, merging options into an existing one.
func (c *Config) addSection(name string, options map[string]string) {
	if existing, ok := c.sections[name]; ok {
		for k, v := range options {
			existing.options[strings.ToLower(k)] = v
		}
		return
	}
	c.sections[name] = newSection(name, options)
	c.order = append(c.order, name)
}

// GetSection returns a Section by name, or error if not found.
func (c *Config) GetSection(name string) (*Section, error) {
	sec, ok := c.sections[name]
	if !ok {
		return nil, ErrMissingSection(name)
	}
	return sec, nil
}

// GetSectionOptional returns a Section if it exists, or an empty one if not.
func (c *Config) GetSectionOptional(name string) *Section {
	if sec, ok := c.sections[name]; ok {
		return sec
	}
	return newSection(name, nil)
}

// HasSection checks if a section exists.
func (c *Config) HasSection(name string) bool {
	_, ok := c.sections[name]
	return ok
}

// GetSectionNames returns all section names in file order.
func (c *Config) GetSectionNames() []string {
	result := make([]string, len(c.order))
	copy(result, c.order)
	return result
}

// CheckUnusedSections returns an error naming sections outside known.
func (c *Config) CheckUnusedSections(known ...string) error {
	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}
	var unused []string
	for _, name := range c.order {
		if !allowed[name] {
			unused = append(unused, name)
		}
	}
	if len(unused) > 0 {
		return NewConfigError("", "", fmt.Sprintf("unknown sections: %v", unused))
	}
	return nil
}

// CheckUnusedOptions returns an error if any section has options that were never read.
func (c *Config) CheckUnusedOptions() error {
	var problems []string
	for _, name := range c.order {
		if unused := c.sections[name].GetUnusedOptions(); len(unused) > 0 {
			problems = append(problems, fmt.Sprintf("[%s]: unused options %v", name, unused))
		}
	}
	if len(problems) > 0 {
		return NewConfigError("", "", strings.Join(problems, "; "))
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
