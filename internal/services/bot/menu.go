package bot

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/kotae/internal/models"
)

// MenuEntry is a canned reply with optional follow-up buttons
type MenuEntry struct {
	Reply   string          `yaml:"reply"`
	Buttons []models.Button `yaml:"buttons,omitempty"`
}

// Menu is the catalogue of canned replies, keyed by command name and button id
type Menu struct {
	Commands map[string]MenuEntry `yaml:"commands"`
	Buttons  map[string]MenuEntry `yaml:"buttons"`
}

// LoadMenu reads a YAML menu file
func LoadMenu(path string) (*Menu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu file %s: %w", path, err)
	}
	menu, err := ParseMenu(data)
	if err != nil {
		return nil, fmt.Errorf("invalid menu file %s: %w", path, err)
	}
	return menu, nil
}

// ParseMenu decodes and validates a YAML menu. Keys are matched case-insensitively.
func ParseMenu(data []byte) (*Menu, error) {
	var raw Menu
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	menu := &Menu{
		Commands: make(map[string]MenuEntry, len(raw.Commands)),
		Buttons:  make(map[string]MenuEntry, len(raw.Buttons)),
	}
	for name, entry := range raw.Commands {
		if err := validateEntry("command", name, entry); err != nil {
			return nil, err
		}
		menu.Commands[strings.ToLower(name)] = entry
	}
	for id, entry := range raw.Buttons {
		if err := validateEntry("button", id, entry); err != nil {
			return nil, err
		}
		menu.Buttons[strings.ToLower(id)] = entry
	}

	for _, name := range reservedCommands {
		if _, ok := menu.Commands[name]; ok {
			return nil, fmt.Errorf("command %q is reserved", name)
		}
	}
	for _, id := range reservedButtons {
		if _, ok := menu.Buttons[id]; ok {
			return nil, fmt.Errorf("button %q is reserved", id)
		}
	}
	return menu, nil
}

func validateEntry(kind, key string, entry MenuEntry) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%s with empty name", kind)
	}
	if strings.TrimSpace(entry.Reply) == "" {
		return fmt.Errorf("%s %q has no reply", kind, key)
	}
	for i, b := range entry.Buttons {
		if b.ID == "" && b.URL == "" {
			return fmt.Errorf("%s %q button %d needs an id or url", kind, key, i)
		}
		if b.Label == "" {
			return fmt.Errorf("%s %q button %d has no label", kind, key, i)
		}
	}
	return nil
}

// Command returns the canned entry for a command name
func (m *Menu) Command(name string) (MenuEntry, bool) {
	if m == nil {
		return MenuEntry{}, false
	}
	entry, ok := m.Commands[strings.ToLower(name)]
	return entry, ok
}

// Button returns the canned entry for a button id
func (m *Menu) Button(id string) (MenuEntry, bool) {
	if m == nil {
		return MenuEntry{}, false
	}
	entry, ok := m.Buttons[strings.ToLower(id)]
	return entry, ok
}
