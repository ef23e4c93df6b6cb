// Package profile loads Selene's bot profile: the persona prompt, the
// group-chat trigger keywords, the pivot language and the fixed command
// replies. Profiles are YAML documents validated against an embedded JSON
// schema before the semantic checks run.
package profile

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("profile.schema.json", schemaJSON)

// Profile describes the bot's personality and addressing configuration.
type Profile struct {
	// Persona is the system prompt sent to the generation service.
	Persona string `yaml:"persona"`

	// PivotLanguage is the language all text is normalized into before
	// generation. Defaults to "en".
	PivotLanguage string `yaml:"pivot_language"`

	// TriggerKeywords address the bot in group chats (case-insensitive
	// substring match).
	TriggerKeywords []string `yaml:"trigger_keywords"`

	// StartMessage is the reply to the /start command.
	StartMessage string `yaml:"start_message"`

	// HelpMessage is the reply to the /help command.
	HelpMessage string `yaml:"help_message"`
}

// Default returns the built-in profile, used when no profile file is
// configured. Texts and keywords match the original Princess Selene bot.
func Default() *Profile {
	return &Profile{
		Persona: "You are Princess Selene, a flirty, fun, and playful chat companion. " +
			"Keep replies short, warm and in character.",
		PivotLanguage: "en",
		TriggerKeywords: []string{
			"princess", "selene", "how are you", "joke", "fun", "guys", "jema",
		},
		StartMessage: "Hey there, cutie! I'm Princess Selene, your flirty, fun, and oh-so-cute chat buddy.",
		HelpMessage: "Here's what I can do:\n" +
			"- Chat with you in a fun and flirty way.\n" +
			"- Engage in playful and warm conversations with you!\n" +
			"Just mention me in a group or chat with me privately to see my magic!",
	}
}

// Load reads and parses the profile file at path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile load: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile load %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a profile YAML document, validates it against the schema and
// fills in defaults. It is the canonical entry point for loading profiles.
func Parse(data []byte) (*Profile, error) {
	// Schema validation runs on the generically decoded document so the
	// schema sees unknown fields and wrong types before they are lost to
	// struct decoding.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("profile parse: %w", err)
	}
	if doc != nil {
		if err := schema.Validate(doc); err != nil {
			return nil, fmt.Errorf("profile validate: %w", err)
		}
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile parse: %w", err)
	}

	applyDefaults(&p)
	return &p, nil
}

// applyDefaults fills empty fields from the built-in profile and normalizes
// the keyword list.
func applyDefaults(p *Profile) {
	def := Default()
	if strings.TrimSpace(p.Persona) == "" {
		p.Persona = def.Persona
	}
	if strings.TrimSpace(p.PivotLanguage) == "" {
		p.PivotLanguage = def.PivotLanguage
	}
	if p.StartMessage == "" {
		p.StartMessage = def.StartMessage
	}
	if p.HelpMessage == "" {
		p.HelpMessage = def.HelpMessage
	}
	if len(p.TriggerKeywords) == 0 {
		p.TriggerKeywords = def.TriggerKeywords
		return
	}

	keywords := make([]string, 0, len(p.TriggerKeywords))
	for _, kw := range p.TriggerKeywords {
		if t := strings.ToLower(strings.TrimSpace(kw)); t != "" {
			keywords = append(keywords, t)
		}
	}
	p.TriggerKeywords = keywords
}
