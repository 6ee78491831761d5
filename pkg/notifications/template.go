package notifications

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/jobnotify/pkg/template"
)

// Template is a stored title/message pair for one type and channel.
// At most one template per (Type, Channel) may be the default.
type Template struct {
	ID              string  `json:"id" yaml:"id,omitempty"`
	Name            string  `json:"name" yaml:"name"`
	Type            Type    `json:"type" yaml:"type"`
	Channel         Channel `json:"channel" yaml:"channel"`
	TitleTemplate   string  `json:"title_template" yaml:"title"`
	MessageTemplate string  `json:"message_template" yaml:"message"`
	IsDefault       bool    `json:"is_default" yaml:"default"`
}

// Content returns the renderable form of t.
func (t Template) Content() template.Template {
	return template.Template{Title: t.TitleTemplate, Message: t.MessageTemplate}
}

// SelectTemplate picks the template for typ and ch from candidates.
//
// Preference order: the default for (typ, ch), any template for (typ, ch),
// the default for typ on any channel (lowest channel name first).
// It returns ErrTemplateNotFound when none apply.
func SelectTemplate(candidates []Template, typ Type, ch Channel) (Template, error) {
	var exact, defaults []Template
	for _, c := range candidates {
		if c.Type != typ {
			continue
		}
		if c.Channel == ch {
			if c.IsDefault {
				return c, nil
			}
			exact = append(exact, c)
			continue
		}
		if c.IsDefault {
			defaults = append(defaults, c)
		}
	}
	if len(exact) > 0 {
		return exact[0], nil
	}
	if len(defaults) > 0 {
		slices.SortFunc(defaults, func(a, b Template) int {
			return cmp.Compare(a.Channel, b.Channel)
		})
		return defaults[0], nil
	}
	return Template{}, fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, typ, ch)
}

// FallbackContent is the generic content used when no template exists for typ.
// It has no placeholders, so it always renders cleanly.
func FallbackContent(typ Type) template.Template {
	label := strings.ReplaceAll(string(typ), "_", " ")
	if label == "" {
		label = "notification"
	}
	return template.Template{
		Title:   cases.Title(language.English).String(label),
		Message: fmt.Sprintf("You have a new %s notification.", strings.ToLower(label)),
	}
}

// DefaultTemplates returns the built-in realtime templates for every known type.
// The placeholders match the context keys set by the event triggers.
func DefaultTemplates() []Template {
	return []Template{
		{
			Name:            "job_posted_realtime",
			Type:            TypeJobPosted,
			Channel:         ChannelRealtime,
			TitleTemplate:   "New job: {job_title}",
			MessageTemplate: "{company_name} is hiring a {job_type} {job_title} in {location}.",
			IsDefault:       true,
		},
		{
			Name:            "application_received_realtime",
			Type:            TypeApplicationReceived,
			Channel:         ChannelRealtime,
			TitleTemplate:   "New application for {job_title}",
			MessageTemplate: "{applicant_name} applied to {job_title}.",
			IsDefault:       true,
		},
		{
			Name:            "application_status_changed_realtime",
			Type:            TypeApplicationStatusChanged,
			Channel:         ChannelRealtime,
			TitleTemplate:   "Application update: {job_title}",
			MessageTemplate: "Your application to {job_title} at {company_name} moved from {old_status} to {new_status}.",
			IsDefault:       true,
		},
		{
			Name:            "match_score_calculated_realtime",
			Type:            TypeMatchScoreCalculated,
			Channel:         ChannelRealtime,
			TitleTemplate:   "{score}% match: {job_title}",
			MessageTemplate: "You are a {score}% match for {job_title} at {company_name}.",
			IsDefault:       true,
		},
		{
			Name:            "system_announcement_realtime",
			Type:            TypeSystemAnnouncement,
			Channel:         ChannelRealtime,
			TitleTemplate:   "{title}",
			MessageTemplate: "{message}",
			IsDefault:       true,
		},
	}
}

type templateFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadTemplates parses a YAML seed file of the form:
//
//	templates:
//	  - name: job_posted_realtime
//	    type: job_posted
//	    channel: realtime
//	    title: "New job: {job_title}"
//	    message: "{company_name} is hiring."
//	    default: true
func LoadTemplates(r io.Reader) ([]Template, error) {
	var f templateFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode templates: %w", err)
	}

	for i, t := range f.Templates {
		if t.Type == "" {
			return nil, fmt.Errorf("template #%d (%s): type is required", i, t.Name)
		}
		if t.Channel == "" {
			f.Templates[i].Channel = ChannelRealtime
		} else if !t.Channel.Valid() {
			return nil, fmt.Errorf("template #%d (%s): unknown channel %q", i, t.Name, t.Channel)
		}
	}
	return f.Templates, nil
}

// SeedTemplates saves custom and then the built-in templates. Custom
// templates win: a built-in default for a type and channel that already has
// another default, from custom or saved earlier, is stored as a non-default.
// A custom template named like a built-in replaces it.
func SeedTemplates(ctx context.Context, store TemplateStorage, custom []Template) error {
	builtins := DefaultTemplates()
	builtinNames := make(map[string]bool, len(builtins))
	for _, b := range builtins {
		builtinNames[b.Name] = true
	}

	customNames := make(map[string]bool, len(custom))
	for _, t := range custom {
		t.Name = templateName(t)
		customNames[t.Name] = true

		if t.IsDefault {
			current, err := otherDefault(ctx, store, t)
			if err != nil {
				return err
			}
			if current != nil && builtinNames[current.Name] {
				current.IsDefault = false
				if err := store.SaveTemplate(ctx, *current); err != nil {
					return fmt.Errorf("failed to demote template %s: %w", current.Name, err)
				}
			}
		}
		if err := store.SaveTemplate(ctx, t); err != nil {
			return fmt.Errorf("failed to seed template %s: %w", t.Name, err)
		}
	}

	for _, b := range builtins {
		if customNames[b.Name] {
			continue
		}
		current, err := otherDefault(ctx, store, b)
		if err != nil {
			return err
		}
		if current != nil {
			b.IsDefault = false
		}
		if err := store.SaveTemplate(ctx, b); err != nil {
			return fmt.Errorf("failed to seed template %s: %w", b.Name, err)
		}
	}
	return nil
}

// otherDefault returns the stored default for t's type and channel under
// another name, or nil.
func otherDefault(ctx context.Context, store TemplateStorage, t Template) (*Template, error) {
	stored, err := store.FindTemplates(ctx, t.Type)
	if errors.Is(err, ErrTemplateNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for _, s := range stored {
		if s.IsDefault && s.Channel == t.Channel && s.Name != t.Name {
			return &s, nil
		}
	}
	return nil, nil
}

func templateName(t Template) string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("%s_%s", t.Type, t.Channel)
}
