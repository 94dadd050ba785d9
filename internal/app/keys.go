package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/henri123lemoine/stashy/internal/config"
)

// KeyMap defines all keybindings.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding
	Home key.Binding
	End  key.Binding

	// Actions
	Drop  key.Binding
	Apply key.Binding
	Pop   key.Binding

	// Preview
	ScrollUp   key.Binding
	ScrollDown key.Binding

	// General
	Filter  key.Binding
	Help    key.Binding
	Quit    key.Binding
	Dismiss key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g/home", "first"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G/end", "last"),
		),
		Drop: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "drop"),
		),
		Apply: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "apply"),
		),
		Pop: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pop"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "scroll down"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("enter", "esc", " ", "space"),
			key.WithHelp("enter/esc", "dismiss"),
		),
	}
}

// KeyMapFromConfig creates a KeyMap from config settings.
func KeyMapFromConfig(cfg *config.KeysConfig) KeyMap {
	km := DefaultKeyMap()

	bind := func(b *key.Binding, keys, help string) {
		parsed := parseKeys(keys)
		if len(parsed) == 0 {
			return
		}
		*b = key.NewBinding(
			key.WithKeys(parsed...),
			key.WithHelp(keys, help),
		)
	}

	bind(&km.Up, cfg.Up, "up")
	bind(&km.Down, cfg.Down, "down")
	bind(&km.Home, cfg.Home, "first")
	bind(&km.End, cfg.End, "last")
	bind(&km.Drop, cfg.Drop, "drop")
	bind(&km.Apply, cfg.Apply, "apply")
	bind(&km.Pop, cfg.Pop, "pop")
	bind(&km.ScrollUp, cfg.ScrollUp, "scroll up")
	bind(&km.ScrollDown, cfg.ScrollDown, "scroll down")
	bind(&km.Filter, cfg.Filter, "filter")
	bind(&km.Help, cfg.Help, "toggle help")
	bind(&km.Quit, cfg.Quit, "quit")

	return km
}

// parseKeys parses a comma-separated list of keys.
func parseKeys(s string) []string {
	parts := strings.Split(s, ",")
	var keys []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}
