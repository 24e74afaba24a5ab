package schema

import (
	"fmt"
	"strings"
)

// LayoutName identifies a named layout within a workspace.
type LayoutName string

// CommandID identifies a host command.
type CommandID string

const (
	// CommandNew captures the current layout under a new name.
	CommandNew CommandID = "tab-layout.new"
	// CommandLoad restores a stored layout.
	CommandLoad CommandID = "tab-layout.load"
	// CommandSaveAs captures the current layout under a given name.
	CommandSaveAs CommandID = "tab-layout.save_as"
	// CommandDelete removes a stored layout.
	CommandDelete CommandID = "tab-layout.delete"
	// CommandRename renames a stored layout.
	CommandRename CommandID = "tab-layout.rename"
	// CommandDisable clears the active layout.
	CommandDisable CommandID = "tab-layout.disable"
	// CommandSortByName orders the layout list by name.
	CommandSortByName CommandID = "tab-layout.sort_by_name"
	// CommandSortByRecent orders the layout list by capture time.
	CommandSortByRecent CommandID = "tab-layout.sort_by_recent"
	// CommandRefresh re-reads the layout list.
	CommandRefresh CommandID = "tab-layout.refresh_layouts"
)

// Mutating reports whether the command changes stored layouts or the active
// pointer and therefore runs behind the command gate.
func (id CommandID) Mutating() bool {
	switch id {
	case CommandNew, CommandLoad, CommandSaveAs, CommandDelete, CommandRename, CommandDisable:
		return true
	default:
		return false
	}
}

// SortMethod selects the order of a layout listing.
type SortMethod string

const (
	// SortNone returns names in directory order.
	SortNone SortMethod = "none"
	// SortByName orders names with locale-aware collation.
	SortByName SortMethod = "name"
	// SortByRecent orders names by descending capture timestamp.
	SortByRecent SortMethod = "recent"
)

// ParseSortMethod parses a user-supplied sort method.
func ParseSortMethod(value string) (SortMethod, error) {
	switch SortMethod(strings.ToLower(strings.TrimSpace(value))) {
	case "", SortNone:
		return SortNone, nil
	case SortByName:
		return SortByName, nil
	case SortByRecent, "recency":
		return SortByRecent, nil
	default:
		return "", fmt.Errorf("unsupported sort method %q", value)
	}
}

// ValidateLayoutName checks that the name maps onto a single file basename.
func ValidateLayoutName(name LayoutName) error {
	value := string(name)
	if strings.TrimSpace(value) == "" {
		return ErrInvalidLayoutName
	}
	if value == "." || value == ".." {
		return ErrInvalidLayoutName
	}
	if strings.ContainsAny(value, "/\\\x00") {
		return ErrInvalidLayoutName
	}
	return nil
}
