// Package format recognizes and parses the supported log line formats.
//
// The format set is closed: every operation (Matches, Parse, IsPrimary)
// dispatches on ID with a single switch, so adding a format means adding a
// case to each of them.
package format

import (
	"fmt"
	"strings"
)

// ID identifies one of the supported log formats
type ID uint8

const (
	Plain ID = iota
	JSON
	Laravel
	Django
	Go
	Nginx
)

// priority is the detection order; earlier formats win ties
var priority = []ID{JSON, Laravel, Django, Go, Nginx}

// Name returns the display name of the format
func (id ID) Name() string {
	switch id {
	case JSON:
		return "JSON"
	case Laravel:
		return "Laravel"
	case Django:
		return "Django"
	case Go:
		return "Go"
	case Nginx:
		return "Nginx/Apache"
	default:
		return "Plain"
	}
}

// String returns the lowercase token accepted by ParseID
func (id ID) String() string {
	switch id {
	case JSON:
		return "json"
	case Laravel:
		return "laravel"
	case Django:
		return "django"
	case Go:
		return "go"
	case Nginx:
		return "nginx"
	default:
		return "plain"
	}
}

// ParseID converts a --format token to an ID. The boolean result is false
// for "auto" or an empty token, meaning detection should run.
func ParseID(s string) (ID, bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Plain, false, nil
	case "json":
		return JSON, true, nil
	case "laravel":
		return Laravel, true, nil
	case "django":
		return Django, true, nil
	case "go", "golang":
		return Go, true, nil
	case "nginx", "apache":
		return Nginx, true, nil
	case "plain", "text":
		return Plain, true, nil
	default:
		return Plain, false, fmt.Errorf("unknown format %q (want auto, json, laravel, django, go, nginx or plain)", s)
	}
}

// All returns every format in detection order followed by Plain
func All() []ID {
	out := make([]ID, 0, len(priority)+1)
	out = append(out, priority...)
	return append(out, Plain)
}
