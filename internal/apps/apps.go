package apps

import (
	"fmt"
	"net/url"
	"strings"
)

// Type identifies one of the three cooperating front-end applications.
type Type string

const (
	Admin     Type = "admin"
	Organizer Type = "organizer"
	Exhibitor Type = "exhibitor"
)

func ParseType(s string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Admin:
		return Admin, true
	case Organizer:
		return Organizer, true
	case Exhibitor:
		return Exhibitor, true
	}
	return "", false
}

// Directory maps each application to its canonical origin. It is built
// once at startup from configuration; nothing is inferred from request
// hosts at runtime.
type Directory struct {
	origins map[Type]*url.URL
}

func NewDirectory(adminOrigin, organizerOrigin, exhibitorOrigin string) (*Directory, error) {
	origins := make(map[Type]*url.URL, 3)
	for t, raw := range map[Type]string{
		Admin:     adminOrigin,
		Organizer: organizerOrigin,
		Exhibitor: exhibitorOrigin,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("apps: invalid origin for %s: %w", t, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("apps: origin for %s must include scheme and host", t)
		}
		origins[t] = u
	}
	return &Directory{origins: origins}, nil
}

func (d *Directory) Origin(t Type) (string, bool) {
	u, ok := d.origins[t]
	if !ok {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}

// ByOrigin resolves which application serves the given origin.
func (d *Directory) ByOrigin(origin string) (Type, bool) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	for t, o := range d.origins {
		if strings.EqualFold(o.Host, u.Host) && (u.Scheme == "" || strings.EqualFold(o.Scheme, u.Scheme)) {
			return t, true
		}
	}
	return "", false
}

// Rehome rebuilds the given URL against the target application's origin,
// preserving path, query and fragment verbatim.
func (d *Directory) Rehome(t Type, original *url.URL) (string, error) {
	o, ok := d.origins[t]
	if !ok {
		return "", fmt.Errorf("apps: unknown application %q", t)
	}
	u := *original
	u.Scheme = o.Scheme
	u.Host = o.Host
	return u.String(), nil
}
