// Package inventory turns dism records into annotated display items and
// drives scans and bulk actions against a mounted image.
package inventory

import (
	"strings"

	"github.com/modwin/modwin/pkg/dism"
	"github.com/modwin/modwin/pkg/knowledge"
)

// Item is one row of an inventory list.
type Item struct {
	Name        string
	State       string
	Title       string
	Info        knowledge.Info
	Selected    bool
	ShowDetails bool
}

// historyType is the label stored in the removal history.
func historyType(k dism.Kind, name string) string {
	switch k {
	case dism.KindApp:
		return "Appx"
	case dism.KindFeature:
		return "Feature"
	}
	if IsDriver(name) {
		return "Driver"
	}
	return "Package"
}

// IsDriver reports whether name refers to a third-party driver (oemN.inf).
func IsDriver(name string) bool {
	return len(name) >= 4 && strings.EqualFold(name[len(name)-4:], ".inf")
}

var (
	namePrefixes = []string{
		"Microsoft-Windows-", "Microsoft-OneCore-", "Microsoft.",
		"Microsoft-", "Windows-", "MicrosoftWindows.",
	}
	nameSuffixes = []string{
		"-FOD-Package", "-Package", "-FoD", "-FOD", "-WOW64", "-Deployment",
	}
)

// SimplifyName shortens a component identifier for display, e.g.
// "Microsoft-Windows-Hello-Face-Package~31bf3856ad364e35~amd64~~10.0" becomes
// "Hello Face". If nothing is left the full name is returned.
func SimplifyName(full string) string {
	name := full
	if i := strings.IndexByte(name, '~'); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '_'); i >= 0 {
		name = name[:i]
	}

	for _, p := range namePrefixes {
		if len(name) > len(p) && strings.EqualFold(name[:len(p)], p) {
			name = name[len(p):]
			break
		}
	}
	// every suffix is tried in turn, so stacked ones can both go
	for _, s := range nameSuffixes {
		if len(name) > len(s) && strings.EqualFold(name[len(name)-len(s):], s) {
			name = name[:len(name)-len(s)]
		}
	}

	name = strings.NewReplacer("-", " ", ".", " ").Replace(name)
	name = strings.TrimRight(name, " ")
	if name == "" {
		return full
	}
	return name
}
