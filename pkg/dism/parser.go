// Package dism turns the console output of dism.exe inventory commands
// into records.
//
// dism prints each item as a group of "Label : value" lines with no
// delimiter between groups other than the next occurrence of the group's
// first label. Every parser here is a small accumulator that is fed one
// line at a time and must be flushed once the input ends.
package dism

import (
	"bufio"
	"io"
	"strings"
)

const (
	labelPackageIdentity = "Package Identity : "
	labelState           = "State : "
	labelPublishedName   = "Published Name : "
	labelOriginalName    = "Original File Name : "
	labelClassName       = "Class Name : "
	labelFeatureName     = "Feature Name : "
	labelAppPackageName  = "PackageName : "
)

// LineParser consumes dism output one line at a time.
type LineParser interface {
	Feed(line string)
	// Flush finalizes the group still open at end of input.
	Flush()
}

// valueAfter returns the text following label, with trailing line
// terminators removed.
func valueAfter(line, label string) (string, bool) {
	pos := strings.Index(line, label)
	if pos < 0 {
		return "", false
	}
	return strings.TrimRight(line[pos+len(label):], "\r\n"), true
}

// PackageParser collects "Package Identity" groups. A group is kept only
// when the last state seen before the next identity (or the end of
// input) mentions Installed or Staged.
type PackageParser struct {
	out   *Collection
	id    string
	state string
}

func NewPackageParser(out *Collection) *PackageParser {
	return &PackageParser{out: out}
}

func (p *PackageParser) Feed(line string) {
	if id, ok := valueAfter(line, labelPackageIdentity); ok {
		p.Flush()
		p.id = id
		p.state = ""
	}
	if state, ok := valueAfter(line, labelState); ok {
		p.state = state
	}
}

func (p *PackageParser) Flush() {
	if p.id == "" {
		return
	}
	if strings.Contains(p.state, "Installed") || strings.Contains(p.state, "Staged") {
		p.out.Put(p.id, p.state)
	}
	p.id = ""
	p.state = ""
}

// DriverParser collects "Published Name" groups into records whose state
// reads "Driver (<class>) - <original file name>".
type DriverParser struct {
	out       *Collection
	published string
	original  string
	class     string
}

func NewDriverParser(out *Collection) *DriverParser {
	return &DriverParser{out: out}
}

func (p *DriverParser) Feed(line string) {
	if name, ok := valueAfter(line, labelPublishedName); ok {
		p.Flush()
		p.published = name
	}
	if name, ok := valueAfter(line, labelOriginalName); ok {
		p.original = name
	}
	if class, ok := valueAfter(line, labelClassName); ok {
		p.class = class
	}
}

func (p *DriverParser) Flush() {
	if p.published != "" {
		p.out.Put(p.published, DriverState(p.class, p.original))
	}
	p.published = ""
	p.original = ""
	p.class = ""
}

// DriverState formats the synthesized state of a driver record.
func DriverState(class, original string) string {
	return "Driver (" + class + ") - " + original
}

// FeatureParser pairs each "Feature Name" with the state line that
// follows it. Records are emitted as soon as the state is seen.
type FeatureParser struct {
	out  *Collection
	name string
}

func NewFeatureParser(out *Collection) *FeatureParser {
	return &FeatureParser{out: out}
}

func (p *FeatureParser) Feed(line string) {
	if name, ok := valueAfter(line, labelFeatureName); ok {
		p.name = name
	}
	state, ok := valueAfter(line, labelState)
	if !ok || p.name == "" {
		return
	}
	p.out.Put(p.name, NormalizeFeatureState(state))
	p.name = ""
}

// Flush drops a feature name that never received a state.
func (p *FeatureParser) Flush() {
	p.name = ""
}

// NormalizeFeatureState folds pending transitions into their target state.
func NormalizeFeatureState(state string) string {
	switch state {
	case "Enable Pending":
		return "Enabled"
	case "Disable Pending":
		return "Disabled"
	}
	return state
}

// AppParser records every provisioned appx "PackageName" with an empty state.
type AppParser struct {
	out *Collection
}

func NewAppParser(out *Collection) *AppParser {
	return &AppParser{out: out}
}

func (p *AppParser) Feed(line string) {
	if name, ok := valueAfter(line, labelAppPackageName); ok && name != "" {
		p.out.Put(name, "")
	}
}

func (p *AppParser) Flush() {}

// Feed runs every line of r through p and flushes it at the end. Lines
// have no length limit; the open group is flushed even when reading fails.
func Feed(r io.Reader, p LineParser) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			p.Feed(strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			p.Flush()
			return err
		}
	}
	p.Flush()
	return nil
}

// ParseApps reads /Get-ProvisionedAppxPackages output into out.
func ParseApps(r io.Reader, out *Collection) error {
	return Feed(r, NewAppParser(out))
}

// ParsePackages reads /Get-Packages output into out.
func ParsePackages(r io.Reader, out *Collection) error {
	return Feed(r, NewPackageParser(out))
}

// ParseDrivers reads /Get-Drivers output into out.
func ParseDrivers(r io.Reader, out *Collection) error {
	return Feed(r, NewDriverParser(out))
}

// ParseFeatures reads /Get-Features output into out.
func ParseFeatures(r io.Reader, out *Collection) error {
	return Feed(r, NewFeatureParser(out))
}
