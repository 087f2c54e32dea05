package dism

import (
	"io"
	"strconv"
	"strings"
)

// WimImage describes one edition stored in a WIM or ESD file.
type WimImage struct {
	Index       int
	Name        string
	Description string
	Size        string
}

// Label shows the image the way edition pickers list it, e.g. "6. Windows 11 Pro".
func (w WimImage) Label() string {
	return strconv.Itoa(w.Index) + ". " + w.Name
}

// WimInfoParser collects the "Index" groups printed by /Get-WimInfo.
type WimInfoParser struct {
	images []WimImage
	cur    *WimImage
}

func (p *WimInfoParser) Feed(line string) {
	key, value, ok := splitField(line)
	if !ok {
		return
	}
	switch key {
	case "Index":
		p.Flush()
		idx, err := strconv.Atoi(value)
		if err != nil {
			return
		}
		p.cur = &WimImage{Index: idx}
	case "Name":
		if p.cur == nil {
			// Output without index lines still lists editions in order.
			p.cur = &WimImage{Index: len(p.images) + 1}
		} else if p.cur.Name != "" {
			p.Flush()
			p.cur = &WimImage{Index: len(p.images) + 1}
		}
		p.cur.Name = value
	case "Description":
		if p.cur != nil {
			p.cur.Description = value
		}
	case "Size":
		if p.cur != nil {
			p.cur.Size = value
		}
	}
}

func (p *WimInfoParser) Flush() {
	if p.cur != nil && p.cur.Name != "" {
		p.images = append(p.images, *p.cur)
	}
	p.cur = nil
}

// Images returns the editions collected so far.
func (p *WimInfoParser) Images() []WimImage {
	return p.images
}

// splitField splits a "Key : value" line. Keys must start the line.
func splitField(line string) (string, string, bool) {
	line = strings.TrimRight(line, "\r\n")
	key, value, ok := strings.Cut(line, " : ")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), value, true
}

// ParseWimInfo reads /Get-WimInfo output.
func ParseWimInfo(r io.Reader) ([]WimImage, error) {
	p := &WimInfoParser{}
	if err := Feed(r, p); err != nil {
		return nil, err
	}
	return p.Images(), nil
}
