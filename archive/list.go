package archive

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/dar-go/dar/catalog"
)

// ListFormat selects list's output rendering (spec.md §4.7's list
// operation: "formats: tar-style/tree/xml/slicing-location").
type ListFormat int

const (
	ListTarStyle ListFormat = iota
	ListTree
	ListXML
	ListSlicingLocation
)

// List writes cat's contents to w in format, reading nothing but the
// catalogue (no data-section access, per spec.md).
func List(cat *catalog.Catalog, w io.Writer, format ListFormat) error {
	switch format {
	case ListTarStyle:
		return listTarStyle(cat, w)
	case ListTree:
		return listTree(cat, w)
	case ListXML:
		return listXML(cat, w)
	case ListSlicingLocation:
		return listSlicingLocation(cat, w)
	default:
		return listTarStyle(cat, w)
	}
}

func listTarStyle(cat *catalog.Catalog, w io.Writer) error {
	var walk func(e *catalog.Entry, path string) error
	walk = func(e *catalog.Entry, path string) error {
		for _, c := range e.Children {
			cpath := joinArch(path, c.Name)
			mode := modeString(c)
			size := int64(0)
			if c.Kind == catalog.KindFile {
				size = int64(c.Size.Uint64())
			}
			if _, err := fmt.Fprintf(w, "%s %10s %10d %s %s\n",
				mode, c.Owner+"/"+c.Group, size, c.Mtime.Time().Format("2006-01-02 15:04:05"), cpath); err != nil {
				return err
			}
			if c.Kind == catalog.KindDirectory {
				if err := walk(c, cpath); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(cat.Root, "")
}

func listTree(cat *catalog.Catalog, w io.Writer) error {
	var walk func(e *catalog.Entry, depth int) error
	walk = func(e *catalog.Entry, depth int) error {
		for _, c := range e.Children {
			if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), c.Name); err != nil {
				return err
			}
			if c.Kind == catalog.KindDirectory {
				if err := walk(c, depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(cat.Root, 0)
}

func listSlicingLocation(cat *catalog.Catalog, w io.Writer) error {
	var walk func(e *catalog.Entry, path string) error
	walk = func(e *catalog.Entry, path string) error {
		for _, c := range e.Children {
			cpath := joinArch(path, c.Name)
			if c.Kind == catalog.KindDirectory {
				if err := walk(c, cpath); err != nil {
					return err
				}
				continue
			}
			if c.Kind != catalog.KindFile || c.SavedState != catalog.Saved {
				continue
			}
			if _, err := fmt.Fprintf(w, "%s offset=%s\n", cpath, c.Offset.String()); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(cat.Root, "")
}

type xmlEntry struct {
	XMLName  xml.Name    `xml:"entry"`
	Name     string      `xml:"name,attr"`
	Kind     string      `xml:"kind,attr"`
	Size     int64       `xml:"size,attr,omitempty"`
	Children []*xmlEntry `xml:"entry,omitempty"`
}

func listXML(cat *catalog.Catalog, w io.Writer) error {
	root := toXML(cat.Root)
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return err
	}
	_, err := w.Write([]byte("\n"))
	return err
}

func toXML(e *catalog.Entry) *xmlEntry {
	x := &xmlEntry{Name: e.Name, Kind: e.Kind.String()}
	if e.Kind == catalog.KindFile {
		x.Size = int64(e.Size.Uint64())
	}
	for _, c := range e.Children {
		x.Children = append(x.Children, toXML(c))
	}
	return x
}

func modeString(e *catalog.Entry) string {
	var kindChar byte
	switch e.Kind {
	case catalog.KindDirectory:
		kindChar = 'd'
	case catalog.KindSymlink:
		kindChar = 'l'
	case catalog.KindCharDevice:
		kindChar = 'c'
	case catalog.KindBlockDevice:
		kindChar = 'b'
	case catalog.KindPipe:
		kindChar = 'p'
	case catalog.KindSocket:
		kindChar = 's'
	default:
		kindChar = '-'
	}
	perm := e.Mode
	bits := "rwxrwxrwx"
	out := make([]byte, 10)
	out[0] = kindChar
	for i := 0; i < 9; i++ {
		if perm&(1<<uint(8-i)) != 0 {
			out[i+1] = bits[i]
		} else {
			out[i+1] = '-'
		}
	}
	return string(out)
}
