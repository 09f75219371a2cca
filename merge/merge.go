// Package merge combines compat config documents produced for many packages
// (possibly packed into jar or zip archives) into one document, and derives
// the stripped-down device config from it.
package merge

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
)

const (
	xmlHeader = `version="1.0" encoding="UTF-8" standalone="no"`

	// ConfigSuffix is the suffix of archive entries that are merged.
	ConfigSuffix = "_compat_config.xml"
)

// ErrNoRoot is returned when an input document has no root element.
var ErrNoRoot = errors.New("document has no root element")

// Merger accumulates the compat-change elements of every document given to
// it, in the order they are merged. The zero value is not usable; call New.
type Merger struct {
	root *etree.Element
}

// New returns an empty merger.
func New() *Merger {
	return &Merger{root: etree.NewElement("config")}
}

// Len returns the number of changes merged so far.
func (m *Merger) Len() int {
	return len(m.root.ChildElements())
}

// MergeXML appends the children of the root element of the document read
// from r.
func (m *Merger) MergeXML(r io.Reader) error {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return err
	}
	root := doc.Root()
	if root == nil {
		return ErrNoRoot
	}
	for _, child := range root.ChildElements() {
		m.root.AddChild(child.Copy())
	}
	return nil
}

// MergeXMLFile merges the document in the named file.
func (m *Merger) MergeXMLFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := m.MergeXML(f); err != nil {
		return fmt.Errorf("failed to merge %s: %w", path, err)
	}
	return nil
}

// MergeJar merges every entry of the given zip archive whose name ends with
// ConfigSuffix, in archive order. It returns the number of entries merged.
func (m *Merger) MergeJar(r io.ReaderAt, size int64) (int, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ConfigSuffix) {
			continue
		}
		if err := m.mergeZipEntry(f); err != nil {
			return count, fmt.Errorf("failed to merge %s: %w", f.Name, err)
		}
		count++
	}
	return count, nil
}

func (m *Merger) mergeZipEntry(f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return m.MergeXML(rc)
}

// MergeJarFile merges the config entries of the named archive.
func (m *Merger) MergeJarFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	n, err := m.MergeJar(f, info.Size())
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// WriteTo writes the merged config, metadata included.
func (m *Merger) WriteTo(w io.Writer) (int64, error) {
	doc := newDocument()
	doc.SetRoot(m.root.Copy())
	return doc.WriteTo(w)
}

// WriteDeviceConfigTo writes the merged config with every change reduced to
// its attributes. Metadata is only needed at build time, so it is left out.
func (m *Merger) WriteDeviceConfigTo(w io.Writer) (int64, error) {
	doc := newDocument()
	root := doc.CreateElement("config")
	for _, change := range m.root.ChildElements() {
		el := root.CreateElement("compat-change")
		for _, a := range change.Attr {
			el.CreateAttr(a.FullKey(), a.Value)
		}
	}
	return doc.WriteTo(w)
}

func newDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", xmlHeader)
	return doc
}
