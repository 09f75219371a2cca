package changeid

import (
	"io"
	"sort"
	"strconv"

	"github.com/beevik/etree"
)

const (
	xmlHeader = `version="1.0" encoding="UTF-8" standalone="no"`

	elemConfig       = "config"
	elemCompatChange = "compat-change"
	elemMetaData     = "meta-data"

	attrDescription          = "description"
	attrDisabled             = "disabled"
	attrEnableAfterTargetSdk = "enableAfterTargetSdk"
	attrEnableSinceTargetSdk = "enableSinceTargetSdk"
	attrID                   = "id"
	attrLoggingOnly          = "loggingOnly"
	attrName                 = "name"
	attrOverridable          = "overridable"
	attrDefinedIn            = "definedIn"
	attrSourcePosition       = "sourcePosition"
)

type attr struct {
	key, value string
}

// attributes returns the compat-change attributes for c, sorted by name.
func attributes(c Change) []attr {
	attrs := []attr{
		{attrID, strconv.FormatInt(c.ID, 10)},
		{attrName, c.Name},
	}
	switch c.State {
	case StateDisabled:
		attrs = append(attrs, attr{attrDisabled, "true"})
	case StateLoggingOnly:
		attrs = append(attrs, attr{attrLoggingOnly, "true"})
	case StateEnabledAfter:
		attrs = append(attrs, attr{attrEnableAfterTargetSdk, strconv.Itoa(c.TargetSdk)})
	case StateEnabledSince:
		attrs = append(attrs, attr{attrEnableSinceTargetSdk, strconv.Itoa(c.TargetSdk)})
	}
	if c.Overridable {
		attrs = append(attrs, attr{attrOverridable, "true"})
	}
	if c.Description != nil {
		attrs = append(attrs, attr{attrDescription, *c.Description})
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].key < attrs[j].key
	})
	return attrs
}

// BuildDocument returns the compat config document for the given changes, in
// the given order.
func BuildDocument(changes []Change) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", xmlHeader)
	root := doc.CreateElement(elemConfig)
	for _, c := range changes {
		el := root.CreateElement(elemCompatChange)
		for _, a := range attributes(c) {
			el.CreateAttr(a.key, a.value)
		}
		if c.SourcePosition != "" {
			md := el.CreateElement(elemMetaData)
			md.CreateAttr(attrDefinedIn, c.DefinedIn())
			md.CreateAttr(attrSourcePosition, c.SourcePosition)
		}
	}
	return doc
}

// WriteXML writes the compat config document for the given changes to w.
func WriteXML(w io.Writer, changes []Change) error {
	_, err := BuildDocument(changes).WriteTo(w)
	return err
}
