// Package metadata reads the metadata documents embedded in CHAOS objects.
//
// A Record hides the XML tree behind named accessors. Top level elements such
// as Title are read with Text, while the generic Metafield key/value list is
// searched with Field.
package metadata

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"dka-report/internal/chaos"
)

// ErrMalformedMetadata marks an embedded document that is not well-formed XML.
var ErrMalformedMetadata = errors.New("malformed metadata document")

type node struct {
	XMLName xml.Name
	Content string `xml:",chardata"`
	Nodes   []node `xml:",any"`
}

// Record is one parsed metadata document.
type Record struct {
	namespace string
	root      node
}

// Extract parses the first metadata payload of obj tagged with schemaGUID.
// It returns nil and no error when the object carries no such payload.
// Elements are matched inside namespace; an empty namespace matches any.
func Extract(obj chaos.Object, schemaGUID, namespace string) (*Record, error) {
	for _, m := range obj.Metadatas {
		if m.SchemaGUID != schemaGUID {
			continue
		}
		return Parse(m.MetadataXML.Document(), namespace)
	}
	return nil, nil
}

// Parse reads a serialized metadata document.
func Parse(doc, namespace string) (*Record, error) {
	var root node
	if err := xml.NewDecoder(bytes.NewReader([]byte(doc))).Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}
	return &Record{namespace: namespace, root: root}, nil
}

// Text returns the text of the first top level element called name.
func (r *Record) Text(name string) (string, bool) {
	n, ok := r.root.child(r.namespace, name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(n.Content), true
}

// Field returns the value of the first Metafield whose Key equals key,
// or "" when there is none.
func (r *Record) Field(key string) string {
	for _, f := range r.root.Nodes {
		if !r.matches(f.XMLName, "Metafield") {
			continue
		}
		k, ok := f.child(r.namespace, "Key")
		if !ok || strings.TrimSpace(k.Content) != key {
			continue
		}
		if v, ok := f.child(r.namespace, "Value"); ok {
			return strings.TrimSpace(v.Content)
		}
		return ""
	}
	return ""
}

func (r *Record) Title() (string, bool)              { return r.Text("Title") }
func (r *Record) ExternalIdentifier() (string, bool) { return r.Text("ExternalIdentifier") }
func (r *Record) FirstPublishedDate() (string, bool) { return r.Text("FirstPublishedDate") }
func (r *Record) Slug() (string, bool)               { return r.Text("Slug") }

func (r *Record) matches(name xml.Name, local string) bool {
	return name.Local == local && (r.namespace == "" || name.Space == r.namespace)
}

func (n node) child(namespace, local string) (node, bool) {
	for _, c := range n.Nodes {
		if c.XMLName.Local == local && (namespace == "" || c.XMLName.Space == namespace) {
			return c, true
		}
	}
	return node{}, false
}
