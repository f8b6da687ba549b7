package chaos

import "strings"

// envelope is the PortalResult document every CHAOS endpoint answers with.
type envelope[T any] struct {
	ModuleResults []moduleResult[T] `xml:"ModuleResults>ModuleResult"`
}

type moduleResult[T any] struct {
	Error   *errorNode `xml:"Results>Error"`
	Results []T        `xml:"Results>Result"`
}

type errorNode struct {
	Fullname string `xml:"Fullname"`
	Message  string `xml:"Message"`
	Inner    string `xml:",innerxml"`
}

// reported returns the service message when the node carries any content.
func (e *errorNode) reported() (string, bool) {
	if e == nil || strings.TrimSpace(e.Inner) == "" {
		return "", false
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg, true
	}
	if name := strings.TrimSpace(e.Fullname); name != "" {
		return name, true
	}
	return strings.TrimSpace(e.Inner), true
}

type sessionResult struct {
	SessionGUID string `xml:"SessionGUID"`
}

// Object is one search result of /Object/Get.
type Object struct {
	GUID         string        `xml:"GUID"`
	DateCreated  string        `xml:"DateCreated"`
	Metadatas    []Metadata    `xml:"Metadatas>Result"`
	AccessPoints []AccessPoint `xml:"AccessPoints>AccessPoint_Object_Join"`
}

// Metadata is one embedded metadata payload, tagged with its schema.
type Metadata struct {
	GUID         string      `xml:"GUID"`
	SchemaGUID   string      `xml:"MetadataSchemaGUID"`
	LanguageCode string      `xml:"LanguageCode"`
	MetadataXML  MetadataXML `xml:"MetadataXML"`
}

// MetadataXML holds the inline document. CHAOS usually ships it escaped,
// but raw child elements are accepted too.
type MetadataXML struct {
	Text  string `xml:",chardata"`
	Inner string `xml:",innerxml"`
}

// Document returns the serialized metadata document.
func (m MetadataXML) Document() string {
	if text := strings.TrimSpace(m.Text); strings.HasPrefix(text, "<") {
		return text
	}
	return strings.TrimSpace(m.Inner)
}

type AccessPoint struct {
	AccessPointGUID string `xml:"AccessPointGUID"`
	StartDate       string `xml:"StartDate"`
	EndDate         string `xml:"EndDate"`
}

// PublishStartDate returns the start date of the first access point.
func (o Object) PublishStartDate() (string, bool) {
	if len(o.AccessPoints) == 0 || o.AccessPoints[0].StartDate == "" {
		return "", false
	}
	return o.AccessPoints[0].StartDate, true
}
