package metadata

import (
	"testing"

	"dka-report/internal/chaos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dkaNS   = "http://www.danskkulturarv.dk/DKA2.xsd"
	crowdNS = "http://www.danskkulturarv.dk/DKA-Crowd.xsd"

	primaryGUID = "5906a41b-feae-48db-bfb7-714b3e105396"
	crowdGUID   = "a37167e0-e13b-4d29-8a41-b0ffbaa1fe5f"
)

const dkaDoc = `<DKA xmlns="http://www.danskkulturarv.dk/DKA2.xsd">
  <Title>Sportsnyt</Title>
  <ExternalIdentifier>asset-17</ExternalIdentifier>
  <FirstPublishedDate>21-03-2015T00:00:00</FirstPublishedDate>
  <Metafield><Key>Duration</Key><Value>125000ms</Value></Metafield>
  <Metafield><Key>ProductionId</Key><Value>P-1</Value></Metafield>
  <Metafield><Key>ProductionId</Key><Value>P-2</Value></Metafield>
</DKA>`

func object(metas ...chaos.Metadata) chaos.Object {
	return chaos.Object{GUID: "obj", Metadatas: metas}
}

func meta(schema, doc string) chaos.Metadata {
	return chaos.Metadata{SchemaGUID: schema, MetadataXML: chaos.MetadataXML{Text: doc}}
}

func TestExtract_NamedAccessors(t *testing.T) {
	rec, err := Extract(object(meta(primaryGUID, dkaDoc)), primaryGUID, dkaNS)
	require.NoError(t, err)
	require.NotNil(t, rec)

	title, ok := rec.Title()
	assert.True(t, ok)
	assert.Equal(t, "Sportsnyt", title)

	id, _ := rec.ExternalIdentifier()
	assert.Equal(t, "asset-17", id)

	first, _ := rec.FirstPublishedDate()
	assert.Equal(t, "21-03-2015T00:00:00", first)

	_, ok = rec.Slug()
	assert.False(t, ok)
}

func TestField_FirstMatchWins(t *testing.T) {
	rec, err := Parse(dkaDoc, dkaNS)
	require.NoError(t, err)

	assert.Equal(t, "P-1", rec.Field("ProductionId"))
	assert.Equal(t, "125000ms", rec.Field("Duration"))
	assert.Equal(t, "", rec.Field("Broadcaster"))
}

func TestExtract_NoMatchingSchema(t *testing.T) {
	rec, err := Extract(object(meta(crowdGUID, `<Crowd/>`)), primaryGUID, dkaNS)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestExtract_FirstMatchingPayloadWins(t *testing.T) {
	second := `<DKA xmlns="http://www.danskkulturarv.dk/DKA2.xsd"><Title>Second</Title></DKA>`
	rec, err := Extract(object(meta(crowdGUID, `<x/>`), meta(primaryGUID, dkaDoc), meta(primaryGUID, second)), primaryGUID, dkaNS)
	require.NoError(t, err)

	title, _ := rec.Title()
	assert.Equal(t, "Sportsnyt", title)
}

func TestExtract_Malformed(t *testing.T) {
	_, err := Extract(object(meta(primaryGUID, `<DKA><Title>`)), primaryGUID, dkaNS)
	require.ErrorIs(t, err, ErrMalformedMetadata)
}

func TestText_RespectsNamespace(t *testing.T) {
	doc := `<DKACrowd xmlns="http://www.danskkulturarv.dk/DKA-Crowd.xsd"><Slug>sportsnyt-1982</Slug></DKACrowd>`

	rec, err := Parse(doc, crowdNS)
	require.NoError(t, err)
	slug, ok := rec.Slug()
	assert.True(t, ok)
	assert.Equal(t, "sportsnyt-1982", slug)

	other, err := Parse(doc, dkaNS)
	require.NoError(t, err)
	_, ok = other.Slug()
	assert.False(t, ok)

	anyNS, err := Parse(doc, "")
	require.NoError(t, err)
	_, ok = anyNS.Slug()
	assert.True(t, ok)
}
