package report

import (
	"context"
	"fmt"
	"strings"

	"dka-report/internal/chaos"
	"dka-report/internal/metadata"

	"github.com/rs/zerolog"
)

// Settings name the metadata schemas and URLs a report is built from.
type Settings struct {
	PrimarySchemaGUID string
	CrowdSchemaGUID   string
	DKANamespace      string
	CrowdNamespace    string
	SiteBaseURL       string
	SlugPathPrefix    string
}

// Counts are the aggregated analytics maps, keyed by slug path.
type Counts struct {
	Plays     map[string]int
	Completes map[string]int
}

type Stats struct {
	Fetched   int
	Written   int
	Skipped   int
	Joined    int // rows whose slug path appears in the analytics
	Plays     int
	Completes int
}

// RowWriter receives formatted records, header first.
type RowWriter interface {
	Write(record []string) error
}

type Builder struct {
	settings Settings
	variant  Variant
	logger   zerolog.Logger
}

func NewBuilder(settings Settings, variant Variant, logger zerolog.Logger) *Builder {
	return &Builder{
		settings: settings,
		variant:  variant,
		logger:   logger,
	}
}

// Build writes the header and one record per object that carries primary
// metadata, in the order of objects. Objects without it are skipped.
func (b *Builder) Build(ctx context.Context, objects []chaos.Object, counts Counts, w RowWriter) (Stats, error) {
	stats := Stats{Fetched: len(objects)}

	if err := w.Write(b.variant.Header()); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}

	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		row, ok := b.row(obj, counts, &stats)
		if !ok {
			stats.Skipped++
			continue
		}
		if err := w.Write(b.variant.Record(row)); err != nil {
			return stats, fmt.Errorf("write row for %s: %w", obj.GUID, err)
		}
		stats.Written++
	}

	return stats, nil
}

func (b *Builder) row(obj chaos.Object, counts Counts, stats *Stats) (Row, bool) {
	rec, err := metadata.Extract(obj, b.settings.PrimarySchemaGUID, b.settings.DKANamespace)
	if err != nil {
		b.logger.Warn().Str("guid", obj.GUID).Err(err).Msg("skipping object with unreadable metadata")
		return Row{}, false
	}
	if rec == nil {
		b.logger.Info().Str("guid", obj.GUID).Msg("Found an object without metadata attached.")
		return Row{}, false
	}

	hours := metadata.DurationHours(rec.Field("Duration"))
	row := Row{
		Title:        Optional(rec.Title()),
		AssetID:      Optional(rec.ExternalIdentifier()),
		ProductionID: Text(rec.Field("ProductionId")),
		Duration:     Hours(hours),
		CanonicalURL: b.canonicalURL(obj.GUID),
	}

	if start, ok := obj.PublishStartDate(); ok {
		row.PublishedOnDKA = Text(metadata.NormalizeDate(start))
	}
	if first, ok := rec.FirstPublishedDate(); ok {
		row.FirstPublished = Text(metadata.NormalizeDate(first))
	}

	plays, completes := 0, 0
	if path, ok := b.slugPath(obj); ok {
		row.SlugURL = Text(strings.TrimRight(b.settings.SiteBaseURL, "/") + quotePath(path))

		p, playFound := counts.Plays[path]
		c, completeFound := counts.Completes[path]
		plays, completes = p, c
		if playFound || completeFound {
			stats.Joined++
		}
	}
	stats.Plays += plays
	stats.Completes += completes

	row.PlayCount = Int(plays)
	row.PlayedHours = Hours(float64(plays) * hours)
	row.CompletedCount = Int(completes)
	row.CompletedHours = Hours(float64(completes) * hours)

	return row, true
}

// slugPath builds the analytics join key from the crowd metadata slug.
func (b *Builder) slugPath(obj chaos.Object) (string, bool) {
	crowd, err := metadata.Extract(obj, b.settings.CrowdSchemaGUID, b.settings.CrowdNamespace)
	if err != nil {
		b.logger.Warn().Str("guid", obj.GUID).Err(err).Msg("ignoring unreadable crowd metadata")
		return "", false
	}
	if crowd == nil {
		return "", false
	}
	slug, ok := crowd.Slug()
	if !ok || slug == "" {
		return "", false
	}
	return b.settings.SlugPathPrefix + slug + "/", true
}

func (b *Builder) canonicalURL(guid string) Value {
	if guid == "" {
		return Absent()
	}
	return Text(fmt.Sprintf("%s/chaos_post/%s/", strings.TrimRight(b.settings.SiteBaseURL, "/"), guid))
}

// quotePath percent-encodes every byte of p except unreserved characters
// and '/'. Sub-delims such as '+' and '&' are escaped too.
func quotePath(p string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '-', c == '.', c == '_', c == '~', c == '/':
			sb.WriteByte(c)
		default:
			sb.WriteByte('%')
			sb.WriteByte(hex[c>>4])
			sb.WriteByte(hex[c&15])
		}
	}
	return sb.String()
}
