// Package extract maps a parsed listing page to a listing.Record. Each rule
// tolerates missing markup; only a missing title is reported as an error.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/jobboard-harvester/internal/listing"
)

// ErrNoTitle is returned when a listing page has no usable heading.
var ErrNoTitle = errors.New("listing has no title heading")

// Selectors locates each field on a listing page.
type Selectors struct {
	Title         string
	CVContainer   string
	CVCaption     string
	DetailSection string
	DetailItem    string
	DetailValue   string
	Description   string
}

// DefaultSelectors matches the Tecnoempleo listing layout.
func DefaultSelectors() Selectors {
	return Selectors{
		Title:         "h1",
		CVContainer:   "div.d-flex.py-2",
		CVCaption:     "p.m-0",
		DetailSection: "#wrapper > section:nth-of-type(2) > div:nth-of-type(1) > div > div:nth-of-type(2)",
		DetailItem:    "li.list-item.clearfix.border-bottom.py-2",
		DetailValue:   "span.float-end",
		Description:   `[itemprop="description"] p`,
	}
}

// Detail holds the raw values of the specific-info block.
type Detail struct {
	Location         string
	Responsibilities string
	Schedule         string
	Experience       string
	ContractType     string
	Salary           string
}

var detailLabels = []struct {
	label string
	field func(*Detail) *string
}{
	{"Ubicación", func(d *Detail) *string { return &d.Location }},
	{"Funciones", func(d *Detail) *string { return &d.Responsibilities }},
	{"Jornada", func(d *Detail) *string { return &d.Schedule }},
	{"Experiencia", func(d *Detail) *string { return &d.Experience }},
	{"Tipo contrato", func(d *Detail) *string { return &d.ContractType }},
	{"Salario", func(d *Detail) *string { return &d.Salary }},
}

// Extractor applies Selectors to listing documents. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	sel Selectors
}

// New returns an Extractor using sel.
func New(sel Selectors) *Extractor {
	return &Extractor{sel: sel}
}

// ExtractHTML parses body and extracts the record for link.
func (e *Extractor) ExtractHTML(body []byte, link string) (listing.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return listing.Record{}, fmt.Errorf("parse listing html: %w", err)
	}
	return e.Extract(doc, link)
}

// Extract builds a record from doc. Fields whose markup is missing stay empty.
func (e *Extractor) Extract(doc *goquery.Document, link string) (listing.Record, error) {
	title, ok := e.Title(doc)
	if !ok {
		return listing.Record{}, ErrNoTitle
	}
	detail := e.Detail(doc)

	rec := listing.Record{
		Title:            title,
		Link:             link,
		Location:         detail.Location,
		Responsibilities: detail.Responsibilities,
		Schedule:         detail.Schedule,
		ContractType:     detail.ContractType,
		Description:      e.Description(doc),
	}
	if n, ok := firstInt(CVCount(e.Captions(doc))); ok {
		rec.CVCount = listing.Int(n)
	}
	if years, ok := ConvertExperience(detail.Experience); ok {
		rec.Experience = listing.Int(years)
	}
	if lo, hi, ok := ParseSalary(detail.Salary); ok {
		rec.SalaryMin = listing.Int(lo)
		rec.SalaryMax = listing.Int(hi)
	}
	return rec, nil
}

// Title returns the trimmed text of the first heading.
func (e *Extractor) Title(doc *goquery.Document) (string, bool) {
	heading := doc.Find(e.sel.Title).First()
	if heading.Length() == 0 {
		return "", false
	}
	title := strings.TrimSpace(heading.Text())
	return title, title != ""
}

// Captions returns the caption text of every CV container, in document order.
func (e *Extractor) Captions(doc *goquery.Document) []string {
	var captions []string
	doc.Find(e.sel.CVContainer).Each(func(_ int, s *goquery.Selection) {
		caption := s.Find(e.sel.CVCaption).First()
		if caption.Length() > 0 {
			captions = append(captions, caption.Text())
		}
	})
	return captions
}

// Detail reads the specific-info block. A missing block yields a zero Detail.
func (e *Extractor) Detail(doc *goquery.Document) Detail {
	var d Detail
	section := doc.Find(e.sel.DetailSection).First()
	if section.Length() == 0 {
		return d
	}
	section.Find(e.sel.DetailItem).Each(func(_ int, item *goquery.Selection) {
		// Labels are matched without the value so a value that mentions another
		// label cannot claim the item.
		labelPart := item.Clone()
		labelPart.Find(e.sel.DetailValue).Remove()
		text := labelPart.Text()
		for _, l := range detailLabels {
			if !strings.Contains(text, l.label) {
				continue
			}
			value := item.Find(e.sel.DetailValue).First()
			if dst := l.field(&d); *dst == "" && value.Length() > 0 {
				*dst = strings.TrimSpace(value.Text())
			}
			return
		}
	})
	return d
}

// Description joins the trimmed text of every description paragraph.
func (e *Extractor) Description(doc *goquery.Document) string {
	var parts []string
	doc.Find(e.sel.Description).Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}
