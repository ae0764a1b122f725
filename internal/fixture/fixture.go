// Package fixture renders board-shaped HTML pages for tests.
package fixture

import (
	"fmt"
	"html"
	"strings"
)

// Listing describes the content of a fixture listing page. Empty fields are
// omitted from the markup entirely.
type Listing struct {
	Title        string
	CVCaption    string
	Location     string
	Functions    string
	Schedule     string
	Experience   string
	ContractType string
	Salary       string
	Paragraphs   []string
	// NoDetail drops the whole specific-info section.
	NoDetail bool
}

// ListingHTML renders l using the board's listing layout.
func ListingHTML(l Listing) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><title>oferta</title></head><body><div id="wrapper">`)
	b.WriteString(`<section class="hero">`)
	if l.Title != "" {
		fmt.Fprintf(&b, `<h1 class="h3">  %s  </h1>`, html.EscapeString(l.Title))
	}
	b.WriteString(`<div class="d-flex py-2"><p class="m-0">Otros datos</p></div>`)
	if l.CVCaption != "" {
		fmt.Fprintf(&b, `<div class="d-flex py-2"><p class="m-0">%s</p></div>`, html.EscapeString(l.CVCaption))
	}
	b.WriteString(`<div class="d-flex py-2"><p class="m-0">Fecha</p></div>`)
	b.WriteString(`</section>`)

	b.WriteString(`<section class="content"><div class="container"><div class="row">`)
	b.WriteString(`<div class="col-main">`)
	if len(l.Paragraphs) > 0 {
		b.WriteString(`<div itemprop="description">`)
		for _, p := range l.Paragraphs {
			fmt.Fprintf(&b, `<p> %s </p>`, html.EscapeString(p))
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
	if !l.NoDetail {
		b.WriteString(`<div class="col-side"><ul>`)
		item := func(label, value string) {
			if value == "" {
				return
			}
			fmt.Fprintf(&b,
				`<li class="list-item clearfix border-bottom py-2"><span class="d-inline-block">%s</span><span class="float-end"> %s </span></li>`,
				html.EscapeString(label), html.EscapeString(value))
		}
		item("Ubicación", l.Location)
		item("Funciones", l.Functions)
		item("Jornada", l.Schedule)
		item("Experiencia", l.Experience)
		item("Tipo contrato", l.ContractType)
		item("Salario", l.Salary)
		b.WriteString(`</ul></div>`)
	}
	b.WriteString(`</div></div></section></div></body></html>`)
	return b.String()
}

// IndexHTML renders an index page advertising hrefs as listing links, mixed
// with unrelated anchors that must not be picked up.
func IndexHTML(hrefs ...string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><nav><a href="/login" class="font-weight-bold">Acceso</a></nav><div class="results">`)
	for _, href := range hrefs {
		fmt.Fprintf(&b,
			`<div class="p-3"><h3><a href="%s" class="font-weight-bold text-cyan-700" title="oferta">Oferta</a></h3><a href="/empresa" class="text-gray-700">Empresa</a></div>`,
			html.EscapeString(href))
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}
