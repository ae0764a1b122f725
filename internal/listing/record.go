// Package listing defines the job-listing record emitted by a harvest run.
package listing

import "strconv"

// UnavailableTitle marks a record whose listing could not be fetched or parsed.
const UnavailableTitle = "listing unavailable"

// Columns is the fixed header row of the tabular output, in Row order.
var Columns = []string{
	"Title",
	"Link",
	"CVs-inscritos",
	"Ubicación",
	"Funciones",
	"Jornada",
	"Experiencia",
	"Tipo-contrato",
	"Salario-Mínimo",
	"Salario-Máximo",
	"Descripción",
}

// Record is one harvested listing. Every field is always present; optional
// integers are nil when unknown.
type Record struct {
	Title            string `json:"title"`
	Link             string `json:"link"`
	CVCount          *int   `json:"cv_count"`
	Location         string `json:"location"`
	Responsibilities string `json:"responsibilities"`
	Schedule         string `json:"schedule"`
	Experience       *int   `json:"experience_years"`
	ContractType     string `json:"contract_type"`
	SalaryMin        *int   `json:"salary_min"`
	SalaryMax        *int   `json:"salary_max"`
	Description      string `json:"description"`
}

// Unavailable builds the fallback record for a listing that failed to load.
func Unavailable(link string) Record {
	return Record{Title: UnavailableTitle, Link: link}
}

// IsUnavailable reports whether r is a fallback record.
func (r Record) IsUnavailable() bool {
	return r.Title == UnavailableTitle
}

// Row renders the record as CSV cells aligned with Columns. Absent numbers
// render as empty cells.
func (r Record) Row() []string {
	return []string{
		r.Title,
		r.Link,
		formatInt(r.CVCount),
		r.Location,
		r.Responsibilities,
		r.Schedule,
		formatInt(r.Experience),
		r.ContractType,
		formatInt(r.SalaryMin),
		formatInt(r.SalaryMax),
		r.Description,
	}
}

// Int returns a pointer to v, for populating optional fields.
func Int(v int) *int {
	return &v
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
