package listing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRowAlignsWithColumns(t *testing.T) {
	t.Parallel()

	rec := Record{
		Title:            "Backend Go",
		Link:             "https://example.com/oferta/1",
		CVCount:          Int(42),
		Location:         "Madrid",
		Responsibilities: "Programador",
		Schedule:         "Completa",
		Experience:       Int(4),
		ContractType:     "Indefinido",
		SalaryMin:        Int(30000),
		SalaryMax:        Int(45000),
		Description:      "Buscamos perfil Go.",
	}

	row := rec.Row()
	require.Len(t, row, len(Columns))
	require.Equal(t, []string{
		"Backend Go",
		"https://example.com/oferta/1",
		"42",
		"Madrid",
		"Programador",
		"Completa",
		"4",
		"Indefinido",
		"30000",
		"45000",
		"Buscamos perfil Go.",
	}, row)
}

func TestUnavailableRendersEmptyCells(t *testing.T) {
	t.Parallel()

	rec := Unavailable("https://example.com/oferta/404")
	require.True(t, rec.IsUnavailable())

	row := rec.Row()
	require.Equal(t, UnavailableTitle, row[0])
	require.Equal(t, "https://example.com/oferta/404", row[1])
	for i, cell := range row[2:] {
		require.Emptyf(t, cell, "column %s should be empty", Columns[i+2])
	}
}

func TestZeroIsNotAbsent(t *testing.T) {
	t.Parallel()

	rec := Record{Title: "t", Link: "l", Experience: Int(0)}
	require.Equal(t, "0", rec.Row()[6])
	require.Equal(t, "", rec.Row()[2])
	require.False(t, rec.IsUnavailable())
}
