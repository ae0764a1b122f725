package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/jobboard-harvester/internal/listing"
)

func TestCSVWriterHeaderAndRows(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.WriteRow(ctx, listing.Record{
		Title:      "Backend, Go",
		Link:       "https://board.test/1",
		CVCount:    listing.Int(12),
		Location:   "Madrid",
		Experience: listing.Int(4),
		SalaryMin:  listing.Int(30000),
		SalaryMax:  listing.Int(40000),
		Description: `Dice "hola"
y adiós`,
	}))
	require.NoError(t, w.WriteRow(ctx, listing.Unavailable("https://board.test/2")))
	require.Equal(t, 2, w.Rows())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, listing.Columns, rows[0])
	require.Equal(t, []string{
		"Backend, Go", "https://board.test/1", "12", "Madrid", "", "", "4", "", "30000", "40000", "Dice \"hola\"\ny adiós",
	}, rows[1])
	require.Equal(t, listing.UnavailableTitle, rows[2][0])
	require.Equal(t, "", rows[2][2])
}

func TestCSVWriterRejectsAfterClose(t *testing.T) {
	t.Parallel()

	w, err := NewCSVWriter(&bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Error(t, w.WriteRow(context.Background(), listing.Unavailable("x")))
}

func TestCreateCSVTruncates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ofertas.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,data\n1,2\n3,4\n"), 0o600))

	w, err := CreateCSV(path)
	require.NoError(t, err)
	require.Equal(t, path, w.Path())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strings.Join(listing.Columns, ",")+"\n", string(data))
}

func TestCreateCSVMissingDir(t *testing.T) {
	t.Parallel()

	_, err := CreateCSV(filepath.Join(t.TempDir(), "nope", "out.csv"))
	require.Error(t, err)
}
