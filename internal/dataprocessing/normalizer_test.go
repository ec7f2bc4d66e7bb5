package dataprocessing

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "wellwq/internal/errors"
)

const sampleCSV = `OBJECTID_12,Basin,Date,Season,Latitude,Longitude,EC,TDS,Na
1,Vaigai,2015-03-10,Pre-Monsoon,9.92,78.11,400,800,50
2,Vaigai,2015-11-02,Post-Monsoon,9.93,78.12,420,840,55
3,Vaigai,2016-03-15,Pre-Monsoon,9.94,78.13,410,820,
4,Vaigai,not-a-date,Post-Monsoon,9.95,78.14,430,860,60
5,Cauvery,2016-05-20,Pre-Monsoon,10.99,78.70,500,1000,70
`

func newTestNormalizer() *Normalizer {
	return NewNormalizer(slog.Default(), DefaultNormalizerConfig())
}

func TestNormalizer_LoadCSV(t *testing.T) {
	ctx := context.Background()
	n := newTestNormalizer()

	ds, err := n.LoadCSV(ctx, strings.NewReader(sampleCSV))
	require.NoError(t, err)

	t.Run("parameter detection excludes identifier columns", func(t *testing.T) {
		assert.Equal(t, []string{"EC", "TDS", "Na"}, ds.Parameters)
		assert.False(t, ds.HasParameter("Latitude"))
		assert.False(t, ds.HasParameter("OBJECTID_12"))
		assert.False(t, ds.HasParameter("Basin"))
	})

	t.Run("all rows with a basin are kept", func(t *testing.T) {
		assert.Len(t, ds.Records, 5)
	})

	t.Run("year is derived from date", func(t *testing.T) {
		r := ds.Records[0]
		assert.True(t, r.HasDate)
		assert.Equal(t, 2015, r.Year)
		assert.Equal(t, "Pre-Monsoon", r.Season)
		assert.Equal(t, "Vaigai", r.Basin)
	})

	t.Run("unparseable date becomes null, not an error", func(t *testing.T) {
		r := ds.Records[3]
		assert.False(t, r.HasDate)
		assert.Equal(t, 1, ds.NullDates)
	})

	t.Run("empty numeric cell is null", func(t *testing.T) {
		r := ds.Records[2]
		_, ok := r.Value("Na")
		assert.False(t, ok)

		v, ok := r.Value("EC")
		require.True(t, ok)
		assert.Equal(t, 410.0, v)
	})

	t.Run("summary reflects the data", func(t *testing.T) {
		s := ds.Summary()
		assert.Equal(t, []string{"Vaigai", "Cauvery"}, s.Basins)
		assert.Equal(t, 2015, s.FromYear)
		assert.Equal(t, 2016, s.ToYear)
		assert.Equal(t, 5, s.RecordCount)
		assert.Equal(t, 1, s.NullDates)
	})
}

func TestNormalizer_LoadCSV_MissingBasin(t *testing.T) {
	n := newTestNormalizer()

	csv := "Date,Season,EC\n2015-03-10,Pre-Monsoon,400\n"
	_, err := n.LoadCSV(context.Background(), strings.NewReader(csv))

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}

func TestNormalizer_LoadCSV_RowsWithoutBasinAreDropped(t *testing.T) {
	n := newTestNormalizer()

	csv := "Basin,Date,Season,EC\nVaigai,2015-03-10,Pre-Monsoon,400\n,2015-03-11,Pre-Monsoon,410\n"
	ds, err := n.LoadCSV(context.Background(), strings.NewReader(csv))

	require.NoError(t, err)
	assert.Len(t, ds.Records, 1)
}

func TestNormalizer_LoadCSV_MixedColumnIsNotNumeric(t *testing.T) {
	n := newTestNormalizer()

	csv := "Basin,Date,Season,EC,Remark\nVaigai,2015-03-10,Pre-Monsoon,400,good\nVaigai,2015-03-11,Pre-Monsoon,410,12\n"
	ds, err := n.LoadCSV(context.Background(), strings.NewReader(csv))

	require.NoError(t, err)
	assert.Equal(t, []string{"EC"}, ds.Parameters)
}

func TestNormalizer_Load_UnsupportedExtension(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.Load(context.Background(), "data.txt", strings.NewReader("Basin\nVaigai\n"))

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestNormalizer_LoadExcel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wq.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Basin", "Date", "Season", "Latitude", "Longitude", "EC", "TDS"},
		{"Vaigai", "2015-03-10", "Pre-Monsoon", 9.92, 78.11, 400, 800},
		{"Vaigai", "2016-11-02", "Post-Monsoon", 9.93, 78.12, 420, 840},
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	n := newTestNormalizer()
	ds, err := n.LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Len(t, ds.Records, 2)
	assert.Equal(t, []string{"EC", "TDS"}, ds.Parameters)
	assert.Equal(t, 2015, ds.Records[0].Year)
	assert.Equal(t, 2016, ds.Records[1].Year)

	v, ok := ds.Records[1].Value("TDS")
	require.True(t, ok)
	assert.Equal(t, 840.0, v)
}

func TestNormalizer_LoadCSV_EmptyInput(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.LoadCSV(context.Background(), strings.NewReader(""))

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}
