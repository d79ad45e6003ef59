package service

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curriculum-tools/dataeditor/pkg/config"
	"github.com/curriculum-tools/dataeditor/pkg/export"
)

type stubPDFRenderer struct {
	title  string
	tables []export.Table
}

func (r *stubPDFRenderer) Render(title string, tables []export.Table) ([]byte, error) {
	r.title = title
	r.tables = tables
	return []byte("%PDF-stub"), nil
}

func newExportFixture(t *testing.T) (*ExportService, *DataService, *stubPDFRenderer) {
	t.Helper()
	m := newMockRepos()
	seedDataset(m)
	dataService, dbService, handle := newDataServiceMock(t, m)
	dbService.DataSource().Set(handle)

	pdf := &stubPDFRenderer{}
	svc, err := NewExportService(dataService, config.ExportConfig{OutputDir: t.TempDir()}, nil, nil, pdf)
	require.NoError(t, err)
	return svc, dataService, pdf
}

func TestExportServiceCourseTable(t *testing.T) {
	svc, _, _ := newExportFixture(t)

	table := svc.CourseTable()

	require.Len(t, table.Rows, 2)
	// Majors come first.
	assert.Equal(t, "BK-INF-H-2016", table.Rows[0][0])
	assert.Equal(t, "BK-PHY-N-2016", table.Rows[1][0])
	assert.Equal(t, "Informatik", table.Rows[0][1])
	assert.Equal(t, "BK", table.Rows[0][2])
	assert.Equal(t, "1", table.Rows[0][6], "the major links one minor")
}

func TestExportServiceTimetableTable(t *testing.T) {
	svc, _, _ := newExportFixture(t)

	table := svc.TimetableTable()

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Algorithmen Vorlesung", "60", "mon", "8", "2", "0", ""}, table.Rows[0])
}

func TestExportServiceGenerateCatalogue(t *testing.T) {
	svc, _, pdf := newExportFixture(t)

	result, err := svc.GenerateCatalogue()

	require.NoError(t, err)
	assert.Equal(t, "Curriculum catalogue", pdf.title)
	require.Len(t, pdf.tables, 3)
	assert.Equal(t, "Courses", pdf.tables[0].Title)

	payload, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-stub"), payload)
	assert.Equal(t, len(payload), result.Size)
}

func TestExportServiceGenerateCourseList(t *testing.T) {
	svc, _, _ := newExportFixture(t)

	result, err := svc.GenerateCourseList()

	require.NoError(t, err)
	payload, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "BK-INF-H-2016,Informatik,BK,2016,180,H,1")
}