package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/curriculum-tools/dataeditor/pkg/config"
	"github.com/curriculum-tools/dataeditor/pkg/export"
	"github.com/curriculum-tools/dataeditor/pkg/storage"
)

type csvRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(title string, tables []export.Table) ([]byte, error)
}

type fileStore interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
}

// ExportResult captures where a rendered catalogue landed.
type ExportResult struct {
	Path     string
	Filename string
	Size     int
}

// ExportService renders the loaded dataset into catalogue documents. It only
// reads the wrapper graph through the data service's snapshot accessors, so
// it never blocks editing.
type ExportService struct {
	data   *DataService
	csv    csvRenderer
	pdf    pdfRenderer
	store  fileStore
	logger *zap.Logger
}

// NewExportService constructs an ExportService writing into the configured
// output directory. Nil renderers fall back to the defaults.
func NewExportService(data *DataService, cfg config.ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) (*ExportService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	store, err := storage.NewLocalStorage(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	return &ExportService{data: data, csv: csv, pdf: pdf, store: store, logger: logger}, nil
}

// CourseTable lists every course with its relation counts, majors first.
func (s *ExportService) CourseTable() export.Table {
	table := export.Table{
		Title:   "Courses",
		Columns: []string{"Key", "Long name", "Degree", "PO", "Credit points", "Kzfa", "Linked courses"},
	}
	wrappers := append(s.data.MajorCourseWrappers(), s.data.MinorCourseWrappers()...)
	for _, course := range wrappers {
		linked := course.MinorCourses.Len()
		if course.Course().IsMinor() {
			linked = course.MajorCourses.Len()
		}
		table.Rows = append(table.Rows, []string{
			course.Key.Get(),
			course.LongName.Get(),
			strings.ToUpper(string(course.Degree.Get())),
			strconv.Itoa(course.PO.Get()),
			strconv.Itoa(course.CreditPoints.Get()),
			string(course.Kzfa.Get()),
			strconv.Itoa(linked),
		})
	}
	return table
}

// ModuleTable lists every module with its level and abstract units.
func (s *ExportService) ModuleTable() export.Table {
	table := export.Table{
		Title:   "Modules",
		Columns: []string{"Key", "Title", "Pordnr", "Elective units", "Level", "Abstract units"},
	}
	modules := s.data.ModuleWrappers()
	keys := make([]string, 0, len(modules))
	for key := range modules {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		module := modules[key]
		levelName := ""
		if level := module.Level.Get(); level != nil {
			levelName = level.Name.Get()
		}
		units := make([]string, 0, module.AbstractUnits.Len())
		for _, abstractUnit := range module.AbstractUnits.Values() {
			units = append(units, abstractUnit.Key.Get())
		}
		sort.Strings(units)
		table.Rows = append(table.Rows, []string{
			module.Key.Get(),
			module.Title.Get(),
			strconv.Itoa(module.Pordnr.Get()),
			strconv.Itoa(module.ElectiveUnits.Get()),
			levelName,
			strings.Join(units, " "),
		})
	}
	return table
}

// TimetableTable lists every session with its unit and group context.
func (s *ExportService) TimetableTable() export.Table {
	table := export.Table{
		Title:   "Timetable",
		Columns: []string{"Unit", "Group", "Day", "Time", "Duration", "Rhythm", "Tentative"},
	}
	sessions := s.data.SessionWrappers()
	ids := make([]int, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		session := sessions[id]
		unitTitle, groupLabel := "", ""
		if group := session.Group.Get(); group != nil {
			groupLabel = strconv.Itoa(group.ID())
			if unit := group.Unit.Get(); unit != nil {
				unitTitle = unit.Title.Get()
			}
		}
		tentative := ""
		if session.Tentative.Get() {
			tentative = "x"
		}
		table.Rows = append(table.Rows, []string{
			unitTitle,
			groupLabel,
			session.Day.Get(),
			strconv.Itoa(session.Time.Get()),
			strconv.Itoa(session.Duration.Get()),
			strconv.Itoa(session.Rhythm.Get()),
			tentative,
		})
	}
	return table
}

// GenerateCatalogue renders the whole dataset into one PDF file in the
// configured output directory.
func (s *ExportService) GenerateCatalogue() (*ExportResult, error) {
	tables := []export.Table{s.CourseTable(), s.ModuleTable(), s.TimetableTable()}
	payload, err := s.pdf.Render("Curriculum catalogue", tables)
	if err != nil {
		return nil, fmt.Errorf("render catalogue: %w", err)
	}
	return s.write("catalogue", "pdf", payload)
}

// GenerateCourseList renders the course table as CSV.
func (s *ExportService) GenerateCourseList() (*ExportResult, error) {
	payload, err := s.csv.Render(s.CourseTable())
	if err != nil {
		return nil, fmt.Errorf("render course list: %w", err)
	}
	return s.write("courses", "csv", payload)
}

func (s *ExportService) write(stem, ext string, payload []byte) (*ExportResult, error) {
	filename := fmt.Sprintf("%s-%s.%s", stem, time.Now().Format("20060102-150405"), ext)
	if _, err := s.store.Save(filename, payload); err != nil {
		return nil, fmt.Errorf("write export: %w", err)
	}
	path := s.store.Path(filename)
	s.logger.Sugar().Infow("export written", "path", path, "bytes", len(payload))
	return &ExportResult{Path: path, Filename: filename, Size: len(payload)}, nil
}
