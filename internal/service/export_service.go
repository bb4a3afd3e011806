package service

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/model"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("导出文件生成失败")
	ErrExportFormat       = errors.New("不支持的导出格式")
)

// 导出格式
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// ExportFile 生成的文件
type ExportFile struct {
	Body        *bytes.Buffer
	Filename    string
	ContentType string
}

// ExportService 导出业务接口（只做格式化，数据由调用方按范围查出）
type ExportService interface {
	Attendance(rows []model.AttendanceRow, format string) (*ExportFile, error)
	ClassReport(report *dto.ClassReportResponse) (*ExportFile, error)
	StudentReportPDF(report *dto.StudentReportResponse) (*ExportFile, error)
}

type exportService struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(logger *zap.Logger) ExportService {
	return &exportService{logger: logger, now: time.Now}
}

// ────────────────────── Attendance ──────────────────────

func (s *exportService) Attendance(rows []model.AttendanceRow, format string) (*ExportFile, error) {
	stamp := s.now().Format("20060102_150405")
	switch format {
	case "", FormatCSV:
		buf := new(bytes.Buffer)
		if err := writeAttendanceCSV(buf, rows); err != nil {
			s.logger.Error("写入 CSV 失败", zap.Error(err))
			return nil, ErrExportGenerateFail
		}
		return &ExportFile{Body: buf, Filename: fmt.Sprintf("attendance_%s.csv", stamp), ContentType: contentTypeCSV}, nil
	case FormatXLSX:
		buf, err := s.attendanceXLSX(rows)
		if err != nil {
			s.logger.Error("写入 Excel 失败", zap.Error(err))
			return nil, ErrExportGenerateFail
		}
		return &ExportFile{Body: buf, Filename: fmt.Sprintf("attendance_%s.xlsx", stamp), ContentType: contentTypeXLSX}, nil
	}
	return nil, ErrExportFormat
}

func (s *exportService) attendanceXLSX(rows []model.AttendanceRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Attendance"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	widths := []float64{12, 38, 20, 14, 24, 14, 10, 10}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheet, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	for i, h := range attendanceCSVHeader {
		f.SetCellValue(sheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(attendanceCSVHeader)-1), 1), headerStyle)

	for i := range rows {
		row := i + 2
		for j, v := range attendanceCSVRecord(&rows[i]) {
			f.SetCellValue(sheet, cell(colName(j), row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ────────────────────── ClassReport ──────────────────────

func (s *exportService) ClassReport(report *dto.ClassReportResponse) (*ExportFile, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Report"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 38)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "G", 12)

	title := report.ClassName
	if report.SubjectCode != "" {
		title = fmt.Sprintf("%s / %s", report.ClassName, report.SubjectCode)
	}
	f.SetCellValue(sheet, "A1", title)
	f.MergeCell(sheet, "A1", "G1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 13},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	headers := []string{"Student ID", "Student Name", "Present", "Absent", "Leave", "Total", "Percentage"}
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), 2), h)
	}

	row := 3
	for _, st := range report.Students {
		values := []interface{}{st.StudentID, st.StudentName, st.Present, st.Absent, st.Leave, st.Total, st.Percentage}
		for i, v := range values {
			f.SetCellValue(sheet, cell(colName(i), row), v)
		}
		row++
	}
	o := report.Overall
	for i, v := range []interface{}{"Overall", "", o.Present, o.Absent, o.Leave, o.Total, o.Percentage} {
		f.SetCellValue(sheet, cell(colName(i), row), v)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return &ExportFile{
		Body:        buf,
		Filename:    fmt.Sprintf("class_report_%s.xlsx", s.now().Format("20060102")),
		ContentType: contentTypeXLSX,
	}, nil
}

// ────────────────────── StudentReportPDF ──────────────────────

func (s *exportService) StudentReportPDF(report *dto.StudentReportResponse) (*ExportFile, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Attendance Report", true)
	pdf.AddPage()

	// 核心字体只覆盖 Latin-1
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Attendance Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, tr("Student: "+report.StudentName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Student ID: "+report.StudentID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Generated: "+s.now().Format(model.DateLayout), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{28, 62, 20, 20, 20, 20, 20}
	headers := []string{"Code", "Subject", "Present", "Absent", "Leave", "Total", "%"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	line := func(code, name string, sum dto.AttendanceSummary) {
		cells := []string{
			code, tr(name),
			fmt.Sprint(sum.Present), fmt.Sprint(sum.Absent), fmt.Sprint(sum.Leave), fmt.Sprint(sum.Total),
			fmt.Sprintf("%.2f", sum.Percentage),
		}
		for i, c := range cells {
			align := "C"
			if i == 1 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 7, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	for _, sub := range report.Subjects {
		line(sub.SubjectCode, sub.SubjectName, sub.AttendanceSummary)
	}
	pdf.SetFont("Helvetica", "B", 10)
	line("", "Overall", report.Overall)

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		s.logger.Error("生成 PDF 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return &ExportFile{
		Body:        buf,
		Filename:    fmt.Sprintf("attendance_%s.pdf", report.StudentID),
		ContentType: contentTypePDF,
	}, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
