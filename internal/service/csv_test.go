package service

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"

	"campus-attendance/internal/model"
)

func TestWriteAttendanceCSV_Header(t *testing.T) {
	var buf bytes.Buffer
	if err := writeAttendanceCSV(&buf, nil); err != nil {
		t.Fatalf("写入应成功: %v", err)
	}
	want := "Date,Student ID,Student Name,Subject Code,Subject Name,Class,Semester,Status\n"
	if buf.String() != want {
		t.Errorf("表头不符:\n%q", buf.String())
	}
}

func TestWriteAttendanceCSV_QuotesSpecialFields(t *testing.T) {
	rows := []model.AttendanceRow{{
		AttendanceDate: mustDate("2024-03-04"),
		StudentID:      "S1",
		StudentName:    `a,"b"`,
		SubjectCode:    "CS101",
		SubjectName:    "Line1\nLine2",
		ClassName:      "CSE-3A",
		Semester:       3,
		Status:         model.StatusLeave,
	}}

	var buf bytes.Buffer
	if err := writeAttendanceCSV(&buf, rows); err != nil {
		t.Fatalf("写入应成功: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `,"a,""b""",`) {
		t.Errorf("含逗号与引号的字段应加引号并转义，实际:\n%s", out)
	}
	if !strings.Contains(out, "\"Line1\nLine2\"") {
		t.Errorf("含换行的字段应加引号，实际:\n%s", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), ",3,Leave") {
		t.Errorf("行尾应为学期与状态，实际:\n%s", out)
	}
}

func TestExportAttendance_Formats(t *testing.T) {
	svc := NewExportService(zap.NewNop())
	rows := rowsFor(testStudent1, "张三", 2, 1, 0)

	csvFile, err := svc.Attendance(rows, FormatCSV)
	if err != nil {
		t.Fatalf("CSV 导出应成功: %v", err)
	}
	if csvFile.ContentType != "text/csv; charset=utf-8" || !strings.HasSuffix(csvFile.Filename, ".csv") {
		t.Errorf("CSV 文件信息不符: %s %s", csvFile.ContentType, csvFile.Filename)
	}
	if lines := strings.Count(csvFile.Body.String(), "\n"); lines != 4 {
		t.Errorf("期望 4 行（含表头），实际=%d", lines)
	}

	xlsx, err := svc.Attendance(rows, FormatXLSX)
	if err != nil {
		t.Fatalf("Excel 导出应成功: %v", err)
	}
	if xlsx.Body.Len() == 0 || !bytes.HasPrefix(xlsx.Body.Bytes(), []byte("PK")) {
		t.Error("Excel 文件应为非空 zip")
	}

	if _, err := svc.Attendance(rows, "pdf"); err != ErrExportFormat {
		t.Errorf("期望 ErrExportFormat，实际: %v", err)
	}
}
