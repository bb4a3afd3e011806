package service

import (
	"encoding/csv"
	"io"
	"strconv"

	"campus-attendance/internal/model"
)

// attendanceCSVHeader 导出列（顺序固定）
var attendanceCSVHeader = []string{
	"Date", "Student ID", "Student Name", "Subject Code", "Subject Name", "Class", "Semester", "Status",
}

// writeAttendanceCSV 逐行写出考勤记录
// 含逗号、引号、回车或换行的字段加引号，内部引号成对转义
func writeAttendanceCSV(w io.Writer, rows []model.AttendanceRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(attendanceCSVHeader); err != nil {
		return err
	}
	for i := range rows {
		if err := cw.Write(attendanceCSVRecord(&rows[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func attendanceCSVRecord(r *model.AttendanceRow) []string {
	return []string{
		r.AttendanceDate.Format(model.DateLayout),
		r.StudentID,
		r.StudentName,
		r.SubjectCode,
		r.SubjectName,
		r.ClassName,
		strconv.Itoa(r.Semester),
		r.Status.Label(),
	}
}
