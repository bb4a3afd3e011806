package stats

import (
	"testing"

	"campus-attendance/internal/model"
)

func rowsFor(student, subject string, present, absent, leave int) []model.AttendanceRow {
	var rows []model.AttendanceRow
	add := func(n int, s model.Status) {
		for i := 0; i < n; i++ {
			rows = append(rows, model.AttendanceRow{StudentID: student, SubjectCode: subject, Status: s})
		}
	}
	add(present, model.StatusPresent)
	add(absent, model.StatusAbsent)
	add(leave, model.StatusLeave)
	return rows
}

func TestPercentage_EmptyIsZero(t *testing.T) {
	var c Counts
	if p := c.Percentage(LeaveInTotal); p != 0 {
		t.Errorf("空组出勤率应为 0，实际 %v", p)
	}
	if p := c.Percentage(LeaveExcluded); p != 0 {
		t.Errorf("空组（排除请假）出勤率应为 0，实际 %v", p)
	}
}

func TestPercentage_SevenPresentTwoAbsentOneLeave(t *testing.T) {
	c := CountRows(rowsFor("S", "CS101", 7, 2, 1))

	if c.Total() != 10 {
		t.Fatalf("期望 10 条记录，实际 %d", c.Total())
	}
	if p := c.Percentage(LeaveInTotal); p != 70.0 {
		t.Errorf("期望 70.0，实际 %v", p)
	}
	if p := Round2(c.Percentage(LeaveExcluded)); p != 77.78 {
		t.Errorf("排除请假时期望 77.78，实际 %v", p)
	}
}

func TestPercentage_AllLeaveExcluded(t *testing.T) {
	c := Counts{Leave: 3}
	if p := c.Percentage(LeaveExcluded); p != 100 {
		t.Errorf("全部请假且排除请假时应为 100，实际 %v", p)
	}
	if p := c.Percentage(LeaveInTotal); p != 0 {
		t.Errorf("全部请假且计入请假时应为 0，实际 %v", p)
	}
}

func TestParseLeavePolicy(t *testing.T) {
	if ParseLeavePolicy("exclude") != LeaveExcluded {
		t.Error("exclude 应解析为 LeaveExcluded")
	}
	if ParseLeavePolicy("whatever") != LeaveInTotal {
		t.Error("未知值应回退为 LeaveInTotal")
	}
}

func TestGroupBy_FirstSeenOrder(t *testing.T) {
	rows := append(rowsFor("S2", "CS101", 1, 0, 0), rowsFor("S1", "CS101", 0, 1, 0)...)
	rows = append(rows, rowsFor("S2", "CS101", 0, 1, 0)...)

	groups := GroupBy(rows, func(r *model.AttendanceRow) string { return r.StudentID })
	if len(groups) != 2 {
		t.Fatalf("期望 2 组，实际 %d", len(groups))
	}
	if groups[0].Key != "S2" || groups[1].Key != "S1" {
		t.Errorf("分组顺序应为首次出现顺序，实际 %s,%s", groups[0].Key, groups[1].Key)
	}
	if groups[0].Counts.Present != 1 || groups[0].Counts.Absent != 1 {
		t.Errorf("S2 计数不符: %+v", groups[0].Counts)
	}
}
