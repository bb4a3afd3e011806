package notify

import (
	"fmt"
	"strings"

	"campus-attendance/internal/model"
)

// AttendanceMarked 学生考勤被标记或修改
func AttendanceMarked(studentID, studentName, subjectName, date string, status model.Status) Message {
	return Message{
		Kind:   model.NotifyAttendanceUpdate,
		UserID: studentID,
		Title:  fmt.Sprintf("考勤更新：%s %s", subjectName, date),
		Body: fmt.Sprintf("%s 同学，你在 %s 的 %s 课程考勤已记录为 %s。",
			studentName, date, subjectName, status.Label()),
		Payload: map[string]string{
			"subject": subjectName,
			"date":    date,
			"status":  string(status),
		},
	}
}

// LowAttendance 出勤率低于阈值提醒
func LowAttendance(studentID, studentName, subjectName string, percentage, threshold float64) Message {
	return Message{
		Kind:   model.NotifyLowAttendance,
		UserID: studentID,
		Title:  fmt.Sprintf("出勤率预警：%s", subjectName),
		Body: fmt.Sprintf("%s 同学，你在 %s 课程的出勤率为 %.2f%%，低于要求的 %.2f%%，请及时关注。",
			studentName, subjectName, percentage, threshold),
		Payload: map[string]string{
			"subject":    subjectName,
			"percentage": fmt.Sprintf("%.2f", percentage),
			"threshold":  fmt.Sprintf("%.2f", threshold),
		},
	}
}

// WeeklyLine 周报中的一行
type WeeklyLine struct {
	ClassName   string
	SubjectName string
	Sessions    int
	Percentage  float64
}

// WeeklyReport 教师周报
func WeeklyReport(teacherID, teacherName, from, to string, lines []WeeklyLine) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "%s 老师，%s 至 %s 的考勤汇总如下：\n", teacherName, from, to)
	if len(lines) == 0 {
		b.WriteString("本周没有考勤记录。\n")
	}
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s / %s：%d 次课，出勤率 %.2f%%\n", l.ClassName, l.SubjectName, l.Sessions, l.Percentage)
	}
	return Message{
		Kind:    model.NotifyWeeklyReport,
		UserID:  teacherID,
		Title:   fmt.Sprintf("考勤周报 %s ~ %s", from, to),
		Body:    b.String(),
		Payload: map[string]string{"from": from, "to": to},
	}
}

// EnrollmentDecided 角色申请审批结果
func EnrollmentDecided(userID string, role model.Role, approved bool, note string) Message {
	verdict := "已被驳回"
	if approved {
		verdict = "已通过"
	}
	body := fmt.Sprintf("你申请的 %s 角色%s。", role.Label(), verdict)
	if note != "" {
		body += "\n审批意见：" + note
	}
	return Message{
		Kind:    model.NotifyEnrollmentDecision,
		UserID:  userID,
		Title:   "角色申请审批结果",
		Body:    body,
		Payload: map[string]string{"role": string(role), "approved": fmt.Sprint(approved)},
	}
}

// LeaveDecided 请假审批结果
func LeaveDecided(studentID, from, to string, approved bool, note string) Message {
	verdict := "已被驳回"
	if approved {
		verdict = "已批准"
	}
	body := fmt.Sprintf("你 %s 至 %s 的请假申请%s。", from, to, verdict)
	if note != "" {
		body += "\n审批意见：" + note
	}
	return Message{
		Kind:    model.NotifyLeaveDecision,
		UserID:  studentID,
		Title:   "请假审批结果",
		Body:    body,
		Payload: map[string]string{"from": from, "to": to, "approved": fmt.Sprint(approved)},
	}
}
