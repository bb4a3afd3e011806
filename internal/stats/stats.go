// Package stats 考勤计数、出勤率与阈值筛选（纯函数，不访问数据库）。
package stats

import (
	"math"

	"campus-attendance/internal/model"
)

// LeavePolicy 请假是否计入分母
type LeavePolicy int

const (
	// LeaveInTotal 分母 = 出勤 + 缺勤 + 请假
	LeaveInTotal LeavePolicy = iota
	// LeaveExcluded 分母 = 出勤 + 缺勤；全部为请假时出勤率为 100
	LeaveExcluded
)

// ParseLeavePolicy include | exclude，其余取默认 include
func ParseLeavePolicy(s string) LeavePolicy {
	if s == "exclude" {
		return LeaveExcluded
	}
	return LeaveInTotal
}

// Counts 一组考勤记录的状态计数
type Counts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Leave   int `json:"leave"`
}

// Add 计入一条记录；未知状态忽略
func (c *Counts) Add(s model.Status) {
	switch s {
	case model.StatusPresent:
		c.Present++
	case model.StatusAbsent:
		c.Absent++
	case model.StatusLeave:
		c.Leave++
	}
}

// Merge 累加另一组计数
func (c *Counts) Merge(o Counts) {
	c.Present += o.Present
	c.Absent += o.Absent
	c.Leave += o.Leave
}

// Total 全部记录数
func (c Counts) Total() int {
	return c.Present + c.Absent + c.Leave
}

// Percentage 出勤率（0-100，未取整）
// 空组返回 0
func (c Counts) Percentage(p LeavePolicy) float64 {
	if c.Total() == 0 {
		return 0
	}
	denom := c.Total()
	if p == LeaveExcluded {
		denom = c.Present + c.Absent
		if denom == 0 {
			return 100
		}
	}
	return float64(c.Present) * 100 / float64(denom)
}

// CountRows 统计行集合
func CountRows(rows []model.AttendanceRow) Counts {
	var c Counts
	for i := range rows {
		c.Add(rows[i].Status)
	}
	return c
}

// Round2 保留两位小数，仅用于展示
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Group 一个分组键及其计数
type Group struct {
	Key    string
	Counts Counts
}

// GroupBy 按 key 分组计数，结果按键首次出现顺序排列
func GroupBy(rows []model.AttendanceRow, key func(*model.AttendanceRow) string) []Group {
	pos := make(map[string]int)
	var groups []Group
	for i := range rows {
		k := key(&rows[i])
		idx, ok := pos[k]
		if !ok {
			idx = len(groups)
			pos[k] = idx
			groups = append(groups, Group{Key: k})
		}
		groups[idx].Counts.Add(rows[i].Status)
	}
	return groups
}

// StudentSubjectKey 阈值筛选的分组键 studentID_subjectCode
func StudentSubjectKey(r *model.AttendanceRow) string {
	return r.StudentID + "_" + r.SubjectCode
}
