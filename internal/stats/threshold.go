package stats

import (
	"math"
	"strings"

	"campus-attendance/internal/model"
)

// Comparison 阈值比较方式
type Comparison string

const (
	Below Comparison = "below"
	Above Comparison = "above"
	Equal Comparison = "equal"
)

// equalTolerance equal 比较的浮点容差
const equalTolerance = 0.01

// ParseComparison 大小写不敏感；未知值原样返回，由 Matches 视为不过滤
func ParseComparison(s string) Comparison {
	return Comparison(strings.ToLower(strings.TrimSpace(s)))
}

// Matches 出勤率 p 是否满足阈值 t
// below / above 为严格比较，边界值两者都不满足；未知比较方式恒为 true
func (c Comparison) Matches(p, t float64) bool {
	switch c {
	case Below:
		return p < t
	case Above:
		return p > t
	case Equal:
		return math.Abs(p-t) < equalTolerance
	}
	return true
}

// FilterByThreshold 按 (学生, 科目) 分组计算出勤率，保留满足条件的整组记录
// 输出保持输入顺序
func FilterByThreshold(rows []model.AttendanceRow, threshold float64, cmp Comparison, policy LeavePolicy) []model.AttendanceRow {
	if len(rows) == 0 {
		return rows
	}

	counts := make(map[string]*Counts)
	for i := range rows {
		k := StudentSubjectKey(&rows[i])
		c, ok := counts[k]
		if !ok {
			c = &Counts{}
			counts[k] = c
		}
		c.Add(rows[i].Status)
	}

	keep := make(map[string]bool, len(counts))
	for k, c := range counts {
		keep[k] = cmp.Matches(c.Percentage(policy), threshold)
	}

	out := make([]model.AttendanceRow, 0, len(rows))
	for i := range rows {
		if keep[StudentSubjectKey(&rows[i])] {
			out = append(out, rows[i])
		}
	}
	return out
}
