// Package validate 注册业务自定义校验标签
package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var academicYearPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// Register 向 validator 注册 academic_year 与 attendance_status 标签
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("academic_year", func(fl validator.FieldLevel) bool {
		return IsAcademicYear(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
		case "present", "absent", "leave", "on leave":
			return true
		}
		return false
	})
}

// IsAcademicYear 格式 YYYY-YYYY 且后一年 = 前一年 + 1
func IsAcademicYear(s string) bool {
	m := academicYearPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}
