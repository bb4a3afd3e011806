package model

import "time"

// 学籍状态
const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentWithdrawn = "withdrawn"
)

// StudentEnrollment 学生班级注册记录，对应表 student_enrollments
// 同一学生至多一条 active 记录，其余为历史
type StudentEnrollment struct {
	EnrollmentID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_id"`
	StudentID        string    `gorm:"type:uuid;not null"                             json:"student_id"`
	ClassID          string    `gorm:"type:uuid;not null"                             json:"class_id"`
	EnrollmentNumber string    `gorm:"type:varchar(50);not null"                      json:"enrollment_number"`
	Semester         int       `gorm:"type:smallint;not null"                         json:"semester"`
	AcademicYear     string    `gorm:"type:varchar(9);not null"                       json:"academic_year"`
	Status           string    `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	EnrolledAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"enrolled_at"`
	BaseModel

	Student *User  `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
	Class   *Class `gorm:"foreignKey:ClassID;references:ClassID"  json:"class,omitempty"`
}

// TableName 指定表名
func (StudentEnrollment) TableName() string { return "student_enrollments" }

// 任课类型
const (
	AssignmentTeacher      = "teacher"
	AssignmentClassTeacher = "class_teacher"
)

// TeacherAssignment 教师任课，对应表 teacher_assignments
type TeacherAssignment struct {
	AssignmentID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	TeacherID      string `gorm:"type:uuid;not null"                             json:"teacher_id"`
	SubjectCode    string `gorm:"type:varchar(20);not null"                      json:"subject_code"`
	ClassID        string `gorm:"type:uuid;not null"                             json:"class_id"`
	AssignmentType string `gorm:"type:varchar(20);not null;default:'teacher'"    json:"assignment_type"`
	Semester       int    `gorm:"type:smallint;not null"                         json:"semester"`
	AcademicYear   string `gorm:"type:varchar(9);not null"                       json:"academic_year"`
	IsActive       bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	Teacher *User    `gorm:"foreignKey:TeacherID;references:UserID"        json:"teacher,omitempty"`
	Subject *Subject `gorm:"foreignKey:SubjectCode;references:SubjectCode" json:"subject,omitempty"`
	Class   *Class   `gorm:"foreignKey:ClassID;references:ClassID"         json:"class,omitempty"`
}

// TableName 指定表名
func (TeacherAssignment) TableName() string { return "teacher_assignments" }
