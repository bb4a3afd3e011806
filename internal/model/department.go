package model

// Department 院系表，对应表 departments
type Department struct {
	DepartmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"department_id"`
	Code         string `gorm:"type:varchar(20);not null"                      json:"code"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Description  string `gorm:"type:text"                                      json:"description,omitempty"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

// DepartmentSubject 院系-学期开设科目，对应表 department_subjects
type DepartmentSubject struct {
	ID           string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DepartmentID string `gorm:"type:uuid;not null"                             json:"department_id"`
	SubjectCode  string `gorm:"type:varchar(20);not null"                      json:"subject_code"`
	Semester     int    `gorm:"type:smallint;not null"                         json:"semester"`
	BaseModel

	Subject *Subject `gorm:"foreignKey:SubjectCode;references:SubjectCode" json:"subject,omitempty"`
}

// TableName 指定表名
func (DepartmentSubject) TableName() string { return "department_subjects" }
