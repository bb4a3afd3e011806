package model

// Class 班级表，对应表 classes
type Class struct {
	ClassID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	Name         string `gorm:"type:varchar(50);not null"                      json:"name"`
	DepartmentID string `gorm:"type:uuid;not null"                             json:"department_id"`
	Semester     int    `gorm:"type:smallint;not null"                         json:"semester"`
	AcademicYear string `gorm:"type:varchar(9);not null"                       json:"academic_year"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (Class) TableName() string { return "classes" }

// Subject 科目表，对应表 subjects
type Subject struct {
	SubjectCode string `gorm:"type:varchar(20);primaryKey" json:"subject_code"`
	Name        string `gorm:"type:varchar(100);not null"  json:"name"`
	Credits     int    `gorm:"type:smallint;not null"      json:"credits"`
	SoftDeleteModel
}

// TableName 指定表名
func (Subject) TableName() string { return "subjects" }
