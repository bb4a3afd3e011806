package model

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User 用户表，对应表 users
type User struct {
	UserID             string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name               string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email              string  `gorm:"type:varchar(255);not null"                     json:"email"`
	Phone              string  `gorm:"type:varchar(20)"                               json:"phone,omitempty"`
	PasswordHash       string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role               Role    `gorm:"type:varchar(20);not null;default:'pending'"    json:"role"`
	DepartmentID       *string `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	Status             string  `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	MustChangePassword bool    `gorm:"not null;default:false"                         json:"must_change_password"`
	VersionedModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// DeptID 部门 ID，未分配时为空串
func (u *User) DeptID() string {
	if u.DepartmentID == nil {
		return ""
	}
	return *u.DepartmentID
}
