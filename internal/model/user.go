package model

// User 网银登录用户
// 演示环境下密码以明文保存并直接比对
type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username string `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Password string `gorm:"type:varchar(128);not null" json:"password"`
	FullName string `gorm:"type:varchar(128);not null" json:"fullName"`
}

func (User) TableName() string {
	return "bank_user"
}

// Session 当前会话，全局只有一个
// UserID 为 nil 表示未登录
type Session struct {
	UserID *int64 `json:"userId"`
}

// LoggedIn 是否存在已登录用户
func (s Session) LoggedIn() bool {
	return s.UserID != nil
}
