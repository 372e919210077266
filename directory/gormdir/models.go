package gormdir

import "time"

// User is a directory subject.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Subject   string `gorm:"uniqueIndex;size:255;not null"`
	Roles     []UserRole
	Bans      []UserBan
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role is a named role. Its abilities are granted through RoleAbility rows.
type Role struct {
	Name      string        `gorm:"primaryKey;size:64"`
	Abilities []RoleAbility `gorm:"foreignKey:RoleName;references:Name"`
}

// Ability is a named capability.
type Ability struct {
	Name string `gorm:"primaryKey;size:64"`
}

// RoleAbility grants an ability to a role.
type RoleAbility struct {
	RoleName    string `gorm:"primaryKey;size:64"`
	AbilityName string `gorm:"primaryKey;size:64"`
}

// UserRole assigns a role to a user.
type UserRole struct {
	UserID   uint   `gorm:"primaryKey"`
	RoleName string `gorm:"primaryKey;size:64"`
	Role     Role   `gorm:"foreignKey:RoleName;references:Name"`
}

// UserBan bans a user from one role or one ability. A nil UntilAt is permanent.
type UserBan struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index;not null"`
	RoleName    string `gorm:"size:64"`
	AbilityName string `gorm:"size:64"`
	Reason      string
	UntilAt     *time.Time
	CreatedAt   time.Time
}

func models() []any {
	return []any{&User{}, &Role{}, &Ability{}, &RoleAbility{}, &UserRole{}, &UserBan{}}
}
