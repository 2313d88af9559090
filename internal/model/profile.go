package model

import (
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleLearner Role = "learner"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

// CanReview mentor 和 admin 可以审核里程碑
func (r Role) CanReview() bool {
	return r == RoleMentor || r == RoleAdmin
}

// Profile 用户资料，id 与认证服务签发的 subject 一致
type Profile struct {
	ID           string                      `gorm:"primaryKey;size:36" json:"id"`
	Name         string                      `gorm:"size:100" json:"name"`
	Username     string                      `gorm:"size:32;index" json:"username"`
	Email        string                      `gorm:"size:128" json:"email"`
	Role         Role                        `gorm:"size:16;not null;default:learner;index" json:"role"`
	Bio          string                      `gorm:"type:text" json:"bio"`
	Title        string                      `gorm:"size:128" json:"title"`
	Skills       datatypes.JSONSlice[string] `json:"skills"`
	Availability string                      `gorm:"size:64" json:"availability"`
	AvatarURL    string                      `gorm:"size:512" json:"avatar_url"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// ProfilePatch 资料的可编辑字段，nil 表示不修改
type ProfilePatch struct {
	Name         *string  `json:"name"`
	Username     *string  `json:"username"`
	Bio          *string  `json:"bio"`
	Title        *string  `json:"title"`
	Skills       []string `json:"skills"`
	Availability *string  `json:"availability"`
}

func (p ProfilePatch) Fields() map[string]any {
	f := map[string]any{}
	if p.Name != nil {
		f["name"] = *p.Name
	}
	if p.Username != nil {
		f["username"] = *p.Username
	}
	if p.Bio != nil {
		f["bio"] = *p.Bio
	}
	if p.Title != nil {
		f["title"] = *p.Title
	}
	if p.Skills != nil {
		f["skills"] = datatypes.JSONSlice[string](p.Skills)
	}
	if p.Availability != nil {
		f["availability"] = *p.Availability
	}
	return f
}

// Apply 内存实现使用，与 Fields 保持一致
func (p *Profile) Apply(patch ProfilePatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Username != nil {
		p.Username = *patch.Username
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Skills != nil {
		p.Skills = patch.Skills
	}
	if patch.Availability != nil {
		p.Availability = *patch.Availability
	}
}

// DisplayName 证书和会话里展示的名字
func (p *Profile) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Username != "":
		return p.Username
	}
	return "Student"
}
