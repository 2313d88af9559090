package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Mentor_Community/internal/model"
)

type ProfileRepository struct {
	DB *gorm.DB
}

// EnsureProfile 幂等插入：已存在则不做修改
func (r *ProfileRepository) EnsureProfile(ctx context.Context, p *model.Profile) error {
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(p).Error
	return translate(err, "profile %s", p.ID)
}

func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, "profile %s", id)
	}
	return &p, nil
}

func (r *ProfileRepository) UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.Profile, error) {
	var out *model.Profile
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := &ProfileRepository{DB: tx}
		if _, err := repo.GetProfile(ctx, id); err != nil {
			return err
		}
		if fields := patch.Fields(); len(fields) > 0 {
			fields["updated_at"] = time.Now()
			if err := tx.Model(&model.Profile{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}
		p, err := repo.GetProfile(ctx, id)
		out = p
		return err
	})
	if err != nil {
		return nil, translate(err, "profile %s", id)
	}
	return out, nil
}

func (r *ProfileRepository) SetAvatar(ctx context.Context, id, url string) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := (&ProfileRepository{DB: tx}).GetProfile(ctx, id); err != nil {
			return err
		}
		return tx.Model(&model.Profile{}).Where("id = ?", id).
			Updates(map[string]any{"avatar_url": url, "updated_at": time.Now()}).Error
	})
	return translate(err, "profile %s", id)
}

func (r *ProfileRepository) ListByRole(ctx context.Context, role model.Role) ([]model.Profile, error) {
	var list []model.Profile
	if err := r.DB.WithContext(ctx).Where("role = ?", role).Order("name ASC").Find(&list).Error; err != nil {
		return nil, translate(err, "profiles of role %s", role)
	}
	return list, nil
}
