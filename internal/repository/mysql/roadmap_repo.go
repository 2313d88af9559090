package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
)

type RoadmapRepository struct {
	DB *gorm.DB
}

func orderedMilestones(db *gorm.DB) *gorm.DB {
	return db.Order("ordinal ASC")
}

func (r *RoadmapRepository) CreateRoadmap(ctx context.Context, rm *model.Roadmap) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Milestones").Create(rm).Error; err != nil {
			return err
		}
		if len(rm.Milestones) == 0 {
			return nil
		}
		return tx.Create(&rm.Milestones).Error
	})
	return translate(err, "roadmap %s", rm.ID)
}

func (r *RoadmapRepository) GetRoadmap(ctx context.Context, id string) (*model.Roadmap, error) {
	var rm model.Roadmap
	err := r.DB.WithContext(ctx).
		Preload("Milestones", orderedMilestones).
		First(&rm, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "roadmap %s", id)
	}
	return &rm, nil
}

func (r *RoadmapRepository) ListRoadmaps(ctx context.Context, userID string) ([]model.Roadmap, error) {
	var list []model.Roadmap
	err := r.DB.WithContext(ctx).
		Preload("Milestones", orderedMilestones).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, translate(err, "roadmaps of %s", userID)
	}
	return list, nil
}

// ListSubmitted 待审核里程碑，最早提交的在前
func (r *RoadmapRepository) ListSubmitted(ctx context.Context, limit int) ([]model.ReviewItem, error) {
	var ms []model.Milestone
	if err := r.DB.WithContext(ctx).
		Where("status = ?", model.MilestoneSubmitted).
		Order("submitted_at ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, translate(err, "submitted milestones")
	}
	if len(ms) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.RoadmapID)
	}
	var roadmaps []model.Roadmap
	if err := r.DB.WithContext(ctx).Select("id", "user_id", "title").Where("id IN ?", ids).Find(&roadmaps).Error; err != nil {
		return nil, translate(err, "review roadmaps")
	}
	byID := make(map[string]model.Roadmap, len(roadmaps))
	for _, rm := range roadmaps {
		byID[rm.ID] = rm
	}
	out := make([]model.ReviewItem, 0, len(ms))
	for _, m := range ms {
		rm, ok := byID[m.RoadmapID]
		if !ok {
			continue
		}
		out = append(out, model.ReviewItem{
			RoadmapID:    rm.ID,
			RoadmapTitle: rm.Title,
			OwnerID:      rm.UserID,
			Milestone:    m,
			SubmittedAt:  m.SubmittedAt,
		})
	}
	return out, nil
}

// TransitionMilestone 条件更新 + 解锁下一个 + 奖励流水 + outbox，同一事务
func (r *RoadmapRepository) TransitionMilestone(ctx context.Context, t model.MilestoneTransition) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Milestone{}).
			Where("roadmap_id = ? AND milestone_id = ? AND status = ?", t.RoadmapID, t.MilestoneID, t.From).
			Updates(t.Fields())
		if res.Error != nil {
			return res.Error
		}
		// 状态已被并发请求改掉
		if res.RowsAffected == 0 {
			return fmt.Errorf("milestone %s/%s is not %s: %w", t.RoadmapID, t.MilestoneID, t.From, pkg.ErrInvalidTransition)
		}

		if t.UnlockNext {
			var cur model.Milestone
			if err := tx.Select("ordinal").
				Where("roadmap_id = ? AND milestone_id = ?", t.RoadmapID, t.MilestoneID).
				First(&cur).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Milestone{}).
				Where("roadmap_id = ? AND ordinal = ? AND status = ?", t.RoadmapID, cur.Ordinal+1, model.MilestoneLocked).
				Update("status", model.MilestoneAvailable).Error; err != nil {
				return err
			}
		}

		if t.Reward != nil {
			// reward_key 唯一，重复发放在这里失败
			history, err := lockHistory(tx, t.Reward.UserID)
			if err != nil {
				return err
			}
			if err := appendTransaction(tx, t.Reward, history); err != nil {
				return err
			}
		}

		return tx.Model(&model.Roadmap{}).Where("id = ?", t.RoadmapID).
			UpdateColumn("updated_at", t.At).Error
	})
	return translate(err, "milestone %s/%s", t.RoadmapID, t.MilestoneID)
}
