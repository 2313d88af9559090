package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
)

type rawRoadmap struct {
	Title       *string        `json:"title"`
	Description string         `json:"description"`
	Domain      string         `json:"domain"`
	Milestones  []rawMilestone `json:"milestones"`
}

type rawMilestone struct {
	Title        *string          `json:"title"`
	Desc         string           `json:"desc"`
	DurationDays json.RawMessage  `json:"duration_days"`
	RewardUSD    json.RawMessage  `json:"reward_usd"`
	Deliverable  string           `json:"deliverable"`
	Resources    []model.Resource `json:"resources"`
}

// Normalize 把模型返回的原始路线图转成规范结构。
// id 按位置生成 "m"+(i+ordinalBase)，首个里程碑 available，其余 locked；
// 同样的输入总是得到同样的输出，路线图 id 和归属由调用方填写。
func Normalize(raw []byte, ordinalBase int) (*model.Roadmap, error) {
	if ordinalBase < 1 {
		ordinalBase = 1
	}
	var in rawRoadmap
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrMalformedRoadmap, err)
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", pkg.ErrMalformedRoadmap)
	}
	if len(in.Milestones) == 0 {
		return nil, fmt.Errorf("%w: milestones are empty", pkg.ErrMalformedRoadmap)
	}

	r := &model.Roadmap{
		Title:       strings.TrimSpace(*in.Title),
		Description: in.Description,
		Domain:      in.Domain,
		Milestones:  make([]model.Milestone, 0, len(in.Milestones)),
	}
	for i, m := range in.Milestones {
		if m.Title == nil || strings.TrimSpace(*m.Title) == "" {
			return nil, fmt.Errorf("%w: milestone %d: title is required", pkg.ErrMalformedRoadmap, i)
		}
		days, err := parseAmount(m.DurationDays)
		if err != nil {
			return nil, fmt.Errorf("%w: milestone %d: duration_days: %v", pkg.ErrMalformedRoadmap, i, err)
		}
		reward, err := parseAmount(m.RewardUSD)
		if err != nil {
			return nil, fmt.Errorf("%w: milestone %d: reward_usd: %v", pkg.ErrMalformedRoadmap, i, err)
		}
		status := model.MilestoneLocked
		if i == 0 {
			status = model.MilestoneAvailable
		}
		r.Milestones = append(r.Milestones, model.Milestone{
			ID:           "m" + strconv.Itoa(i+ordinalBase),
			Ordinal:      i,
			Title:        strings.TrimSpace(*m.Title),
			Description:  m.Desc,
			DurationDays: int(math.Round(days)),
			RewardCents:  model.CentsFromDollars(reward),
			Deliverable:  m.Deliverable,
			Resources:    m.Resources,
			Status:       status,
		})
	}
	return r, nil
}

// parseAmount 接受 JSON 数字或数字字符串（允许前导 $），必须是有限的非负数
func parseAmount(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("missing")
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
		text = strings.TrimPrefix(strings.TrimSpace(text), "$")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("out of range: %s", raw)
	}
	return v, nil
}
