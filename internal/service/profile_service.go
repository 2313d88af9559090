package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/pkg/logger"
)

const MaxAvatarBytes = 2 << 20

var avatarExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type ProfileService struct {
	store    ProfileStore
	roadmaps RoadmapStore
	accounts AccountStore
	objects  ObjectStorage
	log      *logger.Logger
	now      func() time.Time
}

func NewProfileService(store ProfileStore, roadmaps RoadmapStore, accounts AccountStore, objects ObjectStorage, log *logger.Logger) *ProfileService {
	return &ProfileService{
		store:    store,
		roadmaps: roadmaps,
		accounts: accounts,
		objects:  objects,
		log:      log.With("service", "ProfileService"),
		now:      time.Now,
	}
}

// Me 首次访问时按 token 信息建档
func (s *ProfileService) Me(ctx context.Context, actor Actor, email string) (*model.Profile, error) {
	if actor.ID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	role := actor.Role
	if role == "" {
		role = model.RoleLearner
	}
	username := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		username = email[:i]
	}
	if err := s.store.EnsureProfile(ctx, &model.Profile{ID: actor.ID, Email: email, Username: username, Role: role}); err != nil {
		return nil, err
	}
	return s.store.GetProfile(ctx, actor.ID)
}

func (s *ProfileService) Get(ctx context.Context, id string) (*model.Profile, error) {
	return s.store.GetProfile(ctx, id)
}

func (s *ProfileService) Update(ctx context.Context, userID string, patch model.ProfilePatch) (*model.Profile, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	if patch.Username != nil {
		u := strings.TrimSpace(*patch.Username)
		if u == "" || len(u) > 32 {
			return nil, fmt.Errorf("username must be 1-32 characters: %w", pkg.ErrInvalidArgument)
		}
		patch.Username = &u
	}
	if patch.Skills != nil {
		patch.Skills = model.NormalizeTags(patch.Skills)
	}
	return s.store.UpdateProfile(ctx, userID, patch)
}

// UploadAvatar 只接受图片，不超过 2MiB
func (s *ProfileService) UploadAvatar(ctx context.Context, userID, contentType string, size int64, r io.Reader) (string, error) {
	if userID == "" {
		return "", pkg.ErrNotAuthenticated
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := avatarExt[contentType]
	if !ok {
		return "", fmt.Errorf("avatar must be an image: %w", pkg.ErrInvalidArgument)
	}
	if size <= 0 || size > MaxAvatarBytes {
		return "", fmt.Errorf("avatar must be at most 2MB: %w", pkg.ErrInvalidArgument)
	}
	if s.objects == nil {
		return "", fmt.Errorf("object storage not configured: %w", pkg.ErrUpstreamFailure)
	}
	key := path.Join("avatars", userID, fmt.Sprintf("%d%s", s.now().UnixNano(), ext))
	url, err := s.objects.Upload(ctx, key, contentType, io.LimitReader(r, MaxAvatarBytes))
	pkg.UpstreamCalls.WithLabelValues("object_storage", pkg.ResultLabel(err)).Inc()
	if err != nil {
		s.log.Warn("avatar upload failed", "user_id", userID, "error", err)
		return "", fmt.Errorf("avatar upload: %v: %w", err, pkg.ErrUpstreamFailure)
	}
	if err := s.store.SetAvatar(ctx, userID, url); err != nil {
		return "", err
	}
	return url, nil
}

// Stats 完成情况、成就和证书数据，全部由路线图折叠得到
func (s *ProfileService) Stats(ctx context.Context, userID string) (model.ProfileStats, error) {
	if userID == "" {
		return model.ProfileStats{}, pkg.ErrNotAuthenticated
	}
	roadmaps, err := s.roadmaps.ListRoadmaps(ctx, userID)
	if err != nil {
		return model.ProfileStats{}, err
	}
	st := model.StatsOf(roadmaps)
	if st.Certificate != nil {
		st.Certificate.StudentName = "Student"
		if p, err := s.store.GetProfile(ctx, userID); err == nil {
			st.Certificate.StudentName = p.DisplayName()
		} else if !errors.Is(err, pkg.ErrNotFound) {
			return model.ProfileStats{}, err
		}
	}
	return st, nil
}

// DeleteAccount 注销当前用户
func (s *ProfileService) DeleteAccount(ctx context.Context, userID string) error {
	if userID == "" {
		return pkg.ErrNotAuthenticated
	}
	if err := s.accounts.DeleteAccount(ctx, userID); err != nil {
		s.log.Warn("delete account failed", "user_id", userID, "error", err)
		return err
	}
	s.log.Info("account deleted", "user_id", userID)
	return nil
}
