package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"Mentor_Community/internal/model"
)

type Dashboard struct {
	Roadmaps        []model.RoadmapView       `json:"roadmaps"`
	BalanceCents    int64                     `json:"balance_cents"`
	RecentPosts     []model.Post              `json:"recent_posts"`
	PendingRequests []model.MentorshipRequest `json:"pending_requests"`
}

type DashboardService struct {
	roadmaps   *RoadmapService
	ledger     *LedgerService
	posts      *PostService
	mentorship *MentorshipService
}

func NewDashboardService(roadmaps *RoadmapService, ledger *LedgerService, posts *PostService, mentorship *MentorshipService) *DashboardService {
	return &DashboardService{roadmaps: roadmaps, ledger: ledger, posts: posts, mentorship: mentorship}
}

// Load 并发读取首页需要的数据，任一失败整体失败
func (s *DashboardService) Load(ctx context.Context, userID string) (*Dashboard, error) {
	d := &Dashboard{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Roadmaps, err = s.roadmaps.List(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		d.BalanceCents, err = s.ledger.Balance(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		d.RecentPosts, _, err = s.posts.List(ctx, model.PostQuery{Size: 5})
		return err
	})
	g.Go(func() error {
		reqs, err := s.mentorship.ListRequests(ctx, userID)
		if err != nil {
			return err
		}
		for _, r := range reqs {
			if r.Status == model.RequestPending {
				d.PendingRequests = append(d.PendingRequests, r)
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}
