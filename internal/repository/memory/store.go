// Package memory 进程内存实现，测试和本地联调使用
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
)

// Store 所有存储端口的内存实现，一把锁保证每个操作原子
type Store struct {
	mu sync.Mutex

	roadmaps map[string]*model.Roadmap
	txs      []model.Transaction
	rewards  map[string]struct{}
	outbox   []model.LedgerOutbox

	posts    map[uint64]*model.Post
	likes    map[likeKey]struct{}
	comments []model.Comment
	postSeq  uint64
	cmtSeq   uint64

	profiles map[string]*model.Profile
	requests map[string]*model.MentorshipRequest
	convs    map[string]*model.Conversation
	messages []model.Message
	msgSeq   uint64
	moods    map[string]model.MoodEntry
}

type likeKey struct {
	postID uint64
	userID string
}

func New() *Store {
	return &Store{
		roadmaps: map[string]*model.Roadmap{},
		rewards:  map[string]struct{}{},
		posts:    map[uint64]*model.Post{},
		likes:    map[likeKey]struct{}{},
		profiles: map[string]*model.Profile{},
		requests: map[string]*model.MentorshipRequest{},
		convs:    map[string]*model.Conversation{},
		moods:    map[string]model.MoodEntry{},
	}
}

func cloneRoadmap(r *model.Roadmap) model.Roadmap {
	out := *r
	out.Milestones = append([]model.Milestone(nil), r.Milestones...)
	return out
}

// ---- roadmaps ----

func (s *Store) CreateRoadmap(ctx context.Context, r *model.Roadmap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roadmaps[r.ID]; ok {
		return fmt.Errorf("roadmap %s: %w", r.ID, pkg.ErrConflict)
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	for i := range r.Milestones {
		r.Milestones[i].RoadmapID = r.ID
	}
	c := cloneRoadmap(r)
	s.roadmaps[r.ID] = &c
	return nil
}

func (s *Store) GetRoadmap(ctx context.Context, id string) (*model.Roadmap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roadmaps[id]
	if !ok {
		return nil, fmt.Errorf("roadmap %s: %w", id, pkg.ErrNotFound)
	}
	c := cloneRoadmap(r)
	return &c, nil
}

func (s *Store) ListRoadmaps(ctx context.Context, userID string) ([]model.Roadmap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Roadmap{}
	for _, r := range s.roadmaps {
		if r.UserID == userID {
			out = append(out, cloneRoadmap(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListSubmitted(ctx context.Context, limit int) ([]model.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.ReviewItem{}
	for _, r := range s.roadmaps {
		for _, m := range r.Milestones {
			if m.Status == model.MilestoneSubmitted {
				out = append(out, model.ReviewItem{RoadmapID: r.ID, RoadmapTitle: r.Title, OwnerID: r.UserID, Milestone: m, SubmittedAt: m.SubmittedAt})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].SubmittedAt, out[j].SubmittedAt
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.Before(*b)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) TransitionMilestone(ctx context.Context, t model.MilestoneTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roadmaps[t.RoadmapID]
	if !ok {
		return fmt.Errorf("roadmap %s: %w", t.RoadmapID, pkg.ErrNotFound)
	}
	m := r.Milestone(t.MilestoneID)
	if m == nil {
		return fmt.Errorf("milestone %s/%s: %w", t.RoadmapID, t.MilestoneID, pkg.ErrNotFound)
	}
	if m.Status != t.From {
		return fmt.Errorf("milestone %s is %s: %w", t.MilestoneID, m.Status, pkg.ErrInvalidTransition)
	}
	if t.Reward != nil && t.Reward.RewardKey != nil {
		if _, dup := s.rewards[*t.Reward.RewardKey]; dup {
			return fmt.Errorf("reward %s: %w", *t.Reward.RewardKey, pkg.ErrConflict)
		}
	}

	m.Apply(t)
	if t.UnlockNext {
		for i := range r.Milestones {
			n := &r.Milestones[i]
			if n.Ordinal == m.Ordinal+1 && n.Status == model.MilestoneLocked {
				n.Status = model.MilestoneAvailable
			}
		}
	}
	r.UpdatedAt = t.At
	if t.Reward != nil {
		s.appendLocked(t.Reward)
	}
	return nil
}

// ---- ledger ----

func (s *Store) appendLocked(tx *model.Transaction) {
	if tx.RewardKey != nil {
		s.rewards[*tx.RewardKey] = struct{}{}
	}
	tx.Seq = 1
	for _, t := range s.txs {
		if t.UserID == tx.UserID && t.Seq >= tx.Seq {
			tx.Seq = t.Seq + 1
		}
	}
	s.txs = append(s.txs, *tx)
	ob := model.OutboxFor(*tx)
	ob.ID = uint64(len(s.outbox) + 1)
	ob.CreatedAt = time.Now()
	s.outbox = append(s.outbox, ob)
}

func (s *Store) AppendCredit(ctx context.Context, tx *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(tx)
	return nil
}

func (s *Store) AppendDebit(ctx context.Context, tx *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var mine []model.Transaction
	for _, t := range s.txs {
		if t.UserID == tx.UserID {
			mine = append(mine, t)
		}
	}
	if bal := model.Balance(mine); tx.AmountCents > bal {
		return fmt.Errorf("balance %d < %d: %w", bal, tx.AmountCents, pkg.ErrInsufficientFunds)
	}
	s.appendLocked(tx)
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Transaction{}
	for i := len(s.txs) - 1; i >= 0; i-- {
		if s.txs[i].UserID == userID {
			out = append(out, s.txs[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return model.NewestFirst(out[i], out[j]) })
	return out, nil
}

// ---- outbox ----

func (s *Store) PendingOutbox(ctx context.Context, batchSize, maxRetry int) ([]model.LedgerOutbox, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.LedgerOutbox
	for _, ob := range s.outbox {
		if ob.Status != model.OutboxSent && ob.Retry < maxRetry {
			out = append(out, ob)
			if len(out) == batchSize {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) MarkSent(ctx context.Context, id uint64) error {
	return s.markOutbox(id, func(ob *model.LedgerOutbox) { ob.Status = model.OutboxSent })
}

func (s *Store) MarkFailed(ctx context.Context, id uint64) error {
	return s.markOutbox(id, func(ob *model.LedgerOutbox) {
		ob.Status = model.OutboxFailed
		ob.Retry++
	})
}

func (s *Store) markOutbox(id uint64, fn func(*model.LedgerOutbox)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].ID == id {
			fn(&s.outbox[i])
			s.outbox[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("outbox %d: %w", id, pkg.ErrNotFound)
}

// Outbox 测试断言用
func (s *Store) Outbox() []model.LedgerOutbox {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.LedgerOutbox(nil), s.outbox...)
}

// ---- posts ----

func (s *Store) CreatePost(ctx context.Context, p *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postSeq++
	p.ID = s.postSeq
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	c := *p
	s.posts[p.ID] = &c
	return nil
}

func (s *Store) livePost(id uint64) (*model.Post, error) {
	p, ok := s.posts[id]
	if !ok || p.Status != 0 {
		return nil, fmt.Errorf("post %d: %w", id, pkg.ErrNotFound)
	}
	return p, nil
}

func (s *Store) GetPost(ctx context.Context, id uint64) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.livePost(id)
	if err != nil {
		return nil, err
	}
	c := *p
	return &c, nil
}

func (s *Store) ListPosts(ctx context.Context, q model.PostQuery) ([]model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Post{}
	for _, p := range s.posts {
		if p.Status != 0 || (q.BeforeID > 0 && p.ID >= q.BeforeID) {
			continue
		}
		if q.AuthorID != "" && p.AuthorID != q.AuthorID {
			continue
		}
		if q.Tag != "" && !p.HasTag(q.Tag) {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(p.Content), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if q.Size > 0 && len(out) > q.Size {
		out = out[:q.Size]
	}
	return out, nil
}

func (s *Store) SoftDeletePost(ctx context.Context, id uint64, authorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.AuthorID != authorID {
		return false, fmt.Errorf("post %d: %w", id, pkg.ErrNotFound)
	}
	if p.Status != 0 {
		return false, nil
	}
	p.Status = 1
	return true, nil
}

// ---- engagement ----

func (s *Store) ToggleLike(ctx context.Context, postID uint64, userID string) (model.LikeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.livePost(postID)
	if err != nil {
		return model.LikeResult{}, err
	}
	k := likeKey{postID, userID}
	if _, ok := s.likes[k]; ok {
		delete(s.likes, k)
		if p.LikeCount > 0 {
			p.LikeCount--
		}
		return model.LikeResult{Liked: false, Count: p.LikeCount}, nil
	}
	s.likes[k] = struct{}{}
	p.LikeCount++
	return model.LikeResult{Liked: true, Count: p.LikeCount}, nil
}

func (s *Store) IsLiked(ctx context.Context, postID uint64, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.likes[likeKey{postID, userID}]
	return ok, nil
}

func (s *Store) LikeCount(ctx context.Context, postID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.livePost(postID)
	if err != nil {
		return 0, err
	}
	return p.LikeCount, nil
}

func (s *Store) AddComment(ctx context.Context, c *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.livePost(c.PostID)
	if err != nil {
		return err
	}
	s.cmtSeq++
	c.ID = s.cmtSeq
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.comments = append(s.comments, *c)
	p.CommentCount++
	return nil
}

func (s *Store) ListComments(ctx context.Context, postID uint64) ([]model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Comment{}
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) CommentCount(ctx context.Context, postID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.livePost(postID)
	if err != nil {
		return 0, err
	}
	return p.CommentCount, nil
}

// ---- counters ----

func (s *Store) ListCounts(ctx context.Context, afterID uint64, limit int) ([]model.PostCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PostCounts
	for _, p := range s.posts {
		if p.ID > afterID {
			out = append(out, model.PostCounts{ID: p.ID, LikeCount: p.LikeCount, CommentCount: p.CommentCount})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) RealCounts(ctx context.Context, postID uint64) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var likes, comments int64
	for k := range s.likes {
		if k.postID == postID {
			likes++
		}
	}
	for _, c := range s.comments {
		if c.PostID == postID {
			comments++
		}
	}
	return likes, comments, nil
}

func (s *Store) FixCounts(ctx context.Context, postID uint64, likes, comments int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return fmt.Errorf("post %d: %w", postID, pkg.ErrNotFound)
	}
	p.LikeCount, p.CommentCount = likes, comments
	return nil
}

// SetCounts 测试中制造计数漂移
func (s *Store) SetCounts(postID uint64, likes, comments int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[postID]; ok {
		p.LikeCount, p.CommentCount = likes, comments
	}
}

// ---- profiles ----

func (s *Store) EnsureProfile(ctx context.Context, p *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; ok {
		return nil
	}
	now := time.Now()
	c := *p
	c.CreatedAt, c.UpdatedAt = now, now
	s.profiles[p.ID] = &c
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, pkg.ErrNotFound)
	}
	c := *p
	return &c, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, pkg.ErrNotFound)
	}
	p.Apply(patch)
	p.UpdatedAt = time.Now()
	c := *p
	return &c, nil
}

func (s *Store) SetAvatar(ctx context.Context, id, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return fmt.Errorf("profile %s: %w", id, pkg.ErrNotFound)
	}
	p.AvatarURL = url
	return nil
}

func (s *Store) ListByRole(ctx context.Context, role model.Role) ([]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Profile{}
	for _, p := range s.profiles {
		if p.Role == role {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ---- mentorship ----

func (s *Store) CreateRequest(ctx context.Context, r *model.MentorshipRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.requests {
		if x.LearnerID == r.LearnerID && x.MentorID == r.MentorID && x.Status == model.RequestPending {
			return fmt.Errorf("pending request %s: %w", x.ID, pkg.ErrConflict)
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	c := *r
	s.requests[r.ID] = &c
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id string) (*model.MentorshipRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, pkg.ErrNotFound)
	}
	c := *r
	return &c, nil
}

func (s *Store) RespondRequest(ctx context.Context, id, mentorID string, to model.RequestStatus, at time.Time, conv *model.Conversation) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok || r.MentorID != mentorID {
		return nil, fmt.Errorf("request %s: %w", id, pkg.ErrNotFound)
	}
	if r.Status != model.RequestPending {
		return nil, fmt.Errorf("request %s is %s: %w", id, r.Status, pkg.ErrInvalidTransition)
	}
	r.Status = to
	r.RespondedAt = &at
	if to != model.RequestAccepted || conv == nil {
		return nil, nil
	}
	if existing := s.findConversationLocked(r.LearnerID, r.MentorID); existing != nil {
		c := *existing
		return &c, nil
	}
	c := *conv
	c.Participants = []string{r.LearnerID, r.MentorID}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = at
	}
	s.convs[c.ID] = &c
	out := c
	return &out, nil
}

func (s *Store) findConversationLocked(a, b string) *model.Conversation {
	for _, c := range s.convs {
		if contains(c.Participants, a) && contains(c.Participants, b) {
			return c
		}
	}
	return nil
}

func (s *Store) ListRequests(ctx context.Context, userID string) ([]model.MentorshipRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.MentorshipRequest{}
	for _, r := range s.requests {
		if r.LearnerID == userID || r.MentorID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- messages ----

func (s *Store) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Conversation{}
	for _, c := range s.convs {
		if contains(c.Participants, userID) {
			cp := *c
			cp.Participants = append([]string(nil), c.Participants...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return conversationBefore(out[i], out[j]) })
	return out, nil
}

// conversationBefore 最近有消息的在前，从未发过消息的排最后
func conversationBefore(a, b model.Conversation) bool {
	switch {
	case a.LastMessageAt != nil && b.LastMessageAt != nil:
		return a.LastMessageAt.After(*b.LastMessageAt)
	case a.LastMessageAt != nil:
		return true
	case b.LastMessageAt != nil:
		return false
	default:
		return a.CreatedAt.After(b.CreatedAt)
	}
}

func (s *Store) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[conversationID]
	return ok && contains(c.Participants, userID), nil
}

func (s *Store) AppendMessage(ctx context.Context, m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[m.ConversationID]
	if !ok {
		return fmt.Errorf("conversation %s: %w", m.ConversationID, pkg.ErrNotFound)
	}
	s.msgSeq++
	m.ID = s.msgSeq
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.messages = append(s.messages, *m)
	at := m.CreatedAt
	c.LastMessageAt = &at
	return nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Message{}
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ---- wellness ----

func (s *Store) UpsertMood(ctx context.Context, e *model.MoodEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moods[e.UserID+"|"+e.Day] = *e
	return nil
}

func (s *Store) ListMoods(ctx context.Context, userID, sinceDay string) ([]model.MoodEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.MoodEntry{}
	for _, e := range s.moods {
		if e.UserID == userID && e.Day >= sinceDay {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// ---- account ----

func (s *Store) DeleteAccount(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[userID]; !ok {
		return fmt.Errorf("profile %s: %w", userID, pkg.ErrNotFound)
	}
	delete(s.profiles, userID)
	for id, r := range s.requests {
		if r.LearnerID == userID || r.MentorID == userID {
			delete(s.requests, id)
		}
	}
	for _, c := range s.convs {
		kept := c.Participants[:0]
		for _, p := range c.Participants {
			if p != userID {
				kept = append(kept, p)
			}
		}
		c.Participants = kept
	}
	for k, e := range s.moods {
		if e.UserID == userID {
			delete(s.moods, k)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
