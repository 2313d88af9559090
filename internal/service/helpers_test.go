package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/pkg/logger"
	"Mentor_Community/internal/repository/memory"
)

type fakeAI struct {
	configured bool
	roadmap    string
	reply      string
	err        error

	mu    sync.Mutex
	turns []model.ChatTurn
}

func (f *fakeAI) Configured() bool { return f.configured }

func (f *fakeAI) GenerateRoadmap(ctx context.Context, goal, level string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.roadmap), nil
}

func (f *fakeAI) Complete(ctx context.Context, system string, turns []model.ChatTurn, jsonMode bool) (string, error) {
	f.mu.Lock()
	f.turns = turns
	f.mu.Unlock()
	return f.reply, f.err
}

func (f *fakeAI) Support(ctx context.Context, mood model.Mood, message string) (string, error) {
	return f.reply, f.err
}

type fakeMailer struct {
	to, replyTo, subject, body string
	err                        error
}

func (f *fakeMailer) Send(to, replyTo, subject, body string) error {
	f.to, f.replyTo, f.subject, f.body = to, replyTo, subject, body
	return f.err
}

type fakeObjects struct {
	key, contentType string
	data             []byte
	err              error
}

func (f *fakeObjects) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	f.key, f.contentType, f.data = key, contentType, buf.Bytes()
	return "https://cdn.test/" + key, nil
}

type fakeCache struct {
	mu          sync.Mutex
	counts      map[uint64]int64
	invalidated int
}

func newFakeCache() *fakeCache { return &fakeCache{counts: map[uint64]int64{}} }

func (c *fakeCache) GetCount(ctx context.Context, postID uint64) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.counts[postID]
	return v, ok, nil
}

func (c *fakeCache) SetCount(ctx context.Context, postID uint64, n int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[postID] = n
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, postID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, postID)
	c.invalidated++
	return nil
}

var errBoom = errors.New("boom")

var upstreamErr = errors.Join(errBoom, pkg.ErrUpstreamFailure)

type env struct {
	store *memory.Store
	feed  *pkg.Hub
	log   *logger.Logger
}

func newEnv() *env {
	return &env{store: memory.New(), feed: pkg.NewHub(), log: logger.Nop()}
}

// rawRoadmapJSON 按给定奖励（美元）生成原始路线图
func rawRoadmapJSON(rewards ...float64) string {
	type m struct {
		Title        string  `json:"title"`
		Desc         string  `json:"desc"`
		DurationDays int     `json:"duration_days"`
		RewardUSD    float64 `json:"reward_usd"`
		Deliverable  string  `json:"deliverable"`
	}
	raw := struct {
		Title      string `json:"title"`
		Milestones []m    `json:"milestones"`
	}{Title: "Backend in Go"}
	for i, r := range rewards {
		raw.Milestones = append(raw.Milestones, m{Title: "step " + string(rune('A'+i)), Desc: "d", DurationDays: 7, RewardUSD: r, Deliverable: "repo"})
	}
	b, _ := json.Marshal(raw)
	return string(b)
}
