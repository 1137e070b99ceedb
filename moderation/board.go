package moderation

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"

	"github.com/rushteam/shoprec/core"
)

// DefaultAuthor 是未指定作者时使用的名字。
const DefaultAuthor = "You"

// Comment 是一条商品评论。
type Comment struct {
	ID        string    `json:"id"`
	ProductID int64     `json:"productId"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}

// Board 管理商品评论：发布前经过毒性检查，评论按时间倒序列出。
// 传入 Store 时评论会以 JSON 数组持久化在 comments:<productID> 下。
type Board struct {
	guard *Guard
	store core.Store
	now   func() time.Time

	mu       sync.Mutex
	entropy  *ulid.MonotonicEntropy
	comments map[int64][]Comment
}

// NewBoard 创建评论板；store 可以为 nil。
func NewBoard(guard *Guard, store core.Store) *Board {
	return &Board{
		guard:    guard,
		store:    store,
		now:      time.Now,
		entropy:  ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0), //nolint:gosec // ulid 熵源
		comments: make(map[int64][]Comment),
	}
}

func commentsKey(productID int64) string {
	return "comments:" + strconv.FormatInt(productID, 10)
}

// newID 生成 ULID；同一毫秒内的 id 仍然单调递增。调用方持有 b.mu。
func (b *Board) newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), b.entropy).String()
}

// Post 发布评论。
//
//   - 去掉首尾空白后为空：ErrEmptyComment
//   - 分类器不可用：ErrOracleUnavailable（评论不会被保存）
//   - 判定有毒：ErrCommentRejected
func (b *Board) Post(ctx context.Context, productID int64, author, text string) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}

	toxic, err := b.guard.Check(ctx, text)
	if err != nil {
		return nil, err
	}
	if toxic {
		return nil, ErrCommentRejected
	}

	if author == "" {
		author = DefaultAuthor
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := b.loadLocked(ctx, productID)
	if err != nil {
		return nil, err
	}

	now := b.now()
	c := Comment{
		ID:        b.newID(now),
		ProductID: productID,
		Author:    author,
		Text:      text,
		CreatedAt: now,
	}
	updated := append([]Comment{c}, existing...)

	if b.store != nil {
		data, err := json.Marshal(updated)
		if err != nil {
			return nil, fmt.Errorf("encode comments: %w", err)
		}
		if err := b.store.Set(ctx, commentsKey(productID), data); err != nil {
			return nil, fmt.Errorf("save comments: %w", err)
		}
	}
	b.comments[productID] = updated
	return &c, nil
}

// List 返回商品的评论，最新的在前。
func (b *Board) List(ctx context.Context, productID int64) ([]Comment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	comments, err := b.loadLocked(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]Comment, len(comments))
	copy(out, comments)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (b *Board) loadLocked(ctx context.Context, productID int64) ([]Comment, error) {
	if cached, ok := b.comments[productID]; ok || b.store == nil {
		return cached, nil
	}
	data, err := b.store.Get(ctx, commentsKey(productID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			b.comments[productID] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("load comments: %w", err)
	}
	var comments []Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	b.comments[productID] = comments
	return comments, nil
}
