package feature

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/history"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// UserContextNode 在 Pipeline 开头加载用户借阅画像：
//   - rctx.Borrowed：已借阅图书，供过滤阶段使用
//   - rctx.Genres：为空时由 Profiles 解析，Profiles 失败或未设置时取借阅最多的 Size 个题材
//   - rctx.Params["profile"]：*history.Profile，供排序阶段使用
//   - 无借阅历史时写入用户 Label user_type=new
type UserContextNode struct {
	History  history.Provider
	Catalog  core.Catalog
	Profiles ProfileProvider
	Size     int
	Logger   zerolog.Logger
}

func (n *UserContextNode) Name() string        { return "feature.user_context" }
func (n *UserContextNode) Kind() pipeline.Kind { return pipeline.KindFeature }

func (n *UserContextNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil || rctx.UserID == "" {
		return items, nil
	}
	records, err := n.History.UserRecords(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	profile, err := history.BuildProfile(ctx, rctx.UserID, records, n.Catalog)
	if err != nil {
		return nil, err
	}

	rctx.MarkBorrowed(profile.Borrowed...)
	if rctx.Params == nil {
		rctx.Params = make(map[string]any)
	}
	rctx.Params[history.ParamProfile] = profile
	if profile.Empty() {
		rctx.PutLabel("user_type", utils.Label{Value: "new", Source: "feature"})
	}

	if len(rctx.Genres) == 0 {
		rctx.Genres = n.genres(ctx, rctx.UserID, profile)
	}
	return items, nil
}

func (n *UserContextNode) genres(ctx context.Context, userID string, profile *history.Profile) []string {
	size := n.Size
	if size <= 0 {
		size = history.DefaultProfileSize
	}
	if n.Profiles != nil {
		genres, err := n.Profiles.UserGenres(ctx, userID)
		if err == nil && len(genres) > 0 {
			return genres
		}
		if err != nil {
			n.Logger.Warn().Err(err).Str("user_id", userID).Msg("remote profile failed, using borrow history")
		}
	}
	return profile.TopGenres(size)
}
