package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/tidwall/gjson"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/biz"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/conf"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/domain"
)

var (
	_ biz.ContextRepo  = (*BackendRepo)(nil)
	_ biz.SummaryRepo  = (*BackendRepo)(nil)
	_ biz.ExerciseRepo = (*BackendRepo)(nil)
)

// backendClient 后端 HTTP 调用，由 httpclient.BaseClient 实现
type backendClient interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Post(ctx context.Context, path string, body interface{}) ([]byte, error)
}

// BackendRepo 后端 HTTP 接口的仓储实现
type BackendRepo struct {
	client    backendClient
	endpoints conf.Endpoints
	log       *log.Helper
}

// NewBackendRepo 创建后端仓储
func NewBackendRepo(d *Data, c *conf.Backend, logger log.Logger) *BackendRepo {
	return newBackendRepo(d.backend, c.Endpoints, logger)
}

func newBackendRepo(client backendClient, endpoints conf.Endpoints, logger log.Logger) *BackendRepo {
	return &BackendRepo{
		client:    client,
		endpoints: endpoints,
		log:       log.NewHelper(log.With(logger, "module", "data/backend")),
	}
}

type uidBody struct {
	UID string `json:"uid"`
}

type saveNameBody struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

type saveSummaryBody struct {
	UID     string              `json:"uid"`
	Summary domain.SavedSummary `json:"summary"`
}

type saveExercisesBody struct {
	UID         string          `json:"uid"`
	ExerciseIDs json.RawMessage `json:"exerciseIds"`
}

// userPath 替换路径中的 {uid}
func userPath(tpl, uid string) string {
	return strings.ReplaceAll(tpl, "{uid}", url.PathEscape(uid))
}

func jsonBody(endpoint string, body []byte) (json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: invalid json response", endpoint)
	}
	return json.RawMessage(body), nil
}

// GetUser 获取用户名和最近一次会话总结
func (r *BackendRepo) GetUser(ctx context.Context, uid string) (*domain.UserRecord, error) {
	body, err := r.client.Get(ctx, userPath(r.endpoints.User, uid))
	if err != nil {
		return nil, err
	}
	if _, err := jsonBody(r.endpoints.User, body); err != nil {
		return nil, err
	}

	res := gjson.ParseBytes(body)
	user := &domain.UserRecord{Name: res.Get("name").String()}
	if sd := res.Get("latestSummary.summary_data"); sd.Exists() && sd.Type != gjson.Null {
		user.SummaryData = json.RawMessage(sd.Raw)
	}
	return user, nil
}

// GetRecentContext 获取近期活动 {"summaries":[...]}
func (r *BackendRepo) GetRecentContext(ctx context.Context, uid string) (json.RawMessage, error) {
	body, err := r.client.Post(ctx, r.endpoints.RecentContext, uidBody{UID: uid})
	if err != nil {
		return nil, err
	}
	return jsonBody(r.endpoints.RecentContext, body)
}

// GetWeeklyArchives 获取周训练归档 {"archives":[...]}
func (r *BackendRepo) GetWeeklyArchives(ctx context.Context, uid string, limit int) (json.RawMessage, error) {
	path := userPath(r.endpoints.WeeklyArchives, uid)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	body, err := r.client.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return jsonBody(r.endpoints.WeeklyArchives, body)
}

// GetUserProfile 获取用户画像 {"exists":bool,"profile":{...}}
func (r *BackendRepo) GetUserProfile(ctx context.Context, uid string) (json.RawMessage, error) {
	body, err := r.client.Get(ctx, userPath(r.endpoints.UserProfile, uid))
	if err != nil {
		return nil, err
	}
	return jsonBody(r.endpoints.UserProfile, body)
}

// SaveName 保存从对话中识别出的用户名
func (r *BackendRepo) SaveName(ctx context.Context, uid, name string) error {
	_, err := r.client.Post(ctx, r.endpoints.SaveName, saveNameBody{UID: uid, Name: name})
	return err
}

// GetPreviousSummary 获取上一次会话总结文本，没有时返回空串
func (r *BackendRepo) GetPreviousSummary(ctx context.Context, uid string) (string, error) {
	body, err := r.client.Get(ctx, userPath(r.endpoints.GetSummary, uid))
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "latestSummary.summary_data.summary").String(), nil
}

// SaveSummary 保存会话总结
func (r *BackendRepo) SaveSummary(ctx context.Context, uid string, summary domain.SavedSummary) error {
	_, err := r.client.Post(ctx, r.endpoints.SaveSummary, saveSummaryBody{UID: uid, Summary: summary})
	if err != nil {
		return err
	}
	r.log.WithContext(ctx).Infof("summary saved for %s", uid)
	return nil
}

// SaveExercises 保存推荐训练动作 ID 列表
func (r *BackendRepo) SaveExercises(ctx context.Context, uid string, exerciseIDs json.RawMessage) error {
	_, err := r.client.Post(ctx, r.endpoints.SaveExercises, saveExercisesBody{UID: uid, ExerciseIDs: exerciseIDs})
	return err
}
