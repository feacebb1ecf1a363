package feast

import (
	"context"
	"errors"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/feast-dev/feast/sdk/go/protos/feast/types"
)

// DefaultPort 是 Feast Serving 的默认 gRPC 端口
const DefaultPort = 6565

// GrpcClient 是基于官方 Feast Go SDK 的 gRPC 客户端实现。
type GrpcClient struct {
	client   *feastsdk.GrpcClient
	project  string
	endpoint string
	timeout  time.Duration
}

var _ Client = (*GrpcClient)(nil)

// NewGrpcClient 创建 gRPC 客户端。port 为 0 时使用 6565。
func NewGrpcClient(host string, port int, project string, opts ...ClientOption) (*GrpcClient, error) {
	if port == 0 {
		port = DefaultPort
	}
	config := &ClientConfig{
		Endpoint: fmt.Sprintf("%s:%d", host, port),
		Project:  project,
		Timeout:  time.Second,
	}
	for _, opt := range opts {
		opt(config)
	}

	var (
		client *feastsdk.GrpcClient
		err    error
	)
	if config.Token != "" {
		client, err = feastsdk.NewSecureGrpcClient(host, port, feastsdk.SecurityConfig{
			EnableTLS:  config.TLS,
			Credential: feastsdk.NewStaticCredential(config.Token),
		})
	} else {
		client, err = feastsdk.NewGrpcClient(host, port)
	}
	if err != nil {
		return nil, fmt.Errorf("feast: dial %s: %w", config.Endpoint, err)
	}

	return &GrpcClient{
		client:   client,
		project:  project,
		endpoint: config.Endpoint,
		timeout:  config.Timeout,
	}, nil
}

func (c *GrpcClient) GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	if len(req.Features) == 0 {
		return nil, errors.New("feast: features are required")
	}
	if len(req.EntityRows) == 0 {
		return nil, errors.New("feast: entity rows are required")
	}
	project := req.Project
	if project == "" {
		project = c.project
	}
	if project == "" {
		return nil, errors.New("feast: project is required")
	}

	entities := make([]feastsdk.Row, len(req.EntityRows))
	for i, row := range req.EntityRows {
		entities[i] = toSDKRow(row)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	sdkResp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: req.Features,
		Entities: entities,
		Project:  project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast: get online features: %w", err)
	}

	rows := sdkResp.Rows()
	if len(rows) != len(req.EntityRows) {
		return nil, fmt.Errorf("feast: response row count mismatch: expected %d, got %d", len(req.EntityRows), len(rows))
	}
	vectors := make([]FeatureVector, len(rows))
	for i, row := range rows {
		values := make(map[string]any, len(req.Features))
		for _, name := range req.Features {
			if v := fromSDKValue(row[name]); v != nil {
				values[name] = v
			}
		}
		vectors[i] = FeatureVector{Values: values, EntityRow: req.EntityRows[i]}
	}
	return &GetOnlineFeaturesResponse{FeatureVectors: vectors}, nil
}

// Close 释放客户端。SDK 未暴露连接关闭方法，连接由 gRPC 管理。
func (c *GrpcClient) Close() error {
	c.client = nil
	return nil
}

func toSDKRow(row map[string]any) feastsdk.Row {
	out := make(feastsdk.Row, len(row))
	for k, v := range row {
		switch val := v.(type) {
		case string:
			out[k] = feastsdk.StrVal(val)
		case int:
			out[k] = feastsdk.Int64Val(int64(val))
		case int64:
			out[k] = feastsdk.Int64Val(val)
		case int32:
			out[k] = feastsdk.Int32Val(val)
		case float64:
			out[k] = feastsdk.DoubleVal(val)
		case float32:
			out[k] = feastsdk.FloatVal(val)
		case bool:
			out[k] = feastsdk.BoolVal(val)
		case []byte:
			out[k] = feastsdk.BytesVal(val)
		default:
			out[k] = feastsdk.StrVal(fmt.Sprintf("%v", val))
		}
	}
	return out
}

// fromSDKValue 把 *types.Value 转为 Go 值；未设置的值返回 nil。
func fromSDKValue(v *types.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.GetVal().(type) {
	case *types.Value_StringVal:
		return val.StringVal
	case *types.Value_Int64Val:
		return float64(val.Int64Val)
	case *types.Value_Int32Val:
		return float64(val.Int32Val)
	case *types.Value_DoubleVal:
		return val.DoubleVal
	case *types.Value_FloatVal:
		return float64(val.FloatVal)
	case *types.Value_BoolVal:
		return val.BoolVal
	case *types.Value_BytesVal:
		return string(val.BytesVal)
	case *types.Value_StringListVal:
		return append([]string(nil), val.StringListVal.GetVal()...)
	case *types.Value_DoubleListVal:
		return append([]float64(nil), val.DoubleListVal.GetVal()...)
	default:
		return nil
	}
}
