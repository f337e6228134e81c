package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region client

// Client calls a remote ControllerService.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient connects to the controller at addr.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Call invokes method with the given fields and returns the decoded response.
func (c *Client) Call(ctx context.Context, method string, fields map[string]any) (map[string]any, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", method, err)
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp); err != nil {
		return nil, fmt.Errorf("%s rpc: %w", method, err)
	}
	return resp.AsMap(), nil
}

// #endregion client

// #region typed

// DifficultyAtDepth returns the final difficulty multiplier at depth.
func (c *Client) DifficultyAtDepth(ctx context.Context, depth float64) (float64, error) {
	out, err := c.Call(ctx, "DifficultyAtDepth", map[string]any{"depth": depth})
	if err != nil {
		return 0, err
	}
	d, _ := out["difficulty"].(float64)
	return d, nil
}

// RecordDeath reports a player death.
func (c *Client) RecordDeath(ctx context.Context, depth float64, cause string) error {
	_, err := c.Call(ctx, "RecordDeath", map[string]any{"depth": depth, "cause": cause})
	return err
}

// ApplyDeathPenalty runs the staged penalty flow and returns the report.
func (c *Client) ApplyDeathPenalty(ctx context.Context, depth float64, cause string) (map[string]any, error) {
	return c.Call(ctx, "ApplyDeathPenalty", map[string]any{"depth": depth, "cause": cause})
}

// Status returns the engine status.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	return c.Call(ctx, "Status", nil)
}

// #endregion typed
