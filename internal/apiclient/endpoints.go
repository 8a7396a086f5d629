package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sansoyunu/sansoyunu/pkg/types"
)

// Login exchanges credentials for a token. The caller is responsible for
// storing the returned token in the session.
func (c *Client) Login(ctx context.Context, username, password string) (*types.AuthResponse, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/auth/login/", types.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	var out types.AuthResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	return &out, nil
}

func (c *Client) Signup(ctx context.Context, req types.SignupRequest) (*types.AuthResponse, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/auth/signup/", req)
	if err != nil {
		return nil, err
	}
	var out types.AuthResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*types.User, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/me/", nil)
	if err != nil {
		return nil, err
	}
	var out types.User
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode me response: %w", err)
	}
	return &out, nil
}

func (c *Client) Rooms(ctx context.Context) ([]types.RoomListItem, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/rooms/", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[types.RoomListItem](data)
}

func (c *Client) CreateRoom(ctx context.Context, betAmount int) (*types.RoomListItem, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/rooms/", types.CreateRoomRequest{BetAmount: betAmount})
	if err != nil {
		return nil, err
	}
	var out types.RoomListItem
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode create room response: %w", err)
	}
	return &out, nil
}

func (c *Client) JoinRoom(ctx context.Context, roomID int) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/rooms/%d/join/", roomID), nil)
	return err
}

func (c *Client) Leaderboard(ctx context.Context) ([]types.LeaderboardRow, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/leaderboard/", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[types.LeaderboardRow](data)
}

func (c *Client) Transactions(ctx context.Context) ([]types.TransactionRow, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/transactions/", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[types.TransactionRow](data)
}

func (c *Client) BetSettings(ctx context.Context) (*types.BetSettings, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/admin/bet-settings/", nil)
	if err != nil {
		return nil, err
	}
	var out types.BetSettings
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode bet settings response: %w", err)
	}
	return &out, nil
}

// decodeList accepts both a bare JSON array and the paginated
// {"results": [...]} shape some deployments return.
func decodeList[T any](data []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	return page.Results, nil
}
