package jellyfin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// User identifies a server account.
type User struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// Users lists all server accounts. Both the bare array and the
// {"Items": [...]} container forms are accepted.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/Users", nil, nil, &raw); err != nil {
		return nil, err
	}

	var users []User
	if err := json.Unmarshal(raw, &users); err == nil {
		return filterUsers(users), nil
	}

	var container struct {
		Items []User `json:"Items"`
	}
	if err := json.Unmarshal(raw, &container); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return filterUsers(container.Items), nil
}

func filterUsers(users []User) []User {
	filtered := users[:0]
	for _, u := range users {
		if u.ID != "" && u.Name != "" {
			filtered = append(filtered, u)
		}
	}
	return filtered
}

// UserPolicy reads a user's access policy. The dedicated /Users/{id}/Policy
// endpoint is tried first; older servers only embed the policy in the user
// object, so /Users/{id} serves as the fallback.
func (c *Client) UserPolicy(ctx context.Context, userID string) (Policy, error) {
	path := fmt.Sprintf("/Users/%s/Policy", url.PathEscape(userID))

	var policy Policy
	policyErr := c.doJSON(ctx, http.MethodGet, path, nil, nil, &policy)
	if policyErr == nil && len(policy) > 0 {
		return policy, nil
	}

	var user struct {
		Policy Policy `json:"Policy"`
	}
	userPath := fmt.Sprintf("/Users/%s", url.PathEscape(userID))
	if err := c.doJSON(ctx, http.MethodGet, userPath, nil, nil, &user); err != nil {
		if policyErr != nil {
			return nil, fmt.Errorf("read policy for user %s: %w", userID, policyErr)
		}
		return nil, fmt.Errorf("read policy for user %s: %w", userID, err)
	}
	if len(user.Policy) == 0 {
		return nil, fmt.Errorf("user %s has no readable policy", userID)
	}
	return user.Policy, nil
}

// WriteOutcome tags how a policy write landed.
type WriteOutcome int

const (
	// WriteApplied means the PUT succeeded.
	WriteApplied WriteOutcome = iota
	// WriteFallback means the server refused PUT with 405 and the POST retry
	// succeeded.
	WriteFallback
)

// UpdatePolicy writes a user's policy back. Some Jellyfin versions reject PUT
// on /Users/{id}/Policy and require POST; a 405 triggers exactly one retry
// with the identical body. Any other failure is returned as-is.
func (c *Client) UpdatePolicy(ctx context.Context, userID string, policy Policy) (WriteOutcome, error) {
	path := fmt.Sprintf("/Users/%s/Policy", url.PathEscape(userID))

	err := c.doJSON(ctx, http.MethodPut, path, nil, policy, nil)
	if err == nil {
		return WriteApplied, nil
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusMethodNotAllowed {
		return 0, err
	}

	c.logger.Debug("policy PUT not allowed, retrying with POST", "user", userID)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, policy, nil); err != nil {
		return 0, err
	}
	return WriteFallback, nil
}
