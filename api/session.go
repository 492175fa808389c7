package api

import (
	"context"
	"errors"
)

const userPath = "/user"

// Credentials identify an account.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionAPI logs users in and out. Responses from /session are never fatal on
// their ret code, so failures are surfaced here as *LoginError.
type SessionAPI struct {
	client *Client
}

// NewSessionAPI creates a session API on top of c.
func NewSessionAPI(c *Client) *SessionAPI {
	return &SessionAPI{client: c}
}

// Login opens a session. A non-zero ret is returned as *LoginError; the
// payload carries the session details otherwise.
func (s *SessionAPI) Login(ctx context.Context, creds Credentials) (Payload, error) {
	res, err := s.client.Post(ctx, sessionPath, creds)
	if err != nil {
		return nil, err
	}
	if ret, ok := res.Data.Ret(); ok && ret != RetOK {
		status, _ := res.Data.Status()
		return nil, &LoginError{Ret: ret, Status: status}
	}
	return res.Data, nil
}

// Logout closes the current session.
func (s *SessionAPI) Logout(ctx context.Context) error {
	res, err := s.client.Post(ctx, sessionPath, map[string]string{"action": "Logout"})
	if err != nil {
		return err
	}
	if ret, ok := res.Data.Ret(); ok && ret != RetOK {
		status, _ := res.Data.Status()
		return &LoginError{Ret: ret, Status: status}
	}
	return nil
}

// SignUpRequest is the body sent to create an account.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstname,omitempty"`
	LastName  string `json:"lastname,omitempty"`
}

// UserAPI manages accounts.
type UserAPI struct {
	client *Client
}

// NewUserAPI creates a user API on top of c.
func NewUserAPI(c *Client) *UserAPI {
	return &UserAPI{client: c}
}

// SignUp creates an account. A refusal by the backend is returned as
// *SignUpError wrapping the *APIError; transport and HTTP failures are returned
// unchanged.
func (u *UserAPI) SignUp(ctx context.Context, req SignUpRequest) (Payload, error) {
	res, err := u.client.Put(ctx, userPath, req)
	if err == nil {
		return res.Data, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != KindApplication {
		return nil, err
	}
	ret, _ := apiErr.Ret()
	status, _ := apiErr.Response.Body.Status()
	return nil, &SignUpError{Ret: ret, Status: status, Cause: apiErr}
}
