package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Aleph-Alpha/supabase-go/internal/rest"
)

// call performs req, reports it to the observer and converts non-2xx
// responses into *Error.
func (a *AuthClient) call(ctx context.Context, req rest.Request) (*rest.Response, error) {
	start := time.Now()
	resp, err := a.rest.Do(ctx, req)

	var size int64
	if resp != nil {
		size = int64(len(resp.Body))
		if !resp.OK() {
			err = parseError(resp.StatusCode, resp.Body)
		}
	}

	a.observeOperation(req.Operation, req.Path, time.Since(start), err, size)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (a *AuthClient) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if a.logger != nil {
		a.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (a *AuthClient) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if a.logger != nil {
		a.logger.WarnWithContext(ctx, msg, err, fields)
	}
}

// redirectQuery builds "redirect_to=..." or "" for an empty target.
func redirectQuery(target string) string {
	if target == "" {
		return ""
	}
	return "redirect_to=" + url.QueryEscape(target)
}

func joinQuery(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "&")
}

func captcha(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"captcha_token": token}
}

// jwtExpiry reads the exp claim without verifying the token.
func jwtExpiry(token string) (int64, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("auth: malformed jwt")
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return 0, fmt.Errorf("auth: malformed jwt payload: %w", err)
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return 0, fmt.Errorf("auth: malformed jwt claims: %w", err)
	}
	return claims.Exp, nil
}

// cloneSession returns a deep copy of s, including user metadata.
func cloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err == nil {
		var c Session
		if err = json.Unmarshal(data, &c); err == nil {
			return &c
		}
	}
	c := *s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	return &c
}
