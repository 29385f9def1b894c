// Package e2e drives a running artpriv server through its HTTP API with godog
// scenarios. Set E2E_BASE_URL (and JWT_SIGNING_KEY when the server does not
// use the development key) to run it.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const devSigningKey = "dev-secret-key-change-in-production"

// TestContext carries one scenario's HTTP state and remembered values.
type TestContext struct {
	BaseURL    string
	SigningKey string

	client     *http.Client
	lastStatus int
	lastBody   map[string]any
	vars       map[string]string
}

func NewTestContext(baseURL, signingKey string) *TestContext {
	if signingKey == "" {
		signingKey = devSigningKey
	}
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		SigningKey: signingKey,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.vars = map[string]string{}
}

// Token signs a bearer token for role acting as subject.
func (tc *TestContext) Token(role, subject string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(10 * time.Minute).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tc.SigningKey))
}

// Do sends a JSON request. An empty token sends no Authorization header. The
// path may reference remembered values as {name}.
func (tc *TestContext) Do(method, path, token string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.BaseURL+tc.Expand(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &tc.lastBody); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func (tc *TestContext) Status() int {
	return tc.lastStatus
}

// Field resolves a dotted path such as "history.0.actor_role" in the last
// response body.
func (tc *TestContext) Field(path string) (any, error) {
	var cur any = tc.lastBody
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in response", path)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", part, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("field %q not found in response", path)
		}
	}
	return cur, nil
}

// StringField is Field for string values.
func (tc *TestContext) StringField(path string) (string, error) {
	v, err := tc.Field(path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is %T, not a string", path, v)
	}
	return s, nil
}

// ExpectStatus fails unless the last response had the given status.
func (tc *TestContext) ExpectStatus(want int) error {
	if tc.lastStatus != want {
		return fmt.Errorf("expected status %d, got %d: %v", want, tc.lastStatus, tc.lastBody)
	}
	return nil
}

func (tc *TestContext) Remember(name, value string) {
	tc.vars[name] = value
}

func (tc *TestContext) Var(name string) string {
	return tc.vars[name]
}

// Expand replaces {name} placeholders with remembered values.
func (tc *TestContext) Expand(s string) string {
	for k, v := range tc.vars {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}
