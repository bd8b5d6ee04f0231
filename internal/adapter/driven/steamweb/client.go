// Package steamweb implements the AccountClient port against the remote
// account service's form-encoded HTTP endpoints.
package steamweb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/guardlink/internal/domain/model"
	"github.com/ericfisherdev/guardlink/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountClient = (*Client)(nil)

const (
	defaultCommunityURL = "https://steamcommunity.com"
	defaultAPIURL       = "https://api.steampowered.com"

	// maxResponseBytes bounds response bodies; every endpoint here returns a
	// small JSON document.
	maxResponseBytes = 1 << 20
)

// Client implements the driven.AccountClient port. Community endpoints
// authenticate via session cookies; two-factor service endpoints carry the
// access token as a form field.
type Client struct {
	http         *http.Client
	communityURL string
	apiURL       string
	session      model.Session
}

// NewClient creates a Client against the production hosts.
func NewClient(session model.Session, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:         &http.Client{Timeout: timeout},
		communityURL: defaultCommunityURL,
		apiURL:       defaultAPIURL,
		session:      session,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URLs. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, communityURL, apiURL string, session model.Session) (*Client, error) {
	for _, raw := range []string{communityURL, apiURL} {
		if _, err := url.Parse(raw); err != nil {
			return nil, fmt.Errorf("parsing base URL %q: %w", raw, err)
		}
	}
	return &Client{
		http:         httpClient,
		communityURL: strings.TrimRight(communityURL, "/"),
		apiURL:       strings.TrimRight(apiURL, "/"),
		session:      session,
	}, nil
}

// HasPhoneNumber reports whether the account has a phone number attached.
func (c *Client) HasPhoneNumber(ctx context.Context) (bool, error) {
	raw, err := c.phoneAjax(ctx, "has_phone", "null", nil)
	if err != nil {
		return false, err
	}

	var body struct {
		HasPhone bool `json:"has_phone"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return false, fmt.Errorf("decode has_phone response: %w", err)
	}
	return body.HasPhone, nil
}

// AddPhoneNumber asks the remote service to attach the given number to the
// account. Success triggers a confirmation email to the account owner.
func (c *Client) AddPhoneNumber(ctx context.Context, number string) error {
	ok, err := c.phoneAjaxSuccess(ctx, "add_phone_number", number, nil)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("add_phone_number rejected for %q", number)
	}
	return nil
}

// IsEmailConfirmed reports whether the phone-add confirmation email has been
// acted on. A false return is a pending state, not a transport failure.
func (c *Client) IsEmailConfirmed(ctx context.Context) (bool, error) {
	return c.phoneAjaxSuccess(ctx, "email_confirmation", "", nil)
}

// CheckSMSCode reports whether the given SMS code verifies the pending phone
// registration.
func (c *Client) CheckSMSCode(ctx context.Context, code string) (bool, error) {
	extra := url.Values{}
	extra.Set("checkfortos", "0")
	extra.Set("skipvoip", "1")
	return c.phoneAjaxSuccess(ctx, "check_sms_code", code, extra)
}

// GetResetOptions returns which authenticator recovery paths the account may use.
func (c *Client) GetResetOptions(ctx context.Context) (*model.ResetOptions, error) {
	form := url.Values{}
	form.Set("donotcache", donotcache())

	raw, err := c.postForm(ctx, c.communityURL+"/login/getresetoptions/", form, true)
	if err != nil {
		return nil, err
	}

	var body struct {
		Success bool `json:"success"`
		Options struct {
			SMS struct {
				Allowed    bool   `json:"allowed"`
				LastDigits string `json:"last_digits"`
			} `json:"sms"`
		} `json:"options"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode reset options: %w", err)
	}
	if !body.Success {
		return nil, fmt.Errorf("getresetoptions reported failure")
	}
	return &model.ResetOptions{
		SMSAllowed: body.Options.SMS.Allowed,
		LastDigits: body.Options.SMS.LastDigits,
	}, nil
}

// StartAuthenticatorReset asks the remote service to send the reset SMS.
func (c *Client) StartAuthenticatorReset(ctx context.Context) error {
	form := url.Values{}
	form.Set("donotcache", donotcache())

	raw, err := c.postForm(ctx, c.communityURL+"/login/startremovetwofactor/", form, true)
	if err != nil {
		return err
	}

	var body struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return fmt.Errorf("decode startremovetwofactor response: %w", err)
	}
	if !body.Success {
		return fmt.Errorf("startremovetwofactor reported failure")
	}
	return nil
}

// FinishAuthenticatorReset submits the reset SMS code and returns the
// replacement token embedding the new credential.
func (c *Client) FinishAuthenticatorReset(ctx context.Context, smsCode string) (string, error) {
	form := url.Values{}
	form.Set("donotcache", donotcache())
	form.Set("reset", "1")
	form.Set("smscode", smsCode)

	raw, err := c.postForm(ctx, c.communityURL+"/login/removetwofactor/", form, true)
	if err != nil {
		return "", err
	}

	var body struct {
		Success          bool   `json:"success"`
		ReplacementToken string `json:"replacement_token"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("decode removetwofactor response: %w", err)
	}
	if !body.Success {
		return "", fmt.Errorf("removetwofactor reported failure")
	}
	if body.ReplacementToken == "" {
		return "", fmt.Errorf("removetwofactor returned no replacement token")
	}
	return body.ReplacementToken, nil
}

// phoneAjaxSuccess runs a phoneajax operation whose response carries only a
// success flag.
func (c *Client) phoneAjaxSuccess(ctx context.Context, op, arg string, extra url.Values) (bool, error) {
	raw, err := c.phoneAjax(ctx, op, arg, extra)
	if err != nil {
		return false, err
	}

	var body struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return false, fmt.Errorf("decode %s response: %w", op, err)
	}
	return body.Success, nil
}

// phoneAjax performs one /steamguard/phoneajax operation.
func (c *Client) phoneAjax(ctx context.Context, op, arg string, extra url.Values) ([]byte, error) {
	form := url.Values{}
	form.Set("op", op)
	form.Set("arg", arg)
	form.Set("sessionid", c.session.SessionID)
	for key, vals := range extra {
		for _, v := range vals {
			form.Add(key, v)
		}
	}
	return c.postForm(ctx, c.communityURL+"/steamguard/phoneajax", form, true)
}

// postForm issues one form-encoded POST and returns the raw response body.
// withCookies attaches the community session cookies; the two-factor service
// endpoints authenticate via the access_token form field instead.
func (c *Client) postForm(ctx context.Context, rawURL string, form url.Values, withCookies bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	if withCookies {
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: c.session.SessionID})
		req.AddCookie(&http.Cookie{
			Name:  "steamLoginSecure",
			Value: c.steamID() + "%7C%7C" + url.QueryEscape(c.session.AccessToken),
		})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	slog.Debug("remote call", "url", rawURL, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("post %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", rawURL, err)
	}
	return body, nil
}

func (c *Client) steamID() string {
	return strconv.FormatUint(c.session.SteamID, 10)
}

// donotcache is the cache-busting millisecond timestamp the community
// endpoints expect on every request.
func donotcache() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
