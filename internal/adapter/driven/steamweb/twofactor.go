package steamweb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ericfisherdev/guardlink/internal/domain/model"
)

// AddAuthenticator registers a new authenticator bound to deviceID and
// returns the remote status together with the credential bundle the service
// issued. Interpreting the status is the application layer's job.
func (c *Client) AddAuthenticator(ctx context.Context, deviceID string) (*model.RegistrationResponse, error) {
	form := url.Values{}
	form.Set("access_token", c.session.AccessToken)
	form.Set("steamid", c.steamID())
	form.Set("authenticator_type", "1")
	form.Set("device_identifier", deviceID)
	form.Set("sms_phone_id", "1")

	raw, err := c.postForm(ctx, c.apiURL+"/ITwoFactorService/AddAuthenticator/v1/", form, false)
	if err != nil {
		return nil, err
	}

	// The credential fields arrive inline next to the status, so the
	// response object decodes directly into the credential type.
	var body struct {
		Response model.Authenticator `json:"response"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode AddAuthenticator response: %w", err)
	}
	return &model.RegistrationResponse{
		Status:        body.Response.Status,
		Authenticator: &body.Response,
	}, nil
}

// FinalizeAuthenticator submits the SMS activation code together with a
// freshly generated authenticator code and the timestamp it was generated for.
func (c *Client) FinalizeAuthenticator(ctx context.Context, activationCode, authenticatorCode string, authenticatorTime int64) (*model.ActivationResponse, error) {
	form := url.Values{}
	form.Set("steamid", c.steamID())
	form.Set("access_token", c.session.AccessToken)
	form.Set("activation_code", activationCode)
	form.Set("authenticator_code", authenticatorCode)
	form.Set("authenticator_time", strconv.FormatInt(authenticatorTime, 10))

	raw, err := c.postForm(ctx, c.apiURL+"/ITwoFactorService/FinalizeAddAuthenticator/v1/", form, false)
	if err != nil {
		return nil, err
	}

	var body struct {
		Response struct {
			Status     int   `json:"status"`
			ServerTime int64 `json:"server_time"`
			WantMore   bool  `json:"want_more"`
			Success    bool  `json:"success"`
		} `json:"response"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode FinalizeAddAuthenticator response: %w", err)
	}
	return &model.ActivationResponse{
		Status:     body.Response.Status,
		ServerTime: body.Response.ServerTime,
		WantMore:   body.Response.WantMore,
		Success:    body.Response.Success,
	}, nil
}

// QueryServerTime returns the remote service's clock as unix seconds. The
// endpoint is unauthenticated; steamid is fixed at zero.
func (c *Client) QueryServerTime(ctx context.Context) (int64, error) {
	form := url.Values{}
	form.Set("steamid", "0")

	raw, err := c.postForm(ctx, c.apiURL+"/ITwoFactorService/QueryTime/v1/", form, false)
	if err != nil {
		return 0, err
	}

	var body struct {
		Response struct {
			ServerTime int64 `json:"server_time"`
		} `json:"response"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, fmt.Errorf("decode QueryTime response: %w", err)
	}
	return body.Response.ServerTime, nil
}
