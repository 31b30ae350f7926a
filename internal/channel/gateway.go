// internal/channel/gateway.go
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultSendTimeout = 30 * time.Second

// Gateway sends SMS through a Twilio-compatible REST API.
type Gateway struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string

	HTTPClient *http.Client
	Log        zerolog.Logger
}

func NewGateway(accountSID, authToken, from, baseURL string, log zerolog.Logger) *Gateway {
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	return &Gateway{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultSendTimeout},
		Log:        log,
	}
}

type gatewayResponse struct {
	SID     string `json:"sid"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (g *Gateway) Send(ctx context.Context, destination, body string) (string, error) {
	form := url.Values{}
	form.Set("To", destination)
	form.Set("From", g.From)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", g.BaseURL, g.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &Error{Kind: KindUnknown, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(g.AccountSID, g.AuthToken)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindUnknown, Message: err.Error()}
	}
	defer resp.Body.Close()

	var parsed gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &Error{Kind: KindUnknown, Message: fmt.Sprintf("malformed gateway response: %v", err)}
	}

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusUnauthorized && parsed.Code == 0 {
			parsed.Code = 20003
		}
		gwErr := NewError(parsed.Code, parsed.Message)
		g.Log.Warn().
			Int("status", resp.StatusCode).
			Int("code", parsed.Code).
			Str("kind", string(gwErr.Kind)).
			Msg("gateway rejected message")
		return "", gwErr
	}

	return parsed.SID, nil
}

var _ Channel = (*Gateway)(nil)
