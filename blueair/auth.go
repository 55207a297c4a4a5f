package blueair

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// authSession drives the three-step federated login: a Gigya password
// grant, the identity-token exchange on the same host, and the gateway
// access-token exchange. Steps run strictly in order, each consuming
// the previous step's output; any failure aborts the sequence and
// leaves the credential store untouched.
type authSession struct {
	username string
	password string
	profile  RegionProfile

	authBase    string
	gatewayBase string

	httpClient *http.Client
	store      *CredentialStore
	validity   time.Duration
}

func (a *authSession) login(ctx context.Context) error {
	sessionToken, sessionSecret, err := a.passwordGrant(ctx)
	if err != nil {
		return err
	}

	identityToken, err := a.exchangeIdentityToken(ctx, sessionToken, sessionSecret)
	if err != nil {
		return err
	}

	accessToken, err := a.exchangeAccessToken(ctx, identityToken)
	if err != nil {
		return err
	}

	// All three steps succeeded; swap the whole set in one go. The
	// service never asserts a token lifetime, so the validity window is
	// a client-side safety margin, not a protocol fact.
	a.store.Replace(Credentials{
		SessionToken:  sessionToken,
		SessionSecret: sessionSecret,
		IdentityToken: identityToken,
		AccessToken:   accessToken,
		ExpiresAt:     a.store.clk.Now().Add(a.validity),
	})
	return nil
}

func (a *authSession) passwordGrant(ctx context.Context) (token, secret string, err error) {
	form := url.Values{
		"apikey":    {a.profile.APIKey},
		"loginID":   {a.username},
		"password":  {a.password},
		"targetEnv": {"mobile"},
	}

	payload, err := a.postForm(ctx, StepLogin, a.authBase+"/accounts.login", form)
	if err != nil {
		return "", "", err
	}

	var resp struct {
		SessionInfo struct {
			SessionToken  string `json:"sessionToken"`
			SessionSecret string `json:"sessionSecret"`
		} `json:"sessionInfo"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return "", "", a.stepFailed(StepLogin, fmt.Errorf("decode response: %w", err))
	}
	if resp.SessionInfo.SessionToken == "" || resp.SessionInfo.SessionSecret == "" {
		return "", "", a.stepFailed(StepLogin, fmt.Errorf("response missing sessionInfo tokens"))
	}

	loginSteps.WithLabelValues(StepLogin, "ok").Inc()
	return resp.SessionInfo.SessionToken, resp.SessionInfo.SessionSecret, nil
}

func (a *authSession) exchangeIdentityToken(ctx context.Context, sessionToken, sessionSecret string) (string, error) {
	form := url.Values{
		"oauth_token": {sessionToken},
		"secret":      {sessionSecret},
		"targetEnv":   {"mobile"},
	}

	payload, err := a.postForm(ctx, StepTokenExchange, a.authBase+"/accounts.getJWT", form)
	if err != nil {
		return "", err
	}

	var resp struct {
		IDToken string `json:"id_token"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return "", a.stepFailed(StepTokenExchange, fmt.Errorf("decode response: %w", err))
	}
	if resp.IDToken == "" {
		return "", a.stepFailed(StepTokenExchange, fmt.Errorf("response missing id_token"))
	}

	loginSteps.WithLabelValues(StepTokenExchange, "ok").Inc()
	return resp.IDToken, nil
}

func (a *authSession) exchangeAccessToken(ctx context.Context, identityToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.gatewayBase+"/login", nil)
	if err != nil {
		return "", a.stepFailed(StepAccessExchange, err)
	}
	setCommonHeaders(req)
	// The gateway wants the identity token both as its own header and
	// as the bearer credential.
	req.Header.Set("idtoken", identityToken)
	req.Header.Set("Authorization", "Bearer "+identityToken)

	payload, err := a.doStep(StepAccessExchange, req)
	if err != nil {
		return "", err
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return "", a.stepFailed(StepAccessExchange, fmt.Errorf("decode response: %w", err))
	}
	if resp.AccessToken == "" {
		return "", a.stepFailed(StepAccessExchange, fmt.Errorf("response missing access_token"))
	}

	loginSteps.WithLabelValues(StepAccessExchange, "ok").Inc()
	return resp.AccessToken, nil
}

func (a *authSession) postForm(ctx context.Context, step, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, a.stepFailed(step, err)
	}
	setCommonHeaders(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.doStep(step, req)
}

// doStep executes one login request. Transport failures, timeouts
// included, stay TransportError; a reachable endpoint answering badly
// is an AuthError for the step.
func (a *authSession) doStep(step string, req *http.Request) ([]byte, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		loginSteps.WithLabelValues(step, "error").Inc()
		return nil, &TransportError{Endpoint: req.URL.Host, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		loginSteps.WithLabelValues(step, "error").Inc()
		return nil, &TransportError{Endpoint: req.URL.Host, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, a.stepFailed(step, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}
	return payload, nil
}

func (a *authSession) stepFailed(step string, err error) error {
	loginSteps.WithLabelValues(step, "error").Inc()
	return &AuthError{Step: step, Err: err}
}
