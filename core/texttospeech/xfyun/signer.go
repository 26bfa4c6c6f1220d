package xfyun

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const DefaultEndpoint = "wss://tts-api.xfyun.cn/v2/tts"

var ErrMissingCredentials = errors.New("missing xunfei tts credentials")

// Credentials identify an application on the Xunfei open platform.
type Credentials struct {
	AppID     string
	APIKey    string
	APISecret string
}

func (c Credentials) Complete() bool {
	return c.AppID != "" && c.APIKey != "" && c.APISecret != ""
}

// SignedURL is a short-lived, pre-authorized synthesis websocket address.
type SignedURL struct {
	URL   string `json:"url"`
	AppID string `json:"app_id"`
}

// Signer produces HMAC-SHA256 signed websocket URLs for the synthesis API.
type Signer struct {
	credentials Credentials
	endpoint    *url.URL
	now         func() time.Time
}

type SignerOption func(*Signer)

// WithEndpoint points the signer at another synthesis endpoint. The host of
// the endpoint takes part in the signature.
func WithEndpoint(endpoint string) SignerOption {
	return func(s *Signer) {
		if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
			s.endpoint = parsed
		}
	}
}

func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSigner(credentials Credentials, opts ...SignerOption) *Signer {
	endpoint, _ := url.Parse(DefaultEndpoint)
	signer := &Signer{credentials: credentials, endpoint: endpoint, now: time.Now}
	for _, opt := range opts {
		opt(signer)
	}
	return signer
}

func (s *Signer) AppID() string {
	return s.credentials.AppID
}

func (s *Signer) Sign() (SignedURL, error) {
	if !s.credentials.Complete() {
		return SignedURL{}, ErrMissingCredentials
	}

	host := s.endpoint.Host
	date := s.now().UTC().Format(http.TimeFormat)
	requestLine := fmt.Sprintf("GET %s HTTP/1.1", s.endpoint.Path)

	mac := hmac.New(sha256.New, []byte(s.credentials.APISecret))
	fmt.Fprintf(mac, "host: %s\ndate: %s\n%s", host, date, requestLine)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	authorization := fmt.Sprintf(`api_key="%s", algorithm="%s", headers="%s", signature="%s"`,
		s.credentials.APIKey, "hmac-sha256", "host date request-line", signature)

	signed := *s.endpoint
	signed.RawQuery = url.Values{
		"authorization": {base64.StdEncoding.EncodeToString([]byte(authorization))},
		"date":          {date},
		"host":          {host},
	}.Encode()

	return SignedURL{URL: signed.String(), AppID: s.credentials.AppID}, nil
}
