package clients

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"time"

	sdklog "github.com/gwos/zbxctl/sdk/log"
	"github.com/hashicorp/go-uuid"
)

// Define environment and header names
const (
	EnvHttpClientTimeout = "ZBX_HTTP_CLIENT_TIMEOUT"
	EnvTlsClientInsecure = "ZBX_TLS_CLIENT_INSECURE"

	HdrRequestID = "X-Request-Id"

	defaultClientTimeout = 10 * time.Second
)

// HttpClientTransport is shared by API clients without own http.Client
var HttpClientTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	TLSClientConfig: &tls.Config{
		InsecureSkipVerify: envBool(EnvTlsClientInsecure),
	},
}

// HttpClient is used by Req if no client set
var HttpClient = &http.Client{
	Timeout:   envDuration(EnvHttpClientTimeout, defaultClientTimeout),
	Transport: HttpClientTransport,
}

// HookRequestContext is called on each request before sending,
// replaced with tracing propagation on init
var HookRequestContext = func(ctx context.Context, req *http.Request) (context.Context, *http.Request) {
	return ctx, req
}

// secretRe matches user.login params, session tokens and login results
var secretRe = regexp.MustCompile(`("(?i:password|auth|result)"\s*:\s*)"(?:[^"\\]|\\.)*"`)

func envBool(env string) bool {
	v, err := strconv.ParseBool(os.Getenv(env))
	return err == nil && v
}

func envDuration(env string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(env)); err == nil && v > 0 {
		return v
	}
	return def
}

// Req defines request context
type Req struct {
	Err       error
	Headers   map[string]string
	Method    string
	Payload   []byte
	RequestID string
	Response  []byte
	Status    int
	URL       string

	client   *http.Client
	duration time.Duration
}

// SetClient sets http.Client to use
func (q *Req) SetClient(c *http.Client) *Req {
	q.client = c
	return q
}

// SendWithContext sends request and keeps response in Req.
// Status is -1 if no response received.
func (q *Req) SendWithContext(ctx context.Context) error {
	var body io.Reader
	if q.Payload != nil {
		body = bytes.NewReader(q.Payload)
	}
	request, err := http.NewRequestWithContext(ctx, q.Method, q.URL, body)
	if err != nil {
		return q.fail(err)
	}
	for k, v := range q.Headers {
		request.Header.Set(k, v)
	}
	if q.RequestID = request.Header.Get(HdrRequestID); q.RequestID == "" {
		if q.RequestID, err = uuid.GenerateUUID(); err == nil {
			request.Header.Set(HdrRequestID, q.RequestID)
		}
	}
	_, request = HookRequestContext(ctx, request)

	client := q.client
	if client == nil {
		client = HttpClient
	}
	t0 := time.Now()
	response, err := client.Do(request)
	q.duration = time.Since(t0).Truncate(time.Millisecond)
	if err != nil {
		return q.fail(err)
	}
	defer response.Body.Close()

	q.Response, err = io.ReadAll(response.Body)
	if err != nil {
		return q.fail(err)
	}
	q.Status = response.StatusCode
	return nil
}

func (q *Req) fail(err error) error {
	q.Status, q.Err = -1, err
	return err
}

// Details returns log attributes including payloads
func (q Req) Details() []slog.Attr {
	return q.logAttrs(true)
}

// LogAttrs returns log attributes, payloads are added for errors and debug level
func (q Req) LogAttrs() []slog.Attr {
	return q.logAttrs(false)
}

func (q Req) logAttrs(withPayloads bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("url", q.URL),
		slog.String("requestID", q.RequestID),
		slog.Int("status", q.Status),
		slog.Duration("duration", q.duration),
	}
	if q.Err != nil {
		attrs = append(attrs, slog.String("error", q.Err.Error()))
	}
	if !withPayloads && q.Status < 400 &&
		!sdklog.Logger.Enabled(context.Background(), slog.LevelDebug) {
		return attrs
	}
	if len(q.Payload) > 0 {
		attrs = append(attrs, payloadAttr("payload", q.Payload))
	}
	if len(q.Response) > 0 {
		attrs = append(attrs, payloadAttr("response", q.Response))
	}
	return attrs
}

func payloadAttr(key string, p []byte) slog.Attr {
	masked := maskSecrets(p)
	if json.Valid(masked) {
		return slog.Any(key, json.RawMessage(masked))
	}
	return slog.String(key, string(masked))
}

func maskSecrets(p []byte) []byte {
	return secretRe.ReplaceAll(p, []byte(`${1}"***"`))
}
