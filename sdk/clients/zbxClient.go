package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	tcgerr "github.com/gwos/zbxctl/sdk/errors"
	sdklog "github.com/gwos/zbxctl/sdk/log"
	"github.com/patrickmn/go-cache"
)

// Define API constants
const (
	ZabbixEntrypoint = "/api_jsonrpc.php"
	JSONRPCVersion   = "2.0"
	ContentType      = "application/json-rpc"

	MethodUserLogin  = "user.login"
	MethodUserLogout = "user.logout"

	DefaultTokenTTL = 15 * time.Minute

	ckToken = "token"
)

// ResponseFields lists the result properties CallField can extract
var ResponseFields = []string{"maintenanceid", "name", "hostid", "groupid"}

// ZabbixConnection defines Zabbix API connection configuration
type ZabbixConnection struct {
	// APIURL accepts "host[:port]" or full URL of the API endpoint
	APIURL   string `env:"APIURL" yaml:"apiUrl"`
	UserName string `env:"USERNAME" yaml:"userName"`
	Password string `env:"PASSWORD" yaml:"password"`
	// CredentialsFile points to a pre-built user.login request
	// sent as is, takes precedence over UserName and Password
	CredentialsFile string        `env:"CREDENTIALSFILE" yaml:"credentialsFile"`
	AppName         string        `env:"APPNAME" yaml:"appName"`
	TokenTTL        time.Duration `env:"TOKENTTL" yaml:"tokenTTL"`

	Credentials []byte `yaml:"-"`
}

// AuthToken defines session token with the id of login response
type AuthToken struct {
	Token string
	ID    any
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	Auth    string `json:"auth,omitempty"`
	ID      any    `json:"id"`
}

type rpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	Result  json.RawMessage  `json:"result"`
	Error   *tcgerr.RPCError `json:"error,omitempty"`
	ID      any              `json:"id"`
}

// ZabbixClient implements Zabbix API operations
type ZabbixClient struct {
	*ZabbixConnection
	HTTPClient *http.Client

	once   sync.Once
	tokens *cache.Cache
	uriAPI string
}

// NewZabbixClient returns client for connection
func NewZabbixClient(conn *ZabbixConnection) *ZabbixClient {
	return &ZabbixClient{ZabbixConnection: conn}
}

func (client *ZabbixClient) init() {
	client.once.Do(func() {
		ttl := client.TokenTTL
		if ttl <= 0 {
			ttl = DefaultTokenTTL
		}
		client.tokens = cache.New(ttl, ttl)
		client.uriAPI = buildURI(client.APIURL)
	})
}

// OwnsSession returns true if the login request is built from UserName and Password
func (client *ZabbixClient) OwnsSession() bool {
	return len(client.Credentials) == 0 && client.UserName != ""
}

func (client *ZabbixClient) loginPayload() ([]byte, error) {
	if len(client.Credentials) != 0 {
		return client.Credentials, nil
	}
	if client.UserName == "" {
		return nil, fmt.Errorf("%w: %v", tcgerr.ErrBadRequest, "credentials are not configured")
	}
	return json.Marshal(rpcRequest{
		JSONRPC: JSONRPCVersion,
		Method:  MethodUserLogin,
		Params: map[string]string{
			"user":     client.UserName,
			"password": client.Password,
		},
		ID: 1,
	})
}

// Authenticate exchanges credentials for session token
func (client *ZabbixClient) Authenticate(ctx context.Context) (*AuthToken, error) {
	client.init()
	payload, err := client.loginPayload()
	if err != nil {
		return nil, err
	}
	resp, _, err := client.post(ctx, MethodUserLogin, payload)
	if err != nil {
		return nil, err
	}
	var token string
	if err := json.Unmarshal(resp.Result, &token); err != nil || token == "" {
		sdklog.Logger.Warn("could not authenticate: no token in result", "error", err)
		return nil, fmt.Errorf("%w: %v", tcgerr.ErrDecode, "problem getting a token")
	}
	sdklog.Logger.Debug("authenticate", "userName", client.UserName)
	return &AuthToken{Token: token, ID: resp.ID}, nil
}

// Token returns cached session token, authenticates on miss
func (client *ZabbixClient) Token(ctx context.Context) (*AuthToken, error) {
	client.init()
	if v, ok := client.tokens.Get(ckToken); ok {
		return v.(*AuthToken), nil
	}
	token, err := client.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	client.tokens.SetDefault(ckToken, token)
	return token, nil
}

// Logout ends the session and drops the token
func (client *ZabbixClient) Logout(ctx context.Context) error {
	client.init()
	v, ok := client.tokens.Get(ckToken)
	if !ok {
		return nil
	}
	client.tokens.Delete(ckToken)
	_, _, err := client.send(ctx, MethodUserLogout, []string{}, v.(*AuthToken))
	return err
}

// Call calls API method and returns the result
func (client *ZabbixClient) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	resp, _, err := client.call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// CallRaw calls API method and returns the whole decoded response
func (client *ZabbixClient) CallRaw(ctx context.Context, method string, params any) (map[string]any, error) {
	_, body, err := client.call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	var v map[string]any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", tcgerr.ErrDecode, err)
	}
	return v, nil
}

// CallField calls API method and returns the field of the first result item
func (client *ZabbixClient) CallField(ctx context.Context, method string, params any, field string) (string, error) {
	if !slices.Contains(ResponseFields, field) {
		return "", fmt.Errorf("%w: unsupported response field: %s", tcgerr.ErrBadRequest, field)
	}
	result, err := client.Call(ctx, method, params)
	if err != nil {
		return "", err
	}
	var v any
	if err := json.Unmarshal(result, &v); err != nil {
		return "", fmt.Errorf("%w: %v", tcgerr.ErrDecode, err)
	}
	if items, ok := v.([]any); !ok || len(items) == 0 {
		return "", fmt.Errorf("%w: %s returned no items", tcgerr.ErrNotFound, method)
	}
	value, err := jsonpath.Get("$[0]."+field, v)
	if err != nil || value == nil {
		return "", fmt.Errorf("%w: %s returned no %s", tcgerr.ErrNotFound, method, field)
	}
	return fmt.Sprint(value), nil
}

func (client *ZabbixClient) call(ctx context.Context, method string, params any) (*rpcResponse, []byte, error) {
	token, err := client.Token(ctx)
	if err != nil {
		return nil, nil, err
	}
	resp, body, err := client.send(ctx, method, params, token)
	if errors.Is(err, tcgerr.ErrUnauthorized) {
		sdklog.Logger.Debug("could not call api: reconnecting", "method", method)
		client.tokens.Delete(ckToken)
		if token, err = client.Token(ctx); err != nil {
			sdklog.Logger.Error("could not call api: could not reconnect", "error", err)
			return nil, nil, err
		}
		resp, body, err = client.send(ctx, method, params, token)
	}
	return resp, body, err
}

func (client *ZabbixClient) send(ctx context.Context, method string, params any, token *AuthToken) (*rpcResponse, []byte, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  params,
		Auth:    token.Token,
		ID:      token.ID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", tcgerr.ErrBadRequest, err)
	}
	return client.post(ctx, method, payload)
}

func (client *ZabbixClient) post(ctx context.Context, method string, payload []byte) (*rpcResponse, []byte, error) {
	client.init()
	headers := map[string]string{
		"Accept":        "application/json",
		"Content-Type":  ContentType,
		"Cache-Control": "no-cache",
	}
	if client.AppName != "" {
		headers["User-Agent"] = client.AppName
	}
	req := &Req{
		URL:     client.uriAPI,
		Method:  http.MethodPost,
		Headers: headers,
		Payload: payload,
	}
	err := req.SetClient(client.HTTPClient).SendWithContext(ctx)

	switch {
	case err != nil:
		sdklog.Logger.LogAttrs(ctx, slog.LevelError, "could not send request", req.LogAttrs()...)
		if tcgerr.IsErrorConnection(err) || tcgerr.IsErrorTimedOut(err) {
			return nil, nil, fmt.Errorf("%w: %v", tcgerr.ErrTransient, err.Error())
		}
		return nil, nil, err

	case req.Status == 401 || req.Status == 403:
		eee := fmt.Errorf("%w: %v", tcgerr.ErrUnauthorized, string(req.Response))
		req.Err = eee
		sdklog.Logger.LogAttrs(ctx, slog.LevelWarn, "could not send request", req.LogAttrs()...)
		return nil, nil, eee

	case req.Status == 502 || req.Status == 503 || req.Status == 504:
		eee := fmt.Errorf("%w: %v", tcgerr.ErrGateway, string(req.Response))
		req.Err = eee
		sdklog.Logger.LogAttrs(ctx, slog.LevelWarn, "could not send request", req.LogAttrs()...)
		return nil, nil, eee

	case req.Status != 200:
		eee := fmt.Errorf("%w: %v", tcgerr.ErrUndecided, string(req.Response))
		req.Err = eee
		sdklog.Logger.LogAttrs(ctx, slog.LevelWarn, "could not send request", req.Details()...)
		return nil, nil, eee
	}

	var resp rpcResponse
	if err := json.Unmarshal(req.Response, &resp); err != nil {
		req.Err = err
		sdklog.Logger.LogAttrs(ctx, slog.LevelWarn, "could not parse response", req.Details()...)
		return nil, nil, fmt.Errorf("%w: %v", tcgerr.ErrDecode, err)
	}
	if resp.Error != nil {
		req.Err = resp.Error
		sdklog.Logger.LogAttrs(ctx, slog.LevelWarn, "api error", req.Details()...)
		return nil, nil, fmt.Errorf("%s: %w", method, resp.Error)
	}
	sdklog.Logger.LogAttrs(ctx, slog.LevelDebug, "send request",
		append(req.LogAttrs(), slog.String("rpcMethod", method))...)
	return &resp, req.Response, nil
}

func buildURI(apiURL string) string {
	s := strings.TrimRight(apiURL, "/")
	if !strings.HasPrefix(s, "http") {
		s = "https://" + s
	}
	if !strings.HasSuffix(s, ".php") {
		s = s + ZabbixEntrypoint
	}
	return s
}
