package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"aorify/internal/config"
	"aorify/internal/logging"
	"aorify/internal/model"
	"aorify/internal/sessionstore"
)

var log = logging.For("remote")

// Request headers understood by the platform.
const (
	HeaderProject  = "X-Appwrite-Project"
	HeaderSession  = "X-Appwrite-Session"
	HeaderResponse = "X-Appwrite-Response-Format"
	HeaderSDKName  = "X-SDK-Name"

	ResponseFormat = "1.5.0"
	SDKName        = "aorify-go"
)

// Options is the connection configuration of a Client.
type Options struct {
	Endpoint   string
	ProjectID  string
	Platform   string
	DatabaseID string
	Timeout    time.Duration
}

// OptionsFromConfig picks the connection settings out of the app config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Endpoint:   cfg.Endpoint,
		ProjectID:  cfg.ProjectID,
		Platform:   cfg.Platform,
		DatabaseID: cfg.DatabaseID,
		Timeout:    time.Duration(cfg.RequestTimeout) * time.Second,
	}
}

// Client is a thin binding over the platform REST API. Every call is a single
// round trip; nothing is retried.
type Client struct {
	rest     *resty.Client
	opts     Options
	sessions sessionstore.Store
}

// NewClient builds a client. A nil store keeps the session in memory.
func NewClient(opts Options, sessions sessionstore.Store) *Client {
	opts.Endpoint = strings.TrimSuffix(opts.Endpoint, "/")
	if sessions == nil {
		sessions = sessionstore.NewMemoryStore()
	}

	rest := resty.New().
		SetBaseURL(opts.Endpoint).
		SetHeader(HeaderProject, opts.ProjectID).
		SetHeader(HeaderResponse, ResponseFormat).
		SetHeader(HeaderSDKName, SDKName).
		SetHeader("Origin", "appwrite-android://"+opts.Platform).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if opts.Timeout > 0 {
		rest.SetTimeout(opts.Timeout)
	}

	c := &Client{rest: rest, opts: opts, sessions: sessions}
	rest.OnBeforeRequest(c.attachSession)
	return c
}

// Options returns the connection configuration.
func (c *Client) Options() Options {
	return c.opts
}

// attachSession sends the stored credential, if any, with the request.
func (c *Client) attachSession(_ *resty.Client, req *resty.Request) error {
	cred, err := c.sessions.Load(req.Context())
	if err != nil {
		log.WithError(err).Warn("could not load session credential, sending request unauthenticated")
		return nil
	}
	if cred != nil {
		req.SetHeader(HeaderSession, cred.Secret)
	}
	return nil
}

// apiError is the platform's error body.
type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Version string `json:"version"`
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.rest.R().SetContext(ctx).SetError(&apiError{})
}

// check turns a transport failure or an error response into a *model.RemoteError.
func check(op string, resp *resty.Response, err error, started time.Time) error {
	fields := logrus.Fields{"op": op, "duration": time.Since(started)}

	if err != nil {
		log.WithFields(fields).WithError(err).Error("request failed")
		return &model.RemoteError{Op: op, Type: model.TypeGeneralUnknown, Message: err.Error(), Err: err}
	}

	fields["status"] = resp.StatusCode()
	if !resp.IsError() {
		log.WithFields(fields).Debug("request ok")
		return nil
	}

	remoteErr := &model.RemoteError{Op: op, Code: resp.StatusCode(), Type: model.TypeGeneralUnknown}
	if body, ok := resp.Error().(*apiError); ok && body != nil && body.Message != "" {
		remoteErr.Message = body.Message
		if body.Type != "" {
			remoteErr.Type = body.Type
		}
	}
	if remoteErr.Message == "" {
		remoteErr.Message = strings.TrimSpace(string(resp.Body()))
	}
	if remoteErr.Message == "" {
		remoteErr.Message = http.StatusText(resp.StatusCode())
	}

	fields["type"] = remoteErr.Type
	log.WithFields(fields).Debug("request rejected: " + remoteErr.Message)
	return remoteErr
}

// UniqueID returns a fresh client-generated resource id.
func UniqueID() string {
	return uuid.NewString()
}

func decodeFailure(op string, err error) error {
	return &model.RemoteError{Op: op, Type: model.TypeGeneralUnknown, Message: fmt.Sprintf("decode response: %v", err), Err: err}
}
