// Package jsonrpc is a dwn.Client speaking the DWN server's JSON-RPC
// transport: a dwn.processMessage request in the dwn-request header with
// record data as the HTTP body.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"dcx/internal/dwn"
	"dcx/internal/platform/metrics"
	dErrors "dcx/pkg/domain-errors"
)

const (
	headerRequest  = "dwn-request"
	headerResponse = "dwn-response"
	rpcMethod      = "dwn.processMessage"
	maxReplyBytes  = 4 << 20
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a DWN over JSON-RPC 2.0. It implements dwn.Client.
type Client struct {
	endpoint string
	client   HTTPDoer
	author   *Author
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. Nil keeps the default.
func WithHTTPClient(c HTTPDoer) Option {
	return func(cl *Client) {
		if c != nil {
			cl.client = c
		}
	}
}

// WithAuthor signs every message as author. Without it messages are unsigned.
func WithAuthor(a Author) Option {
	return func(cl *Client) {
		cl.author = &a
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) {
		cl.metrics = m
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// WithClock sets the time source for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) {
		cl.now = now
	}
}

// New returns a Client for endpoint. A zero timeout means 10s.
func New(endpoint string, timeout time.Duration, opts ...Option) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      string    `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Target  string   `json:"target"`
	Message *message `json:"message"`
}

type rpcResponse struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      string     `json:"id"`
	Result  *rpcResult `json:"result,omitempty"`
	Error   *rpcError  `json:"error,omitempty"`
}

type rpcResult struct {
	Reply reply `json:"reply"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type reply struct {
	Status  dwn.Status `json:"status"`
	Entries []entry    `json:"entries,omitempty"`
	Record  *entry     `json:"record,omitempty"`
}

// entry is a message echoed back by the node: a ProtocolsConfigure for
// protocol queries or a RecordsWrite for record queries and reads.
type entry struct {
	RecordID    string     `json:"recordId,omitempty"`
	Descriptor  descriptor `json:"descriptor"`
	EncodedData string     `json:"encodedData,omitempty"`
}

func (c *Client) QueryProtocols(ctx context.Context, target string, filter dwn.ProtocolsFilter) (*dwn.ProtocolsQueryReply, error) {
	msg, err := c.message(descriptor{Interface: interfaceProtocols, Method: methodQuery, Filter: filter})
	if err != nil {
		return nil, err
	}
	r, _, err := c.process(ctx, dwn.OpProtocolsQuery, target, msg, nil)
	if err != nil {
		return nil, err
	}
	out := &dwn.ProtocolsQueryReply{Status: r.Status}
	for _, e := range r.Entries {
		if e.Descriptor.Definition != nil {
			out.Protocols = append(out.Protocols, *e.Descriptor.Definition)
		}
	}
	return out, nil
}

func (c *Client) ConfigureProtocol(_ context.Context, def dwn.ProtocolDefinition) (*dwn.ProtocolsConfigureReply, error) {
	if def.Protocol == "" {
		return &dwn.ProtocolsConfigureReply{Status: dwn.Status{Code: http.StatusBadRequest, Detail: "protocol uri is required"}}, nil
	}
	d := def
	msg, err := c.message(descriptor{Interface: interfaceProtocols, Method: methodConfigure, Definition: &d})
	if err != nil {
		return nil, err
	}
	return &dwn.ProtocolsConfigureReply{
		Status:   dwn.Status{Code: http.StatusAccepted, Detail: "Accepted"},
		Protocol: &protocolHandle{client: c, msg: msg, def: def},
	}, nil
}

func (c *Client) QueryRecords(ctx context.Context, target string, filter dwn.RecordsFilter) (*dwn.RecordsQueryReply, error) {
	msg, err := c.message(descriptor{Interface: interfaceRecords, Method: methodQuery, Filter: filter})
	if err != nil {
		return nil, err
	}
	r, _, err := c.process(ctx, dwn.OpRecordsQuery, target, msg, nil)
	if err != nil {
		return nil, err
	}
	out := &dwn.RecordsQueryReply{Status: r.Status}
	for _, e := range r.Entries {
		rec, err := e.record(nil)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeRemoteStore, "decode records query entry")
		}
		out.Records = append(out.Records, *rec)
	}
	return out, nil
}

func (c *Client) ReadRecord(ctx context.Context, target, recordID string) (*dwn.RecordsReadReply, error) {
	msg, err := c.message(descriptor{
		Interface: interfaceRecords,
		Method:    methodRead,
		Filter:    dwn.RecordsFilter{RecordID: recordID},
	})
	if err != nil {
		return nil, err
	}
	r, body, err := c.process(ctx, dwn.OpRecordsRead, target, msg, nil)
	if err != nil {
		return nil, err
	}
	out := &dwn.RecordsReadReply{Status: r.Status}
	if r.Record != nil {
		rec, err := r.Record.record(body)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeRemoteStore, "decode record")
		}
		out.Record = rec
	}
	return out, nil
}

func (c *Client) CreateRecord(_ context.Context, req dwn.CreateRecordRequest) (*dwn.RecordsCreateReply, error) {
	data, err := json.Marshal(req.Data)
	if err != nil {
		return &dwn.RecordsCreateReply{Status: dwn.Status{Code: http.StatusBadRequest, Detail: err.Error()}}, nil
	}
	dataCID, err := digest(json.RawMessage(data))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "digest record data")
	}

	now := timestamp(c.now())
	d := descriptor{
		Interface:        interfaceRecords,
		Method:           methodWrite,
		MessageTimestamp: now,
		Protocol:         req.Protocol,
		ProtocolPath:     req.ProtocolPath,
		Schema:           req.Schema,
		DataFormat:       req.DataFormat,
		DataCID:          dataCID,
		DataSize:         len(data),
		DateCreated:      now,
		Published:        req.Published,
	}
	if req.Published {
		d.DatePublished = now
	}
	msg, err := c.message(d)
	if err != nil {
		return nil, err
	}
	msg.RecordID = uuid.NewString()

	return &dwn.RecordsCreateReply{
		Status: dwn.Status{Code: http.StatusAccepted, Detail: "Accepted"},
		Record: &recordHandle{client: c, msg: msg, data: data},
	}, nil
}

// message stamps and signs d.
func (c *Client) message(d descriptor) (*message, error) {
	if d.MessageTimestamp == "" {
		d.MessageTimestamp = timestamp(c.now())
	}
	auth, err := authorize(c.author, d)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "authorize dwn message")
	}
	return &message{Descriptor: d, Authorization: auth}, nil
}

// process sends one message and returns the node's reply plus any streamed
// data. Transport and protocol failures are CodeRemoteStore errors; a reply
// with a non-2xx status is returned as-is for the caller to check.
func (c *Client) process(ctx context.Context, op, target string, msg *message, data []byte) (_ *reply, _ []byte, err error) {
	defer func() { c.observe(ctx, op, err) }()

	rpcReq := rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  rpcMethod,
		Params:  rpcParams{Target: target, Message: msg},
	}
	header, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode dwn request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "build dwn request")
	}
	req.Header.Set(headerRequest, string(header))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeTimeout, "dwn request timeout")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeRemoteStore, "dwn request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeRemoteStore, "read dwn response")
	}

	// Streamed reads put the JSON-RPC response in a header and the data in the body.
	raw, stream := []byte(resp.Header.Get(headerResponse)), body
	if len(raw) == 0 {
		raw, stream = body, nil
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &reply{Status: dwn.Status{Code: resp.StatusCode, Detail: http.StatusText(resp.StatusCode)}}, nil, nil
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeRemoteStore, "decode dwn response")
	}
	if rpcResp.Error != nil {
		return nil, nil, dErrors.New(dErrors.CodeRemoteStore,
			fmt.Sprintf("dwn %s: rpc error %d: %s", op, rpcResp.Error.Code, rpcResp.Error.Message))
	}
	if rpcResp.Result == nil {
		return nil, nil, dErrors.New(dErrors.CodeRemoteStore, fmt.Sprintf("dwn %s: empty rpc result", op))
	}
	return &rpcResp.Result.Reply, stream, nil
}

func (c *Client) observe(ctx context.Context, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if c.logger != nil {
			c.logger.WarnContext(ctx, "dwn request failed", "operation", op, "error", err)
		}
	}
	c.metrics.ObserveDWNRequest(op, outcome)
}

func (e entry) record(stream []byte) (*dwn.Record, error) {
	d := e.Descriptor
	rec := &dwn.Record{
		ID:           e.RecordID,
		Schema:       d.Schema,
		Protocol:     d.Protocol,
		ProtocolPath: d.ProtocolPath,
		DataFormat:   d.DataFormat,
		Published:    d.Published,
	}
	if d.DateCreated != "" {
		created, err := time.Parse(time.RFC3339Nano, d.DateCreated)
		if err != nil {
			return nil, fmt.Errorf("dateCreated: %w", err)
		}
		rec.DateCreated = created
	}
	switch {
	case len(stream) > 0:
		rec.Data = append(json.RawMessage(nil), stream...)
	case e.EncodedData != "":
		data, err := base64.RawURLEncoding.DecodeString(e.EncodedData)
		if err != nil {
			return nil, fmt.Errorf("encodedData: %w", err)
		}
		rec.Data = data
	}
	return rec, nil
}

type protocolHandle struct {
	client *Client
	msg    *message
	def    dwn.ProtocolDefinition
}

func (h *protocolHandle) Definition() dwn.ProtocolDefinition {
	return h.def
}

func (h *protocolHandle) Send(ctx context.Context, target string) (dwn.Status, error) {
	r, _, err := h.client.process(ctx, dwn.OpProtocolsSend, target, h.msg, nil)
	if err != nil {
		return dwn.Status{}, err
	}
	return r.Status, nil
}

type recordHandle struct {
	client *Client
	msg    *message
	data   []byte
}

func (h *recordHandle) ID() string {
	return h.msg.RecordID
}

func (h *recordHandle) Send(ctx context.Context, target string) (dwn.Status, error) {
	r, _, err := h.client.process(ctx, dwn.OpRecordsSend, target, h.msg, h.data)
	if err != nil {
		return dwn.Status{}, err
	}
	return r.Status, nil
}
