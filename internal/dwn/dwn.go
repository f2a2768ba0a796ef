// Package dwn is the boundary to a Decentralized Web Node: the per-identity
// remote store where the issuer publishes its protocol and manifests.
//
// Writes follow the local-then-send shape of DWN agents: ConfigureProtocol
// and CreateRecord prepare a message and return a handle, and the handle's
// Send delivers it to a target DWN.
package dwn

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	dErrors "dcx/pkg/domain-errors"
)

// Client is implemented by memory.Store and jsonrpc.Client.
type Client interface {
	QueryProtocols(ctx context.Context, target string, filter ProtocolsFilter) (*ProtocolsQueryReply, error)
	ConfigureProtocol(ctx context.Context, def ProtocolDefinition) (*ProtocolsConfigureReply, error)
	QueryRecords(ctx context.Context, target string, filter RecordsFilter) (*RecordsQueryReply, error)
	ReadRecord(ctx context.Context, target, recordID string) (*RecordsReadReply, error)
	CreateRecord(ctx context.Context, req CreateRecordRequest) (*RecordsCreateReply, error)
}

// ProtocolHandle is a configured protocol awaiting delivery.
type ProtocolHandle interface {
	Definition() ProtocolDefinition
	Send(ctx context.Context, target string) (Status, error)
}

// RecordHandle is a created record awaiting delivery.
type RecordHandle interface {
	ID() string
	Send(ctx context.Context, target string) (Status, error)
}

// Status is the reply status every DWN message carries.
type Status struct {
	Code   int    `json:"code"`
	Detail string `json:"detail"`
}

// OK reports a 2xx code.
func (s Status) OK() bool {
	return s.Code >= 200 && s.Code < 300
}

// StatusError is a non-2xx reply from the node.
type StatusError struct {
	Op     string
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dwn %s: status %d %s", e.Op, e.Status.Code, e.Status.Detail)
}

// Check turns a non-2xx status into a CodeRemoteStore error wrapping a *StatusError.
func Check(op string, s Status) error {
	if s.OK() {
		return nil
	}
	se := &StatusError{Op: op, Status: s}
	return dErrors.Wrap(se, dErrors.CodeRemoteStore, se.Error())
}

// Operation names used in errors, metrics and logs.
const (
	OpProtocolsQuery     = "protocols_query"
	OpProtocolsConfigure = "protocols_configure"
	OpProtocolsSend      = "protocols_send"
	OpRecordsQuery       = "records_query"
	OpRecordsRead        = "records_read"
	OpRecordsCreate      = "records_create"
	OpRecordsSend        = "records_send"
)

// ProtocolDefinition is the protocol document published to the issuer's DWN.
type ProtocolDefinition struct {
	Protocol  string                      `json:"protocol"`
	Published bool                        `json:"published"`
	Types     map[string]ProtocolType     `json:"types"`
	Structure map[string]*ProtocolRuleSet `json:"structure"`
}

type ProtocolType struct {
	Schema      string   `json:"schema,omitempty"`
	DataFormats []string `json:"dataFormats,omitempty"`
}

// ProtocolAction grants who (optionally relative to the "of" path) the listed abilities.
type ProtocolAction struct {
	Who string   `json:"who"`
	Of  string   `json:"of,omitempty"`
	Can []string `json:"can"`
}

// ProtocolRuleSet is one node of the protocol structure. On the wire its
// actions sit under "$actions" next to the child type names.
type ProtocolRuleSet struct {
	Actions  []ProtocolAction
	Children map[string]*ProtocolRuleSet
}

func (r ProtocolRuleSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Children)+1)
	if len(r.Actions) > 0 {
		out["$actions"] = r.Actions
	}
	for name, child := range r.Children {
		out[name] = child
	}
	return json.Marshal(out)
}

func (r *ProtocolRuleSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Actions = nil
	r.Children = nil
	for key, value := range raw {
		if key == "$actions" {
			if err := json.Unmarshal(value, &r.Actions); err != nil {
				return fmt.Errorf("decode $actions: %w", err)
			}
			continue
		}
		if len(key) > 0 && key[0] == '$' {
			continue
		}
		child := &ProtocolRuleSet{}
		if err := json.Unmarshal(value, child); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		if r.Children == nil {
			r.Children = make(map[string]*ProtocolRuleSet)
		}
		r.Children[key] = child
	}
	return nil
}

type ProtocolsFilter struct {
	Protocol string `json:"protocol,omitempty"`
}

type ProtocolsQueryReply struct {
	Status    Status
	Protocols []ProtocolDefinition
}

type ProtocolsConfigureReply struct {
	Status   Status
	Protocol ProtocolHandle
}

// Record is a stored record with its data.
type Record struct {
	ID           string          `json:"recordId"`
	Schema       string          `json:"schema,omitempty"`
	Protocol     string          `json:"protocol,omitempty"`
	ProtocolPath string          `json:"protocolPath,omitempty"`
	DataFormat   string          `json:"dataFormat"`
	Published    bool            `json:"published"`
	DateCreated  time.Time       `json:"dateCreated"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// RecordsFilter narrows a RecordsQuery. Empty fields match anything.
type RecordsFilter struct {
	Schema       string `json:"schema,omitempty"`
	DataFormat   string `json:"dataFormat,omitempty"`
	Protocol     string `json:"protocol,omitempty"`
	ProtocolPath string `json:"protocolPath,omitempty"`
	RecordID     string `json:"recordId,omitempty"`
}

// Matches reports whether rec satisfies every non-empty filter property.
func (f RecordsFilter) Matches(rec Record) bool {
	return (f.Schema == "" || f.Schema == rec.Schema) &&
		(f.DataFormat == "" || f.DataFormat == rec.DataFormat) &&
		(f.Protocol == "" || f.Protocol == rec.Protocol) &&
		(f.ProtocolPath == "" || f.ProtocolPath == rec.ProtocolPath) &&
		(f.RecordID == "" || f.RecordID == rec.ID)
}

// RecordsQueryReply lists matching records. Entries may omit Data; read
// each record for its content.
type RecordsQueryReply struct {
	Status  Status
	Records []Record
}

type RecordsReadReply struct {
	Status Status
	Record *Record
}

// CreateRecordRequest describes a record write. Data is JSON-encoded.
type CreateRecordRequest struct {
	Data         any
	Schema       string
	Protocol     string
	ProtocolPath string
	DataFormat   string
	Published    bool
}

type RecordsCreateReply struct {
	Status Status
	Record RecordHandle
}
