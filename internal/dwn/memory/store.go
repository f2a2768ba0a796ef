// Package memory is an in-process dwn.Client, used for local runs without a
// DWN endpoint and for tests.
package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"dcx/internal/dwn"
	psync "dcx/pkg/platform/sync"
)

var (
	statusOK       = dwn.Status{Code: http.StatusOK, Detail: "OK"}
	statusAccepted = dwn.Status{Code: http.StatusAccepted, Detail: "Accepted"}
)

// Store keeps protocols and records per target DID. It is safe for
// concurrent access but does not persist across process restarts. mu guards
// the tenant map; each tenant's contents are guarded by its key in locks.
type Store struct {
	mu      sync.RWMutex
	tenants map[string]*tenant
	locks   *psync.ShardedMutex
	now     func() time.Time
}

type tenant struct {
	protocols map[string]dwn.ProtocolDefinition
	records   map[string]dwn.Record
	order     []string
}

type Option func(*Store)

// WithClock sets the time source for record creation dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		tenants: make(map[string]*tenant),
		locks:   psync.NewShardedMutex(0),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lookup returns target's tenant, creating it when create is set. A nil
// tenant means the target has never been written to.
func (s *Store) lookup(target string, create bool) *tenant {
	s.mu.RLock()
	t := s.tenants[target]
	s.mu.RUnlock()
	if t != nil || !create {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t = s.tenants[target]; t == nil {
		t = &tenant{
			protocols: make(map[string]dwn.ProtocolDefinition),
			records:   make(map[string]dwn.Record),
		}
		s.tenants[target] = t
	}
	return t
}

func (s *Store) QueryProtocols(_ context.Context, target string, filter dwn.ProtocolsFilter) (*dwn.ProtocolsQueryReply, error) {
	reply := &dwn.ProtocolsQueryReply{Status: statusOK}
	t := s.lookup(target, false)
	if t == nil {
		return reply, nil
	}
	s.locks.Lock(target)
	defer s.locks.Unlock(target)
	for uri, def := range t.protocols {
		if filter.Protocol == "" || filter.Protocol == uri {
			reply.Protocols = append(reply.Protocols, def)
		}
	}
	return reply, nil
}

func (s *Store) ConfigureProtocol(_ context.Context, def dwn.ProtocolDefinition) (*dwn.ProtocolsConfigureReply, error) {
	if def.Protocol == "" {
		return &dwn.ProtocolsConfigureReply{Status: dwn.Status{Code: http.StatusBadRequest, Detail: "protocol uri is required"}}, nil
	}
	return &dwn.ProtocolsConfigureReply{
		Status:   statusAccepted,
		Protocol: &protocolHandle{store: s, def: def},
	}, nil
}

func (s *Store) QueryRecords(_ context.Context, target string, filter dwn.RecordsFilter) (*dwn.RecordsQueryReply, error) {
	reply := &dwn.RecordsQueryReply{Status: statusOK}
	t := s.lookup(target, false)
	if t == nil {
		return reply, nil
	}
	s.locks.Lock(target)
	defer s.locks.Unlock(target)
	for _, id := range t.order {
		rec := t.records[id]
		if filter.Matches(rec) {
			rec.Data = nil
			reply.Records = append(reply.Records, rec)
		}
	}
	return reply, nil
}

func (s *Store) ReadRecord(_ context.Context, target, recordID string) (*dwn.RecordsReadReply, error) {
	if t := s.lookup(target, false); t != nil {
		s.locks.Lock(target)
		defer s.locks.Unlock(target)
		if rec, ok := t.records[recordID]; ok {
			rec.Data = append(json.RawMessage(nil), rec.Data...)
			return &dwn.RecordsReadReply{Status: statusOK, Record: &rec}, nil
		}
	}
	return &dwn.RecordsReadReply{Status: dwn.Status{Code: http.StatusNotFound, Detail: "Not Found"}}, nil
}

func (s *Store) CreateRecord(_ context.Context, req dwn.CreateRecordRequest) (*dwn.RecordsCreateReply, error) {
	data, err := json.Marshal(req.Data)
	if err != nil {
		return &dwn.RecordsCreateReply{Status: dwn.Status{Code: http.StatusBadRequest, Detail: err.Error()}}, nil
	}
	rec := dwn.Record{
		ID:           uuid.NewString(),
		Schema:       req.Schema,
		Protocol:     req.Protocol,
		ProtocolPath: req.ProtocolPath,
		DataFormat:   req.DataFormat,
		Published:    req.Published,
		DateCreated:  s.now().UTC(),
		Data:         data,
	}
	return &dwn.RecordsCreateReply{
		Status: statusAccepted,
		Record: &recordHandle{store: s, rec: rec},
	}, nil
}

type protocolHandle struct {
	store *Store
	def   dwn.ProtocolDefinition
}

func (h *protocolHandle) Definition() dwn.ProtocolDefinition {
	return h.def
}

func (h *protocolHandle) Send(_ context.Context, target string) (dwn.Status, error) {
	t := h.store.lookup(target, true)
	h.store.locks.Lock(target)
	defer h.store.locks.Unlock(target)
	t.protocols[h.def.Protocol] = h.def
	return statusAccepted, nil
}

type recordHandle struct {
	store *Store
	rec   dwn.Record
}

func (h *recordHandle) ID() string {
	return h.rec.ID
}

// Send stores the record once per target; a resend is a 409.
func (h *recordHandle) Send(_ context.Context, target string) (dwn.Status, error) {
	t := h.store.lookup(target, true)
	h.store.locks.Lock(target)
	defer h.store.locks.Unlock(target)
	if _, exists := t.records[h.rec.ID]; exists {
		return dwn.Status{Code: http.StatusConflict, Detail: "Conflict"}, nil
	}
	t.records[h.rec.ID] = h.rec
	t.order = append(t.order, h.rec.ID)
	return statusAccepted, nil
}
