// Package usecasetest provides in-memory implementations of the usecase ports.
package usecasetest

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
)

// Sessions stores JSON copies so callers never share a *Session.
type Sessions struct {
	mu      sync.Mutex
	data    map[string][]byte
	SaveErr error
	Saves   int
}

func NewSessions() *Sessions { return &Sessions{data: map[string][]byte{}} }

func (s *Sessions) Load(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[id]
	if !ok {
		return nil, usecase.ErrSessionNotFound
	}
	var out domain.Session
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Sessions) Save(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.data[sess.ID] = raw
	s.Saves++
	return nil
}

// Put seeds a session and returns its id.
func (s *Sessions) Put(sess *domain.Session) string {
	err := s.Save(context.Background(), sess)
	if err != nil {
		panic(err)
	}
	return sess.ID
}

func (s *Sessions) Get(id string) *domain.Session {
	sess, err := s.Load(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return sess
}

type Products struct {
	mu    sync.Mutex
	byID  map[string]domain.Product
	order []string
	Gets  int
}

func NewProducts(ps ...domain.Product) *Products {
	p := &Products{byID: map[string]domain.Product{}}
	for _, pr := range ps {
		p.byID[pr.ID] = pr
		p.order = append(p.order, pr.ID)
	}
	return p
}

func (p *Products) Put(pr domain.Product) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byID[pr.ID]; !ok {
		p.order = append(p.order, pr.ID)
	}
	p.byID[pr.ID] = pr
}

func (p *Products) List(_ context.Context, f usecase.ProductFilter) ([]domain.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Product
	q := strings.ToLower(f.Search)
	for _, id := range p.order {
		pr := p.byID[id]
		if f.Category != "" && pr.Category != f.Category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(pr.Name), q) && !strings.Contains(strings.ToLower(pr.Description), q) {
			continue
		}
		out = append(out, pr)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (p *Products) Get(_ context.Context, id string) (domain.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Gets++
	pr, ok := p.byID[id]
	if !ok {
		return domain.Product{}, usecase.ErrProductNotFound
	}
	return pr, nil
}

// Idem mirrors the Redis idempotency store: lock keys and value keys share a namespace per scope.
type Idem struct {
	mu      sync.Mutex
	locks   map[string]bool
	values  map[string]string
	LockErr error
}

func NewIdem() *Idem { return &Idem{locks: map[string]bool{}, values: map[string]string{}} }

func (i *Idem) TryLock(_ context.Context, scope, key string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.LockErr != nil {
		return false, i.LockErr
	}
	k := scope + ":" + key
	if i.locks[k] {
		return false, nil
	}
	i.locks[k] = true
	return true, nil
}

func (i *Idem) Release(_ context.Context, scope, key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.locks, scope+":"+key)
	return nil
}

func (i *Idem) Remember(_ context.Context, scope, key, value string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.values[scope+":"+key] = value
	return nil
}

func (i *Idem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, ok := i.values[scope+":"+key]
	return v, ok, nil
}

func (i *Idem) Locked(scope, key string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.locks[scope+":"+key]
}

// Orders implements both OrderRepo and OutboxRepo.
type Orders struct {
	mu        sync.Mutex
	rows      map[string]usecase.OrderRecord
	outbox    []outboxEntry
	CreateErr error
}

type outboxEntry struct {
	row         usecase.OutboxRow
	sent        bool
	nextAttempt time.Time
}

func NewOrders() *Orders { return &Orders{rows: map[string]usecase.OrderRecord{}} }

func (o *Orders) CreateWithOutbox(_ context.Context, rec *usecase.OrderRecord, channel string, payload []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.CreateErr != nil {
		return o.CreateErr
	}
	o.rows[rec.ID] = *rec
	o.outbox = append(o.outbox, outboxEntry{row: usecase.OutboxRow{
		ID:      int64(len(o.outbox) + 1),
		Channel: channel,
		Payload: payload,
	}})
	return nil
}

func (o *Orders) GetByID(_ context.Context, id string) (*usecase.OrderRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rec, ok := o.rows[id]
	if !ok {
		return nil, usecase.ErrOrderNotFound
	}
	return &rec, nil
}

func (o *Orders) UpdateStatusIf(_ context.Context, id, from, to string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rec, ok := o.rows[id]
	if !ok || rec.Status != from {
		return false, nil
	}
	rec.Status = to
	o.rows[id] = rec
	return true, nil
}

func (o *Orders) FetchPending(_ context.Context, channel string, limit int) ([]usecase.OutboxRow, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []usecase.OutboxRow
	for _, e := range o.outbox {
		if e.sent || e.row.Channel != channel || time.Now().Before(e.nextAttempt) {
			continue
		}
		out = append(out, e.row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (o *Orders) MarkSent(_ context.Context, id int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outbox[id-1].sent = true
	return nil
}

func (o *Orders) MarkRetry(_ context.Context, id int64, next time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outbox[id-1].row.RetryCount++
	o.outbox[id-1].nextAttempt = next
	return nil
}

// All returns stored orders sorted by creation time.
func (o *Orders) All() []usecase.OrderRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]usecase.OrderRecord, 0, len(o.rows))
	for _, r := range o.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (o *Orders) Outbox() []usecase.OutboxRow {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]usecase.OutboxRow, 0, len(o.outbox))
	for _, e := range o.outbox {
		out = append(out, e.row)
	}
	return out
}

type Events struct {
	mu   sync.Mutex
	Msgs []usecase.CreatedMsg
	Err  error
}

func (e *Events) PublishCreated(_ context.Context, msg usecase.CreatedMsg) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.Msgs = append(e.Msgs, msg)
	return nil
}

type StatusCache struct {
	mu sync.Mutex
	m  map[string]string
}

func NewStatusCache() *StatusCache { return &StatusCache{m: map[string]string{}} }

func (c *StatusCache) SetStatus(_ context.Context, id, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[id] = status
	return nil
}

func (c *StatusCache) GetStatus(_ context.Context, id string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.m[id]
	return s, ok, nil
}

// Intents is a scripted payment processor.
type Intents struct {
	mu       sync.Mutex
	Requests []usecase.PaymentIntentRequest
	Err      error
}

func (p *Intents) Create(_ context.Context, req usecase.PaymentIntentRequest) (usecase.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return usecase.PaymentIntent{}, p.Err
	}
	p.Requests = append(p.Requests, req)
	id := "pi_" + req.IdempotencyKey
	return usecase.PaymentIntent{ID: id, ClientSecret: id + "_secret"}, nil
}

// OrderService wraps a real OrderService and can be told to fail.
type OrderService struct {
	mu    sync.Mutex
	Next  usecase.OrderService
	Err   error
	Calls []usecase.OrderSubmission
}

func (f *OrderService) Submit(ctx context.Context, in usecase.OrderSubmission) (usecase.OrderReceipt, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, in)
	err := f.Err
	f.mu.Unlock()
	if err != nil {
		return usecase.OrderReceipt{}, err
	}
	return f.Next.Submit(ctx, in)
}

type Wholesale struct {
	Users map[string]domain.User // key: code + "|" + email
	Err   error
}

func (w *Wholesale) Authenticate(_ context.Context, code, email string) (domain.User, error) {
	if w.Err != nil {
		return domain.User{}, w.Err
	}
	u, ok := w.Users[code+"|"+email]
	if !ok {
		return domain.User{}, usecase.ErrInvalidWholesaleCredentials
	}
	return u, nil
}

type Metrics struct {
	mu       sync.Mutex
	Placed   map[string]int
	Failed   map[string]int
	Credited map[string]int64
}

func NewMetrics() *Metrics {
	return &Metrics{Placed: map[string]int{}, Failed: map[string]int{}, Credited: map[string]int64{}}
}

func (m *Metrics) OrderPlaced(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Placed[method]++
}

func (m *Metrics) CheckoutFailed(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failed[reason]++
}

func (m *Metrics) PointsCredited(reason string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Credited[reason] += amount
}
