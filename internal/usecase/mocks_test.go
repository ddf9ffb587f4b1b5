// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"support-kb-ingest/internal/domain"
	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/domain/ports/adapter"
	"support-kb-ingest/internal/domain/ports/repository"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// ---- ticket system ----

// fakeTickets serves tickets and communications from memory, paging lists
// according to pageSizes (one page when empty).
type fakeTickets struct {
	mu            sync.Mutex
	tickets       map[string]model.Ticket
	order         []string
	comms         map[string][]model.Communication
	pageSizes     []int
	listErrAtPage int // 1-based page that fails; 0 never
	getErr        map[string]error
	getCalls      int
	commCalls     int
	listCalls     int
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{
		tickets: map[string]model.Ticket{},
		comms:   map[string][]model.Communication{},
		getErr:  map[string]error{},
	}
}

func (f *fakeTickets) add(t model.Ticket, comms ...model.Communication) {
	f.tickets[t.ID] = t
	f.order = append(f.order, t.ID)
	f.comms[t.ID] = comms
}

// page slices items using the configured page sizes and a numeric token.
func paginate[T any](items []T, sizes []int, token string) ([]T, string) {
	idx := 0
	if token != "" {
		fmt.Sscanf(token, "p%d", &idx)
	}
	if len(sizes) == 0 {
		if idx > 0 {
			return nil, ""
		}
		return items, ""
	}
	start := 0
	for i := 0; i < idx && i < len(sizes); i++ {
		start += sizes[i]
	}
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if idx < len(sizes) {
		end = start + sizes[idx]
		if end > len(items) {
			end = len(items)
		}
	}
	next := ""
	if idx+1 < len(sizes) {
		next = fmt.Sprintf("p%d", idx+1)
	}
	return items[start:end], next
}

func (f *fakeTickets) ListTickets(ctx context.Context, q adapter.TicketQuery) (adapter.TicketPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErrAtPage > 0 && f.listCalls == f.listErrAtPage {
		return adapter.TicketPage{}, errors.New("throttled")
	}
	all := make([]model.Ticket, 0, len(f.order))
	for _, id := range f.order {
		all = append(all, f.tickets[id])
	}
	items, next := paginate(all, f.pageSizes, q.NextToken)
	return adapter.TicketPage{Tickets: items, NextToken: next}, nil
}

func (f *fakeTickets) GetTicket(ctx context.Context, caseID string) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if err := f.getErr[caseID]; err != nil {
		return nil, err
	}
	t, ok := f.tickets[caseID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeTickets) ListCommunications(ctx context.Context, caseID, nextToken string, maxResults int) (adapter.CommunicationPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commCalls++
	items, next := paginate(f.comms[caseID], f.pageSizes, nextToken)
	return adapter.CommunicationPage{Communications: items, NextToken: next}, nil
}

func (f *fakeTickets) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls + f.commCalls + f.listCalls
}

// ---- generative model ----

type aiReply struct {
	text string
	err  error
}

// fakeAI returns replies in order and repeats the last one when exhausted.
type fakeAI struct {
	mu      sync.Mutex
	replies []aiReply
	calls   int
	prompts []string
}

func (f *fakeAI) Name() string { return "fake" }

func (f *fakeAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += len(strings.Fields(m.Content))
	}
	return n, nil
}

func (f *fakeAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message, maxTokens int) (string, adapter.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, messages[len(messages)-1].Content)
	if len(f.replies) == 0 {
		return "", adapter.Usage{}, errors.New("no reply configured")
	}
	i := f.calls - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	r := f.replies[i]
	return r.text, adapter.Usage{}, r.err
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func summaryJSON(category, service string) string {
	return fmt.Sprintf(`{"category":%q,"service":%q,"question":"q","answer":"a","solution":"s","steps":["one","two"],"tags":["t"]}`, category, service)
}

// ---- object store ----

type memStore struct {
	mu       sync.Mutex
	objects  map[string]adapter.PutObjectInput
	pageSize int
	listErr  error
	putErr   error
	puts     int
	lists    int
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]adapter.PutObjectInput{}}
}

func (m *memStore) PutObject(ctx context.Context, in adapter.PutObjectInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[in.Key] = in
	return nil
}

func (m *memStore) ListObjects(ctx context.Context, prefix, token string) (adapter.ObjectPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return adapter.ObjectPage{}, m.listErr
	}
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if m.pageSize <= 0 {
		return adapter.ObjectPage{Keys: keys}, nil
	}
	start := 0
	if token != "" {
		fmt.Sscanf(token, "%d", &start)
	}
	end := start + m.pageSize
	if end >= len(keys) {
		return adapter.ObjectPage{Keys: keys[start:]}, nil
	}
	return adapter.ObjectPage{Keys: keys[start:end], NextToken: fmt.Sprint(end)}, nil
}

func (m *memStore) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// ---- knowledge index ----

type fakeIndex struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeIndex) StartIngestion(ctx context.Context, kbID, dsID string) (*model.IngestionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.IngestionJob{ID: fmt.Sprintf("job-%d", f.calls), Status: "STARTING"}, nil
}

// ---- side channels ----

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

type fakeArtifacts struct {
	runs []model.BatchRun
	err  error
}

func (f *fakeArtifacts) WriteFailures(ctx context.Context, run *model.BatchRun) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.runs = append(f.runs, *run)
	return "migration_errors_" + run.FinishedAt.Format("20060102_150405") + ".json", nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]string
	err  error
}

func newFakeLocker() *fakeLocker { return &fakeLocker{held: map[string]string{}} }

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", l.err
	}
	if _, ok := l.held[key]; ok {
		return "", domain.ErrLockNotAcquired
	}
	token := fmt.Sprintf("tok-%d", len(l.held)+1)
	l.held[key] = token
	return token, nil
}

func (l *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

// memArchiveIndex is an in-memory repository.ArchiveIndexRepository.
type memArchiveIndex struct {
	mu       sync.Mutex
	claimed  map[string]string
	entries  map[string]repository.ArchiveEntry
	runs     []model.BatchRun
	existErr error
	released []string
}

func newMemArchiveIndex() *memArchiveIndex {
	return &memArchiveIndex{claimed: map[string]string{}, entries: map[string]repository.ArchiveEntry{}}
}

func (m *memArchiveIndex) Claim(ctx context.Context, displayID, caseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.claimed[displayID]; ok {
		return domain.ErrAlreadyClaimed
	}
	m.claimed[displayID] = caseID
	return nil
}

func (m *memArchiveIndex) Complete(ctx context.Context, e repository.ArchiveEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.DisplayID] = e
	return nil
}

func (m *memArchiveIndex) Release(ctx context.Context, displayID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claimed, displayID)
	m.released = append(m.released, displayID)
	return nil
}

func (m *memArchiveIndex) Exists(ctx context.Context, displayID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existErr != nil {
		return false, m.existErr
	}
	_, ok := m.entries[displayID]
	return ok, nil
}

func (m *memArchiveIndex) RecordRun(ctx context.Context, run *model.BatchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

// ---- clock / sleep ----

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }
