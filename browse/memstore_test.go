package browse

import (
	"context"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// memStore is an in-memory Store for unit tests.
type memStore struct {
	mu         sync.Mutex
	containers map[string]map[string]memObject

	// pageSize caps entries per page; zero returns everything in one page.
	pageSize int

	// errs injects a failure for the named store call.
	errs map[string]error

	// listHook runs before every ListObjects call.
	listHook func(ctx context.Context, req ListRequest) error

	listCalls []ListRequest
	puts      []string
	deletes   []string
}

type memObject struct {
	data     []byte
	modified time.Time
}

func newMemStore() *memStore {
	return &memStore{
		containers: map[string]map[string]memObject{},
		errs:       map[string]error{},
	}
}

func (m *memStore) put(container string, keys ...string) *memStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	objs, ok := m.containers[container]
	if !ok {
		objs = map[string]memObject{}
		m.containers[container] = objs
	}
	for i, key := range keys {
		objs[key] = memObject{
			data:     []byte(key),
			modified: time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
		}
	}
	return m
}

func (m *memStore) putData(container, key string, data []byte) {
	m.put(container, key)
	m.mu.Lock()
	defer m.mu.Unlock()
	obj := m.containers[container][key]
	obj.data = data
	m.containers[container][key] = obj
}

func (m *memStore) HeadContainer(ctx context.Context, container string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["HeadContainer"]; err != nil {
		return err
	}
	if _, ok := m.containers[container]; !ok {
		return &StoreError{Code: CodeNoSuchBucket, Message: "The specified bucket does not exist"}
	}
	return nil
}

func (m *memStore) ListObjects(ctx context.Context, req ListRequest) (*ListPage, error) {
	if m.listHook != nil {
		if err := m.listHook(ctx, req); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls = append(m.listCalls, req)
	if err := m.errs["ListObjects"]; err != nil {
		return nil, err
	}
	objs, ok := m.containers[req.Container]
	if !ok {
		return nil, &StoreError{Code: CodeNoSuchBucket, Message: "The specified bucket does not exist"}
	}

	keys := make([]string, 0, len(objs))
	for key := range objs {
		if strings.HasPrefix(key, req.Prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var entries []ObjectEntry
	rolled := map[string]bool{}
	for _, key := range keys {
		if req.Delimiter != "" {
			rest := strings.TrimPrefix(key, req.Prefix)
			if idx := strings.Index(rest, req.Delimiter); idx >= 0 {
				common := req.Prefix + rest[:idx+len(req.Delimiter)]
				if !rolled[common] {
					rolled[common] = true
					entries = append(entries, ObjectEntry{Key: common})
				}
				continue
			}
		}
		obj := objs[key]
		entries = append(entries, ObjectEntry{Key: key, Size: uint64(len(obj.data)), Modified: obj.modified})
	}

	start := 0
	if req.ContinuationToken != "" {
		start, _ = strconv.Atoi(req.ContinuationToken)
	}
	if m.pageSize <= 0 || start+m.pageSize >= len(entries) {
		return &ListPage{Entries: entries[start:]}, nil
	}
	end := start + m.pageSize
	return &ListPage{Entries: entries[start:end], NextToken: strconv.Itoa(end)}, nil
}

func (m *memStore) PutObject(ctx context.Context, container, key, localPath string) error {
	if err := m.errs["PutObject"]; err != nil {
		return err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	m.putData(container, key, data)
	m.mu.Lock()
	m.puts = append(m.puts, key)
	m.mu.Unlock()
	return nil
}

func (m *memStore) GetObject(ctx context.Context, container, key, localPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["GetObject"]; err != nil {
		return err
	}
	obj, ok := m.containers[container][key]
	if !ok {
		return &StoreError{Code: CodeNoSuchKey, Message: "The specified key does not exist."}
	}
	return os.WriteFile(localPath, obj.data, 0o644)
}

func (m *memStore) DeleteObject(ctx context.Context, container, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["DeleteObject"]; err != nil {
		return err
	}
	delete(m.containers[container], key)
	m.deletes = append(m.deletes, key)
	return nil
}

func (m *memStore) ReadObject(ctx context.Context, container, key string, limit int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.containers[container][key]
	if !ok {
		return nil, &StoreError{Code: CodeNoSuchKey}
	}
	data := obj.data
	if int64(len(data)) > limit {
		data = data[:limit]
	}
	return append([]byte(nil), data...), nil
}

func (m *memStore) Probe(ctx context.Context) error {
	return m.errs["Probe"]
}

// flatStore ignores delimiters, like a store without server-side rollup.
type flatStore struct {
	*memStore
}

func (f flatStore) ListObjects(ctx context.Context, req ListRequest) (*ListPage, error) {
	req.Delimiter = ""
	return f.memStore.ListObjects(ctx, req)
}

var _ Store = flatStore{}

// scriptedStore returns canned pages keyed by continuation token.
type scriptedStore struct {
	memStore
	pages map[string]*ListPage
}

func (s *scriptedStore) ListObjects(ctx context.Context, req ListRequest) (*ListPage, error) {
	return s.pages[req.ContinuationToken], nil
}
