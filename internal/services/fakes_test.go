package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	domainagg "github.com/yungbote/wishbox-backend/internal/domain/aggregates"
)

type signCall struct {
	Method      string
	Key         string
	ContentType string
	TTL         time.Duration
}

type fakeSigner struct {
	mu    sync.Mutex
	calls []signCall
	err   error
	// failKey makes only this key fail.
	failKey string
}

func (f *fakeSigner) record(c signCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.err != nil && (f.failKey == "" || f.failKey == c.Key) {
		return f.err
	}
	return nil
}

func (f *fakeSigner) SignedPutURL(_ context.Context, key, contentType string, ttl time.Duration) (string, error) {
	if err := f.record(signCall{Method: "PUT", Key: key, ContentType: contentType, TTL: ttl}); err != nil {
		return "", err
	}
	return "https://signed.test/put/" + key, nil
}

func (f *fakeSigner) SignedGetURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if err := f.record(signCall{Method: "GET", Key: key, TTL: ttl}); err != nil {
		return "", err
	}
	return "https://signed.test/get/" + key, nil
}

func (f *fakeSigner) Calls() []signCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]signCall(nil), f.calls...)
}

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string]struct{}
	listErr error
	delErr  map[string]error
	deleted []string
}

func newFakeObjectStore(keys ...string) *fakeObjectStore {
	s := &fakeObjectStore{objects: map[string]struct{}{}, delErr: map[string]error{}}
	for _, k := range keys {
		s.objects[k] = struct{}{}
	}
	return s
}

func (s *fakeObjectStore) ListKeys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeObjectStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.delErr[prefix]; err != nil {
		return 0, err
	}
	n := 0
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			delete(s.objects, k)
			n++
		}
	}
	s.deleted = append(s.deleted, prefix)
	return n, nil
}

func (s *fakeObjectStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

type fakeWishAggregate struct {
	createCalls  int
	publishCalls int
	expireCalls  int
	lastPublish  domainagg.PublishInput
	lastExpire   domainagg.ExpireDraftsInput

	createRes  domainagg.CreateDraftResult
	publishRes domainagg.PublishResult
	expireRes  domainagg.ExpireDraftsResult
	err        error
}

func (f *fakeWishAggregate) Contract() domainagg.Contract { return domainagg.WishAggregateContract }

func (f *fakeWishAggregate) CreateDraft(_ context.Context, _ domainagg.CreateDraftInput) (domainagg.CreateDraftResult, error) {
	f.createCalls++
	return f.createRes, f.err
}

func (f *fakeWishAggregate) Publish(_ context.Context, in domainagg.PublishInput) (domainagg.PublishResult, error) {
	f.publishCalls++
	f.lastPublish = in
	return f.publishRes, f.err
}

func (f *fakeWishAggregate) ExpireDrafts(_ context.Context, in domainagg.ExpireDraftsInput) (domainagg.ExpireDraftsResult, error) {
	f.expireCalls++
	f.lastExpire = in
	return f.expireRes, f.err
}

var errBoom = errors.New("boom")

func memKey(id fmt.Stringer, slot string) string {
	return "wishes/" + id.String() + "/" + slot
}
