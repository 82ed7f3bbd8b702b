package browse

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ErrSuperseded is returned by a navigation whose result arrived after a newer
// navigation started. Callers drop it; it is not a failure.
var ErrSuperseded = errors.New("navigation superseded")

// DefaultPreviewLimit is how many bytes Preview reads when no limit is given.
const DefaultPreviewLimit = 64 << 10

// Session owns the NavigationContext of one user and applies navigation
// atomically with the listing it triggers.
//
// Navigations may be issued concurrently; only the most recent one commits.
// Failed navigations leave the context where it was.
type Session struct {
	store  Store
	lister *Lister
	logger *zap.Logger

	mu       sync.Mutex
	current  NavigationContext
	revision uint64
	cancel   context.CancelFunc
	// pending is the target of the in-flight navigation, valid while cancel is set.
	pending NavigationContext
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	logger     *zap.Logger
	listerOpts []ListerOption
}

// WithLogger sets the session logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// WithPageSize sets the page size used for listings.
func WithPageSize(n int) Option {
	return func(o *sessionOptions) {
		o.listerOpts = append(o.listerOpts, WithListPageSize(n))
	}
}

// WithListerOptions passes options through to the session's Lister.
func WithListerOptions(opts ...ListerOption) Option {
	return func(o *sessionOptions) {
		o.listerOpts = append(o.listerOpts, opts...)
	}
}

// NewSession creates a session with an empty context.
func NewSession(store Store, opts ...Option) *Session {
	o := sessionOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Session{
		store:  store,
		lister: NewLister(store, o.listerOpts...),
		logger: o.logger,
	}
}

// Context returns a copy of the current navigation context.
func (s *Session) Context() NavigationContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Connect verifies the store credentials if the store supports probing.
func (s *Session) Connect(ctx context.Context) error {
	prober, ok := s.store.(Prober)
	if !ok {
		return nil
	}
	if err := prober.Probe(ctx); err != nil {
		return s.fail(OpConnect, err)
	}
	s.logger.Info("Connected to store")
	return nil
}

// Open parses input and navigates to it.
func (s *Session) Open(ctx context.Context, input string) (*Listing, error) {
	addr, err := Parse(input)
	if err != nil {
		return nil, s.fail(OpHeadContainer, err)
	}
	return s.SetAbsolute(ctx, addr)
}

// SetAbsolute checks the container exists and lists addr.
func (s *Session) SetAbsolute(ctx context.Context, addr Address) (*Listing, error) {
	return s.navigate(ctx, SetAbsolute(addr), true)
}

// Descend opens the folder named child under the current prefix.
func (s *Session) Descend(ctx context.Context, child string) (*Listing, error) {
	target, err := Descend(s.Context(), child)
	if err != nil {
		return nil, s.fail(OpList, err)
	}
	return s.navigate(ctx, target, false)
}

// Ascend lists the parent of the current prefix. While a navigation is in
// flight the parent is taken from its target, so repeated ascends each go up
// one level.
func (s *Session) Ascend(ctx context.Context) (*Listing, error) {
	return s.navigate(ctx, Ascend(s.intended()), false)
}

// ClearPrefix lists the root of the current container.
func (s *Session) ClearPrefix(ctx context.Context) (*Listing, error) {
	return s.navigate(ctx, ClearPrefix(s.Context()), false)
}

// Refresh lists the current context again.
func (s *Session) Refresh(ctx context.Context) (*Listing, error) {
	return s.navigate(ctx, s.Context(), false)
}

// intended returns the in-flight navigation target, or the current context.
func (s *Session) intended() NavigationContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return s.pending
	}
	return s.current
}

// Reset empties the context and abandons any in-flight navigation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.current = NavigationContext{}
}

func (s *Session) navigate(ctx context.Context, target NavigationContext, head bool) (*Listing, error) {
	if target.IsZero() {
		return nil, s.fail(OpList, ErrNoContainer)
	}

	s.mu.Lock()
	s.revision++
	rev := s.revision
	if s.cancel != nil {
		s.cancel()
	}
	listCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.pending = target
	s.mu.Unlock()
	defer cancel()

	logger := s.logger.With(zap.String("container", target.Container), zap.String("prefix", target.Prefix))

	var (
		listing *Listing
		op      = OpList
		err     error
	)
	if head {
		op = OpHeadContainer
		err = s.store.HeadContainer(listCtx, target.Container)
		if err != nil {
			err = tagStoreError(err, "HeadContainer", target.Container, "")
		}
	}
	if err == nil {
		op = OpList
		listing, err = s.lister.List(listCtx, target.Container, target.Prefix)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rev != s.revision {
		logger.Debug("Discarding superseded listing", zap.Uint64("revision", rev))
		return nil, ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.current = target
	logger.Debug("Listed prefix",
		zap.Int("folders", len(listing.Folders)),
		zap.Int("files", len(listing.Files)),
		zap.Int("pages", listing.Pages))
	return listing, nil
}

// Upload puts localPath under nav's prefix and returns the key it was stored as.
// nav is the context the user confirmed the key against.
func (s *Session) Upload(ctx context.Context, nav NavigationContext, localPath string) (string, error) {
	if nav.IsZero() {
		return "", s.fail(OpUpload, ErrNoContainer)
	}
	key, err := UploadKey(nav, localPath)
	if err != nil {
		return "", s.fail(OpUpload, err)
	}
	if err := s.store.PutObject(ctx, nav.Container, key, localPath); err != nil {
		return key, s.fail(OpUpload, tagStoreError(err, "PutObject", nav.Container, key))
	}
	s.logger.Info("Uploaded object", zap.String("container", nav.Container), zap.String("key", key), zap.String("source", localPath))
	return key, nil
}

// Download writes the file displayName under nav to localPath.
func (s *Session) Download(ctx context.Context, nav NavigationContext, displayName, localPath string) (string, error) {
	key, err := s.fileKey(OpDownload, nav, displayName)
	if err != nil {
		return "", err
	}
	if err := s.store.GetObject(ctx, nav.Container, key, localPath); err != nil {
		return key, s.fail(OpDownload, tagStoreError(err, "GetObject", nav.Container, key))
	}
	s.logger.Info("Downloaded object", zap.String("container", nav.Container), zap.String("key", key), zap.String("destination", localPath))
	return key, nil
}

// Delete removes the file displayName under nav.
func (s *Session) Delete(ctx context.Context, nav NavigationContext, displayName string) (string, error) {
	key, err := s.fileKey(OpDelete, nav, displayName)
	if err != nil {
		return "", err
	}
	if err := s.store.DeleteObject(ctx, nav.Container, key); err != nil {
		return key, s.fail(OpDelete, tagStoreError(err, "DeleteObject", nav.Container, key))
	}
	s.logger.Info("Deleted object", zap.String("container", nav.Container), zap.String("key", key))
	return key, nil
}

// Preview is the head of a file object.
type Preview struct {
	Key     string
	Content []byte

	// Binary is set when Content is not valid UTF-8.
	Binary bool

	// Truncated is set when the object may be longer than Content.
	Truncated bool
}

// Preview reads up to limit bytes of displayName. The store must implement ObjectReader.
func (s *Session) Preview(ctx context.Context, nav NavigationContext, displayName string, limit int64) (*Preview, error) {
	key, err := s.fileKey(OpDownload, nav, displayName)
	if err != nil {
		return nil, err
	}
	reader, ok := s.store.(ObjectReader)
	if !ok {
		return nil, s.fail(OpDownload, errors.New("store does not support previews"))
	}
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	data, err := reader.ReadObject(ctx, nav.Container, key, limit)
	if err != nil {
		return nil, s.fail(OpDownload, tagStoreError(err, "ReadObject", nav.Container, key))
	}
	return &Preview{
		Key:       key,
		Content:   data,
		Binary:    !utf8.Valid(trimPartialRune(data)),
		Truncated: int64(len(data)) >= limit,
	}, nil
}

func (s *Session) fileKey(op Operation, nav NavigationContext, displayName string) (string, error) {
	if nav.IsZero() {
		return "", s.fail(op, ErrNoContainer)
	}
	key, err := ObjectKey(nav, displayName)
	if err != nil {
		return "", s.fail(op, err)
	}
	return key, nil
}

// fail classifies err and logs it once.
func (s *Session) fail(op Operation, err error) *ClassifiedError {
	ce := Classify(op, err)
	s.logger.Warn("Operation failed",
		zap.Stringer("op", op),
		zap.Stringer("kind", ce.Kind),
		zap.String("code", ce.RawCode),
		zap.String("permission", ce.RequiredPermission),
		zap.Error(err))
	return ce
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off by the read limit.
func trimPartialRune(data []byte) []byte {
	for i := 0; i < utf8.UTFMax && i < len(data); i++ {
		r, size := utf8.DecodeLastRune(data[:len(data)-i])
		if r != utf8.RuneError || size > 1 {
			return data[:len(data)-i]
		}
	}
	return data
}
