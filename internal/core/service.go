package core

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/JonMunkholm/stockstage/internal/logging"
	"github.com/JonMunkholm/stockstage/internal/metrics"
	"github.com/google/uuid"
)

// DefaultMaxFileSize is the import size limit used when none is configured.
const DefaultMaxFileSize int64 = 10 << 20

// DefaultSubmitTimeout bounds a single Submit call when none is configured.
const DefaultSubmitTimeout = 2 * time.Minute

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	MaxFileSize       int64         // Largest accepted file in bytes
	Delimiter         rune          // Field delimiter (default ',')
	LazyQuotes        bool          // Tolerate stray quotes
	PositionalColumns []string      // Column order for files without a header
	SubmitTimeout     time.Duration // Upper bound on one Submit call
	MaxConcurrent     int           // Parse/submit slots
	MaxWait           time.Duration // How long to wait for a slot
}

// Service manages import sessions. Each session owns one staged batch.
type Service struct {
	reader     TabularReader
	mapper     *Mapper
	controller *Controller
	limiter    *ImportLimiter
	opts       Options

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	id        string
	fileName  string
	hasHeader bool
	clientIP  string
	userAgent string
	createdAt time.Time
	store     *Store

	mu       sync.Mutex
	lastUsed time.Time
	active   int  // Submit calls holding the session
	closed   bool // discarded or expired
}

func (s *session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// begin registers a Submit call. It fails once the session is closed.
func (s *session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.active++
	s.lastUsed = time.Now()
	return true
}

func (s *session) end() {
	s.mu.Lock()
	s.active--
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// close marks the session closed unless a Submit call holds it.
func (s *session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active > 0 || s.store.InFlight() {
		return false
	}
	s.closed = true
	return true
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// ImportRequest is one file to stage.
type ImportRequest struct {
	FileName  string
	Content   []byte
	HasHeader bool
}

// ImportSummary describes a freshly loaded session.
type ImportSummary struct {
	ID        string       `json:"id"`
	FileName  string       `json:"fileName"`
	HasHeader bool         `json:"hasHeader"`
	Header    []string     `json:"header,omitempty"`
	Summary   BatchSummary `json:"summary"`
}

// SessionInfo is a listing entry for an open session.
type SessionInfo struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	ClientIP  string    `json:"clientIp,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Records   int       `json:"records"`
	InFlight  bool      `json:"inFlight"`
	CreatedAt time.Time `json:"createdAt"`
	LastUsed  time.Time `json:"lastUsed"`
}

// SchemaInfo describes the recognized fields and the positional column order.
type SchemaInfo struct {
	Fields            []FieldSpec `json:"fields"`
	PositionalColumns []string    `json:"positionalColumns"`
}

// NewService creates a Service that submits to client.
func NewService(client InventoryClient, opts Options) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("new service: nil inventory client")
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = DefaultSubmitTimeout
	}

	mapper, err := NewMapper(ProductSchema(), opts.PositionalColumns)
	if err != nil {
		return nil, fmt.Errorf("new service: %w", err)
	}

	return &Service{
		reader:     CSVReader{Comma: opts.Delimiter, LazyQuotes: opts.LazyQuotes},
		mapper:     mapper,
		controller: NewController(client),
		limiter:    NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		opts:       opts,
		sessions:   make(map[string]*session),
	}, nil
}

// Schema returns the field table and positional order.
func (s *Service) Schema() SchemaInfo {
	return SchemaInfo{
		Fields:            s.mapper.Specs(),
		PositionalColumns: s.mapper.PositionalColumns(),
	}
}

// Limiter exposes the work limiter for shutdown draining.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// StartImport stages req in a new session.
func (s *Service) StartImport(ctx context.Context, req ImportRequest) (ImportSummary, error) {
	store := NewStore(s.mapper)
	summary, err := s.load(ctx, store, req)
	if err != nil {
		return ImportSummary{}, err
	}

	now := time.Now()
	sess := &session{
		id:        uuid.New().String(),
		fileName:  req.FileName,
		hasHeader: req.HasHeader,
		clientIP:  IPAddressFromContext(ctx),
		userAgent: UserAgentFromContext(ctx),
		createdAt: now,
		lastUsed:  now,
		store:     store,
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	metrics.SessionsActive.Inc()

	logging.WithFields(ctx, "import_id", sess.id).Info("import staged",
		"file", req.FileName,
		"ip", sess.clientIP,
		"user_agent", sess.userAgent,
		"total", summary.Total,
		"clean", summary.Clean,
		"blocked", summary.Blocked,
	)

	return ImportSummary{
		ID:        sess.id,
		FileName:  req.FileName,
		HasHeader: req.HasHeader,
		Header:    store.Header(),
		Summary:   summary,
	}, nil
}

// ReplaceImport loads req into an existing session, replacing its batch.
// The previous batch is kept when the new file cannot be read.
func (s *Service) ReplaceImport(ctx context.Context, id string, req ImportRequest) (ImportSummary, error) {
	sess, err := s.session(id)
	if err != nil {
		return ImportSummary{}, err
	}

	summary, err := s.load(ctx, sess.store, req)
	if err != nil {
		return ImportSummary{}, err
	}

	sess.mu.Lock()
	sess.fileName = req.FileName
	sess.hasHeader = req.HasHeader
	sess.lastUsed = time.Now()
	sess.mu.Unlock()

	logging.WithFields(ctx, "import_id", id).Info("import replaced",
		"file", req.FileName,
		"total", summary.Total,
		"blocked", summary.Blocked,
	)

	return ImportSummary{
		ID:        id,
		FileName:  req.FileName,
		HasHeader: req.HasHeader,
		Header:    sess.store.Header(),
		Summary:   summary,
	}, nil
}

func (s *Service) load(ctx context.Context, store *Store, req ImportRequest) (BatchSummary, error) {
	if size := int64(len(req.Content)); size > s.opts.MaxFileSize {
		metrics.RecordImport("too_large")
		return BatchSummary{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, s.opts.MaxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return BatchSummary{}, err
	}
	defer s.limiter.Release()

	table, err := s.reader.Read(req.Content, req.HasHeader)
	if err != nil {
		metrics.RecordImport("malformed")
		return BatchSummary{}, err
	}

	summary, err := store.LoadBatch(table)
	if err != nil {
		metrics.RecordImport("rejected")
		return BatchSummary{}, err
	}

	metrics.RecordImport("ok")
	metrics.RecordRows(summary.Clean, summary.Blocked)
	for _, rec := range store.ListStaged() {
		for _, issue := range rec.Issues {
			metrics.RecordIssue(string(issue.Reason))
		}
	}
	return summary, nil
}

// Records returns the staged records of a session in index order.
func (s *Service) Records(id string) ([]StagedRecord, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.touch()
	return sess.store.ListStaged(), nil
}

// Record returns one staged record.
func (s *Service) Record(id string, index int) (StagedRecord, error) {
	sess, err := s.session(id)
	if err != nil {
		return StagedRecord{}, err
	}
	sess.touch()
	return sess.store.Get(index)
}

// EditField corrects one field of a staged record.
func (s *Service) EditField(id string, index int, field, raw string) (StagedRecord, error) {
	sess, err := s.session(id)
	if err != nil {
		return StagedRecord{}, err
	}
	sess.touch()
	return sess.store.EditField(index, field, raw)
}

// Submit sends the session's eligible records to the inventory.
func (s *Service) Submit(ctx context.Context, id string) (SubmissionResult, error) {
	sess, err := s.session(id)
	if err != nil {
		return SubmissionResult{}, err
	}
	if !sess.begin() {
		return SubmissionResult{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	defer sess.end()

	if err := s.limiter.Acquire(ctx); err != nil {
		return SubmissionResult{}, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.opts.SubmitTimeout)
	defer cancel()

	result, err := s.controller.Submit(ctx, sess.store)
	if err != nil {
		logging.WithFields(ctx, "import_id", id).Warn("submit failed", "error", err)
		return result, err
	}
	return result, nil
}

// Discard closes a session. A session with records in flight cannot be discarded.
func (s *Service) Discard(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if !sess.close() {
		return fmt.Errorf("discard %s: %w", id, ErrBatchLocked)
	}
	delete(s.sessions, id)
	metrics.SessionsActive.Dec()

	slog.Info("import discarded", "import_id", id)
	return nil
}

// Sessions lists open sessions, oldest first.
func (s *Service) Sessions() []SessionInfo {
	s.mu.RLock()
	list := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.mu.RUnlock()

	infos := make([]SessionInfo, len(list))
	for i, sess := range list {
		sess.mu.Lock()
		infos[i] = SessionInfo{
			ID:        sess.id,
			FileName:  sess.fileName,
			ClientIP:  sess.clientIP,
			UserAgent: sess.userAgent,
			CreatedAt: sess.createdAt,
			LastUsed:  sess.lastUsed,
		}
		sess.mu.Unlock()
		infos[i].Records = sess.store.Len()
		infos[i].InFlight = sess.store.InFlight()
	}

	slices.SortFunc(infos, func(a, b SessionInfo) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return infos
}

func (s *Service) session(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}
