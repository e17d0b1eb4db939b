package telemetry

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/h3platform/pciemon/internal/errors"
	"github.com/h3platform/pciemon/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type bufferedSample struct {
	timestamp int64
	counter   CounterID
	values    [SampleWidth]float64
}

type repository struct {
	db            *sql.DB
	cfg           Config
	mu            sync.Mutex
	buffer        []bufferedSample
	flushTicker   *time.Ticker
	shutdownChan  chan struct{}
	flushDoneChan chan struct{}
}

// NewRepository opens a sqlite-backed sink. Samples are buffered and
// flushed in batches; registrations are written through immediately.
func NewRepository(cfg Config) (Sink, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", schemaVersion).
		Int("batch_size", cfg.BatchSize).
		Int("batch_timeout", cfg.BatchTimeout).
		Msg("Telemetry sink initialized")

	repo := &repository{
		db:            db,
		cfg:           cfg,
		buffer:        make([]bufferedSample, 0, max(cfg.BatchSize, 1)),
		shutdownChan:  make(chan struct{}),
		flushDoneChan: make(chan struct{}),
	}

	if cfg.BatchSize > 0 && cfg.BatchTimeout > 0 {
		repo.flushTicker = time.NewTicker(time.Duration(cfg.BatchTimeout) * time.Second)
		go repo.flusher()
	} else {
		close(repo.flushDoneChan)
	}

	return repo, nil
}

func (r *repository) CreateDomain(name string) (DomainID, error) {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.Exec(`
	INSERT INTO domains (name) VALUES (?)
	ON CONFLICT(name) DO NOTHING
	`, name); err != nil {
		return 0, errFactory.Wrap(ErrRegisterFailed, err)
	}

	var id int64
	if err := r.db.QueryRow(`SELECT id FROM domains WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, errFactory.Wrap(ErrRegisterFailed, err)
	}

	return DomainID(id), nil
}

func (r *repository) RegisterSchema(domain DomainID, fields []string) (SchemaID, error) {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.Exec(`
	INSERT INTO schemas (domain_id, fields) VALUES (?, ?)
	`, int64(domain), strings.Join(fields, ","))
	if err != nil {
		return 0, errFactory.Wrap(ErrRegisterFailed, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errFactory.Wrap(ErrRegisterFailed, err)
	}

	return SchemaID(id), nil
}

func (r *repository) RegisterCounter(domain DomainID, schema SchemaID, name string) (CounterID, error) {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.Exec(`
	INSERT INTO counters (domain_id, schema_id, name) VALUES (?, ?, ?)
	`, int64(domain), int64(schema), name)
	if err != nil {
		return 0, errFactory.Wrap(ErrRegisterFailed, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errFactory.Wrap(ErrRegisterFailed, err)
	}

	return CounterID(id), nil
}

func (r *repository) Publish(_ DomainID, counter CounterID, values []float64) error {
	if len(values) != SampleWidth {
		return errors.New().WithData(ErrInvalidSample, len(values))
	}

	sample := bufferedSample{
		timestamp: time.Now().UnixMilli(),
		counter:   counter,
	}
	copy(sample.values[:], values)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, sample)

	if len(r.buffer) >= r.cfg.BatchSize {
		return r.flush()
	}

	return nil
}

func (r *repository) Close() error {
	if r.flushTicker != nil {
		close(r.shutdownChan)
		r.flushTicker.Stop()
	}
	<-r.flushDoneChan

	r.mu.Lock()
	if err := r.flush(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	logger.Debug().Msg("Telemetry sink closed")

	return nil
}

func (r *repository) flusher() {
	defer close(r.flushDoneChan)

	for {
		select {
		case <-r.flushTicker.C:
			r.mu.Lock()
			if err := r.flush(); err != nil {
				logger.Error().Err(err).Msg("Failed to flush telemetry samples")
			}
			r.mu.Unlock()
		case <-r.shutdownChan:
			return
		}
	}
}

// flush writes the buffered samples in one transaction. Callers hold r.mu.
func (r *repository) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	errFactory := errors.New()

	tx, err := r.db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	stmt, err := tx.Prepare(insertSampleSQL)
	if err != nil {
		_ = tx.Rollback()
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer stmt.Close()

	for _, sample := range r.buffer {
		if _, err := stmt.Exec(
			sample.timestamp,
			int64(sample.counter),
			sample.values[0],
			sample.values[1],
			sample.values[2],
			sample.values[3],
		); err != nil {
			_ = tx.Rollback()
			return errFactory.Wrap(ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	logger.Debug().Int("records", len(r.buffer)).Msg("Flushed telemetry samples")
	r.buffer = r.buffer[:0]

	return nil
}
