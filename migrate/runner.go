package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/satishbabariya/sqlkit/database"
	"github.com/satishbabariya/sqlkit/dialect"
	"github.com/satishbabariya/sqlkit/query"
	"github.com/satishbabariya/sqlkit/schema"
)

// Runner applies the migrations of a Config against one database.
// It is not safe for concurrent use and the ledger is not locked: two
// runners against the same database can race.
type Runner struct {
	config   Config
	dialect  dialect.Dialect
	executor database.Executor
	logger   Logger
	slog     *slog.Logger
	executed int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the progress notification sink.
func WithLogger(logger Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSlog sets the structured logger. Every call tags its records with a
// fresh run_id.
func WithSlog(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.slog = logger
		}
	}
}

// NewRunner returns a runner for cfg. It is silent unless a Logger is given.
func NewRunner(cfg Config, d dialect.Dialect, exec database.Executor, opts ...RunnerOption) *Runner {
	r := &Runner{
		config:   cfg,
		dialect:  d,
		executor: exec,
		logger:   nopLogger{},
		slog:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Executed returns the number of source operations run by the last call.
func (r *Runner) Executed() int {
	return r.executed
}

// session is the state of one runner call.
type session struct {
	log    *slog.Logger
	ledger *ledger
}

func (r *Runner) begin(op string) *session {
	log := r.slog.With("run_id", uuid.NewString(), "op", op)
	return &session{
		log:    log,
		ledger: newLedger(r.builder(log), query.New(r.dialect, r.executor)),
	}
}

func (r *Runner) builder(log *slog.Logger) *schema.Builder {
	return schema.NewBuilder(r.dialect, r.executor, schema.WithLogger(log))
}

// Migrate applies every pending version up to and including to, or all of
// them when to is empty. Pending versions start after the longest prefix
// of declared versions that all have ledger entries.
func (r *Runner) Migrate(ctx context.Context, to string) error {
	if err := assertVersion(r.config, to); err != nil {
		return err
	}
	s := r.begin("migrate")
	r.executed = 0

	if err := r.setup(ctx, s); err != nil {
		return err
	}
	state, err := r.state(ctx, s)
	if err != nil {
		return err
	}

	versions := r.config.Versions()
	resume := 0
	for resume < len(versions) && state.versions[versions[resume]] {
		resume++
	}
	if resume > 0 {
		r.logger.Info("Current version: " + versions[resume-1])
	} else {
		r.logger.Info("No version applied yet.")
	}
	if to != "" && indexOf(versions, to) < resume {
		r.logger.Info("Nothing to migrate, " + to + " is already applied.")
		return nil
	}

	for _, version := range versions[resume:] {
		if err := r.forward(ctx, s, version); err != nil {
			return err
		}
		if version == to {
			break
		}
	}
	s.log.Info("migrate done", "executed", r.executed)
	return nil
}

// Rollback undoes versions from the current one down to and including to,
// or all of them when to is empty. Only (version, source) pairs with a
// ledger entry are rolled back.
func (r *Runner) Rollback(ctx context.Context, to string) error {
	if err := assertVersion(r.config, to); err != nil {
		return err
	}
	s := r.begin("rollback")
	r.executed = 0

	if err := r.setup(ctx, s); err != nil {
		return err
	}
	state, err := r.state(ctx, s)
	if err != nil {
		return err
	}

	versions := r.config.Versions()
	current := state.current(versions)
	if current < 0 {
		r.logger.Warning("No current version found. Make sure that your migrations table is up to date.")
		return nil
	}
	r.logger.Info("Current version: " + versions[current])

	stop := 0
	if to != "" {
		stop = indexOf(versions, to)
		if stop > current {
			r.logger.Info("Nothing to roll back, " + to + " is not applied.")
			return nil
		}
	}

	for i := current; i >= stop; i-- {
		if err := r.backward(ctx, s, state, versions[i]); err != nil {
			return err
		}
	}
	s.log.Info("rollback done", "executed", r.executed)
	return nil
}

// Run applies the forward operations of one version regardless of the
// ledger.
func (r *Runner) Run(ctx context.Context, version string) error {
	if version == "" {
		return fmt.Errorf("%w: empty version", ErrUnknownVersion)
	}
	if err := assertVersion(r.config, version); err != nil {
		return err
	}
	s := r.begin("run")
	r.executed = 0

	if err := r.setup(ctx, s); err != nil {
		return err
	}
	return r.forward(ctx, s, version)
}

// Reset rolls back to from and migrates up again to the version that was
// current before. The two phases are not atomic.
func (r *Runner) Reset(ctx context.Context, from string) error {
	if err := assertVersion(r.config, from); err != nil {
		return err
	}

	current, err := r.Current(ctx)
	if err != nil {
		return err
	}
	if err := r.Rollback(ctx, from); err != nil {
		return err
	}
	if current == "" {
		return nil
	}

	rolledBack := r.executed
	err = r.Migrate(ctx, current)
	r.executed += rolledBack
	return err
}

// Current returns the highest declared version with a ledger entry, or ""
// when nothing is applied.
func (r *Runner) Current(ctx context.Context) (string, error) {
	s := r.begin("current")
	if err := r.setup(ctx, s); err != nil {
		return "", err
	}
	state, err := r.state(ctx, s)
	if err != nil {
		return "", err
	}
	versions := r.config.Versions()
	if i := state.current(versions); i >= 0 {
		return versions[i], nil
	}
	return "", nil
}

// Stat groups the ledger entries of one version.
type Stat struct {
	Version string
	Entries []Entry
}

// Stats returns ledger entries grouped by version, in the order versions
// were first applied. A missing ledger table yields no stats.
func (r *Runner) Stats(ctx context.Context) ([]Stat, error) {
	s := r.begin("stats")
	exists, err := s.ledger.schema.HasTable(ctx, LedgerTable)
	if err != nil || !exists {
		return nil, err
	}
	entries, err := s.ledger.entries(ctx)
	if err != nil {
		return nil, err
	}

	var stats []Stat
	index := make(map[string]int)
	for _, e := range entries {
		i, ok := index[e.Version]
		if !ok {
			i = len(stats)
			index[e.Version] = i
			stats = append(stats, Stat{Version: e.Version})
		}
		stats[i].Entries = append(stats[i].Entries, e)
	}
	return stats, nil
}

func (r *Runner) setup(ctx context.Context, s *session) error {
	created, err := s.ledger.ensure(ctx)
	if err != nil {
		r.logger.Critical("Error while creating migrations table.")
		return err
	}
	if created {
		r.logger.Info("Setup of the migrations table.")
		r.logger.Success("Migrations table created with success.")
		s.log.Debug("ledger created", "table", LedgerTable)
	}
	return nil
}

// ledgerState indexes the ledger by version and by (version, source).
type ledgerState struct {
	versions map[string]bool
	pairs    map[[2]string]bool
}

func (st ledgerState) current(versions []string) int {
	current := -1
	for i, v := range versions {
		if st.versions[v] {
			current = i
		}
	}
	return current
}

func (r *Runner) state(ctx context.Context, s *session) (ledgerState, error) {
	entries, err := s.ledger.entries(ctx)
	if err != nil {
		return ledgerState{}, err
	}
	st := ledgerState{versions: make(map[string]bool), pairs: make(map[[2]string]bool)}
	for _, e := range entries {
		st.versions[e.Version] = true
		st.pairs[[2]string{e.Version, e.Migration}] = true
	}
	return st, nil
}

// forward runs version on every source defining it and records each step.
func (r *Runner) forward(ctx context.Context, s *session, version string) error {
	r.logger.Info("Running version: " + version)
	n := 0
	for _, src := range r.config.Migrations() {
		op, ok := src.Operation(version)
		if !ok {
			continue
		}
		r.logger.Note(fmt.Sprintf("Run %s.%s", src.Name(), version))
		s.log.Debug("operation", "source", src.Name(), "name", version)

		if err := op(ctx, r.builder(s.log)); err != nil {
			r.logger.Critical(fmt.Sprintf("%s.%s failed: %v", src.Name(), version, err))
			return fmt.Errorf("migration %s.%s: %w", src.Name(), version, err)
		}
		if err := s.ledger.create(ctx, version, src.Name()); err != nil {
			return fmt.Errorf("failed to record %s.%s: %w", src.Name(), version, err)
		}
		n++
		r.executed++
	}
	r.logger.Success(fmt.Sprintf("%d migrations executed", n))
	return nil
}

// backward undoes version on every source, in reverse declaration order,
// that has a ledger entry for it.
func (r *Runner) backward(ctx context.Context, s *session, st ledgerState, version string) error {
	r.logger.Info("Rolling back version: " + version)
	name := r.config.RollbackName(version)
	sources := r.config.Migrations()

	n := 0
	for i := len(sources) - 1; i >= 0; i-- {
		src := sources[i]
		if !st.pairs[[2]string{version, src.Name()}] {
			if _, defined := src.Operation(version); defined {
				r.logger.Note(fmt.Sprintf("SKIP: %s.%s no migration found for %s.", src.Name(), name, version))
			}
			continue
		}
		op, ok := src.Operation(name)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrMissingRollback, src.Name(), name)
		}
		r.logger.Note(fmt.Sprintf("Run %s.%s", src.Name(), name))
		s.log.Debug("operation", "source", src.Name(), "name", name)

		if err := op(ctx, r.builder(s.log)); err != nil {
			r.logger.Critical(fmt.Sprintf("%s.%s failed: %v", src.Name(), name, err))
			return fmt.Errorf("migration %s.%s: %w", src.Name(), name, err)
		}
		if err := s.ledger.delete(ctx, version, src.Name()); err != nil {
			return fmt.Errorf("failed to delete ledger entry %s.%s: %w", src.Name(), version, err)
		}
		n++
		r.executed++
	}
	r.logger.Success(fmt.Sprintf("%d migrations rolled back", n))
	return nil
}
