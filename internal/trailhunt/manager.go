package trailhunt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	snapDb "github.com/trailhunt-games/trailhunt/internal/database/snapshot/database"
	"github.com/trailhunt-games/trailhunt/internal/database/snapshot/model"
	"github.com/trailhunt-games/trailhunt/internal/logging"
	"github.com/trailhunt-games/trailhunt/internal/questions"
	"github.com/trailhunt-games/trailhunt/internal/server"
	"github.com/trailhunt-games/trailhunt/internal/trailhunt/match"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewManager wires the session orchestrator: operator HTTP actions go in,
// state machine transitions happen, and every committed change is saved
// to the snapshot store and pushed to connected browsers.
func NewManager(config *Config, snapshotDb *snapDb.DB, source *questions.Source) *manager {
	m := &manager{
		config:     config,
		snapshotDb: snapshotDb,
		source:     source,
		hub:        newHub(),
		logger:     logging.DefaultLogger().Named("trailhunt.manager"),
	}

	m.session = match.NewFromSnapshot(match.Config{
		ChangedFn: m.committed,
		CueFn:     m.cue,
	}, m.restore())

	return m
}

type manager struct {
	config     *Config
	snapshotDb *snapDb.DB
	source     *questions.Source
	hub        *hub
	session    *match.Session
	logger     *zap.SugaredLogger
}

// Run serves the operator surface until ctx is cancelled.
func (m *manager) Run(ctx context.Context) error {
	m.logger = logging.FromContext(ctx).Named("trailhunt.manager")

	srv, err := server.New(m.config.Port)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpSrv := &http.Server{
		Handler:           m.routes(ctx),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ServeHTTP(ctx, httpSrv)
	})
	g.Go(func() error {
		<-ctx.Done()
		m.session.Stop()
		m.hub.close()
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	return nil
}

// restore fetches the saved snapshot. A missing or malformed snapshot is
// never fatal; the session just starts from defaults.
func (m *manager) restore() model.Snapshot {
	snapshot, err := m.snapshotDb.Fetch()
	if err != nil {
		if errors.Is(err, snapDb.ErrEntryNotFound) {
			m.logger.Infof("no saved session, starting fresh")
		} else {
			m.logger.Errorf("saved session unreadable, starting fresh: %v", err)
		}
		return model.Default()
	}

	m.logger.Infof("restored session saved at %s", snapshot.SavedAt.Format(time.RFC3339))

	return snapshot
}

// committed runs after every committed transition: best-effort save, then
// push the re-rendered view.
func (m *manager) committed() {
	snapshot := m.session.Snapshot()
	if err := m.snapshotDb.Put(snapshot); err != nil {
		m.logger.Errorf("save snapshot: %v", err)
	}

	view := m.session.RenderView()
	m.hub.broadcast(Event{Type: "state", View: &view})
}

func (m *manager) cue(c match.Cue) {
	m.hub.broadcast(Event{Type: "sound", Cue: string(c)})
}

// clearSaved wipes the persisted snapshot; used by the full reset.
func (m *manager) clearSaved() {
	if err := m.snapshotDb.Clean(); err != nil && !errors.Is(err, snapDb.ErrBucketNotFound) {
		m.logger.Errorf("clean snapshot store: %v", err)
	}
}
