package trailhunt

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	storage "github.com/trailhunt-games/trailhunt/internal/database"
	snapDb "github.com/trailhunt-games/trailhunt/internal/database/snapshot/database"
	"github.com/trailhunt-games/trailhunt/internal/questions"
	"github.com/trailhunt-games/trailhunt/internal/trailhunt/match"
)

// testManager builds a manager over its own bbolt file. The returned
// close func must run before another manager opens the same file, since
// bbolt holds an exclusive lock.
func testManager(t *testing.T, dbPath string) (*manager, func()) {
	t.Helper()

	sDB, err := storage.NewFromEnv(context.Background(), &storage.Config{FilePath: dbPath})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	source := questions.NewSource(questions.Config{Endpoint: "http://unused"}, nil)

	m := NewManager(&Config{}, snapDb.New(sDB), source)

	return m, func() {
		m.session.Stop()
		_ = sDB.Close(context.Background())
	}
}

func do(t *testing.T, mux http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	return rec
}

func TestAPIFullGame(t *testing.T) {
	t.Parallel()

	m, done := testManager(t, filepath.Join(t.TempDir(), "trailhunt.db"))
	defer done()
	mux := m.routes(context.Background())

	for _, name := range []string{"A", "B"} {
		if rec := do(t, mux, http.MethodPost, "/api/players", map[string]string{"name": name}); rec.Code != http.StatusCreated {
			t.Fatalf("add player %s: %d %s", name, rec.Code, rec.Body)
		}
	}

	if rec := do(t, mux, http.MethodPut, "/api/questions", map[string]string{"text": "only question"}); rec.Code != http.StatusNoContent {
		t.Fatalf("set questions: %d %s", rec.Code, rec.Body)
	}

	if rec := do(t, mux, http.MethodPost, "/api/game/start", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("start: %d %s", rec.Code, rec.Body)
	}
	if rec := do(t, mux, http.MethodPost, "/api/game/reveal", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("reveal: %d %s", rec.Code, rec.Body)
	}

	rec := do(t, mux, http.MethodPost, "/api/game/judge", map[string]interface{}{
		"playerIndex": 0,
		"outcome":     "correct",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("judge: %d %s", rec.Code, rec.Body)
	}

	var judged struct {
		Cards []match.LuckyCard `json:"cards"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &judged); err != nil {
		t.Fatalf("decode judge response: %v", err)
	}
	if len(judged.Cards) != 4 {
		t.Fatalf("cards = %d, want 4", len(judged.Cards))
	}

	if rec := do(t, mux, http.MethodPost, "/api/game/card", map[string]string{"cardId": judged.Cards[0].ID}); rec.Code != http.StatusOK {
		t.Fatalf("resolve: %d %s", rec.Code, rec.Body)
	}

	if rec := do(t, mux, http.MethodPost, "/api/game/advance", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("advance: %d %s", rec.Code, rec.Body)
	}

	rec = do(t, mux, http.MethodGet, "/api/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("state: %d", rec.Code)
	}

	var view match.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if view.Stage != "ended" {
		t.Fatalf("stage = %s, want ended", view.Stage)
	}
	if len(view.Ranking) != 2 {
		t.Fatalf("ranking = %d players", len(view.Ranking))
	}
}

func TestAPIErrorMapping(t *testing.T) {
	t.Parallel()

	m, done := testManager(t, filepath.Join(t.TempDir(), "trailhunt.db"))
	defer done()
	mux := m.routes(context.Background())

	// wrong moment: judging before the game starts
	rec := do(t, mux, http.MethodPost, "/api/game/judge", map[string]interface{}{
		"playerIndex": 0,
		"outcome":     "correct",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("judge in setup: %d, want 409", rec.Code)
	}

	// invalid input
	if rec := do(t, mux, http.MethodPut, "/api/settings/time-limit", map[string]int{"seconds": 4}); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("time limit 4: %d, want 422", rec.Code)
	}

	// unknown entity
	if rec := do(t, mux, http.MethodDelete, "/api/players/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("remove unknown player: %d, want 404", rec.Code)
	}

	// malformed body
	req := httptest.NewRequest(http.MethodPost, "/api/players", bytes.NewBufferString("{"))
	raw := httptest.NewRecorder()
	mux.ServeHTTP(raw, req)
	if raw.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: %d, want 400", raw.Code)
	}
}

func TestAPISessionSurvivesRestart(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "trailhunt.db")

	func() {
		m, done := testManager(t, dbPath)
		defer done()
		mux := m.routes(context.Background())

		if rec := do(t, mux, http.MethodPost, "/api/players", map[string]string{"name": "A"}); rec.Code != http.StatusCreated {
			t.Fatalf("add player: %d %s", rec.Code, rec.Body)
		}
		if rec := do(t, mux, http.MethodPost, "/api/game/start", nil); rec.Code != http.StatusNoContent {
			t.Fatalf("start: %d %s", rec.Code, rec.Body)
		}
	}()

	m, done := testManager(t, dbPath)
	defer done()
	mux := m.routes(context.Background())

	rec := do(t, mux, http.MethodGet, "/api/state", nil)
	var view match.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode state: %v", err)
	}

	if view.Stage != "playing" {
		t.Fatalf("restored stage = %s, want playing", view.Stage)
	}
	if len(view.Players) != 1 || view.Players[0].Name != "A" {
		t.Fatalf("restored players = %+v", view.Players)
	}
	if len(view.Log) == 0 {
		t.Fatal("log lost across restart")
	}
}

func TestAPIResetClearsSaved(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "trailhunt.db")

	func() {
		m, done := testManager(t, dbPath)
		defer done()
		mux := m.routes(context.Background())

		if rec := do(t, mux, http.MethodPost, "/api/players", map[string]string{"name": "A"}); rec.Code != http.StatusCreated {
			t.Fatalf("add player: %d %s", rec.Code, rec.Body)
		}
		if rec := do(t, mux, http.MethodPost, "/api/game/reset", nil); rec.Code != http.StatusNoContent {
			t.Fatalf("reset: %d %s", rec.Code, rec.Body)
		}
	}()

	m, done := testManager(t, dbPath)
	defer done()
	mux := m.routes(context.Background())

	rec := do(t, mux, http.MethodGet, "/api/state", nil)
	var view match.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode state: %v", err)
	}

	// the reset itself is committed after the store is wiped, so what
	// comes back is the default state
	if view.Stage != "setup" || len(view.Players) != 0 {
		t.Fatalf("after reset: stage %s players %d", view.Stage, len(view.Players))
	}
}
