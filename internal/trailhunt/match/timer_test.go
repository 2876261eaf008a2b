package match

import (
	"testing"
	"time"
)

func TestTickCountsDownAndExpiresOnce(t *testing.T) {
	t.Parallel()

	var cues []Cue
	r := NewSession(Config{
		TickInterval: time.Hour,
		CueFn:        func(c Cue) { cues = append(cues, c) },
	})
	addPlayers(t, r, "A")

	if err := r.SetTimeLimit(5); err != nil {
		t.Fatalf("set limit: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Reveal(); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	for i := 0; i < 4; i++ {
		if !r.Tick() {
			t.Fatalf("clock stopped early at tick %d", i)
		}
	}
	if got := r.TimeLeft(); got != 1 {
		t.Fatalf("time left = %d, want 1", got)
	}

	if r.Tick() {
		t.Fatal("clock kept running past zero")
	}
	if got := r.TimeLeft(); got != 0 {
		t.Fatalf("time left = %d, want 0", got)
	}
	if r.phase != PhaseExpired {
		t.Fatalf("phase = %v, want expired", r.phase)
	}

	// further ticks are no-ops and never go negative or re-cue
	r.Tick()
	r.Tick()
	if got := r.TimeLeft(); got != 0 {
		t.Fatalf("time left after extra ticks = %d", got)
	}

	timeouts := 0
	for _, c := range cues {
		if c == CueTimeout {
			timeouts++
		}
	}
	if timeouts != 1 {
		t.Fatalf("timeout cues = %d, want 1", timeouts)
	}
}

func TestTickIgnoredAfterJudge(t *testing.T) {
	t.Parallel()

	r := testSession(t)
	addPlayers(t, r, "A")

	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Reveal(); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, err := r.Judge(0, OutcomeCorrect); err != nil {
		t.Fatalf("judge: %v", err)
	}

	before := r.TimeLeft()
	if r.Tick() {
		t.Fatal("tick reported a running clock after judge")
	}
	if got := r.TimeLeft(); got != before {
		t.Fatalf("stale tick changed the clock: %d -> %d", before, got)
	}
}

func TestCountdownDrivesTicks(t *testing.T) {
	t.Parallel()

	r := NewSession(Config{TickInterval: 2 * time.Millisecond})
	addPlayers(t, r, "A")

	if err := r.SetTimeLimit(5); err != nil {
		t.Fatalf("set limit: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Reveal(); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.TimeLeft() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("clock never reached zero, left=%d", r.TimeLeft())
		}
		time.Sleep(time.Millisecond)
	}

	r.Stop()
}

func TestCountdownStopIdempotent(t *testing.T) {
	t.Parallel()

	c := newCountdown(time.Hour)
	done := make(chan struct{})
	go func() {
		c.run(func() bool { return true })
		close(done)
	}()

	c.stop()
	c.stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not return after stop")
	}
}
