package match

import "testing"

func TestRenderHidesQuestionUntilReveal(t *testing.T) {
	t.Parallel()

	r := testSession(t)
	addPlayers(t, r, "A")

	if err := r.SetQuestionsText("secret question"); err != nil {
		t.Fatalf("set questions: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if view := r.RenderView(); view.Question != "" {
		t.Fatalf("question leaked before reveal: %q", view.Question)
	}

	if err := r.Reveal(); err != nil {
		t.Fatalf("reveal: %v", err)
	}

	if view := r.RenderView(); view.Question != "secret question" {
		t.Fatalf("question = %q after reveal", view.Question)
	}
}

func TestRenderRankingOnEnded(t *testing.T) {
	t.Parallel()

	r := testSession(t)
	addPlayers(t, r, "A", "B", "C")
	r.players[0].Score = 5
	r.players[1].Score = 10
	r.players[2].Score = 5

	if view := r.RenderView(); view.Ranking != nil {
		t.Fatal("ranking present before the game ended")
	}

	if err := r.SetQuestionsText("q1"); err != nil {
		t.Fatalf("set questions: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	view := r.RenderView()
	want := []string{"B", "A", "C"}
	if len(view.Ranking) != len(want) {
		t.Fatalf("ranking size = %d", len(view.Ranking))
	}
	for i, name := range want {
		if view.Ranking[i].Name != name {
			t.Fatalf("rank %d = %s, want %s", i, view.Ranking[i].Name, name)
		}
	}

	// players keep their board order even while ranking is shown
	if view.Players[0].Name != "A" {
		t.Fatalf("board order changed: %s first", view.Players[0].Name)
	}
}
