package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/BTreeMap/WellnessGate/internal/crisis"
	"github.com/BTreeMap/WellnessGate/internal/flow"
	"github.com/BTreeMap/WellnessGate/internal/testutil"
)

func newController(t *testing.T, mood, phq9 int) (*flow.Controller, *testutil.StubGenerator) {
	t.Helper()
	gen := &testutil.StubGenerator{}
	profile := testutil.NewProfile(t, "p1", "Alex", mood, phq9)
	return flow.NewController(profile, testutil.Catalog(t), crisis.NewGate(), flow.WithGenerator(gen)), gen
}

func TestRunConversation(t *testing.T) {
	c, gen := newController(t, 6, 5)
	in := strings.NewReader("hello there\nshow reminders\nquit\nnever read\n")
	var out bytes.Buffer

	if err := Run(context.Background(), in, &out, c); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Chatbot started for Alex. Type 'quit' to exit.\n",
		"You: Bot: echo: hello there\n",
		"Bot: Reminders: none\n",
		"Bot: " + flow.FarewellMessage + "\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "never read") {
		t.Errorf("expected input after quit to be ignored:\n%s", got)
	}
	if c.State() != flow.StateTerminated {
		t.Errorf("expected terminated state, got %s", c.State())
	}
	if gen.CallCount() != 1 {
		t.Errorf("expected one generation call, got %d", gen.CallCount())
	}
}

func TestRunShowsBannerBeforeInput(t *testing.T) {
	c, _ := newController(t, 2, 21)
	var out bytes.Buffer

	if err := Run(context.Background(), strings.NewReader(""), &out, c); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := out.String()
	banner := strings.Index(got, "Bot: "+flow.SeverityNotice)
	prompt := strings.Index(got, UserPrompt)
	if banner < 0 || prompt < 0 || banner > prompt {
		t.Errorf("expected banner before first prompt:\n%s", got)
	}
	if strings.Count(got, flow.SeverityNotice) != 1 {
		t.Errorf("expected banner exactly once:\n%s", got)
	}
}

func TestRunStopsAtEOF(t *testing.T) {
	c, _ := newController(t, 6, 5)
	var out bytes.Buffer

	if err := Run(context.Background(), strings.NewReader("hi"), &out, c); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if c.State() != flow.StateChatting {
		t.Errorf("expected chatting state at EOF, got %s", c.State())
	}
	if !strings.Contains(out.String(), "Bot: echo: hi\n") {
		t.Errorf("expected last line without newline to be handled:\n%s", out.String())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	c, _ := newController(t, 6, 5)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, pr, io.Discard, c)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// failingReader returns an error on the first read.
type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("device gone")
}

func TestRunReportsReadError(t *testing.T) {
	c, _ := newController(t, 6, 5)
	if err := Run(context.Background(), failingReader{}, io.Discard, c); err == nil {
		t.Error("expected read error")
	}
}

func TestRunClassifierCrisisThenContinue(t *testing.T) {
	gen := &testutil.StubGenerator{Replies: []string{"I'm here with you."}}
	scorer := &testutil.StubScorer{Value: 0.9}
	gate := crisis.NewGate(crisis.WithScorer(scorer))
	c := flow.NewController(testutil.NewProfile(t, "p1", "Alex", 6, 5), testutil.Catalog(t), gate, flow.WithGenerator(gen))
	var out bytes.Buffer

	if err := Run(context.Background(), strings.NewReader("everything is grey\ncontinue\n"), &out, c); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Bot: "+flow.CrisisMessage) {
		t.Errorf("expected crisis message:\n%s", got)
	}
	if !strings.Contains(got, "Bot: I'm here with you.") {
		t.Errorf("expected reply after continue:\n%s", got)
	}
	if scorer.CallCount() != 1 {
		t.Errorf("expected continue to skip scoring, got %d calls", scorer.CallCount())
	}
	if gen.CallCount() != 1 || gen.Calls[0].Message != "continue" {
		t.Errorf("expected only the continue turn to be forwarded, got %+v", gen.Calls)
	}
}
