// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the newline-delimited event streams produced by
// the chat completion API and folds them into assistant messages.
package stream

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeClock is a manually advanced clock for deterministic durations.
type fakeClock struct {
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

// recordingSink captures patches in arrival order.
type recordingSink struct {
	patches []Patch
}

func (s *recordingSink) Apply(p Patch) {
	s.patches = append(s.patches, p)
}

// kinds returns the patch type names in order, for order assertions.
func (s *recordingSink) kinds() []string {
	names := make([]string, len(s.patches))
	for i, p := range s.patches {
		names[i] = fmt.Sprintf("%T", p)
	}
	return names
}

// errReader yields its data and then fails with a transport error.
type errReader struct {
	data []byte
	err  error
	pos  int
}

func (r *errReader) Read(p []byte) (int, error) {
	if r.pos < len(r.data) {
		n := copy(p, r.data[r.pos:])
		r.pos += n
		return n, nil
	}
	return 0, r.err
}

// oneByteReader forces single-byte reads to exercise buffering.
type oneByteReader struct {
	data []byte
	pos  int
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	p[0] = r.data[r.pos]
	r.pos++
	return 1, nil
}

func run(t *testing.T, body string) (*Result, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	result, err := NewAssembler(sink).WithClock(newFakeClock().Now).Run(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return result, sink
}

// =============================================================================
// LINE SCANNER TESTS
// =============================================================================

func TestLineScanner_StripsDataPrefix(t *testing.T) {
	body := "data: {\"a\":1}\n{\"b\":2}\n\n   \ndata: \n{\"c\":3}\n"
	scanner := NewLineScanner(strings.NewReader(body))

	var lines []string
	for {
		line, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		lines = append(lines, line)
	}

	want := []string{`{"a":1}`, `{"b":2}`, `{"c":3}`}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %v, want %v", lines, want)
	}
}

func TestLineScanner_ResidualTail(t *testing.T) {
	scanner := NewLineScanner(strings.NewReader("{\"a\":1}\ndata: {\"b\":2}"))

	line, err := scanner.Next()
	if err != nil || line != `{"a":1}` {
		t.Fatalf("first line = %q, %v", line, err)
	}
	if scanner.Residual() {
		t.Error("completed line reported as residual")
	}

	line, err = scanner.Next()
	if err != nil || line != `{"b":2}` {
		t.Fatalf("tail line = %q, %v", line, err)
	}
	if !scanner.Residual() {
		t.Error("unterminated tail not reported as residual")
	}

	if _, err := scanner.Next(); err != io.EOF {
		t.Errorf("after tail, err = %v, want io.EOF", err)
	}
}

func TestLineScanner_SingleByteReads(t *testing.T) {
	body := "data: {\"event\":\"cmpl\",\"text\":\"héllo 世界\"}\n"
	scanner := NewLineScanner(&oneByteReader{data: []byte(body)})

	line, err := scanner.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if line != `{"event":"cmpl","text":"héllo 世界"}` {
		t.Errorf("line = %q", line)
	}
}

// =============================================================================
// EVENT CLASSIFICATION TESTS
// =============================================================================

func TestParseEvent_Classification(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind Kind
	}{
		{"completion", `{"event":"cmpl","text":"hi"}`, KindCompletion},
		{"reasoning", `{"event":"k1","text":"hmm"}`, KindReasoning},
		{"search results", `{"event":"k1","type":"search_results","search_results":[{"url":"https://a"}]}`, KindSearchResults},
		{"search targets", `{"event":"k1","type":"search_targets","search_targets":["q"]}`, KindSearchTargets},
		{"prompt", `{"event":"chat_prompt","text":"Ask me"}`, KindPrompt},
		{"bare group id", `{"group_id":"g1"}`, KindGroupID},
		{"empty completion text", `{"event":"cmpl"}`, KindUnrecognized},
		{"unknown event", `{"event":"usage","tokens":12}`, KindUnrecognized},
		{"empty object", `{}`, KindUnrecognized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := ParseEvent(tc.line)
			if err != nil {
				t.Fatalf("ParseEvent failed: %v", err)
			}
			if ev.Kind != tc.kind {
				t.Errorf("Kind = %v, want %v", ev.Kind, tc.kind)
			}
		})
	}
}

func TestParseEvent_TargetStrings(t *testing.T) {
	ev, err := ParseEvent(`{"event":"k1","type":"search_targets","search_targets":["weather paris","paris forecast"]}`)
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}
	if len(ev.Targets) != 2 || ev.Targets[0].Query != "weather paris" {
		t.Errorf("Targets = %+v", ev.Targets)
	}
}

func TestParseEvent_Malformed(t *testing.T) {
	if _, err := ParseEvent("not json at all"); err == nil {
		t.Error("ParseEvent accepted garbage")
	}
}

// =============================================================================
// ASSEMBLER: CONTENT AND CHUNK-SPLIT INVARIANCE
// =============================================================================

// fullScript is a realistic stream exercising every event kind, with
// multi-byte characters, a data: prefix on some lines, an unknown event,
// and a malformed line.
const fullScript = "data: {\"group_id\":\"g-123\"}\n" +
	"{\"event\":\"k1\",\"type\":\"search_targets\",\"search_targets\":[\"東京 weather\"]}\n" +
	"{\"event\":\"k1\",\"type\":\"search_results\",\"search_results\":[{\"title\":\"Tokyo\",\"url\":\"https://e.com/a\"}]}\n" +
	"data: {\"event\":\"k1\",\"text\":\"考え中… \"}\n" +
	"{\"event\":\"k1\",\"text\":\"checking sources\"}\n" +
	"this line is not json\n" +
	"{\"event\":\"usage\",\"tokens\":40}\n" +
	"data: {\"event\":\"cmpl\",\"text\":\"Tokyo is \"}\n" +
	"{\"event\":\"cmpl\",\"text\":\"sunny ☀\"}\n"

func assembleWholeAndAssert(t *testing.T, result *Result) {
	t.Helper()
	if result.Message.Content != "Tokyo is sunny ☀" {
		t.Errorf("Content = %q", result.Message.Content)
	}
	if result.GroupID != "g-123" {
		t.Errorf("GroupID = %q", result.GroupID)
	}
	if result.Message.Thinking == nil || result.Message.Thinking.Text != "考え中… checking sources" {
		t.Errorf("Thinking = %+v", result.Message.Thinking)
	}
	if result.Message.Search == nil || len(result.Message.Search.Results) != 1 {
		t.Fatalf("Search = %+v", result.Message.Search)
	}
	if result.Message.Search.Targets[0].Query != "東京 weather" {
		t.Errorf("Targets = %+v", result.Message.Search.Targets)
	}
	if result.DecodeFailures != 1 {
		t.Errorf("DecodeFailures = %d, want 1", result.DecodeFailures)
	}
}

func TestAssembler_FullScript(t *testing.T) {
	result, sink := run(t, fullScript)
	assembleWholeAndAssert(t, result)

	// Citations appear as soon as both targets and results are in, which in
	// this script is before any reasoning text.
	got := sink.kinds()
	want := []string{
		"stream.ShowCitations",
		"stream.BeginThinking",
		"stream.AppendThinking",
		"stream.AppendThinking",
		"stream.FinishThinking",
		"stream.AppendContent",
		"stream.AppendContent",
		"stream.Done",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("patch order = %v, want %v", got, want)
	}
}

// TestAssembler_ChunkSplitInvariance verifies the assembled result does
// not depend on how the transport chunks the stream: splitting the body
// at every byte offset, including mid-line and mid-UTF-8-sequence, yields
// the same message.
func TestAssembler_ChunkSplitInvariance(t *testing.T) {
	whole, _ := run(t, fullScript)

	data := []byte(fullScript)
	for offset := 0; offset <= len(data); offset++ {
		body := io.MultiReader(
			strings.NewReader(string(data[:offset])),
			strings.NewReader(string(data[offset:])),
		)
		result, err := NewAssembler(nil).WithClock(newFakeClock().Now).Run(body)
		if err != nil {
			t.Fatalf("offset %d: Run failed: %v", offset, err)
		}
		if result.Message.Content != whole.Message.Content {
			t.Fatalf("offset %d: Content = %q, want %q",
				offset, result.Message.Content, whole.Message.Content)
		}
		if !reflect.DeepEqual(result.Message.Thinking, whole.Message.Thinking) {
			t.Fatalf("offset %d: Thinking = %+v, want %+v",
				offset, result.Message.Thinking, whole.Message.Thinking)
		}
		if !reflect.DeepEqual(result.Message.Search, whole.Message.Search) {
			t.Fatalf("offset %d: Search mismatch", offset)
		}
		if result.GroupID != whole.GroupID {
			t.Fatalf("offset %d: GroupID = %q", offset, result.GroupID)
		}
		if result.DecodeFailures != whole.DecodeFailures {
			t.Fatalf("offset %d: DecodeFailures = %d", offset, result.DecodeFailures)
		}
	}
}

func TestAssembler_SingleByteReads(t *testing.T) {
	result, err := NewAssembler(nil).WithClock(newFakeClock().Now).
		Run(&oneByteReader{data: []byte(fullScript)})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	assembleWholeAndAssert(t, result)
}

// =============================================================================
// ASSEMBLER: SEARCH FOLDING
// =============================================================================

func TestAssembler_DedupResultsByURL(t *testing.T) {
	body := `{"event":"k1","type":"search_results","search_results":[` +
		`{"title":"A","url":"https://e.com/a"},{"title":"A again","url":"https://e.com/a"}]}` + "\n" +
		`{"event":"k1","type":"search_results","search_results":[` +
		`{"title":"A later","url":"https://e.com/a"},{"title":"B","url":"https://e.com/b"}]}` + "\n" +
		`{"event":"cmpl","text":"done"}` + "\n"

	result, _ := run(t, body)
	results := result.Message.Search.Results
	if len(results) != 2 {
		t.Fatalf("Results = %+v, want 2 entries", results)
	}
	// First occurrence wins
	if results[0].Title != "A" || results[1].Title != "B" {
		t.Errorf("Results = %+v", results)
	}
}

func TestAssembler_TargetsReplaceWholesale(t *testing.T) {
	body := `{"event":"k1","type":"search_targets","search_targets":["first"]}` + "\n" +
		`{"event":"k1","type":"search_targets","search_targets":["second","third"]}` + "\n" +
		`{"event":"k1","type":"search_results","search_results":[{"url":"https://e.com"}]}` + "\n" +
		`{"event":"cmpl","text":"x"}` + "\n"

	result, _ := run(t, body)
	targets := result.Message.Search.Targets
	if len(targets) != 2 || targets[0].Query != "second" || targets[1].Query != "third" {
		t.Errorf("Targets = %+v, want the replacement set", targets)
	}
}

func TestAssembler_CitationsShownOnce(t *testing.T) {
	body := `{"event":"k1","type":"search_targets","search_targets":["q"]}` + "\n" +
		`{"event":"k1","type":"search_results","search_results":[{"url":"https://e.com/1"}]}` + "\n" +
		`{"event":"k1","type":"search_results","search_results":[{"url":"https://e.com/2"}]}` + "\n" +
		`{"event":"cmpl","text":"x"}` + "\n"

	sink := &recordingSink{}
	if _, err := NewAssembler(sink).WithClock(newFakeClock().Now).Run(strings.NewReader(body)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	shown := 0
	for _, p := range sink.patches {
		if _, ok := p.(ShowCitations); ok {
			shown++
		}
	}
	if shown != 1 {
		t.Errorf("ShowCitations emitted %d times, want 1", shown)
	}
}

func TestAssembler_ResultsWithoutTargets(t *testing.T) {
	body := `{"event":"k1","type":"search_results","search_results":[{"url":"https://e.com"}]}` + "\n" +
		`{"event":"cmpl","text":"x"}` + "\n"

	sink := &recordingSink{}
	result, err := NewAssembler(sink).WithClock(newFakeClock().Now).Run(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// No panel without targets, but the results still persist.
	for _, p := range sink.patches {
		if _, ok := p.(ShowCitations); ok {
			t.Error("ShowCitations emitted without targets")
		}
	}
	if result.Message.Search == nil || len(result.Message.Search.Results) != 1 {
		t.Errorf("Search = %+v", result.Message.Search)
	}
}

func TestAssembler_TargetsWithoutResults(t *testing.T) {
	body := `{"event":"k1","type":"search_targets","search_targets":["q"]}` + "\n" +
		`{"event":"cmpl","text":"x"}` + "\n"

	result, _ := run(t, body)
	if result.Message.Search != nil {
		t.Errorf("Search = %+v, want nil without results", result.Message.Search)
	}
}

// =============================================================================
// ASSEMBLER: GROUP ID
// =============================================================================

func TestAssembler_GroupIDFirstWins(t *testing.T) {
	body := `{"group_id":"g-first"}` + "\n" +
		`{"event":"cmpl","text":"a","group_id":"g-second"}` + "\n" +
		`{"group_id":"g-third"}` + "\n"

	result, _ := run(t, body)
	if result.GroupID != "g-first" {
		t.Errorf("GroupID = %q, want g-first", result.GroupID)
	}
	if result.Message.Content != "a" {
		t.Errorf("Content = %q", result.Message.Content)
	}
}

func TestAssembler_GroupIDOnPayloadEvent(t *testing.T) {
	// The group ID may ride on any record, not just dedicated ones.
	body := `{"event":"cmpl","text":"a","group_id":"g-ride"}` + "\n"

	result, _ := run(t, body)
	if result.GroupID != "g-ride" {
		t.Errorf("GroupID = %q, want g-ride", result.GroupID)
	}
}

// =============================================================================
// ASSEMBLER: DURATION
// =============================================================================

func TestAssembler_DurationFrozenAtFirstCompletion(t *testing.T) {
	clock := newFakeClock()
	asm := NewAssembler(nil).WithClock(clock.Now)

	asm.HandleLine(`{"event":"k1","text":"thinking"}`, false)
	clock.Advance(3500 * time.Millisecond)
	asm.HandleLine(`{"event":"cmpl","text":"answer "}`, false)

	// Time after the first completion must not change the duration.
	clock.Advance(10 * time.Second)
	asm.HandleLine(`{"event":"cmpl","text":"more"}`, false)

	result := asm.finalize()
	if result.Message.Thinking == nil {
		t.Fatal("Thinking missing")
	}
	// floor(3.5s) = 3
	if result.Message.Thinking.Duration != 3 {
		t.Errorf("Duration = %d, want 3", result.Message.Thinking.Duration)
	}
}

func TestAssembler_DurationFrozenAtEOFWhileThinking(t *testing.T) {
	clock := newFakeClock()
	asm := NewAssembler(nil).WithClock(clock.Now)

	asm.HandleLine(`{"event":"k1","text":"still thinking"}`, false)
	clock.Advance(5 * time.Second)

	result := asm.finalize()
	if result.Message.Thinking == nil || result.Message.Thinking.Duration != 5 {
		t.Errorf("Thinking = %+v, want duration 5", result.Message.Thinking)
	}
}

func TestAssembler_FinishThinkingPatchCarriesDuration(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	asm := NewAssembler(sink).WithClock(clock.Now)

	asm.HandleLine(`{"event":"k1","text":"t"}`, false)
	clock.Advance(2 * time.Second)
	asm.HandleLine(`{"event":"cmpl","text":"a"}`, false)

	var finish *FinishThinking
	for _, p := range sink.patches {
		if f, ok := p.(FinishThinking); ok {
			finish = &f
		}
	}
	if finish == nil {
		t.Fatal("FinishThinking patch missing")
	}
	if finish.Duration != 2 {
		t.Errorf("FinishThinking.Duration = %d, want 2", finish.Duration)
	}
}

func TestAssembler_NoReasoningMeansNilThinking(t *testing.T) {
	result, sink := run(t, `{"event":"cmpl","text":"plain answer"}`+"\n")

	if result.Message.Thinking != nil {
		t.Errorf("Thinking = %+v, want nil", result.Message.Thinking)
	}
	for _, p := range sink.patches {
		switch p.(type) {
		case BeginThinking, AppendThinking, FinishThinking:
			t.Errorf("unexpected thinking patch %T", p)
		}
	}
}

// =============================================================================
// ASSEMBLER: ROBUSTNESS
// =============================================================================

func TestAssembler_MalformedLinesSkipped(t *testing.T) {
	body := "garbage{{{\n" +
		`{"event":"cmpl","text":"a"}` + "\n" +
		"[1,2\n" +
		`{"event":"cmpl","text":"b"}` + "\n"

	result, _ := run(t, body)
	if result.Message.Content != "ab" {
		t.Errorf("Content = %q, want ab", result.Message.Content)
	}
	if result.DecodeFailures != 2 {
		t.Errorf("DecodeFailures = %d, want 2", result.DecodeFailures)
	}
}

func TestAssembler_ResidualTailCompletionApplied(t *testing.T) {
	// No trailing newline: the tail is a completion event and counts.
	body := `{"event":"cmpl","text":"a"}` + "\n" + `data: {"event":"cmpl","text":"b"}`

	result, _ := run(t, body)
	if result.Message.Content != "ab" {
		t.Errorf("Content = %q, want ab", result.Message.Content)
	}
}

func TestAssembler_ResidualTailNonCompletionIgnored(t *testing.T) {
	body := `{"event":"cmpl","text":"a"}` + "\n" + `{"event":"k1","text":"late thought"}`

	result, _ := run(t, body)
	if result.Message.Content != "a" {
		t.Errorf("Content = %q, want a", result.Message.Content)
	}
	if result.Message.Thinking != nil {
		t.Errorf("residual reasoning applied: %+v", result.Message.Thinking)
	}
}

func TestAssembler_EmptyStream(t *testing.T) {
	result, sink := run(t, "")
	if result.Message.Content != "" || result.Message.Thinking != nil || result.Message.Search != nil {
		t.Errorf("empty stream produced %+v", result.Message)
	}
	if len(sink.patches) != 1 {
		t.Fatalf("patches = %v, want only Done", sink.kinds())
	}
	if _, ok := sink.patches[0].(Done); !ok {
		t.Errorf("final patch = %T, want Done", sink.patches[0])
	}
}

func TestAssembler_ReadErrorCarriesPartial(t *testing.T) {
	transport := errors.New("connection reset")
	body := &errReader{
		data: []byte(`{"event":"cmpl","text":"partial answer"}` + "\n"),
		err:  transport,
	}

	_, err := NewAssembler(nil).WithClock(newFakeClock().Now).Run(body)
	if err == nil {
		t.Fatal("Run succeeded despite transport error")
	}

	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("err = %T, want *ReadError", err)
	}
	if !errors.Is(err, transport) {
		t.Error("ReadError does not unwrap to the transport error")
	}
	if readErr.Partial == nil || readErr.Partial.Message.Content != "partial answer" {
		t.Errorf("Partial = %+v", readErr.Partial)
	}
}

// =============================================================================
// END-TO-END SCENARIOS
// =============================================================================

// A research response: group id, targets, results, thinking, completion.
func TestAssembler_EndToEnd_ResearchResponse(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	asm := NewAssembler(sink).WithClock(clock.Now)

	asm.HandleLine(`{"group_id":"g9"}`, false)
	asm.HandleLine(`{"event":"k1","text":"Let me search. "}`, false)
	clock.Advance(time.Second)
	asm.HandleLine(`{"event":"k1","type":"search_targets","search_targets":["best espresso"]}`, false)
	asm.HandleLine(`{"event":"k1","type":"search_results","search_results":[{"title":"Espresso","url":"https://e.com/1","snippet":"crema"}]}`, false)
	clock.Advance(time.Second)
	asm.HandleLine(`{"event":"k1","text":"Sources look good."}`, false)
	clock.Advance(time.Second)
	asm.HandleLine(`{"event":"cmpl","text":"Use a fine grind"}`, false)
	asm.HandleLine(`{"event":"cmpl","text":" and 9 bars."}`, false)

	result := asm.finalize()

	if result.GroupID != "g9" {
		t.Errorf("GroupID = %q", result.GroupID)
	}
	if result.Message.Content != "Use a fine grind and 9 bars." {
		t.Errorf("Content = %q", result.Message.Content)
	}
	if result.Message.Thinking == nil ||
		result.Message.Thinking.Text != "Let me search. Sources look good." {
		t.Errorf("Thinking = %+v", result.Message.Thinking)
	}
	if result.Message.Thinking.Duration != 3 {
		t.Errorf("Duration = %d, want 3", result.Message.Thinking.Duration)
	}
	if result.Message.Search == nil || len(result.Message.Search.Results) != 1 ||
		result.Message.Search.Results[0].Snippet != "crema" {
		t.Errorf("Search = %+v", result.Message.Search)
	}

	got := sink.kinds()
	want := []string{
		"stream.BeginThinking",
		"stream.AppendThinking",
		"stream.ShowCitations",
		"stream.AppendThinking",
		"stream.FinishThinking",
		"stream.AppendContent",
		"stream.AppendContent",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("patch order = %v, want %v", got, want)
	}
}

// A plain response: completion only, no thinking, no search.
func TestAssembler_EndToEnd_PlainResponse(t *testing.T) {
	body := "data: {\"group_id\":\"g1\"}\n" +
		"data: {\"event\":\"cmpl\",\"text\":\"Hello\"}\n" +
		"data: {\"event\":\"cmpl\",\"text\":\", world.\"}\n"

	result, sink := run(t, body)

	if result.Message.Content != "Hello, world." {
		t.Errorf("Content = %q", result.Message.Content)
	}
	if result.Message.Thinking != nil || result.Message.Search != nil {
		t.Errorf("unexpected sections: %+v", result.Message)
	}

	got := sink.kinds()
	want := []string{"stream.AppendContent", "stream.AppendContent", "stream.Done"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("patch order = %v, want %v", got, want)
	}
}

// =============================================================================
// PROMPT COLLECTION TESTS
// =============================================================================

func TestCollectPrompts(t *testing.T) {
	body := "data: {\"event\":\"chat_prompt\",\"text\":\"Tell me more\"}\n" +
		"not json\n" +
		"{\"event\":\"cmpl\",\"text\":\"ignored\"}\n" +
		"{\"event\":\"chat_prompt\",\"text\":\"What about K2?\"}\n"

	prompts, err := CollectPrompts(strings.NewReader(body))
	if err != nil {
		t.Fatalf("CollectPrompts failed: %v", err)
	}
	want := []string{"Tell me more", "What about K2?"}
	if !reflect.DeepEqual(prompts, want) {
		t.Errorf("prompts = %v, want %v", prompts, want)
	}
}

func TestCollectPrompts_Empty(t *testing.T) {
	prompts, err := CollectPrompts(strings.NewReader(""))
	if err != nil {
		t.Fatalf("CollectPrompts failed: %v", err)
	}
	if len(prompts) != 0 {
		t.Errorf("prompts = %v, want none", prompts)
	}
}
