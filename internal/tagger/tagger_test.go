package tagger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"reflect"
	"strings"
	"testing"

	"github.com/rolodex-dev/rolodex/internal/contacts"
)

// scriptedService replies from a list of canned responses, one per call.
type scriptedService struct {
	replies []reply
	calls   []Request
}

type reply struct {
	body string
	err  error
}

func (s *scriptedService) Complete(_ context.Context, system, user string) (string, error) {
	if system != SystemPrompt {
		return "", errors.New("unexpected system prompt")
	}
	var req Request
	if err := json.Unmarshal([]byte(user), &req); err != nil {
		return "", fmt.Errorf("bad payload: %w", err)
	}
	s.calls = append(s.calls, req)
	if len(s.calls) > len(s.replies) {
		return "", errors.New("no scripted reply")
	}
	r := s.replies[len(s.calls)-1]
	return r.body, r.err
}

// echoService tags every contact in a batch with its company.
type echoService struct {
	calls []Request
}

func (s *echoService) Complete(_ context.Context, _, user string) (string, error) {
	var req Request
	if err := json.Unmarshal([]byte(user), &req); err != nil {
		return "", err
	}
	s.calls = append(s.calls, req)

	type entry struct {
		TrueID string   `json:"true_id"`
		Tags   []string `json:"tags"`
	}
	var resp struct {
		Contacts []entry `json:"contacts"`
	}
	for _, c := range req.Contacts {
		resp.Contacts = append(resp.Contacts, entry{TrueID: c.TrueID, Tags: []string{c.Company}})
	}
	data, err := json.Marshal(resp)
	return string(data), err
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func makeContacts(n int) []contacts.Contact {
	out := make([]contacts.Contact, n)
	for i := range out {
		out[i] = contacts.Contact{
			TrueID:  fmt.Sprintf("id-%03d", i),
			Name:    fmt.Sprintf("Person %d", i),
			Company: fmt.Sprintf("Co%d", i),
		}
	}
	return out
}

func TestVocabulary_AddIsCopyOnWrite(t *testing.T) {
	base := NewVocabulary([]string{"Intel", " ", "Intel", "Stanford"})
	if got := base.Names(); !reflect.DeepEqual(got, []string{"Intel", "Stanford"}) {
		t.Fatalf("NewVocabulary names = %v", got)
	}

	next, added := base.Add("Stanford", "Golf", " Golf ", "")
	if !reflect.DeepEqual(added, []string{"Golf"}) {
		t.Errorf("added = %v, want [Golf]", added)
	}
	if next.Len() != 3 || !next.Contains("Golf") {
		t.Errorf("next = %v", next.Names())
	}
	if base.Len() != 2 || base.Contains("Golf") {
		t.Errorf("base mutated: %v", base.Names())
	}

	same, added := next.Add("Intel")
	if added != nil || same.Len() != 3 {
		t.Errorf("re-adding known tag changed vocabulary: %v %v", same.Names(), added)
	}
}

func TestVocabulary_ZeroValue(t *testing.T) {
	var v Vocabulary
	if v.Len() != 0 || v.Contains("x") {
		t.Error("zero vocabulary should be empty")
	}
	if names := v.Names(); names == nil || len(names) != 0 {
		t.Errorf("Names() = %#v, want empty non-nil", names)
	}
}

func TestBuildRequest(t *testing.T) {
	batch := []contacts.Contact{{
		TrueID: "A1", Name: "Jane Smith Intel", Company: "Intel", JobTitle: "Engineer", ImageAvailable: true,
	}}
	payload, err := BuildRequest(batch, NewVocabulary([]string{"Intel"})).Payload()
	if err != nil {
		t.Fatalf("Payload() failed: %v", err)
	}

	want := `{"contacts":[{"true_id":"A1","name":"Jane Smith Intel","company":"Intel","jobTitle":"Engineer"}],"existing_tags":["Intel"]}`
	if payload != want {
		t.Errorf("payload =\n%s\nwant\n%s", payload, want)
	}
}

func TestBuildRequest_EmptyVocabularyIsList(t *testing.T) {
	payload, err := BuildRequest([]contacts.Contact{{TrueID: "A"}}, Vocabulary{}).Payload()
	if err != nil {
		t.Fatalf("Payload() failed: %v", err)
	}
	if !strings.Contains(payload, `"existing_tags":[]`) {
		t.Errorf("payload = %s, want empty existing_tags list", payload)
	}
}

func TestParseResponse(t *testing.T) {
	allowed := map[string]struct{}{"A": {}, "B": {}, "42": {}}

	tests := []struct {
		name    string
		body    string
		want    []contacts.TagAssignment
		wantErr error
	}{
		{
			name: "plain",
			body: `{"contacts":[{"true_id":"A","tags":["Intel","Software Engineering"]}]}`,
			want: []contacts.TagAssignment{{TrueID: "A", Tags: []string{"Intel", "Software Engineering"}}},
		},
		{
			name: "code fence",
			body: "```json\n{\"contacts\":[{\"true_id\":\"A\",\"tags\":[\"Intel\"]}]}\n```",
			want: []contacts.TagAssignment{{TrueID: "A", Tags: []string{"Intel"}}},
		},
		{
			name: "surrounding prose",
			body: "Here you go:\n{\"contacts\":[{\"true_id\":\"B\",\"tags\":[]}]}\nDone.",
			want: []contacts.TagAssignment{{TrueID: "B", Tags: []string{}}},
		},
		{
			name: "non-object entries and missing ids skipped",
			body: `{"contacts":["junk",7,{"tags":["X"]},{"true_id":"","tags":["Y"]},{"true_id":"A","tags":["Z"]}]}`,
			want: []contacts.TagAssignment{{TrueID: "A", Tags: []string{"Z"}}},
		},
		{
			name: "tags not a list",
			body: `{"contacts":[{"true_id":"A","tags":"Intel"}]}`,
			want: []contacts.TagAssignment{{TrueID: "A", Tags: []string{}}},
		},
		{
			name: "non-string tags dropped and cleaned",
			body: `{"contacts":[{"true_id":"A","tags":["Intel",3,null," Intel ","", "Golf"]}]}`,
			want: []contacts.TagAssignment{{TrueID: "A", Tags: []string{"Intel", "Golf"}}},
		},
		{
			name: "unknown id dropped",
			body: `{"contacts":[{"true_id":"ZZ","tags":["X"]},{"true_id":"B","tags":["Y"]}]}`,
			want: []contacts.TagAssignment{{TrueID: "B", Tags: []string{"Y"}}},
		},
		{
			name: "padded id is a different id",
			body: `{"contacts":[{"true_id":"A ","tags":["X"]},{"true_id":"  ","tags":["Y"]},{"true_id":"B","tags":["Z"]}]}`,
			want: []contacts.TagAssignment{{TrueID: "B", Tags: []string{"Z"}}},
		},
		{
			name: "numeric id",
			body: `{"contacts":[{"true_id":42,"tags":["X"]}]}`,
			want: []contacts.TagAssignment{{TrueID: "42", Tags: []string{"X"}}},
		},
		{
			name: "repeated id merged",
			body: `{"contacts":[{"true_id":"A","tags":["X"]},{"true_id":"A","tags":["Y","X"]}]}`,
			want: []contacts.TagAssignment{{TrueID: "A", Tags: []string{"X", "Y"}}},
		},
		{name: "empty", body: "  ", wantErr: ErrEmptyResponse},
		{name: "not json", body: "sorry, I cannot help", wantErr: ErrMalformedResponse},
		{name: "top-level array", body: `[{"true_id":"A"}]`, wantErr: ErrMalformedResponse},
		{name: "missing contacts", body: `{"people":[]}`, wantErr: ErrMissingContacts},
		{name: "contacts not a list", body: `{"contacts":{"true_id":"A"}}`, wantErr: ErrMissingContacts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(tt.body, allowed)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseResponse() failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseResponse_NilAllowedKeepsAll(t *testing.T) {
	got, err := ParseResponse(`{"contacts":[{"true_id":"anything","tags":["X"]}]}`, nil)
	if err != nil {
		t.Fatalf("ParseResponse() failed: %v", err)
	}
	if len(got) != 1 || got[0].TrueID != "anything" {
		t.Errorf("got %+v", got)
	}
}

func TestPartition(t *testing.T) {
	list := makeContacts(71)
	batches := Partition(list, 35)
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	if len(batches[0]) != 35 || len(batches[1]) != 35 || len(batches[2]) != 1 {
		t.Errorf("batch sizes = %d, %d, %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
	if batches[2][0].TrueID != "id-070" {
		t.Errorf("last batch starts at %s", batches[2][0].TrueID)
	}
	if Partition(nil, 35) != nil {
		t.Error("empty list should yield no batches")
	}
	if got := len(Partition(makeContacts(40), 0)); got != 2 {
		t.Errorf("default batch size produced %d batches, want 2", got)
	}
}

func TestSynthesize_EmptyMakesNoCalls(t *testing.T) {
	svc := &scriptedService{}
	s := New(svc, Config{Logger: quietLogger()})

	outcome := s.Synthesize(context.Background(), nil, NewVocabulary([]string{"Intel"}), nil)
	if len(svc.calls) != 0 {
		t.Errorf("service called %d times", len(svc.calls))
	}
	if len(outcome.Batches) != 0 || len(outcome.Assignments) != 0 {
		t.Errorf("outcome = %+v", outcome)
	}
	if outcome.Vocabulary.Len() != 1 {
		t.Errorf("vocabulary changed: %v", outcome.Vocabulary.Names())
	}
}

func TestSynthesize_VocabularyGrowsAcrossBatches(t *testing.T) {
	svc := &echoService{}
	s := New(svc, Config{BatchSize: 2, Logger: quietLogger()})

	list := []contacts.Contact{
		{TrueID: "1", Company: "Intel"},
		{TrueID: "2", Company: "Stanford"},
		{TrueID: "3", Company: "Intel"},
		{TrueID: "4", Company: "Golf"},
		{TrueID: "5", Company: "Golf"},
	}
	outcome := s.Synthesize(context.Background(), list, NewVocabulary([]string{"Existing"}), nil)

	if len(svc.calls) != 3 {
		t.Fatalf("service called %d times, want 3", len(svc.calls))
	}
	wantTags := [][]string{
		{"Existing"},
		{"Existing", "Intel", "Stanford"},
		{"Existing", "Intel", "Stanford", "Golf"},
	}
	for i, want := range wantTags {
		if got := svc.calls[i].ExistingTags; !reflect.DeepEqual(got, want) {
			t.Errorf("batch %d existing_tags = %v, want %v", i, got, want)
		}
	}

	if got := outcome.Vocabulary.Names(); !reflect.DeepEqual(got, []string{"Existing", "Intel", "Stanford", "Golf"}) {
		t.Errorf("final vocabulary = %v", got)
	}
	if !reflect.DeepEqual(outcome.NewTags, []string{"Intel", "Stanford", "Golf"}) {
		t.Errorf("NewTags = %v", outcome.NewTags)
	}
	if len(outcome.Assignments) != 5 {
		t.Errorf("got %d assignments, want 5", len(outcome.Assignments))
	}
	if outcome.FailedBatches() != 0 {
		t.Errorf("FailedBatches() = %d", outcome.FailedBatches())
	}
}

func TestSynthesize_FailedBatchIsIndependent(t *testing.T) {
	svc := &scriptedService{replies: []reply{
		{body: `{"contacts":[{"true_id":"id-000","tags":["Alpha"]}]}`},
		{err: errors.New("HTTP 500")},
		{body: `not json at all`},
		{body: `{"contacts":[{"true_id":"id-003","tags":["Delta"]}]}`},
	}}
	s := New(svc, Config{BatchSize: 1, Logger: quietLogger()})

	var hooked []int
	outcome := s.Synthesize(context.Background(), makeContacts(4), Vocabulary{}, func(r BatchResult) {
		hooked = append(hooked, r.Index)
	})

	if len(svc.calls) != 4 {
		t.Fatalf("service called %d times, want 4 (no retry, no abort)", len(svc.calls))
	}
	if !reflect.DeepEqual(hooked, []int{0, 1, 2, 3}) {
		t.Errorf("hook order = %v", hooked)
	}
	if outcome.FailedBatches() != 2 {
		t.Errorf("FailedBatches() = %d, want 2", outcome.FailedBatches())
	}
	if !outcome.Batches[1].Failed() || !outcome.Batches[2].Failed() {
		t.Error("batches 1 and 2 should be failed")
	}
	if !errors.Is(outcome.Batches[2].Err, ErrMalformedResponse) {
		t.Errorf("batch 2 error = %v", outcome.Batches[2].Err)
	}

	// The failed batches contributed nothing; the last one still saw Alpha.
	if got := svc.calls[3].ExistingTags; !reflect.DeepEqual(got, []string{"Alpha"}) {
		t.Errorf("batch 3 existing_tags = %v", got)
	}
	ids := make([]string, len(outcome.Assignments))
	for i, a := range outcome.Assignments {
		ids[i] = a.TrueID
	}
	if !reflect.DeepEqual(ids, []string{"id-000", "id-003"}) {
		t.Errorf("assignment ids = %v", ids)
	}
}

func TestTagBatch_DropsForeignIDs(t *testing.T) {
	svc := &scriptedService{replies: []reply{
		{body: `{"contacts":[{"true_id":"id-000","tags":["A"]},{"true_id":"intruder","tags":["B"]}]}`},
	}}
	s := New(svc, Config{Logger: quietLogger()})

	result, vocab := s.TagBatch(context.Background(), 0, makeContacts(1), Vocabulary{})
	if result.Failed() {
		t.Fatalf("unexpected failure: %v", result.Err)
	}
	if len(result.Assignments) != 1 || result.Assignments[0].TrueID != "id-000" {
		t.Errorf("assignments = %+v", result.Assignments)
	}
	if vocab.Contains("B") {
		t.Error("tag from foreign id leaked into vocabulary")
	}
	if !reflect.DeepEqual(result.ContactIDs, []string{"id-000"}) {
		t.Errorf("ContactIDs = %v", result.ContactIDs)
	}
}
