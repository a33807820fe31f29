package query

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/starford/notekeep/internal/models"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func corpus() ([]models.NoteMeta, map[string]string) {
	notes := []models.NoteMeta{
		{ID: "a", Title: "Work plan", UpdatedAt: "2026-03-15T09:00:00.000000Z", Important: true, Tags: []string{"Work"}},
		{ID: "b", Title: "Groceries", UpdatedAt: "2026-03-10T09:00:00.000000Z", Tags: []string{"home"}},
		{ID: "c", Title: "Sprint", UpdatedAt: "2026-02-01T09:00:00.000000Z", Tags: []string{"work"},
			Images: []models.ImageRef{{Name: "x.png", Path: "images/c/1-x.png"}}},
		{ID: "d", Title: "Starred misc", UpdatedAt: "2026-03-14T09:00:00.000000Z", Important: true},
	}
	bodies := map[string]string{
		"a": "- [ ] write report\n- [x] email boss",
		"b": "milk and EGGS\n* [x] bread",
		"c": "retro notes\n  - [ ] fix build",
		"d": "",
	}
	return notes, bodies
}

func reader(bodies map[string]string, calls *int) BodyReader {
	return func(id string) (string, error) {
		if calls != nil {
			*calls++
		}
		return bodies[id], nil
	}
}

func ids(notes []models.NoteMeta) []string {
	out := []string{}
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  Tag:Work is:Starred   tag: date:week has:bogus hello is: ")
	want := []Token{
		{Op: OpTag, Value: "work"},
		{Op: OpIs, Value: "starred"},
		{Op: OpDate, Value: "week"},
		{Value: "has:bogus"},
		{Value: "hello"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %+v, want %+v", got, want)
	}
}

func TestSearch_Empty_ReturnsIndexOrder(t *testing.T) {
	notes, bodies := corpus()
	calls := 0
	for _, q := range []string{"", "   \t"} {
		got, err := Search(notes, q, now, reader(bodies, &calls))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(ids(got), []string{"a", "b", "c", "d"}) {
			t.Errorf("Search(%q) = %v", q, ids(got))
		}
	}
	if calls != 0 {
		t.Errorf("empty query read %d bodies", calls)
	}
}

func TestSearch_TagAndStarred(t *testing.T) {
	notes, bodies := corpus()
	got, err := Search(notes, "tag:work is:starred", now, reader(bodies, nil))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids(got), []string{"a"}) {
		t.Errorf("got %v, want [a]", ids(got))
	}

	got, _ = Search(notes, "tag:WORK", now, reader(bodies, nil))
	if !reflect.DeepEqual(ids(got), []string{"a", "c"}) {
		t.Errorf("tag:WORK = %v, want [a c]", ids(got))
	}
}

func TestSearch_SortedByUpdatedDesc(t *testing.T) {
	notes, bodies := corpus()
	got, _ := Search(notes, "is:starred", now, reader(bodies, nil))
	if !reflect.DeepEqual(ids(got), []string{"a", "d"}) {
		t.Errorf("got %v, want [a d]", ids(got))
	}
	got, _ = Search(notes, "date:month", now, reader(bodies, nil))
	if !reflect.DeepEqual(ids(got), []string{"a", "d", "b"}) {
		t.Errorf("date:month = %v, want [a d b]", ids(got))
	}
}

func TestSearch_DateBoundaries(t *testing.T) {
	notes, bodies := corpus()
	tests := map[string][]string{
		"date:today": {"a"},
		"date:week":  {"a", "d", "b"},
		"date:month": {"a", "d", "b"},
	}
	for q, want := range tests {
		got, _ := Search(notes, q, now, reader(bodies, nil))
		if !reflect.DeepEqual(ids(got), want) {
			t.Errorf("%s = %v, want %v", q, ids(got), want)
		}
	}
	// 2026-03-08 is exactly seven days back and is included.
	edge := []models.NoteMeta{{ID: "e", UpdatedAt: "2026-03-08T00:00:00.000000Z"}, {ID: "f", UpdatedAt: "2026-03-07T23:59:59.000000Z"}}
	got, _ := Search(edge, "date:week", now, reader(nil, nil))
	if !reflect.DeepEqual(ids(got), []string{"e"}) {
		t.Errorf("week edge = %v, want [e]", ids(got))
	}
}

func TestSearch_AttachmentsAndTasks(t *testing.T) {
	notes, bodies := corpus()
	tests := map[string][]string{
		"has:attachments":             {"c"},
		"has:tasks":                   {"a", "b", "c"},
		"is:completed":                {"a", "b"},
		"is:uncompleted":              {"a", "c"},
		"is:completed is:uncompleted": {"a"},
	}
	for q, want := range tests {
		got, err := Search(notes, q, now, reader(bodies, nil))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(ids(got), want) {
			t.Errorf("%s = %v, want %v", q, ids(got), want)
		}
	}
}

func TestSearch_FreeText(t *testing.T) {
	notes, bodies := corpus()
	tests := map[string][]string{
		"eggs":           {"b"},
		"GROCERIES":      {"b"},
		"plan report":    {"a"},
		"plan missing":   {},
		"retro tag:work": {"c"},
	}
	for q, want := range tests {
		got, _ := Search(notes, q, now, reader(bodies, nil))
		if !reflect.DeepEqual(ids(got), want) {
			t.Errorf("%q = %v, want %v", q, ids(got), want)
		}
	}
}

func TestSearch_BodyReadOnlyWhenNeeded(t *testing.T) {
	notes, bodies := corpus()
	calls := 0
	_, _ = Search(notes, "tag:work is:starred date:month has:attachments", now, reader(bodies, &calls))
	if calls != 0 {
		t.Errorf("index-only query read %d bodies", calls)
	}
	calls = 0
	_, _ = Search(notes, "tag:work eggs", now, reader(bodies, &calls))
	if calls != 2 {
		t.Errorf("body reads = %d, want 2 (only notes passing tag:work)", calls)
	}
}

func TestSearch_ReadErrorSurfaces(t *testing.T) {
	notes, _ := corpus()
	boom := errors.New("boom")
	_, err := Search(notes, "anything", now, func(string) (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestDayBoundary(t *testing.T) {
	if got := DayBoundary("today", now); got != "2026-03-15" {
		t.Errorf("today = %s", got)
	}
	if got := DayBoundary("week", now); got != "2026-03-08" {
		t.Errorf("week = %s", got)
	}
	if got := DayBoundary("month", now); got != "2026-02-13" {
		t.Errorf("month = %s", got)
	}
}
