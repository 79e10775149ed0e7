package storage

import (
	"errors"
	"reflect"
	"testing"

	"mypgrade/internal/core"
)

func TestDecodeSubjectsLegacyShapes(t *testing.T) {
	blob := `[{"id":"math","name":"Mathematics","scores":{"A":5,"B":null,"C":[3,4]}}]`
	subs, err := DecodeSubjects(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := core.CriteriaScores{A: []int{5}, B: []int{}, C: []int{3, 4}, D: []int{}}
	if !reflect.DeepEqual(subs[0].Scores, want) {
		t.Fatalf("got %+v want %+v", subs[0].Scores, want)
	}
}

func TestCriterionValueShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []int
	}{
		{"list", `[6,7]`, []int{6, 7}},
		{"empty list", `[]`, []int{}},
		{"scalar", `7`, []int{7}},
		{"integral float", `7.0`, []int{7}},
		{"zero scalar is falsy", `0`, []int{}},
		{"null", `null`, []int{}},
		{"false", `false`, []int{}},
		{"empty string", `""`, []int{}},
		{"numeric string", `"6"`, []int{6}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var v criterionValue
			if err := v.UnmarshalJSON([]byte(tc.raw)); err != nil {
				t.Fatalf("unmarshal %s: %v", tc.raw, err)
			}
			if got := v.scores(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestCriterionValueRejects(t *testing.T) {
	for _, raw := range []string{`true`, `{"x":1}`, `6.5`, `"abc"`, `[1.5]`, `1e19`, `-1e19`, `"99999999999"`} {
		var v criterionValue
		if err := v.UnmarshalJSON([]byte(raw)); !errors.Is(err, ErrMalformedState) {
			t.Fatalf("%s: expected ErrMalformedState, got %v", raw, err)
		}
	}
}

func TestDecodeSubjectsMissingScoresObject(t *testing.T) {
	subs, err := DecodeSubjects(`[{"id":"bio","name":"Biology"}]`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(subs[0].Scores, core.EmptyScores()) {
		t.Fatalf("expected empty scores, got %+v", subs[0].Scores)
	}
}

func TestUpgradeIsIdempotent(t *testing.T) {
	subs := core.DefaultSubjects()
	subs = core.UpdateCriterionScores(subs, "chn", core.CriterionA, []int{6, 7})
	subs = core.UpdateCriterionScores(subs, "chn", core.CriterionC, []int{5})

	blob, err := EncodeSubjects(subs)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	once, err := DecodeSubjects(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(once, subs) {
		t.Fatalf("current data changed on upgrade")
	}

	again, _ := EncodeSubjects(once)
	if again != blob {
		t.Fatalf("re-encoding differs:\n%s\n%s", blob, again)
	}
}

func TestEncodeWritesEmptyLists(t *testing.T) {
	blob, err := EncodeSubjects([]core.Subject{{ID: "eng", Name: "English"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `[{"id":"eng","name":"English","scores":{"A":[],"B":[],"C":[],"D":[]}}]`
	if blob != want {
		t.Fatalf("got %s want %s", blob, want)
	}
}

func TestDecodeSubjectsErrors(t *testing.T) {
	bads := []string{
		``,
		`not json`,
		`null`,
		`{"id":"x"}`,
		`[{"id":"a","scores":{"A":true}}]`,
		`[{"id":"a"},{"id":"a"}]`,
		`[{"name":"no id"}]`,
		`[{"id":"a","scores":{"A":1e19}}]`,
	}
	for _, blob := range bads {
		if _, err := DecodeSubjects(blob); err == nil {
			t.Fatalf("expected error for %q", blob)
		}
	}
}

func TestDecodeSubjectsEmptyList(t *testing.T) {
	subs, err := DecodeSubjects(`[]`)
	if err != nil || len(subs) != 0 {
		t.Fatalf("expected empty collection, got %v %v", subs, err)
	}
}
