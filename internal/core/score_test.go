package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseScore(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr error
	}{
		{"0", 0, nil},
		{"8", 8, nil},
		{" 5 ", 5, nil},
		{"", 0, ErrInvalidScore},
		{"abc", 0, ErrInvalidScore},
		{"6.5", 0, ErrInvalidScore},
		{"9", 0, ErrScoreOutOfRange},
		{"-1", 0, ErrScoreOutOfRange},
	}
	for i, tc := range cases {
		got, err := ParseScore(tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("case %d %q: expected %v, got %v", i, tc.in, tc.wantErr, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("case %d %q: got %d, %v", i, tc.in, got, err)
		}
	}
}

func TestValidateScores(t *testing.T) {
	if err := ValidateScores([]int{0, 4, 8}); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := ValidateScores([]int{3, 12}); !errors.Is(err, ErrScoreOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
}

func TestAppendScoreRejectsOutOfRange(t *testing.T) {
	in := []int{5}
	out, err := AppendScore(in, 7)
	if err != nil || !reflect.DeepEqual(out, []int{5, 7}) {
		t.Fatalf("unexpected append: %v %v", out, err)
	}
	if len(in) != 1 {
		t.Fatalf("input mutated")
	}
	if _, err := AppendScore(in, 9); !errors.Is(err, ErrScoreOutOfRange) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestRemoveScoreAt(t *testing.T) {
	in := []int{3, 4, 5}
	out, err := RemoveScoreAt(in, 1)
	if err != nil || !reflect.DeepEqual(out, []int{3, 5}) {
		t.Fatalf("unexpected remove: %v %v", out, err)
	}
	if !reflect.DeepEqual(in, []int{3, 4, 5}) {
		t.Fatalf("input mutated: %v", in)
	}
	for _, i := range []int{-1, 3} {
		if _, err := RemoveScoreAt(in, i); !errors.Is(err, ErrScoreIndex) {
			t.Fatalf("index %d: expected ErrScoreIndex, got %v", i, err)
		}
	}
}
