package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"nga_reminder/internal/model"
)

func TestClassify(t *testing.T) {
	post := model.Post{ID: 1, AuthorID: 42, SequenceNumber: 10}

	tests := []struct {
		name   string
		target model.Target
		want   Decision
	}{
		{
			name:   "store all notify none",
			target: model.Target{StoreFilter: model.AllAuthors(), NotifyFilter: model.NoAuthors()},
			want:   Decision{Store: true, Notify: false},
		},
		{
			name:   "store all notify all",
			target: model.Target{StoreFilter: model.AllAuthors(), NotifyFilter: model.AllAuthors()},
			want:   Decision{Store: true, Notify: true},
		},
		{
			name:   "author in store list but not notify list",
			target: model.Target{StoreFilter: model.Authors(42), NotifyFilter: model.Authors(7)},
			want:   Decision{Store: true, Notify: false},
		},
		{
			name:   "author in notify list only",
			target: model.Target{StoreFilter: model.Authors(7), NotifyFilter: model.Authors(42)},
			want:   Decision{Store: false, Notify: true},
		},
		{
			name:   "author in neither list",
			target: model.Target{StoreFilter: model.Authors(1), NotifyFilter: model.Authors(2)},
			want:   Decision{},
		},
		{
			name:   "zero filters store and notify nothing",
			target: model.Target{},
			want:   Decision{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Classify(post, tt.target)); diff != "" {
				t.Errorf("Classify mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	posts := []model.Post{
		{ID: 1, AuthorID: 10},
		{ID: 2, AuthorID: 20},
		{ID: 3, AuthorID: 10},
	}
	target := model.Target{StoreFilter: model.AllAuthors(), NotifyFilter: model.Authors(10)}

	store, notify := Split(posts, target)

	if diff := cmp.Diff([]int64{1, 2, 3}, ids(store)); diff != "" {
		t.Errorf("store mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{1, 3}, ids(notify)); diff != "" {
		t.Errorf("notify mismatch (-want +got):\n%s", diff)
	}
}

func TestAfter(t *testing.T) {
	posts := []model.Post{
		{ID: 100, SequenceNumber: 3614},
		{ID: 101, SequenceNumber: 3615},
		{ID: 102, SequenceNumber: 3616},
		{ID: 103, SequenceNumber: 3617},
	}
	if diff := cmp.Diff([]int64{102, 103}, ids(After(posts, 3615))); diff != "" {
		t.Errorf("After mismatch (-want +got):\n%s", diff)
	}
	if got := After(posts, 4000); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func ids(posts []model.Post) []int64 {
	var out []int64
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}
