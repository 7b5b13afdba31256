package diff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestComputePageRange(t *testing.T) {
	tests := []struct {
		name       string
		prior      int
		perPage    int
		current    int
		totalPages int
		want       PageRange
		wantChange bool
	}{
		{
			name:       "prior count mid page",
			prior:      3615,
			perPage:    20,
			current:    3635,
			totalPages: 182,
			want:       PageRange{Start: 181, End: 182},
			wantChange: true,
		},
		{
			name:       "new posts past a full page",
			prior:      3620,
			perPage:    20,
			current:    3635,
			totalPages: 182,
			want:       PageRange{Start: 182, End: 182},
			wantChange: true,
		},
		{
			name:       "unchanged count",
			prior:      3615,
			perPage:    20,
			current:    3615,
			totalPages: 181,
			wantChange: false,
		},
		{
			name:       "prior count on a page boundary",
			prior:      3600,
			perPage:    20,
			current:    3635,
			totalPages: 182,
			want:       PageRange{Start: 181, End: 182},
			wantChange: true,
		},
		{
			name:       "remote count shrank",
			prior:      100,
			perPage:    20,
			current:    90,
			totalPages: 5,
			wantChange: false,
		},
		{
			name:       "fresh target",
			prior:      0,
			perPage:    20,
			current:    45,
			totalPages: 3,
			want:       PageRange{Start: 1, End: 3},
			wantChange: true,
		},
		{
			name:       "zero page size falls back to default",
			prior:      40,
			perPage:    0,
			current:    41,
			totalPages: 3,
			want:       PageRange{Start: 3, End: 3},
			wantChange: true,
		},
		{
			name:       "total pages lagging behind count",
			prior:      60,
			perPage:    20,
			current:    61,
			totalPages: 3,
			want:       PageRange{Start: 4, End: 4},
			wantChange: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := ComputePageRange(tt.prior, tt.perPage, tt.current, tt.totalPages)
			if diff := cmp.Diff(tt.wantChange, changed); diff != "" {
				t.Fatalf("changed mismatch (-want +got):\n%s", diff)
			}
			if !changed {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("range mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPageRangePages(t *testing.T) {
	got := PageRange{Start: 181, End: 185}.Pages()
	want := []int{181, 182, 183, 184, 185}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Pages mismatch (-want +got):\n%s", diff)
	}
	if got := (PageRange{Start: 3, End: 2}).Pages(); got != nil {
		t.Errorf("expected nil for empty range, got %v", got)
	}
}

func TestPageOf(t *testing.T) {
	tests := []struct {
		seq, perPage, want int
	}{
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{3615, 20, 181},
		{0, 20, 1},
		{41, 0, 3},
	}
	for _, tt := range tests {
		if got := PageOf(tt.seq, tt.perPage); got != tt.want {
			t.Errorf("PageOf(%d, %d) = %d, want %d", tt.seq, tt.perPage, got, tt.want)
		}
	}
}
