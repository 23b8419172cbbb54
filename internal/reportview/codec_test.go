package reportview

import (
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		in   QueryState
		want ServerQuery
	}{
		{
			name: "defaults",
			in:   NewQueryState(),
			want: ServerQuery{Order: "severity desc", Page: 1, PerPage: 5},
		},
		{
			name: "search passes through",
			in:   QueryState{Page: 3, PerPage: 10, Sort: SortSpec{Column: "title", Direction: Asc}, Search: "hostname ~ db"},
			want: ServerQuery{Search: "hostname ~ db", Order: "title asc", Page: 3, PerPage: 10},
		},
		{
			name: "zero values normalised",
			in:   QueryState{Sort: SortSpec{Column: "hostname"}},
			want: ServerQuery{Order: "hostname asc", Page: 1, PerPage: DefaultPerPage},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.in); got != tt.want {
				t.Errorf("Encode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestServerQuery_Values(t *testing.T) {
	v := ServerQuery{Order: "severity desc", Page: 2, PerPage: 5}.Values()
	if _, ok := v["search"]; ok {
		t.Error("empty search should be absent")
	}
	if got := v.Encode(); got != "order=severity+desc&page=2&per_page=5" {
		t.Errorf("Encode() = %q", got)
	}

	v = ServerQuery{Search: "kernel", Order: "title asc", Page: 1, PerPage: 5}.Values()
	if got := v.Get("search"); got != "kernel" {
		t.Errorf("search = %q, want kernel", got)
	}
}

func TestParseSortSpec(t *testing.T) {
	tests := []struct {
		in      string
		want    SortSpec
		wantErr bool
	}{
		{"severity desc", SortSpec{Column: "severity", Direction: Desc}, false},
		{"Title", SortSpec{Column: "title", Direction: Asc}, false},
		{"hostname ASC", SortSpec{Column: "hostname", Direction: Asc}, false},
		{"", SortSpec{}, true},
		{"title up", SortSpec{}, true},
		{"a b c", SortSpec{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortSpec(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSortSpec(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSortSpec(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSortSpec_Flip(t *testing.T) {
	if got := DefaultSort.Flip(); got != (SortSpec{Column: "severity", Direction: Asc}) {
		t.Errorf("Flip() = %+v", got)
	}
	if got := DefaultSort.Flip().Flip(); got != DefaultSort {
		t.Errorf("Flip().Flip() = %+v, want %+v", got, DefaultSort)
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct{ total, perPage, want int }{
		{0, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{42, 5, 9},
		{3, 0, 1},
	}
	for _, tt := range tests {
		if got := PageCount(tt.total, tt.perPage); got != tt.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tt.total, tt.perPage, got, tt.want)
		}
	}
}
