package controller

import "testing"

func TestPagerPageCount(t *testing.T) {
	tests := []struct {
		total, pageSize, want int
	}{
		{12, 5, 3},
		{10, 5, 2},
		{1, 5, 1},
		{0, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
	}
	for _, tt := range tests {
		p := NewPager(tt.pageSize)
		p.SetTotal(tt.total)
		if got := p.PageCount(); got != tt.want {
			t.Errorf("total=%d size=%d: expected %d pages, got %d", tt.total, tt.pageSize, tt.want, got)
		}
	}
}

func TestPagerClampsUnderAnySequence(t *testing.T) {
	p := NewPager(5)
	p.SetTotal(12)

	ops := []func(){
		func() { p.SetPage(99) },
		func() { p.SetPage(-3) },
		func() { p.SetPage(0) },
		func() { p.SetTotal(3) },
		func() { p.SetPage(7) },
		func() { p.SetPageSize(2) },
		func() { p.SetTotal(0) },
		func() { p.SetPage(5) },
		func() { p.SetTotal(100) },
	}
	for i, op := range ops {
		op()
		if p.Page() < 1 || p.Page() > p.PageCount() {
			t.Fatalf("after op %d: page %d out of [1, %d]", i, p.Page(), p.PageCount())
		}
	}
}

func TestPagerSetPageSizeResetsToFirstPage(t *testing.T) {
	p := NewPager(5)
	p.SetTotal(50)
	p.SetPage(4)
	p.SetPageSize(10)
	if p.Page() != 1 {
		t.Errorf("page size change should reset to page 1, got %d", p.Page())
	}
}

func TestPagerDefaultsInvalidSize(t *testing.T) {
	p := NewPager(0)
	if p.PageSize() != DefaultPageSize {
		t.Errorf("expected default page size %d, got %d", DefaultPageSize, p.PageSize())
	}
	p.SetPageSize(-1)
	if p.PageSize() != DefaultPageSize {
		t.Errorf("expected default page size after invalid set, got %d", p.PageSize())
	}
}
