package pagination

import "testing"

func TestNormalize(t *testing.T) {
	got := Params{Page: 0, Limit: 0}.Normalize()
	if got.Page != 1 || got.Limit != DefaultLimit {
		t.Fatalf("unexpected defaults %+v", got)
	}
	got = Params{Page: 3, Limit: 1000}.Normalize()
	if got.Limit != MaxLimit {
		t.Fatalf("expected limit clamp, got %d", got.Limit)
	}
}

func TestOffsetAndMeta(t *testing.T) {
	p := Params{Page: 3, Limit: 10}
	if p.Offset() != 20 {
		t.Fatalf("expected offset 20, got %d", p.Offset())
	}
	meta := p.Meta(42)
	if meta.Page != 3 || meta.Limit != 10 || meta.Total != 42 {
		t.Fatalf("unexpected meta %+v", meta)
	}
}
