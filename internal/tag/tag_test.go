package tag

import "testing"

func TestBuilderIgnoresEmptyValues(t *testing.T) {
	tg := NewBuilder().Add(Artist, "").Add(Title, "Song").Build()
	if _, ok := tg.Get(Artist); ok {
		t.Fatal("expected empty Artist value to be dropped")
	}
	if v, ok := tg.Get(Title); !ok || v != "Song" {
		t.Fatalf("expected Title=Song, got %q ok=%v", v, ok)
	}
}

func TestGetAllPreservesInsertionOrder(t *testing.T) {
	tg := NewBuilder().Add(Artist, "A").Add(Artist, "B").Build()
	vals := tg.GetAll(Artist)
	if len(vals) != 2 || vals[0] != "A" || vals[1] != "B" {
		t.Fatalf("unexpected GetAll order: %v", vals)
	}
}

func TestDurationDefaultsToUnknown(t *testing.T) {
	tg := NewBuilder().Build()
	if tg.Duration() != -1 {
		t.Fatalf("expected unknown duration (-1), got %d", tg.Duration())
	}
}

func TestParseTypeCaseInsensitive(t *testing.T) {
	typ, ok := ParseType("album")
	if !ok || typ != Album {
		t.Fatalf("expected Album, got %v ok=%v", typ, ok)
	}
}

func TestIsEmpty(t *testing.T) {
	if !(NewBuilder().Build().IsEmpty()) {
		t.Fatal("expected zero-value built tag to be empty")
	}
	if NewBuilder().Add(Title, "x").Build().IsEmpty() {
		t.Fatal("expected tag with a value to not be empty")
	}
}
