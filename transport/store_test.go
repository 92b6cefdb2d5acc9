package transport

import "testing"

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.Put("/current_state.json", []byte(`{"state":"disconnected"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get("/current_state.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"state":"disconnected"}` {
		t.Fatalf("got %q", got)
	}
}

func TestFileStoreMissingKeyIsNotError(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	got, err := s.Get("/device_settings.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}
