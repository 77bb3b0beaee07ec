package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHttpStatusRecorder_CapturesWrittenStatus(t *testing.T) {
	underlying := httptest.NewRecorder()
	rec := &HttpStatusRecorder{ResponseWriter: underlying, Status: 200}

	// Handlers see the recorder as a plain ResponseWriter, the override has
	// to catch the call through the interface.
	var w http.ResponseWriter = rec
	w.WriteHeader(http.StatusNotFound)

	if rec.Status != http.StatusNotFound {
		t.Errorf("Recorder status = %d, want %d", rec.Status, http.StatusNotFound)
	}
	if underlying.Code != http.StatusNotFound {
		t.Errorf("Underlying writer status = %d, want %d", underlying.Code, http.StatusNotFound)
	}
}

func TestHttpStatusRecorder_ImplicitOKWhenHeaderNotWritten(t *testing.T) {
	underlying := httptest.NewRecorder()
	rec := &HttpStatusRecorder{ResponseWriter: underlying, Status: 200}

	var w http.ResponseWriter = rec
	if _, err := w.Write([]byte("ok")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if rec.Status != http.StatusOK {
		t.Errorf("Recorder status = %d, want implicit %d", rec.Status, http.StatusOK)
	}
}
