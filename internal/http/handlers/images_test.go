package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"capellawish/internal/domain"
)

func multipartImageRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestImageUploadStoresBlob(t *testing.T) {
	blobs := newFakeBlobRepo()
	h := NewImageHandler(blobs, t.TempDir(), testLogger())

	data := []byte("not really a png, but bytes are bytes")
	rec := httptest.NewRecorder()
	h.Upload(rec, multipartImageRequest(t, "kettle.png", data))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Upload status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var blob domain.BlobImage
	if err := json.Unmarshal(rec.Body.Bytes(), &blob); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if blob.SHA256Hash != sha256Hex(data) {
		t.Errorf("sha256_hash = %q, want %q", blob.SHA256Hash, sha256Hex(data))
	}

	stored, err := os.ReadFile(blob.Path)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Errorf("stored file differs from uploaded bytes")
	}
}

func TestImageUploadDeduplicatesByContent(t *testing.T) {
	blobs := newFakeBlobRepo()
	h := NewImageHandler(blobs, t.TempDir(), testLogger())

	data := []byte("same bytes both times")

	first := httptest.NewRecorder()
	h.Upload(first, multipartImageRequest(t, "a.png", data))
	if first.Code != http.StatusCreated {
		t.Fatalf("first upload status = %d, want %d", first.Code, http.StatusCreated)
	}

	second := httptest.NewRecorder()
	h.Upload(second, multipartImageRequest(t, "other-name.png", data))
	if second.Code != http.StatusOK {
		t.Fatalf("second upload status = %d, want %d", second.Code, http.StatusOK)
	}

	var a, b domain.BlobImage
	if err := json.Unmarshal(first.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode first response: %v", err)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode second response: %v", err)
	}
	if a.SHA256Hash != b.SHA256Hash {
		t.Errorf("hashes differ: %q vs %q", a.SHA256Hash, b.SHA256Hash)
	}
	if a.Path != b.Path {
		t.Errorf("paths differ: %q vs %q", a.Path, b.Path)
	}
	if blobs.creates != 1 {
		t.Errorf("blob creates = %d, want 1", blobs.creates)
	}
	if len(blobs.blobs) != 1 {
		t.Errorf("stored blobs = %d, want 1", len(blobs.blobs))
	}
}

func TestImageUploadMissingFile(t *testing.T) {
	h := NewImageHandler(newFakeBlobRepo(), t.TempDir(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", nil)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Upload without file status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestImageGetServesStoredBytes(t *testing.T) {
	blobs := newFakeBlobRepo()
	h := NewImageHandler(blobs, t.TempDir(), testLogger())

	data := []byte("served back verbatim")
	rec := httptest.NewRecorder()
	h.Upload(rec, multipartImageRequest(t, "kettle.png", data))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, want %d", rec.Code, http.StatusCreated)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/images/"+sha256Hex(data), nil)
	req.SetPathValue("hash", sha256Hex(data))
	got := httptest.NewRecorder()
	h.Get(got, req)

	if got.Code != http.StatusOK {
		t.Fatalf("Get status = %d, want %d", got.Code, http.StatusOK)
	}
	if !bytes.Equal(got.Body.Bytes(), data) {
		t.Errorf("served bytes differ from uploaded bytes")
	}
}

func TestImageGetRejectsBadHash(t *testing.T) {
	h := NewImageHandler(newFakeBlobRepo(), t.TempDir(), testLogger())

	tests := []struct {
		name string
		hash string
		want int
	}{
		{"Too short", "abc123", http.StatusBadRequest},
		{"Uppercase", "ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789", http.StatusBadRequest},
		{"Path traversal", "../../../etc/passwd", http.StatusBadRequest},
		{"Unknown but well-formed", sha256Hex([]byte("never uploaded")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/images/hash", nil)
			req.SetPathValue("hash", tt.hash)
			rec := httptest.NewRecorder()
			h.Get(rec, req)

			if rec.Code != tt.want {
				t.Errorf("Get(%q) status = %d, want %d", tt.hash, rec.Code, tt.want)
			}
		})
	}
}
