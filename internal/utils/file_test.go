package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsImageFile(t *testing.T) {
	valid := []string{"photo.jpg", "photo.JPG", "photo.jpeg", "scan.PNG", "a.b.png"}
	for _, name := range valid {
		if !IsImageFile(name) {
			t.Errorf("Expected %s to be accepted", name)
		}
	}

	invalid := []string{"photo.gif", "photo.webp", "notes.txt", "jpg", "photo"}
	for _, name := range invalid {
		if IsImageFile(name) {
			t.Errorf("Expected %s to be rejected", name)
		}
	}
}

func TestListImageFilesFlat(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.png", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// Nested images must not be picked up.
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "d.jpg"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := ListImageFiles(dir)
	if err != nil {
		t.Fatalf("ListImageFiles failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("Expected 2 images, got %d: %v", len(files), files)
	}
}

func TestListImageFilesMissingDir(t *testing.T) {
	if _, err := ListImageFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("/in/dir/face.jpg", "/out")
	want := filepath.Join("/out", "face.jpg")
	if got != want {
		t.Errorf("OutputPath = %s, want %s", got, want)
	}
}

func TestCopyFileByteIdentical(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")

	payload := []byte{0xff, 0xd8, 0x00, 0x42, 0xff, 0xd9}
	if err := os.WriteFile(src, payload, 0644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Error("Expected copy to be byte-identical to source")
	}
}
