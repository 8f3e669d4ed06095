package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/iblviewer/internal/engine/gpu/gputest"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
}

func TestCaptureFromPixelsFlipsRows(t *testing.T) {
	dir := t.TempDir()
	sc := NewScreenshotCapture(dir, "shot")
	sc.now = fixedClock

	// Bottom row red, top row blue.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	name, err := sc.CaptureFromPixels(pixels, 1, 2)
	if err != nil {
		t.Fatalf("CaptureFromPixels: %v", err)
	}
	if want := filepath.Join(dir, "shot_2024-05-01_12-30-00.png"); name != want {
		t.Errorf("filename %q, want %q", name, want)
	}

	f, err := os.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, _, b, _ := img.At(0, 0).RGBA()
	if b>>8 != 255 || r != 0 {
		t.Errorf("top pixel should be blue, got r=%d b=%d", r>>8, b>>8)
	}
	r, _, _, _ = img.At(0, 1).RGBA()
	if r>>8 != 255 {
		t.Error("bottom pixel should be red")
	}
}

func TestCaptureFromPixelsSizeMismatch(t *testing.T) {
	sc := NewScreenshotCapture(t.TempDir(), "shot")
	if _, err := sc.CaptureFromPixels([]byte{1, 2, 3}, 1, 1); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestCaptureUniqueNames(t *testing.T) {
	dir := t.TempDir()
	sc := NewScreenshotCapture(dir, "shot")
	sc.now = fixedClock
	pixels := []byte{0, 0, 0, 255}

	first, err := sc.CaptureFromPixels(pixels, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := sc.CaptureFromPixels(pixels, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Errorf("captures in the same second share %q", first)
	}
	if want := filepath.Join(dir, "shot_2024-05-01_12-30-00_1.png"); second != want {
		t.Errorf("second name %q, want %q", second, want)
	}
}

func TestCaptureReadsBackBuffer(t *testing.T) {
	rec := gputest.New()
	rec.SetBackBuffer([]byte{10, 20, 30, 255, 40, 50, 60, 255})

	sc := NewScreenshotCapture(filepath.Join(t.TempDir(), "nested"), "shot")
	name, err := sc.Capture(rec, 2, 1)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if _, err := os.Stat(name); err != nil {
		t.Errorf("screenshot not written: %v", err)
	}

	if _, err := sc.Capture(rec, 4, 4); err == nil {
		t.Error("expected an error when the back buffer size differs")
	}
}
