package st7789

import (
	"bytes"
	"image"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/bartola/st7789/rgb565"
)

// newTestDev builds a Dev against a recording SPI port so tests can assert
// the exact byte sequences put on the bus without physical hardware.
func newTestDev(t *testing.T, opts *Opts) (*Dev, *spitest.Record) {
	t.Helper()
	port := &spitest.Record{}
	dev, err := NewSPI(port, &gpiotest.Pin{N: "DC"}, opts)
	if err != nil {
		t.Fatalf("NewSPI: %v", err)
	}
	return dev, port
}

func TestOptsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts *Opts
		want string
	}{
		{"nil options (uses defaults)", nil, ""},
		{"valid 172x320", &Opts{W: 172, H: 320}, ""},
		{"valid 240x320 (full RAM)", &Opts{W: 240, H: 320}, ""},
		{"width zero", &Opts{W: 0, H: 320}, "st7789: width must be between 1 and 240"},
		{"width > 240", &Opts{W: 241, H: 320}, "st7789: width must be between 1 and 240"},
		{"height zero", &Opts{W: 172, H: 0}, "st7789: height must be between 1 and 320"},
		{"height > 320", &Opts{W: 172, H: 321}, "st7789: height must be between 1 and 320"},
		{"invalid rotation", &Opts{W: 172, H: 320, Rotation: 4}, "st7789: invalid rotation 4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSPI(&spitest.Record{}, &gpiotest.Pin{N: "DC"}, tt.opts)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("NewSPI: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.want {
				t.Fatalf("NewSPI error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestNewSPIRequiresDC(t *testing.T) {
	_, err := NewSPI(&spitest.Record{}, nil, &Opts{W: 4, H: 4})
	if err == nil || err.Error() != "st7789: dc pin is required" {
		t.Fatalf("NewSPI error = %v, want dc pin error", err)
	}
}

func TestInitSequence(t *testing.T) {
	rst := &gpiotest.Pin{N: "RST"}
	_, port := newTestDev(t, &Opts{W: 4, H: 4, RST: rst})

	// 4x4 panel centered in the 240x320 RAM: columns 118..121, rows 158..161.
	want := [][]byte{
		{swreset},
		{slpout},
		{colmod}, {colmod16bpp},
		{madctl}, {0x00},
		{invon},
		{noron},
		{caset}, {0x00, 118, 0x00, 121},
		{raset}, {0x00, 158, 0x00, 161},
		{ramwr},
		make([]byte, 4*4*2), // RAM clear
		{dispon},
	}

	if len(port.Ops) != len(want) {
		t.Fatalf("recorded %d ops, want %d", len(port.Ops), len(want))
	}
	for i, w := range want {
		if !bytes.Equal(port.Ops[i].W, w) {
			t.Errorf("op %d = %#v, want %#v", i, port.Ops[i].W, w)
		}
	}
	if rst.L != gpio.High {
		t.Error("RST should be left high after reset")
	}
}

func TestInitSequenceRotated(t *testing.T) {
	_, port := newTestDev(t, &Opts{W: 4, H: 8, Rotation: Rotation90})

	// A 4x8 panel centered in RAM sits at columns 118..121, rows 156..163.
	// At 90° the RAM clear must address the rotated 8x4 logical frame the
	// same way Write does: columns through the row offset and vice versa.
	want := [][]byte{
		{swreset},
		{slpout},
		{colmod}, {colmod16bpp},
		{madctl}, {madctlMX | madctlMV},
		{invon},
		{noron},
		{caset}, {0x00, 156, 0x00, 163},
		{raset}, {0x00, 118, 0x00, 121},
		{ramwr},
		make([]byte, 8*4*2),
		{dispon},
	}

	if len(port.Ops) != len(want) {
		t.Fatalf("recorded %d ops, want %d", len(port.Ops), len(want))
	}
	for i, w := range want {
		if !bytes.Equal(port.Ops[i].W, w) {
			t.Errorf("op %d = %#v, want %#v", i, port.Ops[i].W, w)
		}
	}
}

func TestWriteFrame(t *testing.T) {
	dev, port := newTestDev(t, &Opts{W: 4, H: 4})
	port.Ops = nil

	n, err := dev.Write(make([]byte, 4*4*2))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 32 {
		t.Fatalf("Write n = %d, want 32", n)
	}

	// A frame is always a full window followed by exactly w*h pixel words,
	// no matter what preceded it.
	want := [][]byte{
		{caset}, {0x00, 118, 0x00, 121},
		{raset}, {0x00, 158, 0x00, 161},
		{ramwr},
	}
	if len(port.Ops) < len(want) {
		t.Fatalf("recorded %d ops, want at least %d", len(port.Ops), len(want))
	}
	for i, w := range want {
		if !bytes.Equal(port.Ops[i].W, w) {
			t.Errorf("op %d = %#v, want %#v", i, port.Ops[i].W, w)
		}
	}
	pixels := 0
	for _, op := range port.Ops[len(want):] {
		pixels += len(op.W)
	}
	if pixels != 4*4*2 {
		t.Errorf("streamed %d pixel bytes, want %d", pixels, 4*4*2)
	}
}

func TestWriteInvalidFrameSize(t *testing.T) {
	dev, _ := newTestDev(t, &Opts{W: 4, H: 4})

	for _, n := range []int{0, 31, 33, 4 * 4} {
		if _, err := dev.Write(make([]byte, n)); err == nil {
			t.Errorf("Write with %d bytes should fail", n)
		} else if err.Error() != "st7789: invalid frame size" {
			t.Errorf("Write error = %v, want 'st7789: invalid frame size'", err)
		}
	}
}

func TestSetRotation(t *testing.T) {
	tests := []struct {
		r      Rotation
		remap  byte
		w, h   int16
		window []byte // CASET arguments of a following full-frame write
	}{
		{Rotation0, 0x00, 4, 8, []byte{0x00, 118, 0x00, 121}},
		{Rotation90, madctlMX | madctlMV, 8, 4, []byte{0x00, 156, 0x00, 163}},
		{Rotation180, madctlMX | madctlMY, 4, 8, []byte{0x00, 118, 0x00, 121}},
		{Rotation270, madctlMY | madctlMV, 8, 4, []byte{0x00, 156, 0x00, 163}},
	}

	dev, port := newTestDev(t, &Opts{W: 4, H: 8})
	for _, tt := range tests {
		port.Ops = nil
		if err := dev.SetRotation(tt.r); err != nil {
			t.Fatalf("SetRotation(%d): %v", tt.r, err)
		}
		if len(port.Ops) != 2 || !bytes.Equal(port.Ops[1].W, []byte{tt.remap}) {
			t.Errorf("rotation %d: MADCTL ops = %#v, want remap %#02x", tt.r, port.Ops, tt.remap)
		}
		if w, h := dev.Size(); w != tt.w || h != tt.h {
			t.Errorf("rotation %d: Size() = %dx%d, want %dx%d", tt.r, w, h, tt.w, tt.h)
		}

		port.Ops = nil
		w, h := dev.Size()
		if _, err := dev.Write(make([]byte, int(w)*int(h)*2)); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if !bytes.Equal(port.Ops[1].W, tt.window) {
			t.Errorf("rotation %d: CASET args = %#v, want %#v", tt.r, port.Ops[1].W, tt.window)
		}
	}
}

func TestSetRotationAsymmetricOffsets(t *testing.T) {
	// A panel placed off-center in RAM: orientations that mirror an axis
	// (MX, MY) must measure its offset from the far edge, 240-4-10 = 226
	// columns and 320-8-20 = 292 rows.
	tests := []struct {
		r            Rotation
		caset, raset []byte
	}{
		{Rotation0, []byte{0x00, 10, 0x00, 13}, []byte{0x00, 20, 0x00, 27}},
		{Rotation90, []byte{0x00, 20, 0x00, 27}, []byte{0x00, 226, 0x00, 229}},
		{Rotation180, []byte{0x00, 226, 0x00, 229}, []byte{0x01, 36, 0x01, 43}},
		{Rotation270, []byte{0x01, 36, 0x01, 43}, []byte{0x00, 10, 0x00, 13}},
	}

	dev, port := newTestDev(t, &Opts{W: 4, H: 8, ColOffset: 10, RowOffset: 20})
	for _, tt := range tests {
		if err := dev.SetRotation(tt.r); err != nil {
			t.Fatalf("SetRotation(%d): %v", tt.r, err)
		}
		port.Ops = nil
		w, h := dev.Size()
		if _, err := dev.Write(make([]byte, int(w)*int(h)*2)); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if !bytes.Equal(port.Ops[1].W, tt.caset) {
			t.Errorf("rotation %d: CASET args = %#v, want %#v", tt.r, port.Ops[1].W, tt.caset)
		}
		if !bytes.Equal(port.Ops[3].W, tt.raset) {
			t.Errorf("rotation %d: RASET args = %#v, want %#v", tt.r, port.Ops[3].W, tt.raset)
		}
	}
}

func TestSetRotationInvalid(t *testing.T) {
	dev, port := newTestDev(t, &Opts{W: 4, H: 8, Rotation: Rotation90})
	port.Ops = nil

	err := dev.SetRotation(4)
	if err == nil || err.Error() != "st7789: invalid rotation 4" {
		t.Fatalf("SetRotation(4) error = %v, want invalid rotation", err)
	}
	if len(port.Ops) != 0 {
		t.Error("invalid rotation must not touch the bus")
	}
	if dev.Rotation() != Rotation90 {
		t.Errorf("Rotation() = %d, want unchanged Rotation90", dev.Rotation())
	}
	// The addressing offsets must be intact: a 90° 4x8 panel maps columns
	// through the row offset.
	port.Ops = nil
	if _, err := dev.Write(make([]byte, 4*8*2)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if want := []byte{0x00, 156, 0x00, 163}; !bytes.Equal(port.Ops[1].W, want) {
		t.Errorf("CASET args = %#v, want %#v", port.Ops[1].W, want)
	}
}

func TestDrawRegion(t *testing.T) {
	dev, port := newTestDev(t, &Opts{W: 8, H: 8})
	port.Ops = nil

	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if err := dev.Draw(image.Rect(1, 1, 3, 3), src, image.Point{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	// 8x8 panel: column offset 116, row offset 156. Region 1..2 maps to
	// 117..118 and 157..158.
	want := [][]byte{
		{caset}, {0x00, 117, 0x00, 118},
		{raset}, {0x00, 157, 0x00, 158},
		{ramwr},
		make([]byte, 2*2*2),
	}
	if len(port.Ops) != len(want) {
		t.Fatalf("recorded %d ops, want %d", len(port.Ops), len(want))
	}
	for i, w := range want {
		if !bytes.Equal(port.Ops[i].W, w) {
			t.Errorf("op %d = %#v, want %#v", i, port.Ops[i].W, w)
		}
	}
}

func TestDrawFullFrameFastPath(t *testing.T) {
	dev, port := newTestDev(t, &Opts{W: 4, H: 4})
	port.Ops = nil

	img := rgb565.NewImage(dev.Bounds())
	img.SetRGB565(0, 0, rgb565.Red)
	if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	// ops: CASET + args, RASET + args, RAMWR, pixel data.
	if len(port.Ops) != 6 {
		t.Fatalf("recorded %d ops, want 6", len(port.Ops))
	}
	if !bytes.Equal(port.Ops[5].W, img.Pix) {
		t.Error("full-frame draw must stream the image buffer as-is")
	}
}

func TestInvertAndSleep(t *testing.T) {
	dev, port := newTestDev(t, &Opts{W: 4, H: 4})

	port.Ops = nil
	if err := dev.Invert(false); err != nil {
		t.Fatalf("Invert: %v", err)
	}
	if err := dev.Invert(true); err != nil {
		t.Fatalf("Invert: %v", err)
	}
	if err := dev.Sleep(true); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	want := [][]byte{{invoff}, {invon}, {slpin}}
	for i, w := range want {
		if !bytes.Equal(port.Ops[i].W, w) {
			t.Errorf("op %d = %#v, want %#v", i, port.Ops[i].W, w)
		}
	}
}

func TestHalt(t *testing.T) {
	dev, _ := newTestDev(t, &Opts{W: 4, H: 4})

	if err := dev.Halt(); err != nil {
		t.Fatalf("Halt: %v", err)
	}

	if _, err := dev.Write(make([]byte, 4*4*2)); err == nil {
		t.Error("Write should fail when halted")
	}
	if err := dev.SetRotation(Rotation90); err == nil {
		t.Error("SetRotation should fail when halted")
	}
	if err := dev.Invert(true); err == nil {
		t.Error("Invert should fail when halted")
	}
	if err := dev.Sleep(true); err == nil {
		t.Error("Sleep should fail when halted")
	}
	if err := dev.Draw(dev.Bounds(), image.NewRGBA(dev.Bounds()), image.Point{}); err == nil {
		t.Error("Draw should fail when halted")
	}
}

func TestEnableBacklight(t *testing.T) {
	bl := &gpiotest.Pin{N: "BL"}
	dev, _ := newTestDev(t, &Opts{W: 4, H: 4, BL: bl})
	if bl.L != gpio.High {
		t.Error("backlight should be on after init")
	}
	if err := dev.EnableBacklight(false); err != nil {
		t.Fatalf("EnableBacklight: %v", err)
	}
	if bl.L != gpio.Low {
		t.Error("backlight should be off")
	}

	noBL, _ := newTestDev(t, &Opts{W: 4, H: 4})
	if err := noBL.EnableBacklight(true); err == nil {
		t.Error("EnableBacklight without a pin should fail")
	}

	if err := dev.Halt(); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if err := dev.EnableBacklight(true); err == nil {
		t.Error("EnableBacklight should fail when halted")
	}
	if bl.L != gpio.Low {
		t.Error("backlight must stay off after Halt")
	}
}

func TestDevBounds(t *testing.T) {
	dev, _ := newTestDev(t, &Opts{W: 172, H: 320})
	if want := image.Rect(0, 0, 172, 320); dev.Bounds() != want {
		t.Errorf("Bounds() = %v, want %v", dev.Bounds(), want)
	}
	if dev.ColorModel() != rgb565.Model {
		t.Error("ColorModel() did not return rgb565.Model")
	}
}

func TestDevString(t *testing.T) {
	dev, _ := newTestDev(t, &Opts{W: 172, H: 320})
	if got := dev.String(); got != "st7789.Dev{172x320}" {
		t.Errorf("String() = %q, want %q", got, "st7789.Dev{172x320}")
	}
}

func TestCenteringOffsets(t *testing.T) {
	tests := []struct {
		w, h             int
		wantCol, wantRow int
	}{
		{172, 320, 34, 0}, // GMT147SPI
		{240, 320, 0, 0},  // full RAM
		{240, 240, 0, 40},
		{135, 240, 52, 40}, // 1.14" module, rounds down
	}
	for _, tt := range tests {
		dev, _ := newTestDev(t, &Opts{W: tt.w, H: tt.h})
		if dev.colOffset != tt.wantCol || dev.rowOffset != tt.wantRow {
			t.Errorf("%dx%d: offsets = (%d, %d), want (%d, %d)",
				tt.w, tt.h, dev.colOffset, dev.rowOffset, tt.wantCol, tt.wantRow)
		}
	}
}
