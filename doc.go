// Package st7789 controls an ST7789 TFT LCD panel via SPI.
//
// The ST7789 is a 16-bit color (RGB565) LCD controller with a 240×320 frame
// memory. This driver implements the display.Drawer interface from periph.io.
//
// # Display Characteristics
//
// - 16-bit RGB565 color (65536 colors)
// - 240×320 internal frame memory with automatic centering for smaller panels
// - Support for various panel sizes (172×320, 240×240, 135×240, ...)
// - Four orientations in 90° steps
// - Display inversion and sleep mode
//
// # Hardware Connection
//
// Connect the panel to your system via SPI:
//
//	Panel Pin → System Pin
//	GND       → GND
//	VCC       → 3.3V
//	SCL       → SPI Clock (SCLK)
//	SDA       → SPI Data (MOSI)
//	DC        → GPIO (any available pin)
//	CS        → SPI Chip Select (or GND if always selected)
//	RES       → Optional: GPIO for hardware reset
//	BLK       → Optional: GPIO for backlight (often tied to VCC on the PCB)
//
// # Basic Usage
//
// Example of creating and using the panel with the gfx framebuffer layer:
//
//	package main
//
//	import (
//		"image/color"
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"github.com/bartola/st7789"
//		"github.com/bartola/st7789/gfx"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		// Initialize periph.io
//		host.Init()
//
//		// Open SPI bus
//		spiBus, _ := spireg.Open("")
//
//		// Get Data/Command GPIO pin
//		dcPin := gpioreg.ByName("GPIO25")
//
//		// Create device (172x320 GMT147SPI panel)
//		dev, _ := st7789.NewSPI(spiBus, dcPin, nil)
//		defer dev.Halt()
//
//		// Draw into the framebuffer, then flush to the glass
//		disp := gfx.New(dev, nil)
//		disp.FillScreen(color.RGBA{A: 255})
//		disp.SetTextSize(2)
//		disp.SetCursor(10, 30)
//		disp.WriteString("Hello ST7789!")
//		disp.Flush()
//	}
//
// # Using Hardware Reset Pin (Optional)
//
// If the panel's reset (RES) pin is connected to a GPIO, provide it in the
// Opts struct for clean hardware initialization:
//
//	rstPin := gpioreg.ByName("GPIO27")
//
//	dev, _ := st7789.NewSPI(spiBus, dcPin, &st7789.Opts{
//		W:   172,
//		H:   320,
//		RST: rstPin, // Optional reset pin
//	})
//
// The driver performs the hardware reset sequence during initialization. If
// RST is nil, the driver skips the hardware reset and relies on power-on
// reset.
//
// # Drawing Modes
//
// The driver supports three drawing modes:
//
// ## Framebuffer (gfx package)
//
// Draw shapes and text into an in-memory buffer, then flush the whole frame
// in one transfer. Nothing is visible until Flush is called, so there is
// never visible tearing between drawing operations:
//
//	disp := gfx.New(dev, nil)
//	disp.DrawCircle(86, 160, 50, color.RGBA{R: 255, A: 255})
//	disp.Flush()
//
// ## Full-Frame Update
//
// Write raw pixel data directly to the panel. Use this for maximum
// performance when a full RGB565 frame already exists:
//
//	pixels := make([]byte, 172*320*2) // big-endian RGB565, row-major
//	// ... fill pixels ...
//	dev.Write(pixels)
//
// ## Image Drawing
//
// Use the Draw method with any image.Image. A full-frame *rgb565.Image is
// streamed as-is; anything else is converted through the RGB565 color model:
//
//	dev.Draw(dev.Bounds(), myImage, image.Point{})
//
// # RGB565 Colors
//
// The panel uses 16-bit RGB565 words, 5 bits red, 6 bits green, 5 bits
// blue. Use the rgb565 package for direct pixel work:
//
//	red := rgb565.Red               // palette constant
//	teal := rgb565.New(0, 128, 128) // packed from 8-bit channels
//
// Standard Go colors are automatically converted to RGB565.
//
// # Rotation
//
// The panel can be rotated in 90° steps at runtime. The logical resolution
// swaps on 90° and 270°:
//
//	dev.SetRotation(st7789.Rotation90)
//	w, h := dev.Size() // now 320x172 for a 172x320 panel
//
// # Panel Resolution
//
// This driver supports configurable resolutions. Common options:
//
//	Opts{W: 172, H: 320} // GMT147SPI 1.47" (default)
//	Opts{W: 240, H: 320} // full controller RAM
//	Opts{W: 240, H: 240} // 1.3" square modules
//	Opts{W: 135, H: 240} // 1.14" modules
//
// Width must be ≤240 and height ≤320. Smaller panels are centered in the
// controller RAM; pass ColOffset/RowOffset for modules that are not.
//
// # Datasheet
//
// For detailed register descriptions and timing information, see:
// https://www.rhydolabz.com/documents/33/ST7789.pdf
//
// # Compatibility with periph.io
//
// This driver implements the display.Drawer interface from periph.io:
// https://pkg.go.dev/periph.io/x/conn/v3/display
//
// It can be used with any periph.io tool or library expecting a
// display.Drawer.
package st7789
