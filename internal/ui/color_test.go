package ui

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

// captureColorOutput captures output from the color package.
// The color package uses color.Output which defaults to os.Stdout.
func captureColorOutput(fn func()) string {
	// Save original state
	oldNoColor := color.NoColor
	oldOutput := color.Output

	// Configure for testing
	color.NoColor = true

	// Create pipe
	r, w, _ := os.Pipe()

	// Set color.Output to our pipe
	color.Output = w

	// Also redirect os.Stdout for fmt.Printf calls
	oldStdout := os.Stdout
	os.Stdout = w

	// Run the function
	fn()

	// Close writer
	w.Close()

	// Restore
	color.Output = oldOutput
	color.NoColor = oldNoColor
	os.Stdout = oldStdout

	// Read output
	var buf bytes.Buffer
	io.Copy(&buf, r)
	r.Close()

	return buf.String()
}

func TestSuccess(t *testing.T) {
	output := captureColorOutput(func() {
		Success("installed %s", "ccdb.ccdb")
	})
	assert.Contains(t, output, "installed ccdb.ccdb")
	assert.Contains(t, output, "\n")
}

func TestError(t *testing.T) {
	output := captureColorOutput(func() {
		Error("failed with code %d: %s", 1, "bundle missing")
	})
	assert.Contains(t, output, "failed with code 1: bundle missing")
}

func TestWarning(t *testing.T) {
	output := captureColorOutput(func() {
		Warning("be careful")
	})
	assert.Contains(t, output, "be careful")
}

func TestInfo(t *testing.T) {
	output := captureColorOutput(func() {
		Info("version: %s", "1.0.0")
	})
	assert.Contains(t, output, "version: 1.0.0")
}

func TestStep(t *testing.T) {
	output := captureColorOutput(func() {
		Step(3, "processing %s", "apply.yml")
	})
	assert.Contains(t, output, "[3]")
	assert.Contains(t, output, "processing apply.yml")
}

func TestHeader(t *testing.T) {
	output := captureColorOutput(func() {
		Header("Section Title")
	})
	assert.Contains(t, output, "Section Title")
}

func TestCargo(t *testing.T) {
	output := captureColorOutput(func() {
		Cargo("unpacked %d bundles", 2)
	})
	assert.Contains(t, output, "unpacked 2 bundles")
}

func TestColorVariables(t *testing.T) {
	// Test that color variables are initialized
	assert.NotNil(t, Red)
	assert.NotNil(t, Green)
	assert.NotNil(t, Yellow)
	assert.NotNil(t, Blue)
	assert.NotNil(t, Cyan)
	assert.NotNil(t, Bold)
}

func TestEmptyMessage(t *testing.T) {
	output := captureColorOutput(func() {
		Info("")
	})
	assert.Equal(t, "\n", output)
}

func TestMultipleMessages(t *testing.T) {
	output := captureColorOutput(func() {
		Info("line 1")
		Info("line 2")
	})
	assert.Contains(t, output, "line 1")
	assert.Contains(t, output, "line 2")
}
