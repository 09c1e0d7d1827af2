package signature

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
)

func drawSample(c *Canvas) {
	c.BeginStroke(10, 10)
	c.AppendPoint(50, 40)
	c.AppendPoint(90, 10)
	c.EndStroke()
}

func validPNG(t *testing.T) []byte {
	t.Helper()
	c := NewCanvas()
	drawSample(c)
	raster, err := c.Export()
	assert.NoError(t, err)
	return raster
}

func TestCanvas_HasInk(t *testing.T) {
	c := NewCanvas()
	assert.False(t, c.HasInk())

	c.BeginStroke(1, 1)
	assert.False(t, c.HasInk(), "незавершённый штрих ещё не чернила")

	c.EndStroke()
	assert.True(t, c.HasInk())
}

func TestCanvas_ExportEmptyRefused(t *testing.T) {
	c := NewCanvas()
	_, err := c.Export()
	assert.Error(t, err)
}

func TestCanvas_Clear(t *testing.T) {
	c := NewCanvas()
	drawSample(c)
	c.Clear()
	assert.False(t, c.HasInk())
}

func TestCanvas_ExportIsPNGOfCanvasSize(t *testing.T) {
	c := NewCanvas()
	drawSample(c)

	raster, err := c.Export()
	assert.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raster))
	assert.NoError(t, err)
	assert.Equal(t, CanvasWidth, img.Bounds().Dx())
	assert.Equal(t, CanvasHeight, img.Bounds().Dy())
}

func TestCanvas_ExportDeterministic(t *testing.T) {
	first := NewCanvas()
	second := NewCanvas()
	drawSample(first)
	drawSample(second)

	a, err := first.Export()
	assert.NoError(t, err)
	b, err := second.Export()
	assert.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanvas_LoadSaved(t *testing.T) {
	saved := validPNG(t)

	c := NewCanvas()
	assert.NoError(t, c.LoadSaved(saved))
	assert.True(t, c.HasInk())

	// Без новых штрихов экспорт отдаёт сохранённый растр как есть.
	raster, err := c.Export()
	assert.NoError(t, err)
	assert.Equal(t, saved, raster)
}

func TestCanvas_LoadSavedMissing(t *testing.T) {
	c := NewCanvas()
	assert.Error(t, c.LoadSaved(nil))
	assert.Error(t, c.LoadSaved([]byte("не изображение")))
}

func TestCanvas_NewStrokeOverridesSaved(t *testing.T) {
	saved := validPNG(t)

	c := NewCanvas()
	assert.NoError(t, c.LoadSaved(saved))

	// Первый штрих вытесняет сохранённую подпись без явной очистки.
	c.BeginStroke(5, 5)
	c.AppendPoint(20, 20)
	c.EndStroke()

	raster, err := c.Export()
	assert.NoError(t, err)
	assert.NotEqual(t, saved, raster)
}

func TestCanvas_LoadSavedIgnoredAfterDrawing(t *testing.T) {
	saved := validPNG(t)

	c := NewCanvas()
	c.BeginStroke(100, 100)
	c.AppendPoint(200, 150)
	c.EndStroke()
	assert.NoError(t, c.LoadSaved(saved), "после начала рисования загрузка тихо пропускается")

	raster, err := c.Export()
	assert.NoError(t, err)
	assert.NotEqual(t, saved, raster)
}

func TestCanvas_DisplayScaleNormalization(t *testing.T) {
	// Один и тот же жест на холстах разного отображаемого размера даёт
	// одинаковый растр.
	a := NewCanvas()
	a.SetDisplaySize(600, 200)
	drawSample(a)

	b := NewCanvas()
	b.SetDisplaySize(300, 100)
	b.BeginStroke(5, 5)
	b.AppendPoint(25, 20)
	b.AppendPoint(45, 5)
	b.EndStroke()

	ra, err := a.Export()
	assert.NoError(t, err)
	rb, err := b.Export()
	assert.NoError(t, err)
	assert.Equal(t, ra, rb)
}
