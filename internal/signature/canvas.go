package signature

import (
	"bytes"
	"image/png"

	"github.com/fogleman/gg"
	"github.com/h2non/filetype"

	"github.com/arcline/studio-backend/internal/pkg/apperror"
)

const (
	// Размер итогового растра фиксирован: подпись встраивается в документ
	// в блок предсказуемого размера.
	CanvasWidth  = 600
	CanvasHeight = 200

	strokeWidth = 2.5
)

// Point — точка штриха в координатах устройства ввода.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Canvas накапливает штрихи подписи и умеет отдавать их как PNG-растр.
// Это явное значение, а не поверхность рисования: состояние полностью
// описывается списком штрихов плюс опционально загруженной сохранённой
// подписью, поэтому захват тестируется без графического окружения.
type Canvas struct {
	width   int
	height  int
	scaleX  float64
	scaleY  float64
	strokes [][]Point
	current []Point
	saved   []byte
}

// NewCanvas создаёт пустой холст фиксированного разрешения.
func NewCanvas() *Canvas {
	return &Canvas{
		width:  CanvasWidth,
		height: CanvasHeight,
		scaleX: 1,
		scaleY: 1,
	}
}

// SetDisplaySize задаёт отображаемый размер холста на устройстве ввода.
// Координаты точек нормализуются к разрешению растра.
func (c *Canvas) SetDisplaySize(width, height float64) {
	if width > 0 {
		c.scaleX = float64(c.width) / width
	}
	if height > 0 {
		c.scaleY = float64(c.height) / height
	}
}

// BeginStroke начинает новый штрих. Первый штрих вытесняет загруженную
// сохранённую подпись без явной очистки.
func (c *Canvas) BeginStroke(x, y float64) {
	if len(c.strokes) == 0 && c.current == nil {
		c.saved = nil
	}
	c.current = []Point{c.normalize(x, y)}
}

// AppendPoint добавляет точку к текущему штриху.
func (c *Canvas) AppendPoint(x, y float64) {
	if c.current == nil {
		return
	}
	c.current = append(c.current, c.normalize(x, y))
}

// EndStroke фиксирует текущий штрих.
func (c *Canvas) EndStroke() {
	if c.current == nil {
		return
	}
	c.strokes = append(c.strokes, c.current)
	c.current = nil
}

// Clear сбрасывает холст к чистой белой поверхности.
func (c *Canvas) Clear() {
	c.strokes = nil
	c.current = nil
	c.saved = nil
}

// HasInk сообщает, есть ли на холсте подпись: зафиксированный штрих или
// загруженная сохранённая подпись. Пустая подпись не подлежит отправке.
func (c *Canvas) HasInk() bool {
	return len(c.strokes) > 0 || c.saved != nil
}

// LoadSaved подкладывает ранее сохранённую подпись, если пользователь ещё
// не начал рисовать в текущей сессии.
func (c *Canvas) LoadSaved(raster []byte) error {
	if len(c.strokes) > 0 || c.current != nil {
		return nil
	}
	if len(raster) == 0 {
		return apperror.ErrSavedSignatureMissing
	}
	if !filetype.IsImage(raster) {
		return apperror.New(apperror.ErrCodeValidation, "сохранённая подпись повреждена: ожидается изображение")
	}
	c.saved = raster
	return nil
}

// Export отдаёт текущее содержимое холста как PNG для встраивания в документ.
func (c *Canvas) Export() ([]byte, error) {
	if !c.HasInk() {
		return nil, apperror.ErrEmptySignature
	}

	if len(c.strokes) == 0 {
		return c.saved, nil
	}

	dc := gg.NewContext(c.width, c.height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(strokeWidth)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	for _, stroke := range c.strokes {
		if len(stroke) == 1 {
			// Одиночное касание рисуем точкой.
			dc.DrawCircle(stroke[0].X, stroke[0].Y, strokeWidth/2)
			dc.Fill()
			continue
		}
		dc.MoveTo(stroke[0].X, stroke[0].Y)
		for _, p := range stroke[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.Stroke()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать подпись")
	}
	return buf.Bytes(), nil
}

func (c *Canvas) normalize(x, y float64) Point {
	return Point{X: x * c.scaleX, Y: y * c.scaleY}
}
