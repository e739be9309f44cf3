package render

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/couchcryptid/event-map-index/internal/domain"
)

// DateLayout formats event dates as d.m.yyyy without padding.
const DateLayout = "2.1.2006"

// DefaultQRSize is the QR code edge length in pixels.
const DefaultQRSize = 128

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("").
		Funcs(template.FuncMap{"join": joinNumbers}).
		ParseFS(templateFS, "templates/*.html.tmpl"),
)

// Card is one cell of the event grid.
type Card struct {
	Number int
	Date   string
	Name   string
	Place  string
	Map    string
	URL    string
	QRCode template.URL // data:image/png;base64,...
}

// Cards builds grid cells for resolved events, carrying each event's number
// from the run's numbering. eventURL is a fmt pattern with one %d for the
// event ID.
func Cards(resolutions []domain.Resolution, eventURL string, qrSize int) ([]Card, error) {
	if qrSize <= 0 {
		qrSize = DefaultQRSize
	}
	cards := make([]Card, 0, len(resolutions))
	for _, r := range resolutions {
		e := r.Event
		url := fmt.Sprintf(eventURL, e.ID)
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			return nil, fmt.Errorf("qr code for event %d: %w", e.ID, err)
		}
		c := Card{
			Number: r.Number,
			Name:   e.Name,
			Place:  strings.TrimSpace(e.Place),
			Map:    strings.TrimSpace(e.Map),
			URL:    url,
			QRCode: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
		}
		if !e.Date.IsZero() {
			c.Date = e.Date.Format(DateLayout)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// Grid writes the printable event grid.
func Grid(w io.Writer, title string, cards []Card) error {
	return templates.ExecuteTemplate(w, "grid.html.tmpl", struct {
		Title string
		Cards []Card
	}{title, cards})
}

// IndexPage writes a two-level index as a multi-column HTML page.
func IndexPage(w io.Writer, title string, idx domain.Index) error {
	return templates.ExecuteTemplate(w, "index.html.tmpl", struct {
		Title string
		Index domain.Index
	}{title, idx})
}

func joinNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
