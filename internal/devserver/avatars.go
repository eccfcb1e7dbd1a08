package devserver

import (
	"bytes"
	"hash/fnv"
	"image"
	"image/color"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"aorify/internal/httputil"
)

const (
	avatarCanvas      = 32
	defaultAvatarSize = 100
	maxAvatarSize     = 2000
)

var avatarPalette = []color.NRGBA{
	{0xFD, 0x36, 0x6E, 0xFF},
	{0xFF, 0x8F, 0x00, 0xFF},
	{0x00, 0xA8, 0x6B, 0xFF},
	{0x1E, 0x88, 0xE5, 0xFF},
	{0x7E, 0x57, 0xC2, 0xFF},
	{0x26, 0xA6, 0x9A, 0xFF},
}

func (s *Server) initialsAvatar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	size := func(name string) (int, bool) {
		v := q.Get(name)
		if v == "" {
			return defaultAvatarSize, true
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxAvatarSize {
			return 0, false
		}
		return n, true
	}
	width, okW := size("width")
	height, okH := size("height")
	if !okW || !okH {
		httputil.WriteBadRequest(w, "Invalid `width` or `height` param: Value must be a valid range between 1 and "+strconv.Itoa(maxAvatarSize))
		return
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, renderInitials(q.Get("name"), width, height), imaging.PNG); err != nil {
		log.WithError(err).Error("encode avatar")
		httputil.WriteInternalError(w)
		return
	}
	writeBytes(w, "image/png", buf.Bytes())
}

// initials takes the first letter of the first two words.
func initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				out = append(out, unicode.ToUpper(r))
				break
			}
		}
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// renderInitials draws the initials on a small canvas and scales it up.
func renderInitials(name string, width, height int) image.Image {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	bg := avatarPalette[h.Sum32()%uint32(len(avatarPalette))]

	canvas := imaging.New(avatarCanvas, avatarCanvas, bg)
	text := initials(name)
	if text != "" {
		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(color.White),
			Face: basicfont.Face7x13,
		}
		textWidth := d.MeasureString(text).Round()
		metrics := basicfont.Face7x13.Metrics()
		ascent, descent := metrics.Ascent.Round(), metrics.Descent.Round()
		d.Dot = fixed.P((avatarCanvas-textWidth)/2, (avatarCanvas-ascent-descent)/2+ascent)
		d.DrawString(text)
	}

	return imaging.Resize(canvas, width, height, imaging.NearestNeighbor)
}
