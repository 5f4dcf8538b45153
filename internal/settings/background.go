package settings

import (
	"net/url"
	"strconv"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sadopc/nexus/internal/store"
)

const (
	photoEndpoint = "https://source.unsplash.com/1920x1080/"
	defaultQuery  = "nature,landscape"
)

// PhotoURL is a random-photo request for query. now busts caches between
// requests made on the same day.
func PhotoURL(query string, now time.Time) string {
	if query == "" {
		query = defaultQuery
	}
	return photoEndpoint + "?" + url.QueryEscape(query) + "&t=" + strconv.FormatInt(now.UnixMilli(), 10)
}

// RefreshPhoto picks a new photo for a photo background when none is stored
// or the stored one is from another day. It reports whether bg changed.
func RefreshPhoto(bg store.BackgroundSettings, now time.Time) (store.BackgroundSettings, bool) {
	if bg.Type != store.BackgroundPhoto {
		return bg, false
	}
	today := store.Day(now)
	if bg.LastPhotoURL != "" && bg.LastPhotoDate == today {
		return bg, false
	}
	bg.LastPhotoURL = PhotoURL(bg.UnsplashQuery, now)
	bg.LastPhotoDate = today
	return bg, true
}

const (
	fallbackStart = "#0f0c29"
	fallbackEnd   = "#302b63"
)

// Palette returns n hex colors that paint bg from left to right. Photo
// backgrounds cannot be drawn in a terminal and use the default gradient.
func Palette(bg store.BackgroundSettings, n int) []string {
	if n <= 0 {
		return nil
	}
	start, end := bg.GradientStart, bg.GradientEnd
	switch bg.Type {
	case store.BackgroundSolid:
		start, end = bg.SolidColor, bg.SolidColor
	case store.BackgroundPhoto:
		start, end = fallbackStart, fallbackEnd
	}

	c1, err := colorful.Hex(start)
	if err != nil {
		c1, _ = colorful.Hex(fallbackStart)
	}
	c2, err := colorful.Hex(end)
	if err != nil {
		c2, _ = colorful.Hex(fallbackEnd)
	}

	out := make([]string, n)
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = c1.BlendLab(c2, t).Clamped().Hex()
	}
	return out
}

// OverlayAlpha is how strongly the theme background covers bg, in [0, 1].
func OverlayAlpha(bg store.BackgroundSettings) float64 {
	if bg.Opacity <= 0 {
		return 0
	}
	return float64(100-bg.Opacity) / 100
}
